// Package seed loads YAML fixtures of identities and messages. The mail
// engine has no persistence of its own; a fixture is how a session gets
// its starting mailbox.
package seed

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Fixture is the decoded content of a seed file.
type Fixture struct {
	Identities []identity.Identity `yaml:"identities"`
	Messages   []mailbox.Message   `yaml:"messages"`
}

// Read decodes a fixture. Unknown keys are rejected so that typos in
// hand-written fixtures surface instead of silently dropping data.
func Read(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for i := range f.Messages {
		if f.Messages[i].Folder == "" {
			f.Messages[i].Folder = mailbox.FolderInbox
		}
	}
	return &f, nil
}

// Load reads the fixture at path.
func Load(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// PutFunc stores one identity in a directory, such as
// (*identity.MemoryDirectory).Put or (*identity.SQLiteDirectory).Upsert.
type PutFunc func(identity.Identity) error

// Result counts what Apply loaded.
type Result struct {
	Identities int
	Messages   int
}

// Apply stores the fixture's identities with put and appends its
// messages to store, in file order. It stops at the first rejected
// record; records before it stay loaded. put may be nil to skip
// identities. A nil logger means slog.Default().
func (f *Fixture) Apply(store *mailbox.Store, put PutFunc, logger *slog.Logger) (Result, error) {
	var res Result
	if logger == nil {
		logger = slog.Default()
	}

	if put != nil {
		for _, ident := range f.Identities {
			if err := put(ident); err != nil {
				return res, fmt.Errorf("identity %q: %w", ident.ID, err)
			}
			res.Identities++
		}
	}

	for _, msg := range f.Messages {
		if err := store.Append(msg); err != nil {
			return res, fmt.Errorf("message %q: %w", msg.ID, err)
		}
		res.Messages++
	}

	logger.Info("fixture loaded", "identities", res.Identities, "messages", res.Messages)
	return res, nil
}
