// Package inbox holds the stateful half of the mail engine: which
// conversation is open, and the single compose draft. Draft derivation
// itself lives in package compose; storage in package mailbox.
//
// A Session is meant for one user driving one UI. Its methods run to
// completion synchronously and start no goroutines.
package inbox

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nugget/thane-inbox/internal/compose"
	"github.com/nugget/thane-inbox/internal/events"
	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Focus is a hint telling the presentation layer which field should
// take keyboard focus when the compose surface opens.
type Focus string

// Focus targets.
const (
	FocusRecipients Focus = "RECIPIENTS"
	FocusBodyStart  Focus = "BODY_START"
)

// FocusTarget returns the field to focus for a draft opened in mode.
// Replies start typing at the top of the body; everything else starts
// at the recipients.
func FocusTarget(mode compose.Mode) Focus {
	if mode == compose.ModeReply || mode == compose.ModeReplyAll {
		return FocusBodyStart
	}
	return FocusRecipients
}

// Config wires a Session to its collaborators.
type Config struct {
	Store     *mailbox.Store
	Directory identity.Directory
	Builder   *compose.Builder
	Bus       *events.Bus
	Logger    *slog.Logger

	// Now returns the current time for sent messages. Defaults to
	// time.Now.
	Now func() time.Time

	// NewID returns ids for sent messages. Defaults to UUIDv7 strings.
	NewID func() (string, error)
}

// Session owns the selection pointer and the open draft.
type Session struct {
	store   *mailbox.Store
	dir     identity.Directory
	builder *compose.Builder
	bus     *events.Bus
	logger  *slog.Logger
	now     func() time.Time
	newID   func() (string, error)

	mu       sync.Mutex
	selected string
	draft    *compose.Draft
}

// NewSession creates a session with nothing selected and no draft.
func NewSession(cfg Config) *Session {
	s := &Session{
		store:   cfg.Store,
		dir:     cfg.Directory,
		builder: cfg.Builder,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
		now:     cfg.Now,
		newID:   cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newMessageID
	}
	return s
}

func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	return id.String(), nil
}

// Me returns the id of the user this session acts for.
func (s *Session) Me() string {
	return s.builder.Me()
}
