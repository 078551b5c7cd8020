// Package identity provides the directory of people and distribution
// groups that messages refer to by id. The inbox engine treats a
// Directory as read-only; implementations own identity lifecycle.
package identity

import (
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
	"golang.org/x/text/cases"
)

// Presence is an optional availability hint attached to an identity.
type Presence string

// Known presence values. An empty Presence means unknown.
const (
	PresenceOnline  Presence = "online"
	PresenceAway    Presence = "away"
	PresenceBusy    Presence = "busy"
	PresenceOffline Presence = "offline"
)

// Identity is a directory record for a user or group.
type Identity struct {
	ID          string   `yaml:"id" json:"id"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Email       string   `yaml:"email" json:"email"`
	Department  string   `yaml:"department,omitempty" json:"department,omitempty"`
	Role        string   `yaml:"role,omitempty" json:"role,omitempty"`
	Presence    Presence `yaml:"presence,omitempty" json:"presence,omitempty"`
}

// Directory looks up and searches identities. Not finding an id is a
// normal outcome reported as found=false with a nil error; a non-nil
// error means the directory itself could not be consulted.
type Directory interface {
	// FindByID returns the identity with the given id.
	FindByID(id string) (ident Identity, found bool, err error)

	// Search returns identities whose display name or email contains
	// query, case-insensitively, in relevance order.
	Search(query string) ([]Identity, error)
}

// Address formats the identity as "Name <addr>" for display.
func (i Identity) Address() string {
	if i.DisplayName == "" {
		return "<" + i.Email + ">"
	}
	return i.DisplayName + " <" + i.Email + ">"
}

// ParseEmail validates an address string and returns the bare
// address. Input may be "addr" or "Name <addr>".
func ParseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty email address")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("parse email %q: %w", s, err)
	}
	return addr.Address, nil
}

// Validate checks the fields every directory requires.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("identity id must not be empty")
	}
	if i.Email != "" {
		if _, err := ParseEmail(i.Email); err != nil {
			return fmt.Errorf("identity %s: %w", i.ID, err)
		}
	}
	return nil
}

// fold returns s case-folded for caseless comparison. A new Caser is
// created per call because Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(s)
}

// rank scores how well an identity matches a folded query. Lower is
// better; -1 means no match.
//
//	0  display name starts with query
//	1  a later word of the display name starts with query
//	2  email starts with query
//	3  query appears anywhere in display name or email
func rank(ident Identity, q string) int {
	name := fold(ident.DisplayName)
	email := fold(ident.Email)

	switch {
	case strings.HasPrefix(name, q):
		return 0
	case wordPrefix(name, q):
		return 1
	case strings.HasPrefix(email, q):
		return 2
	case strings.Contains(name, q) || strings.Contains(email, q):
		return 3
	}
	return -1
}

func wordPrefix(s, q string) bool {
	for _, w := range strings.Fields(s) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}
