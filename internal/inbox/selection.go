package inbox

import (
	"fmt"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Select opens the message with the given id and marks it read. The
// pointer is left unchanged if the id is unknown. Selecting an already
// read message changes nothing else.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(id); err != nil {
		return fmt.Errorf("select %s: %w", id, err)
	}
	s.selected = id

	changed, err := s.store.MarkRead(id)
	if err != nil {
		return fmt.Errorf("mark %s read: %w", id, err)
	}
	if changed {
		s.logger.Debug("message marked read", "message_id", id)
	}
	return nil
}

// ClearSelection returns to the nothing-selected state.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// Selected returns the id of the open message, if any.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Participant is an identity as shown in a conversation header.
// Unresolved ids keep Known=false and empty name and email.
type Participant struct {
	ID    string
	Name  string
	Email string
	Known bool
}

// Conversation is the open message with its participants resolved.
type Conversation struct {
	Message mailbox.Message
	From    Participant
	To      []Participant
	Cc      []Participant
}

// Conversation returns the selected message ready for display. It
// reports false when nothing is selected.
func (s *Session) Conversation() (Conversation, bool, error) {
	id, ok := s.Selected()
	if !ok {
		return Conversation{}, false, nil
	}
	msg, err := s.store.Get(id)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("load %s: %w", id, err)
	}

	c := Conversation{
		Message: msg,
		From:    s.participant(msg.FromID),
	}
	for _, rid := range msg.ToIDs {
		c.To = append(c.To, s.participant(rid))
	}
	for _, rid := range msg.CcIDs {
		c.Cc = append(c.Cc, s.participant(rid))
	}
	return c, true, nil
}

func (s *Session) participant(id string) Participant {
	p := Participant{ID: id}
	if s.dir == nil {
		return p
	}
	ident, found, err := s.dir.FindByID(id)
	if err != nil {
		s.logger.Warn("participant lookup failed", "identity_id", id, "error", err)
		return p
	}
	if found {
		p = participantOf(ident)
	}
	return p
}

func participantOf(ident identity.Identity) Participant {
	return Participant{ID: ident.ID, Name: ident.DisplayName, Email: ident.Email, Known: true}
}
