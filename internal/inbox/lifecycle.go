package inbox

import (
	"errors"
	"fmt"

	"github.com/nugget/thane-inbox/internal/compose"
	"github.com/nugget/thane-inbox/internal/events"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// ErrNoDraft is returned by Send when the compose surface is closed.
var ErrNoDraft = errors.New("no draft open")

// Open discards any current draft and builds a new one for req. The
// returned draft is the session's live draft; edits to it are what
// Send will deliver. On error the surface is left closed.
func (s *Session) Open(req compose.Request) (*compose.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = nil
	d, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}
	s.draft = d

	s.logger.Debug("compose opened",
		"mode", d.Mode,
		"source_id", d.SourceID,
		"focus", FocusTarget(d.Mode),
	)
	return d, nil
}

// Close discards the current draft without saving it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// Current returns the open draft, if any.
func (s *Session) Current() (*compose.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.draft != nil
}

// FocusTarget returns the focus hint for mode.
func (s *Session) FocusTarget(mode compose.Mode) Focus {
	return FocusTarget(mode)
}

// Send turns the open draft into a message in SENT, publishes a
// message_sent notice and closes the draft. The draft is sent as-is:
// no recipient or content checks are made. If the store rejects the
// message the draft stays open.
func (s *Session) Send() (mailbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft
	if d == nil {
		return mailbox.Message{}, ErrNoDraft
	}

	id, err := s.newID()
	if err != nil {
		return mailbox.Message{}, err
	}

	msg := mailbox.Message{
		ID:        id,
		FromID:    s.builder.Me(),
		ToIDs:     d.To.IDs(),
		CcIDs:     d.Cc.IDs(),
		BccIDs:    d.Bcc.IDs(),
		Subject:   d.Subject,
		Body:      d.Body,
		CreatedAt: s.now(),
		IsRead:    true,
		Folder:    mailbox.FolderSent,
		Tags:      append([]string(nil), d.Tags...),
		Priority:  d.Priority,
	}
	if err := s.store.Append(msg); err != nil {
		return mailbox.Message{}, fmt.Errorf("send: %w", err)
	}
	s.draft = nil

	s.bus.Publish(events.Event{
		Timestamp: msg.CreatedAt,
		Source:    events.SourceInbox,
		Kind:      events.KindMessageSent,
		Data: map[string]any{
			"message_id": msg.ID,
			"folder":     string(msg.Folder),
			"recipients": len(d.AllRecipients()),
			"mode":       string(d.Mode),
		},
	})
	s.logger.Info("message sent", "message_id", msg.ID, "mode", d.Mode, "recipients", len(d.AllRecipients()))
	return msg, nil
}
