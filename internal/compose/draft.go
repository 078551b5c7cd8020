// Package compose derives drafts from compose actions. Building a draft
// is a pure function of the mode, the source message and the identity
// directory; holding the draft while the user edits it is the inbox
// session's job.
package compose

import (
	"fmt"
	"strings"

	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Mode is the action that opened the compose surface.
type Mode string

// Compose modes.
const (
	ModeNew      Mode = "NEW"
	ModeReply    Mode = "REPLY"
	ModeReplyAll Mode = "REPLY_ALL"
	ModeForward  Mode = "FORWARD"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNew, ModeReply, ModeReplyAll, ModeForward:
		return true
	}
	return false
}

// NeedsSource reports whether the mode derives from an existing message.
func (m Mode) NeedsSource() bool {
	return m == ModeReply || m == ModeReplyAll || m == ModeForward
}

// ParseMode accepts the mode names case-insensitively, with "-" allowed
// in place of "_" (e.g. "reply-all").
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !m.Valid() {
		return "", fmt.Errorf("unknown compose mode %q (valid: new, reply, reply-all, forward)", s)
	}
	return m, nil
}

// Draft is the in-progress composition. It exists only while the
// compose surface is open.
type Draft struct {
	Mode Mode

	// SourceID is the message a reply or forward was derived from.
	SourceID string

	To  *RecipientSet
	Cc  *RecipientSet
	Bcc *RecipientSet

	Subject  string
	Body     string
	Priority mailbox.Priority
	Tags     []string

	CcVisible  bool
	BccVisible bool
}

// NewDraft returns a draft in mode with every field at its default.
func NewDraft(mode Mode) *Draft {
	return &Draft{
		Mode:     mode,
		To:       &RecipientSet{},
		Cc:       &RecipientSet{},
		Bcc:      &RecipientSet{},
		Priority: mailbox.PriorityNormal,
	}
}

// ShowCc reveals the Cc field.
func (d *Draft) ShowCc() { d.CcVisible = true }

// ShowBcc reveals the Bcc field.
func (d *Draft) ShowBcc() { d.BccVisible = true }

// AddTag appends tag unless it is blank or already present.
func (d *Draft) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, t := range d.Tags {
		if t == tag {
			return
		}
	}
	d.Tags = append(d.Tags, tag)
}

// RemoveTag deletes tag if present.
func (d *Draft) RemoveTag(tag string) {
	for i, t := range d.Tags {
		if t == tag {
			d.Tags = append(d.Tags[:i], d.Tags[i+1:]...)
			return
		}
	}
}

// AllRecipients returns the To, Cc and Bcc ids in that order with
// repeats across fields removed.
func (d *Draft) AllRecipients() []string {
	all := NewRecipientSet(d.To.IDs()...)
	for _, id := range d.Cc.IDs() {
		all.AddID(id)
	}
	for _, id := range d.Bcc.IDs() {
		all.AddID(id)
	}
	return all.IDs()
}
