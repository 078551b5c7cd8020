package compose

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Subject prefixes added by replies and forwards.
const (
	ReplyPrefix   = "Re:"
	ForwardPrefix = "Fwd:"
)

// PreconditionError reports a compose request that is structurally
// incomplete, such as a reply without the message being replied to.
// No draft is produced when it is returned.
type PreconditionError struct {
	Mode   Mode
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("compose %s: %s", e.Mode, e.Reason)
}

// Request describes a compose action.
type Request struct {
	// Mode selects the derivation rules.
	Mode Mode

	// Source is the message being replied to or forwarded. Required for
	// every mode except ModeNew.
	Source *mailbox.Message

	// Preselected seeds the To field of a ModeNew draft, as when the
	// action came from a "message this person" shortcut.
	Preselected *identity.Identity
}

// Builder turns compose requests into drafts for one user.
type Builder struct {
	me     string
	dir    identity.Directory
	locale language.Tag
	logger *slog.Logger
}

// NewBuilder creates a builder acting for the identity me. locale
// controls date formatting in forward quotes.
func NewBuilder(me string, dir identity.Directory, locale language.Tag, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{me: me, dir: dir, locale: locale, logger: logger}
}

// Me returns the id of the user the builder acts for.
func (b *Builder) Me() string { return b.me }

// Build derives a fresh draft for req. It never mutates the source.
func (b *Builder) Build(req Request) (*Draft, error) {
	if !req.Mode.Valid() {
		return nil, &PreconditionError{Mode: req.Mode, Reason: "unknown compose mode"}
	}
	if req.Mode.NeedsSource() && req.Source == nil {
		return nil, &PreconditionError{Mode: req.Mode, Reason: "source message required"}
	}

	d := NewDraft(req.Mode)
	if req.Source != nil && req.Mode != ModeNew {
		d.SourceID = req.Source.ID
	}

	switch req.Mode {
	case ModeNew:
		if req.Preselected != nil {
			d.To.Add(*req.Preselected)
		}

	case ModeReply:
		d.To.AddID(req.Source.FromID)
		d.Subject = prefixSubject(ReplyPrefix, req.Source.Subject)

	case ModeReplyAll:
		b.replyAll(d, req.Source)
		d.Subject = prefixSubject(ReplyPrefix, req.Source.Subject)

	case ModeForward:
		d.Subject = prefixSubject(ForwardPrefix, req.Source.Subject)
		d.Body = BuildForwardBody(*req.Source, b.sender(req.Source.FromID), b.locale)
	}

	b.logger.Debug("draft built",
		"mode", d.Mode,
		"source_id", d.SourceID,
		"to", d.To.Len(),
		"cc", d.Cc.Len(),
	)
	return d, nil
}

// replyAll fills To with the sender followed by the original To list,
// leaving out the current user, and copies the original Cc list as-is.
func (b *Builder) replyAll(d *Draft, src *mailbox.Message) {
	for _, id := range append([]string{src.FromID}, src.ToIDs...) {
		if id != b.me {
			d.To.AddID(id)
		}
	}
	for _, id := range src.CcIDs {
		d.Cc.AddID(id)
	}
	d.CcVisible = len(src.CcIDs) > 0
}

// sender resolves the author of a message for display. Lookup failures
// degrade to the bare id with no email.
func (b *Builder) sender(id string) identity.Identity {
	fallback := identity.Identity{ID: id, DisplayName: id}
	if b.dir == nil {
		return fallback
	}
	ident, found, err := b.dir.FindByID(id)
	if err != nil {
		b.logger.Warn("sender lookup failed", "identity_id", id, "error", err)
		return fallback
	}
	if !found {
		return fallback
	}
	return ident
}

// prefixSubject adds prefix unless subject already starts with it.
func prefixSubject(prefix, subject string) string {
	if strings.HasPrefix(subject, prefix) {
		return subject
	}
	return prefix + " " + subject
}
