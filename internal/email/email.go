// Package email renders stored messages as RFC 5322 documents so they
// can leave the engine: saved to disk, or appended to an IMAP mailbox
// with the flags and special-use attribute that match their state.
package email

import (
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message/mail"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// MessageIDDomain is the right-hand side of generated Message-Id
// headers.
const MessageIDDomain = "thane-inbox.local"

// UnknownDomain stands in for the address of participants the
// directory cannot resolve.
const UnknownDomain = "unknown.invalid"

// Export is a rendered message together with the IMAP metadata an
// APPEND needs.
type Export struct {
	// Mailbox is the conventional IMAP mailbox name for the folder.
	Mailbox string

	// SpecialUse is the RFC 6154 attribute for the folder, or empty for
	// INBOX.
	SpecialUse imap.MailboxAttr

	// Flags reflects the read, starred and draft state.
	Flags []imap.Flag

	// Raw is the RFC 5322 document.
	Raw []byte
}

// NewExport renders msg and attaches its IMAP metadata.
func NewExport(msg mailbox.Message, dir identity.Directory) (*Export, error) {
	raw, err := Render(msg, dir)
	if err != nil {
		return nil, err
	}
	return &Export{
		Mailbox:    MailboxName(msg.Folder),
		SpecialUse: SpecialUse(msg.Folder),
		Flags:      Flags(msg),
		Raw:        raw,
	}, nil
}

// MailboxName maps a folder to the mailbox name most servers use.
func MailboxName(f mailbox.Folder) string {
	switch f {
	case mailbox.FolderSent:
		return "Sent"
	case mailbox.FolderDrafts:
		return "Drafts"
	case mailbox.FolderTrash:
		return "Trash"
	}
	return "INBOX"
}

// SpecialUse returns the special-use attribute for a folder.
func SpecialUse(f mailbox.Folder) imap.MailboxAttr {
	switch f {
	case mailbox.FolderSent:
		return imap.MailboxAttrSent
	case mailbox.FolderDrafts:
		return imap.MailboxAttrDrafts
	case mailbox.FolderTrash:
		return imap.MailboxAttrTrash
	}
	return ""
}

// Flags returns the system flags describing msg's state.
func Flags(msg mailbox.Message) []imap.Flag {
	var flags []imap.Flag
	if msg.IsRead {
		flags = append(flags, imap.FlagSeen)
	}
	if msg.IsStarred {
		flags = append(flags, imap.FlagFlagged)
	}
	if msg.Folder == mailbox.FolderDrafts {
		flags = append(flags, imap.FlagDraft)
	}
	return flags
}

// addressOf resolves an identity id to a mail address. Ids the
// directory does not know become "id@unknown.invalid".
func addressOf(dir identity.Directory, id string) (*mail.Address, error) {
	if dir != nil {
		ident, found, err := dir.FindByID(id)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
		if found && ident.Email != "" {
			return &mail.Address{Name: ident.DisplayName, Address: ident.Email}, nil
		}
	}
	return &mail.Address{Name: id, Address: id + "@" + UnknownDomain}, nil
}

func addressList(dir identity.Directory, ids []string) ([]*mail.Address, error) {
	result := make([]*mail.Address, 0, len(ids))
	for _, id := range ids {
		a, err := addressOf(dir, id)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
