package mailbox

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nugget/thane-inbox/internal/identity"
)

// Filter decides whether a message is included in a listing.
type Filter func(Message) bool

// TextFilter matches messages whose subject, sender display name,
// sender email or body contains query, ignoring case. The query is
// trimmed first; a blank query returns nil, which ListByFolder treats
// as match-all. Sender fields that cannot be resolved through dir are
// skipped, and lookup errors are logged.
func TextFilter(dir identity.Directory, query string, logger *slog.Logger) Filter {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	needle := cases.Fold().String(q)
	if logger == nil {
		logger = slog.Default()
	}

	return func(m Message) bool {
		caser := cases.Fold()
		fields := []string{m.Subject, m.Body}
		if dir != nil {
			sender, found, err := dir.FindByID(m.FromID)
			switch {
			case err != nil:
				logger.Warn("sender lookup failed", "message_id", m.ID, "identity_id", m.FromID, "error", err)
			case found:
				fields = append(fields, sender.DisplayName, sender.Email)
			}
		}
		for _, f := range fields {
			if strings.Contains(caser.String(f), needle) {
				return true
			}
		}
		return false
	}
}

// And combines filters; nil filters are ignored.
func And(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(m Message) bool {
		for _, f := range active {
			if !f(m) {
				return false
			}
		}
		return true
	}
}

// Unread passes only unread messages.
func Unread(m Message) bool { return !m.IsRead }

// Starred passes only starred messages.
func Starred(m Message) bool { return m.IsStarred }
