package compose

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// ForwardMarker opens every forwarded-message quote block.
const ForwardMarker = "-------- Forwarded Message --------"

// dateLayouts pairs each supported locale with its quote date layout.
// The first entry is the fallback for unmatched locales.
var dateLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "Mon, Jan 2, 2006 at 3:04 PM"},
	{language.BritishEnglish, "Mon, 2 Jan 2006 at 15:04"},
	{language.German, "02.01.2006, 15:04"},
	{language.French, "02/01/2006 15:04"},
	{language.Japanese, "2006/01/02 15:04"},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLayouts))
	for i, d := range dateLayouts {
		tags[i] = d.tag
	}
	return language.NewMatcher(tags)
}()

// ParseLocale parses a BCP 47 tag. Empty or malformed input yields
// American English.
func ParseLocale(s string) language.Tag {
	if strings.TrimSpace(s) == "" {
		return language.AmericanEnglish
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// dateLayout picks the date layout for locale.
func dateLayout(locale language.Tag) string {
	_, i, conf := dateMatcher.Match(locale)
	if conf == language.No {
		i = 0
	}
	return dateLayouts[i].layout
}

// BuildForwardBody renders the quote block placed in a forward draft:
//
//	\n\n\n-------- Forwarded Message --------
//	From: {name} <{email}>
//	Date: {date}
//	Subject: {subject}
//
//	{body}
//
// The output depends only on its arguments. sender is the resolved
// author of m; an unresolved sender should be passed with whatever
// fields are known, and empty fields are rendered as empty strings.
func BuildForwardBody(m mailbox.Message, sender identity.Identity, locale language.Tag) string {
	var sb strings.Builder
	sb.WriteString("\n\n\n")
	sb.WriteString(ForwardMarker)
	sb.WriteString("\n")
	sb.WriteString("From: " + sender.DisplayName + " <" + sender.Email + ">\n")
	sb.WriteString("Date: " + m.CreatedAt.Format(dateLayout(locale)) + "\n")
	sb.WriteString("Subject: " + m.Subject + "\n")
	sb.WriteString("\n")
	sb.WriteString(m.Body)
	return sb.String()
}
