package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/mailbox"
)

// Render builds a complete RFC 5322 MIME message from a stored message.
// The body is written verbatim as text/plain and rendered through
// markdown as a text/html alternative. Bcc is kept so that exported
// SENT copies still show who was blind-copied.
func Render(msg mailbox.Message, dir identity.Directory) ([]byte, error) {
	var h mail.Header

	h.SetDate(msg.CreatedAt)
	h.SetMessageID(msg.ID + "@" + MessageIDDomain)
	h.SetSubject(msg.Subject)

	from, err := addressOf(dir, msg.FromID)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	h.SetAddressList("From", []*mail.Address{from})

	for _, field := range []struct {
		name string
		ids  []string
	}{
		{"To", msg.ToIDs},
		{"Cc", msg.CcIDs},
		{"Bcc", msg.BccIDs},
	} {
		if len(field.ids) == 0 {
			continue
		}
		addrs, err := addressList(dir, field.ids)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(field.name), err)
		}
		h.SetAddressList(field.name, addrs)
	}

	if p := priorityHeader(msg.Priority); p != "" {
		h.Set("X-Priority", p)
	}
	if len(msg.Tags) > 0 {
		h.Set("Keywords", strings.Join(msg.Tags, ", "))
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create inline writer: %w", err)
	}

	if err := writePart(tw, "text/plain; charset=utf-8", msg.Body); err != nil {
		return nil, fmt.Errorf("plain text part: %w", err)
	}

	htmlContent, err := markdownToHTML(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("render markdown to HTML: %w", err)
	}
	if err := writePart(tw, "text/html; charset=utf-8", htmlContent); err != nil {
		return nil, fmt.Errorf("html part: %w", err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mail writer: %w", err)
	}

	return buf.Bytes(), nil
}

func writePart(tw *mail.InlineWriter, contentType, content string) error {
	var ph mail.InlineHeader
	ph.Set("Content-Type", contentType)
	pw, err := tw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, content); err != nil {
		return err
	}
	return pw.Close()
}

func priorityHeader(p mailbox.Priority) string {
	switch p {
	case mailbox.PriorityHigh:
		return "1 (Highest)"
	case mailbox.PriorityLow:
		return "5 (Lowest)"
	case mailbox.PriorityNormal:
		return "3 (Normal)"
	}
	return ""
}

// Mail bodies carry meaningful line breaks, so soft breaks render as
// <br>.
var md = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// markdownToHTML renders markdown to an HTML document with no external
// resources.
func markdownToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; font-size: 14px; line-height: 1.5;">
%s
</body></html>`, buf.String()), nil
}
