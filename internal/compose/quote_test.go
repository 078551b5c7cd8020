package compose

import (
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/nugget/thane-inbox/internal/identity"
)

func TestBuildForwardBody(t *testing.T) {
	src := statusMessage()
	sender := identity.Identity{ID: "u1", DisplayName: "Alice Moreno", Email: "alice@example.com"}

	got := BuildForwardBody(*src, sender, language.AmericanEnglish)
	want := "\n\n\n-------- Forwarded Message --------\n" +
		"From: Alice Moreno <alice@example.com>\n" +
		"Date: Mon, May 4, 2026 at 9:30 AM\n" +
		"Subject: Status\n" +
		"\n" +
		"All green.\nShip Friday."
	if got != want {
		t.Errorf("BuildForwardBody() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildForwardBody_Deterministic(t *testing.T) {
	src := statusMessage()
	sender := identity.Identity{DisplayName: "Alice Moreno", Email: "alice@example.com"}

	for _, tag := range []language.Tag{language.AmericanEnglish, language.German, language.Japanese} {
		first := BuildForwardBody(*src, sender, tag)
		second := BuildForwardBody(*src, sender, tag)
		if first != second {
			t.Errorf("%s: output differs between calls:\n%q\n%q", tag, first, second)
		}
	}
}

func TestBuildForwardBody_Locales(t *testing.T) {
	src := statusMessage()
	sender := identity.Identity{DisplayName: "A", Email: "a@example.com"}

	tests := []struct {
		locale   string
		wantDate string
	}{
		{"en-US", "Date: Mon, May 4, 2026 at 9:30 AM\n"},
		{"en-GB", "Date: Mon, 4 May 2026 at 09:30\n"},
		{"de-DE", "Date: 04.05.2026, 09:30\n"},
		{"fr", "Date: 04/05/2026 09:30\n"},
		{"ja", "Date: 2026/05/04 09:30\n"},
		{"", "Date: Mon, May 4, 2026 at 9:30 AM\n"},
		{"not a tag!", "Date: Mon, May 4, 2026 at 9:30 AM\n"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			body := BuildForwardBody(*src, sender, ParseLocale(tt.locale))
			if !strings.Contains(body, tt.wantDate) {
				t.Errorf("body missing %q:\n%s", tt.wantDate, body)
			}
		})
	}
}

func TestForward_UnknownSender(t *testing.T) {
	b := NewBuilder("me", testDirectory(t), language.AmericanEnglish, slog.Default())
	src := statusMessage()
	src.FromID = "ghost"

	d, err := b.Build(Request{Mode: ModeForward, Source: src})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(d.Body, "From: ghost <>\n") {
		t.Errorf("unknown sender should render with empty email:\n%s", d.Body)
	}
}

func TestForward_NilDirectory(t *testing.T) {
	b := NewBuilder("me", nil, language.AmericanEnglish, slog.Default())
	d, err := b.Build(Request{Mode: ModeForward, Source: statusMessage()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(d.Body, "From: u1 <>\n") {
		t.Errorf("nil directory should degrade to the sender id:\n%s", d.Body)
	}
}
