package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	r := New(map[string]string{
		"data":   "/var/lib/inbox",
		"config": "/etc/thane-inbox",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"data prefix", "data:directory.db", filepath.Join("/var/lib/inbox", "directory.db")},
		{"config nested", "config:fixtures/seed.yaml", filepath.Join("/etc/thane-inbox", "fixtures", "seed.yaml")},
		{"bare prefix", "data:", "/var/lib/inbox"},
		{"absolute path unchanged", "/absolute/path", "/absolute/path"},
		{"relative path unchanged", "relative/path", "relative/path"},
		{"empty string unchanged", "", ""},
		{"no match", "unknown:foo", "unknown:foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve_LongerPrefixFirst(t *testing.T) {
	r := New(map[string]string{
		"data":    "/short",
		"dataset": "/long",
	})

	if got := r.Resolve("dataset:a.db"); got != filepath.Join("/long", "a.db") {
		t.Errorf("expected longer prefix to match, got %q", got)
	}
	if got := r.Resolve("data:a.db"); got != filepath.Join("/short", "a.db") {
		t.Errorf("expected shorter prefix to match, got %q", got)
	}
}

func TestResolve_NilReceiver(t *testing.T) {
	var r *Resolver
	if got := r.Resolve("data:x"); got != "data:x" {
		t.Errorf("nil Resolve = %q, want unchanged", got)
	}
	if New(nil) != nil {
		t.Error("New(nil) should return nil")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/inbox/seed.yaml"); got != filepath.Join(home, "inbox", "seed.yaml") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q", got)
	}
	if got := ExpandHome("~other/x"); got != "~other/x" {
		t.Errorf("ExpandHome(~other/x) = %q, want unchanged", got)
	}

	r := New(map[string]string{"data": "~/inbox"})
	if got := r.Resolve("data:settings.db"); got != filepath.Join(home, "inbox", "settings.db") {
		t.Errorf("prefix directory should have ~ expanded, got %q", got)
	}
}
