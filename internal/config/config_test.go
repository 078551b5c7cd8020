package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("me: u1\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/inbox.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "inbox.yaml"), []byte("me: u1\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "inbox.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "inbox.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.yaml")
	os.WriteFile(path, []byte("me: ${INBOX_TEST_ME}\n"), 0600)
	t.Setenv("INBOX_TEST_ME", "u7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Me != "u7" {
		t.Errorf("me = %q, want %q", cfg.Me, "u7")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.yaml")
	os.WriteFile(path, []byte("me: u1\ndata_dir: /var/lib/inbox\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("locale = %q, want en-US", cfg.Locale)
	}
	if cfg.Directory.SQLitePath != filepath.Join("/var/lib/inbox", "directory.db") {
		t.Errorf("directory.sqlite_path = %q", cfg.Directory.SQLitePath)
	}
	if cfg.SettingsPath() != filepath.Join("/var/lib/inbox", "settings.db") {
		t.Errorf("SettingsPath() = %q", cfg.SettingsPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.yaml")
	os.WriteFile(path, []byte("me: [unclosed\n"), 0600)

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "missing me", mutate: func(c *Config) { c.Me = "" }, wantErr: "me is required"},
		{name: "bad locale", mutate: func(c *Config) { c.Locale = "not a locale!" }, wantErr: "locale"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "unknown log level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "negative limit", mutate: func(c *Config) { c.Directory.SearchLimit = -1 }, wantErr: "search_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"TRACE", LevelTrace},
		{" debug ", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_Trace(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "trace"
	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	logger.Log(t.Context(), LevelTrace, "directory query")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace record should render as TRACE, got %q", buf.String())
	}
}

func TestNewLogger_JSON(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "json"
	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	logger.Info("hello")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json handler output = %q", buf.String())
	}
}

func TestLoad_ResolvesPathPrefixes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.yaml")
	body := "me: u1\ndata_dir: /srv/inbox\nseed_file: config:seed.yaml\ndirectory:\n  vcard_file: data:people.vcf\n"
	os.WriteFile(path, []byte(body), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if want := filepath.Join(dir, "seed.yaml"); cfg.SeedFile != want {
		t.Errorf("seed_file = %q, want %q", cfg.SeedFile, want)
	}
	if want := filepath.Join("/srv/inbox", "people.vcf"); cfg.Directory.VCardFile != want {
		t.Errorf("directory.vcard_file = %q, want %q", cfg.Directory.VCardFile, want)
	}
	if want := filepath.Join("/srv/inbox", "directory.db"); cfg.Directory.SQLitePath != want {
		t.Errorf("directory.sqlite_path = %q, want %q", cfg.Directory.SQLitePath, want)
	}
}
