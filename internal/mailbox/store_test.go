package mailbox

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nugget/thane-inbox/internal/identity"
)

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, msgs ...Message) *Store {
	t.Helper()
	s := NewStore(slog.Default())
	for _, m := range msgs {
		if err := s.Append(m); err != nil {
			t.Fatalf("Append(%s): %v", m.ID, err)
		}
	}
	return s
}

func seedMessages() []Message {
	return []Message{
		{ID: "m1", FromID: "u1", ToIDs: []string{"me"}, Subject: "Budget", Body: "Numbers attached", CreatedAt: t0, Folder: FolderInbox},
		{ID: "m2", FromID: "u2", ToIDs: []string{"me"}, Subject: "Lunch?", Body: "Tacos", CreatedAt: t0.Add(time.Hour), Folder: FolderInbox, IsRead: true},
		{ID: "m3", FromID: "me", ToIDs: []string{"u1"}, Subject: "Re: Budget", CreatedAt: t0.Add(2 * time.Hour), Folder: FolderSent, IsRead: true},
		{ID: "m4", FromID: "me", Subject: "half-written", CreatedAt: t0, Folder: FolderDrafts},
		{ID: "m5", FromID: "u3", ToIDs: []string{"me"}, Subject: "Offsite", Body: "Agenda", CreatedAt: t0.Add(3 * time.Hour), Folder: FolderInbox},
	}
}

func listIDs(s *Store, f Folder, filter Filter) []string {
	var out []string
	for m := range s.ListByFolder(f, filter) {
		out = append(out, m.ID)
	}
	return out
}

// snapshotAll captures every folder listing for atomicity checks.
func snapshotAll(s *Store) map[Folder][]string {
	out := make(map[Folder][]string)
	for _, f := range Folders {
		out[f] = listIDs(s, f, nil)
	}
	return out
}

func TestListByFolder_NewestFirst(t *testing.T) {
	s := newTestStore(t, seedMessages()...)

	if diff := cmp.Diff([]string{"m5", "m2", "m1"}, listIDs(s, FolderInbox, nil)); diff != "" {
		t.Errorf("INBOX order mismatch (-want +got):\n%s", diff)
	}
	if got := listIDs(s, FolderTrash, nil); len(got) != 0 {
		t.Errorf("TRASH should be empty, got %v", got)
	}
}

func TestListByFolder_TiesNewestAppendFirst(t *testing.T) {
	s := newTestStore(t,
		Message{ID: "a", CreatedAt: t0, Folder: FolderInbox},
		Message{ID: "b", CreatedAt: t0, Folder: FolderInbox},
	)
	if diff := cmp.Diff([]string{"b", "a"}, listIDs(s, FolderInbox, nil)); diff != "" {
		t.Errorf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestListByFolder_Restartable(t *testing.T) {
	s := newTestStore(t, seedMessages()...)
	seq := s.ListByFolder(FolderInbox, nil)

	// Stop early on the first pass.
	for range seq {
		break
	}

	var second []string
	for m := range seq {
		second = append(second, m.ID)
	}
	if diff := cmp.Diff([]string{"m5", "m2", "m1"}, second); diff != "" {
		t.Errorf("second iteration mismatch (-want +got):\n%s", diff)
	}

	// Sequence reflects mutations made between iterations.
	if err := s.Append(Message{ID: "m6", CreatedAt: t0.Add(5 * time.Hour), Folder: FolderInbox}); err != nil {
		t.Fatal(err)
	}
	var third []string
	for m := range seq {
		third = append(third, m.ID)
	}
	if len(third) != 4 || third[0] != "m6" {
		t.Errorf("third iteration = %v, want m6 first of 4", third)
	}
}

func TestListByFolder_ReturnsCopies(t *testing.T) {
	s := newTestStore(t, seedMessages()...)
	for m := range s.ListByFolder(FolderInbox, nil) {
		m.ToIDs[0] = "mutated"
		m.IsRead = true
	}
	got, err := s.Get("m1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ToIDs[0] != "me" || got.IsRead {
		t.Errorf("store was mutated through a listed copy: %+v", got)
	}
}

func TestTextFilter(t *testing.T) {
	dir, err := identity.NewMemoryDirectory([]identity.Identity{
		{ID: "u1", DisplayName: "Alice Moreno", Email: "alice@example.com"},
		{ID: "u2", DisplayName: "Bob Alvarez", Email: "bob@corp.example"},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, seedMessages()...)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"subject", "budget", []string{"m1"}},
		{"body", "TACOS", []string{"m2"}},
		{"sender name", "moreno", []string{"m1"}},
		{"sender email", "corp.example", []string{"m2"}},
		{"unknown sender still matches subject", "offsite", []string{"m5"}},
		{"blank is match-all", "  ", []string{"m5", "m2", "m1"}},
		{"no match", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listIDs(s, FolderInbox, TextFilter(dir, tt.query, nil))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TextFilter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

type offlineDirectory struct{}

func (offlineDirectory) FindByID(string) (identity.Identity, bool, error) {
	return identity.Identity{}, false, errors.New("directory offline")
}

func (offlineDirectory) Search(string) ([]identity.Identity, error) {
	return nil, errors.New("directory offline")
}

func TestTextFilter_DirectoryError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newTestStore(t, seedMessages()...)

	got := listIDs(s, FolderInbox, TextFilter(offlineDirectory{}, "tacos", logger))
	if diff := cmp.Diff([]string{"m2"}, got); diff != "" {
		t.Errorf("body match should survive a directory error (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "sender lookup failed") || !strings.Contains(buf.String(), "directory offline") {
		t.Errorf("directory error not logged:\n%s", buf.String())
	}
}

func TestNewStore_NilLogger(t *testing.T) {
	s := NewStore(nil)
	if err := s.Append(Message{ID: "m1", FromID: "u1", CreatedAt: t0, Folder: FolderInbox}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkRead("m1"); err != nil {
		t.Fatal(err)
	}
}

func TestAndFilter(t *testing.T) {
	s := newTestStore(t, seedMessages()...)
	got := listIDs(s, FolderInbox, And(nil, Unread, TextFilter(nil, "agenda", nil)))
	if diff := cmp.Diff([]string{"m5"}, got); diff != "" {
		t.Errorf("And() mismatch (-want +got):\n%s", diff)
	}
	if And(nil, nil) != nil {
		t.Error("And of only nil filters should be nil")
	}
}

func TestMarkRead(t *testing.T) {
	s := newTestStore(t, seedMessages()...)

	before := s.UnreadCount(FolderInbox)
	changed, err := s.MarkRead("m1")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("first MarkRead should report a change")
	}
	if got := s.UnreadCount(FolderInbox); got != before-1 {
		t.Errorf("UnreadCount = %d, want %d", got, before-1)
	}

	changed, err = s.MarkRead("m1")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second MarkRead should be a no-op")
	}
	if got := s.UnreadCount(FolderInbox); got != before-1 {
		t.Errorf("UnreadCount after repeat = %d, want %d", got, before-1)
	}

	// Other messages untouched.
	m5, _ := s.Get("m5")
	if m5.IsRead {
		t.Error("MarkRead(m1) must not touch m5")
	}

	if _, err := s.MarkRead("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSetStarred(t *testing.T) {
	s := newTestStore(t, seedMessages()...)
	if err := s.SetStarred("m2", true); err != nil {
		t.Fatal(err)
	}
	if got := listIDs(s, FolderInbox, Starred); !slices.Equal(got, []string{"m2"}) {
		t.Errorf("starred listing = %v", got)
	}
	if err := s.SetStarred("nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStarred(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestCounters(t *testing.T) {
	s := newTestStore(t, seedMessages()...)

	if got := s.UnreadCount(FolderInbox); got != 2 {
		t.Errorf("UnreadCount(INBOX) = %d, want 2", got)
	}
	if got := s.DraftCount(); got != 1 {
		t.Errorf("DraftCount() = %d, want 1", got)
	}

	want := []FolderCounts{
		{Folder: FolderInbox, Total: 3, Unread: 2},
		{Folder: FolderSent, Total: 1, Unread: 0},
		{Folder: FolderDrafts, Total: 1, Unread: 1},
		{Folder: FolderTrash, Total: 0, Unread: 0},
	}
	if diff := cmp.Diff(want, s.Counts()); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}

	// Recomputed after every mutation.
	if err := s.Append(Message{ID: "d2", Folder: FolderDrafts, CreatedAt: t0}); err != nil {
		t.Fatal(err)
	}
	if got := s.DraftCount(); got != 2 {
		t.Errorf("DraftCount() after append = %d, want 2", got)
	}
	if err := s.Append(Message{ID: "i9", Folder: FolderInbox, CreatedAt: t0}); err != nil {
		t.Fatal(err)
	}
	if got := s.UnreadCount(FolderInbox); got != 3 {
		t.Errorf("UnreadCount(INBOX) after append = %d, want 3", got)
	}
}

func TestAppend_Validation(t *testing.T) {
	tests := []struct {
		name  string
		msg   Message
		field string
	}{
		{"unknown folder", Message{ID: "x", Folder: "ARCHIVE"}, "folder"},
		{"empty folder", Message{ID: "x"}, "folder"},
		{"lower-case folder", Message{ID: "x", Folder: "inbox"}, "folder"},
		{"colliding id", Message{ID: "m1", Folder: FolderInbox}, "id"},
		{"empty id", Message{Folder: FolderInbox}, "id"},
		{"bad priority", Message{ID: "x", Folder: FolderInbox, Priority: "URGENT"}, "priority"},
		{"duplicate to", Message{ID: "x", Folder: FolderInbox, ToIDs: []string{"u1", "u1"}}, "to"},
		{"duplicate cc", Message{ID: "x", Folder: FolderInbox, CcIDs: []string{"u2", "u2"}}, "cc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, seedMessages()...)
			before := snapshotAll(s)
			beforeLen := s.Len()

			err := s.Append(tt.msg)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Append() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.field)
			}

			if diff := cmp.Diff(before, snapshotAll(s)); diff != "" {
				t.Errorf("listings changed after failed Append (-before +after):\n%s", diff)
			}
			if s.Len() != beforeLen {
				t.Errorf("Len() = %d, want %d", s.Len(), beforeLen)
			}
		})
	}
}

func TestAppend_SelfCcAllowed(t *testing.T) {
	s := newTestStore(t)
	err := s.Append(Message{ID: "x", FromID: "me", ToIDs: []string{"u1"}, CcIDs: []string{"me"}, Folder: FolderSent})
	if err != nil {
		t.Errorf("explicit self-cc should be accepted, got %v", err)
	}
}

func TestAppend_CopiesInput(t *testing.T) {
	s := newTestStore(t)
	to := []string{"u1"}
	if err := s.Append(Message{ID: "x", ToIDs: to, Folder: FolderInbox}); err != nil {
		t.Fatal(err)
	}
	to[0] = "changed"
	got, _ := s.Get("x")
	if got.ToIDs[0] != "u1" {
		t.Errorf("stored ToIDs aliased caller slice: %v", got.ToIDs)
	}
}

func TestParseFolder(t *testing.T) {
	for _, f := range Folders {
		got, err := ParseFolder(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFolder(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFolder("Archive"); err == nil {
		t.Error("ParseFolder(Archive) should fail")
	}
}
