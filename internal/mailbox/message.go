// Package mailbox is the single source of truth for messages and their
// folder membership. Folder counters are derived from the stored
// messages on every query and never cached.
package mailbox

import (
	"errors"
	"fmt"
	"time"
)

// Folder is the exclusive partition a message belongs to.
type Folder string

// The four folders. Every message is in exactly one of them.
const (
	FolderInbox  Folder = "INBOX"
	FolderSent   Folder = "SENT"
	FolderDrafts Folder = "DRAFTS"
	FolderTrash  Folder = "TRASH"
)

// Folders lists every folder in display order.
var Folders = []Folder{FolderInbox, FolderSent, FolderDrafts, FolderTrash}

// Valid reports whether f is one of the four folders.
func (f Folder) Valid() bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderTrash:
		return true
	}
	return false
}

// ParseFolder converts a case-sensitive folder name into a Folder.
func ParseFolder(s string) (Folder, error) {
	f := Folder(s)
	if !f.Valid() {
		return "", &ValidationError{Field: "folder", Value: s, Reason: "unknown folder"}
	}
	return f, nil
}

// Priority is an optional importance marker. The zero value means
// normal priority.
type Priority string

// Priority values.
const (
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// Valid reports whether p is empty or one of the three priorities.
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Message is a stored mail message. Recipients are identity ids.
type Message struct {
	ID            string    `yaml:"id" json:"id"`
	FromID        string    `yaml:"from" json:"from"`
	ToIDs         []string  `yaml:"to" json:"to"`
	CcIDs         []string  `yaml:"cc,omitempty" json:"cc,omitempty"`
	BccIDs        []string  `yaml:"bcc,omitempty" json:"bcc,omitempty"`
	Subject       string    `yaml:"subject" json:"subject"`
	Body          string    `yaml:"body" json:"body"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	IsRead        bool      `yaml:"read" json:"read"`
	IsStarred     bool      `yaml:"starred" json:"starred"`
	HasAttachment bool      `yaml:"has_attachment" json:"has_attachment"`
	Folder        Folder    `yaml:"folder" json:"folder"`
	Tags          []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Priority      Priority  `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// clone returns a copy that shares no slices with m.
func (m Message) clone() Message {
	m.ToIDs = cloneStrings(m.ToIDs)
	m.CcIDs = cloneStrings(m.CcIDs)
	m.BccIDs = cloneStrings(m.BccIDs)
	m.Tags = cloneStrings(m.Tags)
	return m
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// ErrNotFound is returned for operations on an unknown message id.
var ErrNotFound = errors.New("message not found")

// ValidationError reports a message the store refused to accept. The
// store is unchanged when one is returned.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// validate checks everything Append can decide without store state.
func (m Message) validate() error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Value: m.ID, Reason: "must not be empty"}
	}
	if !m.Folder.Valid() {
		return &ValidationError{Field: "folder", Value: string(m.Folder), Reason: "unknown folder"}
	}
	if !m.Priority.Valid() {
		return &ValidationError{Field: "priority", Value: string(m.Priority), Reason: "unknown priority"}
	}
	for _, list := range []struct {
		field string
		ids   []string
	}{{"to", m.ToIDs}, {"cc", m.CcIDs}, {"bcc", m.BccIDs}} {
		seen := make(map[string]bool, len(list.ids))
		for _, id := range list.ids {
			if seen[id] {
				return &ValidationError{Field: list.field, Value: id, Reason: "duplicate recipient"}
			}
			seen[id] = true
		}
	}
	return nil
}
