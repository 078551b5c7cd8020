package mailbox

import (
	"iter"
	"log/slog"
	"sort"
	"sync"
)

// Store holds every message and its folder assignment. All methods are
// safe for concurrent use; mutations are atomic per message.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
	logger   *slog.Logger
}

// NewStore creates an empty store. A nil logger means slog.Default().
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Append inserts msg into its declared folder. It returns a
// *ValidationError for an unknown folder or priority, a duplicate
// recipient, or an id that is empty or already stored; in that case
// the store is left untouched.
func (s *Store) Append(msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[msg.ID]; exists {
		return &ValidationError{Field: "id", Value: msg.ID, Reason: "already exists"}
	}
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg.clone())

	s.logger.Debug("message appended", "message_id", msg.ID, "folder", msg.Folder)
	return nil
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return s.messages[i].clone(), nil
}

// MarkRead flips a message to read. It reports whether the flag
// changed; calling it on an already-read message is a no-op.
func (s *Store) MarkRead(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false, ErrNotFound
	}
	if s.messages[i].IsRead {
		return false, nil
	}
	s.messages[i].IsRead = true
	return true, nil
}

// SetStarred sets the starred flag of one message.
func (s *Store) SetStarred(id string, starred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.messages[i].IsStarred = starred
	return nil
}

// ListByFolder yields the messages of folder, newest first, that pass
// filter. A nil filter passes everything. Each range over the returned
// sequence takes a fresh snapshot, so the sequence can be reused and
// holds no cursor between iterations. Messages with equal CreatedAt
// are yielded most recently appended first.
func (s *Store) ListByFolder(folder Folder, filter Filter) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range s.snapshot(folder) {
			if filter != nil && !filter(m) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// snapshot copies out the folder's messages sorted newest first.
func (s *Store) snapshot(folder Folder) []Message {
	s.mu.RLock()
	var out []Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Folder == folder {
			out = append(out, s.messages[i].clone())
		}
	}
	s.mu.RUnlock()

	// Reverse insertion order is already in place, so a stable sort on
	// CreatedAt keeps later appends first among equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UnreadCount returns the number of unread messages in folder.
func (s *Store) UnreadCount(folder Folder) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages {
		if m.Folder == folder && !m.IsRead {
			n++
		}
	}
	return n
}

// DraftCount returns the number of messages in DRAFTS.
func (s *Store) DraftCount() int {
	return s.Count(FolderDrafts)
}

// Count returns the number of messages in folder.
func (s *Store) Count(folder Folder) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages {
		if m.Folder == folder {
			n++
		}
	}
	return n
}

// FolderCounts holds the derived counters of one folder.
type FolderCounts struct {
	Folder Folder
	Total  int
	Unread int
}

// Counts derives the counters of every folder in one pass, in the
// order of Folders.
func (s *Store) Counts() []FolderCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byFolder := make(map[Folder]*FolderCounts, len(Folders))
	out := make([]FolderCounts, len(Folders))
	for i, f := range Folders {
		out[i].Folder = f
		byFolder[f] = &out[i]
	}
	for _, m := range s.messages {
		c := byFolder[m.Folder]
		c.Total++
		if !m.IsRead {
			c.Unread++
		}
	}
	return out
}

// Len returns the number of stored messages across all folders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
