// Package settings persists user preferences for the mail client in
// SQLite. It backs the settings screen that shares the engine's
// notification channel: every successful write publishes a
// settings_persisted event.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nugget/thane-inbox/internal/events"
)

// Namespaces and keys the engine itself reads.
const (
	// NamespaceCompose groups compose preferences.
	NamespaceCompose = "compose"

	// KeyLocale overrides the configured locale for quote dates.
	KeyLocale = "locale"
)

// Store is a namespaced key-value store backed by SQLite. All public
// methods are safe for concurrent use (SQLite serializes writes).
type Store struct {
	db     *sql.DB
	bus    *events.Bus
	logger *slog.Logger
}

// NewStore opens the settings database at dbPath, creating the schema
// on first use. bus may be nil.
func NewStore(dbPath string, bus *events.Bus, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, bus: bus, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS settings (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`)
	return err
}

// Get returns the stored value, or "" with a nil error when unset.
func (s *Store) Get(namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// GetOr returns the stored value, or fallback when unset.
func (s *Store) GetOr(namespace, key, fallback string) (string, error) {
	v, err := s.Get(namespace, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return fallback, nil
	}
	return v, nil
}

// Set upserts a value and announces it on the bus.
func (s *Store) Set(namespace, key, value string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO settings (namespace, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE
		 SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", namespace, key, err)
	}

	s.persisted(now, namespace, key)
	return nil
}

// Delete removes a value. Deleting an unset key is not an error and
// publishes nothing.
func (s *Store) Delete(namespace, key string) error {
	result, err := s.db.Exec(
		`DELETE FROM settings WHERE namespace = ? AND key = ?`,
		namespace, key,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		s.persisted(time.Now().UTC(), namespace, key)
	}
	return nil
}

// List returns every key/value of a namespace. The map is non-nil even
// when the namespace is empty.
func (s *Store) List(namespace string) (map[string]string, error) {
	rows, err := s.db.Query(
		`SELECT key, value FROM settings WHERE namespace = ? ORDER BY key`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", namespace, err)
		}
		result[k] = v
	}
	return result, rows.Err()
}

func (s *Store) persisted(at time.Time, namespace, key string) {
	s.bus.Publish(events.Event{
		Timestamp: at,
		Source:    events.SourceSettings,
		Kind:      events.KindSettingsPersisted,
		Data:      map[string]any{"namespace": namespace, "key": key},
	})
	s.logger.Debug("setting persisted", "namespace", namespace, "key", key)
}
