package identity

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQL fragments for query building.
const (
	identityColumns = "id, display_name, email, department, role, presence"
	activeFilter    = "deleted_at IS NULL"
)

// SQLiteDirectory is a Directory persisted in SQLite. Deletes are soft
// so that old messages can still resolve a departed sender by id.
type SQLiteDirectory struct {
	db     *sql.DB
	limit  int
	logger *slog.Logger
}

// NewSQLiteDirectory opens (creating if needed) a directory database.
// limit caps Search results; zero or negative means no cap.
func NewSQLiteDirectory(dbPath string, limit int, logger *slog.Logger) (*SQLiteDirectory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &SQLiteDirectory{db: db, limit: limit, logger: logger}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *SQLiteDirectory) migrate() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			department TEXT,
			role TEXT,
			presence TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_identities_name ON identities(display_name);
		CREATE INDEX IF NOT EXISTS idx_identities_email ON identities(email);
		CREATE INDEX IF NOT EXISTS idx_identities_deleted ON identities(deleted_at);
	`)
	return err
}

// Close closes the database connection.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}

// Upsert creates or updates an identity. A soft-deleted identity with
// the same id is resurrected.
func (d *SQLiteDirectory) Upsert(ident Identity) error {
	if err := ident.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := d.db.Exec(`
		INSERT INTO identities (id, display_name, email, department, role, presence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			department = excluded.department,
			role = excluded.role,
			presence = excluded.presence,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`, ident.ID, ident.DisplayName, ident.Email, nullStr(ident.Department),
		nullStr(ident.Role), nullStr(string(ident.Presence)), now, now)
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", ident.ID, err)
	}
	return nil
}

// Delete soft-deletes an identity by id.
func (d *SQLiteDirectory) Delete(id string) error {
	result, err := d.db.Exec(
		`UPDATE identities SET deleted_at = ? WHERE id = ? AND `+activeFilter,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("identity %q not found", id)
	}
	return nil
}

// FindByID implements Directory. Soft-deleted identities are still
// returned so historic messages keep a sender name.
func (d *SQLiteDirectory) FindByID(id string) (Identity, bool, error) {
	row := d.db.QueryRow(`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("find identity %s: %w", id, err)
	}
	return ident, true, nil
}

// Search implements Directory over active identities. SQL LIKE narrows
// the candidates; the same ranking as MemoryDirectory orders them.
func (d *SQLiteDirectory) Search(query string) ([]Identity, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(q) + "%"

	rows, err := d.db.Query(`
		SELECT `+identityColumns+` FROM identities
		WHERE `+activeFilter+` AND (display_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')
		ORDER BY created_at, rowid
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search identities: %w", err)
	}
	defer rows.Close()

	folded := fold(q)
	type hit struct {
		ident Identity
		score int
	}
	var hits []hit
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		if score := rank(ident, folded); score >= 0 {
			hits = append(hits, hit{ident: ident, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search identities: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score < hits[j].score
	})
	if d.limit > 0 && len(hits) > d.limit {
		hits = hits[:d.limit]
	}

	result := make([]Identity, len(hits))
	for i, h := range hits {
		result[i] = h.ident
	}
	d.logger.Debug("directory search", "query", q, "results", len(result))
	return result, nil
}

// Count returns the number of active identities.
func (d *SQLiteDirectory) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM identities WHERE ` + activeFilter).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(r rowScanner) (Identity, error) {
	var ident Identity
	var department, role, presence sql.NullString
	if err := r.Scan(&ident.ID, &ident.DisplayName, &ident.Email, &department, &role, &presence); err != nil {
		return Identity{}, err
	}
	ident.Department = department.String
	ident.Role = role.String
	ident.Presence = Presence(presence.String)
	return ident, nil
}

// --- SQL helpers ---

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
