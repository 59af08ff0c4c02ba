// Package store persists the clipboard history in a SQLite database: text
// snippets and references to saved capture images, with pinning, search, and
// size-bounded pruning.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind tags what a history item holds.
type Kind string

const (
	KindText Kind = "text"
	// KindImage items store the path of a saved PNG in Content.
	KindImage Kind = "image"
)

// Item is one clipboard history entry.
type Item struct {
	ID        int64
	UUID      string
	Kind      Kind
	Content   string
	Pinned    bool
	CreatedAt time.Time
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dir, "clipdeck.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// WAL keeps the monitor loop and the UI from blocking each other.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		pinned BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
	CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts a new history item. A duplicate of an existing item (same kind
// and content) is moved to the front instead of inserted twice.
func (s *Store) Add(kind Kind, content string) (*Item, error) {
	now := time.Now().UTC()

	var existing Item
	err := s.db.QueryRow(
		`SELECT id, uuid, kind, content, pinned, created_at FROM items WHERE kind = ? AND content = ?`,
		string(kind), content,
	).Scan(&existing.ID, &existing.UUID, (*string)(&existing.Kind), &existing.Content, &existing.Pinned, &existing.CreatedAt)
	switch {
	case err == nil:
		if _, err := s.db.Exec(`UPDATE items SET created_at = ? WHERE id = ?`, now, existing.ID); err != nil {
			return nil, fmt.Errorf("refresh item: %w", err)
		}
		existing.CreatedAt = now
		return &existing, nil
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	item := &Item{
		UUID:      uuid.NewString(),
		Kind:      kind,
		Content:   content,
		CreatedAt: now,
	}
	res, err := s.db.Exec(
		`INSERT INTO items (uuid, kind, content, pinned, created_at) VALUES (?, ?, ?, 0, ?)`,
		item.UUID, string(kind), content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return item, nil
}

// List returns items newest first.
func (s *Store) List(limit, offset int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, uuid, kind, content, pinned, created_at FROM items
		 ORDER BY pinned DESC, created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Get returns a single item by id.
func (s *Store) Get(id int64) (*Item, error) {
	var it Item
	err := s.db.QueryRow(
		`SELECT id, uuid, kind, content, pinned, created_at FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.UUID, (*string)(&it.Kind), &it.Content, &it.Pinned, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// Search filters text items by pattern. The pattern is treated as a regular
// expression; if it does not compile it degrades to a literal substring
// match rather than failing the search.
func (s *Store) Search(pattern string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, uuid, kind, content, pinned, created_at FROM items
		 ORDER BY pinned DESC, created_at DESC LIMIT 2000`,
	)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	match := func(content string) bool {
		return strings.Contains(strings.ToLower(content), strings.ToLower(pattern))
	}
	if re, reErr := regexp.Compile(pattern); reErr == nil {
		match = re.MatchString
	}

	out := make([]Item, 0, limit)
	for _, it := range items {
		if match(it.Content) {
			out = append(out, it)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// SetPinned toggles pinning. Pinned items survive Clear and Prune.
func (s *Store) SetPinned(id int64, pinned bool) error {
	res, err := s.db.Exec(`UPDATE items SET pinned = ? WHERE id = ?`, pinned, id)
	if err != nil {
		return fmt.Errorf("pin item: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("item %d not found", id)
	}
	return err
}

// Delete removes one item. For image items the saved file is removed as
// well; a missing file is not an error.
func (s *Store) Delete(id int64) error {
	it, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	removeImageFile(it)
	return nil
}

// Clear removes history. With keepPinned set, pinned items survive.
func (s *Store) Clear(keepPinned bool) error {
	q := `SELECT id, uuid, kind, content, pinned, created_at FROM items`
	if keepPinned {
		q += ` WHERE pinned = 0`
	}
	rows, err := s.db.Query(q)
	if err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	items, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return err
	}
	del := `DELETE FROM items`
	if keepPinned {
		del += ` WHERE pinned = 0`
	}
	if _, err := s.db.Exec(del); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for i := range items {
		removeImageFile(&items[i])
	}
	return nil
}

// Prune drops the oldest unpinned items beyond max, deleting saved image
// files along the way.
func (s *Store) Prune(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	rows, err := s.db.Query(
		`SELECT id, uuid, kind, content, pinned, created_at FROM items
		 WHERE pinned = 0 ORDER BY created_at DESC LIMIT -1 OFFSET ?`, max,
	)
	if err != nil {
		return 0, fmt.Errorf("prune items: %w", err)
	}
	victims, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}
	for i := range victims {
		if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, victims[i].ID); err != nil {
			return i, fmt.Errorf("prune item %d: %w", victims[i].ID, err)
		}
		removeImageFile(&victims[i])
	}
	return len(victims), nil
}

// Count returns the total number of items.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UUID, (*string)(&it.Kind), &it.Content, &it.Pinned, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func removeImageFile(it *Item) {
	if it.Kind != KindImage || it.Content == "" {
		return
	}
	_ = os.Remove(it.Content)
}
