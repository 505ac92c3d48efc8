package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jward/treeguides/internal/outline"
)

// Entry is one cached outline.
type Entry struct {
	Path      string
	Hash      string
	Language  string
	Outline   *outline.Outline
	UpdatedAt time.Time
}

// PutOutline stores e, replacing an entry with the same path and hash.
func (s *Store) PutOutline(e *Entry) error {
	return putOutline(s.db, e)
}

// PutOutlines stores all entries in one transaction.
func (s *Store) PutOutlines(entries []*Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("put outlines: begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := putOutline(tx, e); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put outlines: commit: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func putOutline(db execer, e *Entry) error {
	if e.Outline == nil || e.Outline.Root == nil {
		return fmt.Errorf("put outline %s: %w", e.Path, outline.ErrNoRoot)
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(e.Outline); err != nil {
		return fmt.Errorf("put outline %s: encode: %w", e.Path, err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().Truncate(time.Second)
	}
	_, err := db.Exec(
		`INSERT INTO outlines (path, hash, language, length, nodes, outline, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path, hash) DO UPDATE SET
		   language = excluded.language, length = excluded.length, nodes = excluded.nodes,
		   outline = excluded.outline, updated_at = excluded.updated_at`,
		e.Path, e.Hash, e.Language, e.Outline.Length, e.Outline.Root.Count(), buf.String(), e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put outline %s: %w", e.Path, err)
	}
	return nil
}

// Outline returns the cached outline for path with the given content hash.
// It returns nil, nil when there is none.
func (s *Store) Outline(path, hash string) (*Entry, error) {
	e := &Entry{Path: path, Hash: hash}
	var data string
	err := s.db.QueryRow(
		"SELECT language, outline, updated_at FROM outlines WHERE path = ? AND hash = ?", path, hash,
	).Scan(&e.Language, &data, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", path, err)
	}
	o, err := outline.Decode(bytes.NewReader([]byte(data)))
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", path, err)
	}
	e.Outline = o
	return e, nil
}

// Prune deletes every entry for path except the one with hash keep. An
// empty keep deletes them all.
func (s *Store) Prune(path, keep string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM outlines WHERE path = ? AND hash != ?", path, keep)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", path, err)
	}
	return res.RowsAffected()
}

// Clear deletes every cached outline.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM outlines"); err != nil {
		return fmt.Errorf("clear outlines: %w", err)
	}
	return nil
}

// Stats returns the number of cached outlines and the number of nodes they
// hold.
func (s *Store) Stats() (entries, nodes int64, err error) {
	err = s.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(nodes), 0) FROM outlines").Scan(&entries, &nodes)
	if err != nil {
		return 0, 0, fmt.Errorf("outline stats: %w", err)
	}
	return entries, nodes, nil
}
