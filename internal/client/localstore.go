package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const tokenKey = "id_token"

// LocalStore is the client's on-disk state: the session token and the list of saved book ids
// used to mark search results as already saved. The id list is advisory; the server is the
// source of truth.
type LocalStore struct {
	db *sql.DB
}

func NewLocalStore(path string) (*LocalStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateLocal(db); err != nil {
		db.Close()
		return nil, err
	}

	return &LocalStore{db: db}, nil
}

// DefaultStorePath is ~/.bookshelf/bookshelf.db, or a file in the working directory when the
// home directory is unknown.
func DefaultStorePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".bookshelf", "bookshelf.db")
	}
	return "bookshelf.db"
}

func migrateLocal(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS saved_book_ids (book_id TEXT PRIMARY KEY, saved_at INTEGER NOT NULL);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate local store: %w", err)
		}
	}
	return nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) SaveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		tokenKey, token)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns "" when no token is stored.
func (s *LocalStore) Token(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *LocalStore) ClearToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// SavedBookIDs returns ids in the order they were saved.
func (s *LocalStore) SavedBookIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id FROM saved_book_ids ORDER BY saved_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list saved ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan saved id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *LocalStore) HasSavedBookID(ctx context.Context, bookID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_book_ids WHERE book_id = ?`, bookID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check saved id: %w", err)
	}
	return n > 0, nil
}

func (s *LocalStore) AddSavedBookID(ctx context.Context, bookID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO saved_book_ids (book_id, saved_at) VALUES (?, ?)`,
		bookID, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("add saved id: %w", err)
	}
	return nil
}

// RemoveSavedBookID is a no-op for ids that are not stored.
func (s *LocalStore) RemoveSavedBookID(ctx context.Context, bookID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_book_ids WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("remove saved id: %w", err)
	}
	return nil
}

// ReplaceSavedBookIDs overwrites the list with ids, atomically.
func (s *LocalStore) ReplaceSavedBookIDs(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_book_ids`); err != nil {
		return fmt.Errorf("clear saved ids: %w", err)
	}

	base := time.Now().UnixNano()
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO saved_book_ids (book_id, saved_at) VALUES (?, ?)`,
			id, base+int64(i)); err != nil {
			return fmt.Errorf("insert saved id: %w", err)
		}
	}

	return tx.Commit()
}
