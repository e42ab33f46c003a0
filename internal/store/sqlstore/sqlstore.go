package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/idilsaglam/todolive/internal/model"
)

// SQLite-backed todo table for the development data service.
// AUTOINCREMENT keeps ids from being reused after deletes.

const MemoryDSN = ":memory:"

var ErrNotFound = errors.New("todo not found")

type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at dsn. An empty dsn means an
// in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// One writer; also keeps a memory database alive on a single connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS todo (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT    NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE
	)`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// List returns every todo in ascending id order.
func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, completed FROM todo ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Completed); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

// Insert creates a pending todo and returns it with its new id.
func (s *Store) Insert(ctx context.Context, title string) (model.Item, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO todo (title, completed) VALUES (?, FALSE)`, title)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	return model.Item{ID: int(id), Title: title}, nil
}

// SetCompleted updates the completion flag of one todo.
func (s *Store) SetCompleted(ctx context.Context, id int, completed bool) (model.Completion, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE todo SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return model.Completion{}, fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Completion{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.Completion{}, fmt.Errorf("set completed %d: %w", id, ErrNotFound)
	}
	return model.Completion{ID: id, Completed: completed}, nil
}
