package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed base.sql
var baseSQL string

// SQLiteBackend keeps the document as a row of a sqlite database, for users
// who prefer a single transactional file over a plain JSON file.
type SQLiteBackend struct {
	conn     *sql.DB
	filename string
	name     string
}

// NewSQLiteBackend connects to the sqlite database at filename and stores the document under name.
func NewSQLiteBackend(ctx context.Context, filename, name string) (*SQLiteBackend, error) {
	conn, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	// run idempotent setup sql to create the table if it doesn't exist
	if _, err := conn.ExecContext(ctx, baseSQL); err != nil {
		conn.Close()

		return nil, fmt.Errorf("error running base sql: %w", err)
	}

	return &SQLiteBackend{conn: conn, filename: filename, name: name}, nil
}

// Read implements Backend.
func (s *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var data string

	err := s.conn.QueryRowContext(ctx, `SELECT data FROM document WHERE name = $1`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSaveFile
	}

	if err != nil {
		return nil, fmt.Errorf("error loading document %s: %w", s.name, err)
	}

	return []byte(data), nil
}

// Write implements Backend.
func (s *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	return s.upsert(ctx, s.name, data)
}

// Rescue implements Backend by storing data under <name>_Corrupted.
func (s *SQLiteBackend) Rescue(ctx context.Context, data []byte) (string, error) {
	name := s.name + CorruptedSuffix

	if err := s.upsert(ctx, name, data); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s (document %s)", s.filename, name), nil
}

func (s *SQLiteBackend) upsert(ctx context.Context, name string, data []byte) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO document (name, data, updated_datetime) VALUES ($1, $2, $3)
		     ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_datetime = excluded.updated_datetime`,
		name, string(data), time.Now(),
	)
	if err != nil {
		tx.Rollback()

		return fmt.Errorf("error saving document %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing document %s: %w", name, err)
	}

	return nil
}

// Location implements Backend.
func (s *SQLiteBackend) Location() string {
	return s.filename
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.conn.Close()
}
