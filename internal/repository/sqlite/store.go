// Package sqlite stores connections in a local SQLite database using the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	id               TEXT PRIMARY KEY,
	name             TEXT,
	meeting_location TEXT,
	meeting_date     TEXT,
	interests        TEXT NOT NULL DEFAULT '[]',
	tags             TEXT NOT NULL DEFAULT '[]',
	summary          TEXT,
	notes            TEXT,
	fun_facts        TEXT NOT NULL DEFAULT '[]',
	email            TEXT,
	phone            TEXT,
	linkedin         TEXT,
	raw_input        TEXT,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	version          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connections_created ON connections (created_at, id);
`

const selectColumns = `id, name, meeting_location, meeting_date, interests, tags, summary, notes,
	fun_facts, email, phone, linkedin, raw_input, created_at, updated_at, version`

// Store is a ConnectionRepository backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One connection serializes writers, so per-connection pragmas apply everywhere.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns every connection ordered by CreatedAt, then ID.
func (s *Store) List(ctx context.Context) ([]domain.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM connections ORDER BY created_at, id`)
	if err != nil {
		return nil, repository.NewStorage("list connections", err)
	}
	defer rows.Close()

	out := make([]domain.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, repository.NewStorage("list connections", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.NewStorage("list connections", err)
	}
	return out, nil
}

// FindByID returns the connection with id.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM connections WHERE id = ?`, id)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NewNotFound(id)
	}
	if err != nil {
		return nil, repository.NewStorage("get connection", err)
	}
	return &c, nil
}

// Insert adds a new connection; an existing id is a conflict.
func (s *Store) Insert(ctx context.Context, conn domain.Connection) error {
	args, err := columnArgs(conn)
	if err != nil {
		return repository.NewStorage("create connection", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO connections (id, name, meeting_location, meeting_date, interests, tags, summary, notes,
			fun_facts, email, phone, linkedin, raw_input, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		append([]any{conn.ID}, args...)...,
	)
	if err != nil {
		return repository.NewStorage("create connection", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.NewConflict(conn.ID, "already exists")
	}
	return nil
}

// Save replaces a connection if the stored version still equals expectedVersion.
func (s *Store) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	args, err := columnArgs(conn)
	if err != nil {
		return repository.NewStorage("update connection", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE connections SET name = ?, meeting_location = ?, meeting_date = ?, interests = ?, tags = ?,
			summary = ?, notes = ?, fun_facts = ?, email = ?, phone = ?, linkedin = ?, raw_input = ?,
			created_at = ?, updated_at = ?, version = ?
		WHERE id = ? AND version = ?`,
		append(args, conn.ID, expectedVersion)...,
	)
	if err != nil {
		return repository.NewStorage("update connection", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM connections WHERE id = ?`, conn.ID).Scan(&exists); err != nil {
		return repository.NewStorage("update connection", err)
	}
	if exists == 0 {
		return repository.NewNotFound(conn.ID)
	}
	return repository.NewConflict(conn.ID, "version mismatch")
}

// Delete removes a connection.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return repository.NewStorage("delete connection", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.NewNotFound(id)
	}
	return nil
}

// columnArgs returns every column after id, in schema order.
func columnArgs(c domain.Connection) ([]any, error) {
	fields := c.ConnectionFields.Normalize()
	interests, err := json.Marshal(fields.Interests)
	if err != nil {
		return nil, err
	}
	tags, err := json.Marshal(fields.Tags)
	if err != nil {
		return nil, err
	}
	funFacts, err := json.Marshal(fields.FunFacts)
	if err != nil {
		return nil, err
	}

	return []any{
		nullString(fields.Name),
		nullString(fields.MeetingLocation),
		nullString(fields.MeetingDate),
		string(interests),
		string(tags),
		nullString(fields.Summary),
		nullString(fields.Notes),
		string(funFacts),
		nullString(fields.Email),
		nullString(fields.Phone),
		nullString(fields.LinkedIn),
		nullString(fields.RawInput),
		c.CreatedAt.UnixNano(),
		c.UpdatedAt.UnixNano(),
		c.Version,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(row scanner) (domain.Connection, error) {
	var (
		c                                    domain.Connection
		name, location, date, summary, notes sql.NullString
		email, phone, linkedin, rawInput     sql.NullString
		interests, tags, funFacts            string
		createdAt, updatedAt                 int64
	)
	if err := row.Scan(&c.ID, &name, &location, &date, &interests, &tags, &summary, &notes,
		&funFacts, &email, &phone, &linkedin, &rawInput, &createdAt, &updatedAt, &c.Version); err != nil {
		return c, err
	}

	c.Name = stringPtr(name)
	c.MeetingLocation = stringPtr(location)
	c.MeetingDate = stringPtr(date)
	c.Summary = stringPtr(summary)
	c.Notes = stringPtr(notes)
	c.Email = stringPtr(email)
	c.Phone = stringPtr(phone)
	c.LinkedIn = stringPtr(linkedin)
	c.RawInput = stringPtr(rawInput)
	if err := json.Unmarshal([]byte(interests), &c.Interests); err != nil {
		return c, fmt.Errorf("decode interests: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return c, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(funFacts), &c.FunFacts); err != nil {
		return c, fmt.Errorf("decode fun facts: %w", err)
	}
	c.ConnectionFields = c.ConnectionFields.Normalize()
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return domain.StringPtr(ns.String)
}
