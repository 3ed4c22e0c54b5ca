package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the record database.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// every connection to ":memory:" is its own database
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS extensions (
		id TEXT PRIMARY KEY,
		description TEXT,
		src TEXT,
		state TEXT,
		user TEXT,
		price TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_user ON extensions(user);
	`
	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = "SELECT id, description, src, state, user, price FROM extensions"

// Get returns the record for path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", path)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", path, err)
	}
	return r, nil
}

// Update applies changes with a single UPDATE guarded by the primary key.
func (s *SQLiteStore) Update(ctx context.Context, path string, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+1)
	for _, c := range changes {
		if !validChange(c) {
			return fmt.Errorf("update record %s: unknown field %q", path, c.Field)
		}
		if c.Remove {
			sets = append(sets, string(c.Field)+" = NULL")
			continue
		}
		sets = append(sets, string(c.Field)+" = ?")
		args = append(args, c.Value)
	}
	args = append(args, path)

	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G202 - column names come from the fixed Field set
	res, err := s.db.ExecContext(ctx, "UPDATE extensions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update record %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %s: %w", path, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts r.
func (s *SQLiteStore) Create(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO extensions (id, description, src, state, user, price) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
		r.Path, nullable(r.Description), nullable(r.Src), nullable(string(r.State)), nullable(r.Owner), nullable(r.PriceRef),
	)
	if err != nil {
		return fmt.Errorf("create record %s: %w", r.Path, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

// Delete removes the record.
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM extensions WHERE id = ?", path); err != nil {
		return fmt.Errorf("delete record %s: %w", path, err)
	}
	return nil
}

// QueryByOwner uses the user index.
func (s *SQLiteStore) QueryByOwner(ctx context.Context, owner string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE user = ? ORDER BY id", owner)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r                                    Record
		description, src, state, user, price sql.NullString
	)
	if err := sc.Scan(&r.Path, &description, &src, &state, &user, &price); err != nil {
		return Record{}, err
	}
	r.Description = description.String
	r.Src = src.String
	r.State = State(state.String)
	r.Owner = user.String
	r.PriceRef = price.String
	return r, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
