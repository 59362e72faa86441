// Package history persists computed calculator results per user in SQLite.
//
// Entries are listed newest first with keyset pagination on
// (created_at, id), so pages stay stable while new entries are saved.
package history

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Page size limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	// ErrNotFound is returned when an entry does not exist for the user.
	ErrNotFound = errors.New("history entry not found")
	// ErrInvalidCursor is returned for cursors not produced by List.
	ErrInvalidCursor = errors.New("invalid history cursor")
	// ErrMissingUser is returned when no user id is given.
	ErrMissingUser = errors.New("user id is required")
)

// Entry is one saved computation.
type Entry struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	CalculatorSlug  string            `json:"calculator_slug"`
	CalculatorTitle string            `json:"calculator_title"`
	Inputs          map[string]string `json:"inputs"`
	Results         map[string]any    `json:"results"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Page is one page of entries. NextCursor is empty on the last page.
type Page struct {
	Entries    []Entry `json:"entries"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Store is a SQLite-backed history store. It is safe for concurrent use.
type Store struct {
	db       *sql.DB
	logger   *zap.Logger
	now      func() time.Time
	pageSize int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used to timestamp new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithPageSize sets the page size used when List is called without a limit.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = min(n, MaxPageSize)
		}
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	calculator_slug TEXT NOT NULL,
	calculator_title TEXT NOT NULL,
	inputs_json TEXT NOT NULL,
	results_json TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_user_created ON history(user_id, created_at);
`

// Open opens (creating if needed) the database at path. MemoryPath opens a
// private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{now: time.Now, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// one connection: an in-memory database lives and dies with it, and
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	s.db = db
	s.logger.Debug("history store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores e under a new id and timestamp and returns the stored entry.
func (s *Store) Save(ctx context.Context, e Entry) (Entry, error) {
	if e.UserID == "" {
		return Entry{}, ErrMissingUser
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	if e.Inputs == nil {
		e.Inputs = map[string]string{}
	}
	if e.Results == nil {
		e.Results = map[string]any{}
	}

	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return Entry{}, fmt.Errorf("encode inputs: %w", err)
	}
	results, err := json.Marshal(e.Results)
	if err != nil {
		return Entry{}, fmt.Errorf("encode results: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, user_id, calculator_slug, calculator_title, inputs_json, results_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CalculatorSlug, e.CalculatorTitle, string(inputs), string(results), e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("save history entry: %w", err)
	}
	s.logger.Debug("history entry saved",
		zap.String("user", e.UserID),
		zap.String("calculator", e.CalculatorSlug),
		zap.String("id", e.ID))
	return e, nil
}

// Get returns one entry of the user.
func (s *Store) Get(ctx context.Context, userID, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, calculator_slug, calculator_title, inputs_json, results_json, created_at
		 FROM history WHERE user_id = ? AND id = ?`, userID, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// List returns up to limit entries of the user, newest first, starting
// after cursor. A limit of zero or less uses the store's page size.
func (s *Store) List(ctx context.Context, userID string, limit int, cursor string) (Page, error) {
	if userID == "" {
		return Page{}, ErrMissingUser
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, MaxPageSize)

	query := `SELECT id, user_id, calculator_slug, calculator_title, inputs_json, results_json, created_at
		FROM history WHERE user_id = ?`
	args := []any{userID}
	if cursor != "" {
		at, id, err := decodeCursor(cursor)
		if err != nil {
			return Page{}, err
		}
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, at, at, id)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	page := Page{Entries: []Entry{}}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Page{}, err
		}
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("list history: %w", err)
	}

	if len(page.Entries) > limit {
		page.Entries = page.Entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt.UnixNano(), last.ID)
	}
	return page, nil
}

// Delete removes one entry of the user.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all entries of the user and returns how many were removed.
func (s *Store) Clear(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingUser
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	s.logger.Debug("history cleared", zap.String("user", userID), zap.Int64("removed", n))
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e               Entry
		inputs, results string
		created         int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.CalculatorSlug, &e.CalculatorTitle, &inputs, &results, &created); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(inputs), &e.Inputs); err != nil {
		return Entry{}, fmt.Errorf("decode inputs of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(results), &e.Results); err != nil {
		return Entry{}, fmt.Errorf("decode results of %s: %w", e.ID, err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

func encodeCursor(at int64, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(at, 10) + ":" + id))
}

func decodeCursor(cursor string) (int64, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, "", ErrInvalidCursor
	}
	at, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return 0, "", ErrInvalidCursor
	}
	n, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidCursor
	}
	return n, id, nil
}
