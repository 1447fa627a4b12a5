// Package store persists accounts, students, chats and the content catalog
// in a relational database. SQLite is used for local runs and tests,
// PostgreSQL for deployments.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// PostgreSQL driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour the store speaks.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

//go:embed schema.sql
var schemaSQL string

// tables in creation order. Dropped in reverse.
var tables = []string{"accounts", "students", "chats", "messages", "topics", "blocks", "chapters", "llm_events"}

// Store wraps the database handle and hands out repositories.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database and creates missing tables.
func Open(dialect Dialect, dsn string) (*Store, error) {
	s, err := Connect(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

// Connect opens the database without touching the schema.
func Connect(dialect Dialect, dsn string) (*Store, error) {
	var driver string
	switch dialect {
	case SQLite:
		driver = "sqlite"
	case Postgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == SQLite {
		// One connection keeps pragmas and in-memory databases consistent.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, dialect: dialect}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL flavour the store was opened with.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Students() StudentRepo { return &studentRepo{s: s} }
func (s *Store) Accounts() AccountRepo { return &accountRepo{s: s} }
func (s *Store) Chats() ChatRepo       { return &chatRepo{s: s} }
func (s *Store) Content() ContentRepo  { return &contentRepo{s: s} }
func (s *Store) Events() EventRepo     { return &eventRepo{s: s} }

// Migrate creates every table that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return persistErr("migrate", err)
		}
	}
	return nil
}

// Drop removes all tables and their data.
func (s *Store) Drop(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		stmt := "DROP TABLE IF EXISTS " + tables[i]
		if s.dialect == Postgres {
			stmt += " CASCADE"
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return persistErr("drop "+tables[i], err)
		}
	}
	return nil
}

func (s *Store) schemaStatements() []string {
	r := strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{json}}", "TEXT",
	)
	if s.dialect == Postgres {
		r = strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{json}}", "JSONB",
		)
	}

	var out []string
	for _, stmt := range strings.Split(r.Replace(schemaSQL), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// rebind rewrites '?' placeholders to '$N' for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr(op, err)
	}
	return nil
}

// insertID executes an INSERT ... RETURNING id statement.
func (s *Store) insertID(ctx context.Context, q querier, op, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, persistErr(op, err)
	}
	return id, nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the SQLite database file path in priority order:
// 1. AIMENTOR_DB environment variable
// 2. $XDG_DATA_HOME/aimentor/aimentor.db
// 3. ~/.local/share/aimentor/aimentor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("AIMENTOR_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "aimentor", "aimentor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
