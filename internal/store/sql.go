package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS store (
	id TEXT PRIMARY KEY,
	title TEXT,
	image TEXT,
	status TEXT,
	position INTEGER NOT NULL
)`

// postgres SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgInvalidCatalogName  = "3D000"
	pgMaintenanceDatabase = "postgres"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// SQLStore implements [Repository] on top of database/sql.
//
// Queries are written with "?" placeholders and rebound for PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Open returns the [Repository] selected by dsn, creating the database and
// table if they do not exist yet.
//
// Accepted forms:
//   - postgres://... or postgresql://...: PostgreSQL via pgx
//   - sqlite://path, sqlite:///path, file:..., or a bare path: SQLite
//
// Any other scheme is rejected.
//   - memory: a [MemoryStore]
func Open(ctx context.Context, dsn string) (Repository, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("database url is empty")
	case dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openPostgres(ctx, dsn)
	case isSQLite(dsn):
		return openSQLite(ctx, sqlitePath(dsn))
	default:
		scheme, _, _ := strings.Cut(dsn, "://")
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// isSQLite reports whether dsn names a SQLite database: a plain path or a
// sqlite, sqlite3 or file URL.
func isSQLite(dsn string) bool {
	scheme, _, found := strings.Cut(dsn, "://")
	if !found {
		return true
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3", "file":
		return true
	}
	return false
}

// sqlitePath converts SQLAlchemy-style sqlite URLs into a go-sqlite3 filename.
func sqlitePath(dsn string) string {
	for _, scheme := range []string{"sqlite3://", "sqlite://"} {
		if !strings.HasPrefix(dsn, scheme) {
			continue
		}
		rest := strings.TrimPrefix(dsn, scheme)
		if rest == "" {
			return ":memory:"
		}
		// sqlite:///relative.db and sqlite:////absolute.db
		if strings.HasPrefix(rest, "/") {
			rest = rest[1:]
			if rest == "" {
				return ":memory:"
			}
		}
		return rest
	}
	return dsn
}

func openSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases coherent and serialises writers
	db.SetMaxOpenConns(1)

	return newSQLStore(ctx, db, dialectSQLite)
}

func openPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.PingContext(ctx)
	if isMissingDatabase(err) {
		_ = db.Close()
		if err := createPostgresDatabase(ctx, dsn); err != nil {
			return nil, err
		}
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		err = db.PingContext(ctx)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newSQLStore(ctx, db, dialectPostgres)
}

// createPostgresDatabase connects to the maintenance database and creates
// the database named in dsn.
func createPostgresDatabase(ctx context.Context, dsn string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}
	name := cfg.Database
	cfg.Database = pgMaintenanceDatabase

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to maintenance database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return fmt.Errorf("failed to create database %q: %w", name, err)
	}
	return nil
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s schema: %w", d, err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert persists a new record after the current last position.
func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO store (id, title, image, status, position) "+
			"SELECT ?, ?, ?, ?, COALESCE(MAX(position), 0) + 1 FROM store"),
		r.ID, r.Title, r.Image, r.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", r.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert store: %w", err)
	}
	return nil
}

// List retrieves all records ordered by insertion.
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, image, status FROM store ORDER BY position ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return records, nil
}

// Get retrieves a record by ID.
func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, title, image, status FROM store WHERE id = ?"), id,
	)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r     Record
		title sql.NullString
		image sql.NullString
	)
	if err := sc.Scan(&r.ID, &title, &image, &r.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("failed to scan store: %w", err)
	}
	r.Title = title.String
	r.Image = image.String
	return r, nil
}

// Update applies a partial update to an existing record.
func (s *SQLStore) Update(ctx context.Context, id string, f Fields) error {
	if f.empty() {
		_, err := s.Get(ctx, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	if f.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *f.Image)
	}
	if f.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *f.Status)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE store SET "+strings.Join(sets, ", ")+" WHERE id = ?"),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a record. Deleting an absent ID is not an error.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM store WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidCatalogName
}
