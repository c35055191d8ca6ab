package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/partnerflow/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: Store implements domain.Transactor.
var _ domain.Transactor = (*Store)(nil)

// Store is the SQLite document store shared by all repositories.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: transactions carried in the context must see every
	// write, and in-memory databases exist per connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Companies returns the company repository.
func (s *Store) Companies() *CompanyRepository {
	return &CompanyRepository{store: s}
}

// Requests returns the request repository.
func (s *Store) Requests() *RequestRepository {
	return &RequestRepository{store: s}
}

// Memberships returns the membership repository.
func (s *Store) Memberships() *MembershipRepository {
	return &MembershipRepository{store: s}
}

// Catalog returns the offer and plan repository.
func (s *Store) Catalog() *CatalogRepository {
	return &CatalogRepository{store: s}
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

type txKey struct{}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "beginning transaction", Err: err}
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "committing transaction", Err: err}
	}
	return nil
}

// conn returns the transaction carried by ctx, or the database.
func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// write runs a multi-statement write atomically, joining any outer transaction.
func (s *Store) write(ctx context.Context, fn func(q querier) error) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(s.conn(ctx))
	})
}

const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// timeDecoder parses stored timestamps and keeps the first failure.
type timeDecoder struct {
	err error
}

func (d *timeDecoder) parse(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil && d.err == nil {
		d.err = &domain.PersistenceError{Op: "decoding timestamp", Err: err}
	}
	return t
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func (d *timeDecoder) parseNull(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := d.parse(s.String)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// profileDoc is the stored JSON shape of a company profile and request payload.
type profileDoc struct {
	Name           string                `json:"name"`
	TaxID          string                `json:"tax_id,omitempty"`
	Address        string                `json:"address,omitempty"`
	Phone          string                `json:"phone,omitempty"`
	Email          string                `json:"email,omitempty"`
	Website        string                `json:"website,omitempty"`
	LogoURL        string                `json:"logo_url,omitempty"`
	Contact        domain.Contact        `json:"contact"`
	Representative domain.Representative `json:"representative"`
	Categories     []string              `json:"categories,omitempty"`
	Brands         []string              `json:"brands,omitempty"`
}

func encodeProfile(p domain.Profile) (string, error) {
	b, err := json.Marshal(profileDoc(p))
	if err != nil {
		return "", fmt.Errorf("encoding profile: %w", err)
	}
	return string(b), nil
}

func decodeProfile(s string) (domain.Profile, error) {
	var doc profileDoc
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return domain.Profile{}, &domain.PersistenceError{Op: "decoding profile", Err: err}
	}
	return domain.Profile(doc), nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE or PRIMARY KEY constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// casMiss resolves a zero-row compare-and-swap update into not-found or conflict.
func casMiss(ctx context.Context, q querier, table, keyColumn, id string, notFound error) error {
	var exists int
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ?`, table, keyColumn), id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return notFound
	}
	if err != nil {
		return &domain.PersistenceError{Op: "checking " + table, Err: err}
	}
	return domain.ErrConcurrentUpdate
}
