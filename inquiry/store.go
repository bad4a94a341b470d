package inquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no inquiry has the requested ID.
var ErrNotFound = errors.New("inquiry not found")

// timeLayout is fixed-width so that lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps a SQLite database holding inquiries.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// ListOptions filters and pages List results.
type ListOptions struct {
	Limit  int
	Offset int
	Status Status // empty means any
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open inquiry db: %w", err)
	}
	// WAL lets the dashboard read while the public form writes; the busy
	// timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure inquiry db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS inquiries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			service TEXT,
			message TEXT,
			page TEXT NOT NULL DEFAULT '/',
			status TEXT NOT NULL DEFAULT 'new',
			created_at TEXT NOT NULL,
			updated_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at);
		CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	var verStr string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = 'schema_version'`).Scan(&verStr)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version < currentSchemaVersion {
		version = currentSchemaVersion
	}
	_, err = s.db.Exec(`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(version))
	return err
}

// Create stores a validated submission as a new inquiry with a server timestamp.
func (s *Store) Create(ctx context.Context, sub Submission) (Inquiry, error) {
	page := sub.Page
	if page == "" {
		page = "/"
	}
	inq := Inquiry{
		ID:        uuid.NewString(),
		Name:      sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Service:   sub.Service,
		Message:   sub.Message,
		Page:      page,
		Status:    StatusNew,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO inquiries
		(id, name, email, phone, service, message, page, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inq.ID, inq.Name, inq.Email, inq.Phone,
		nullString(inq.Service), nullString(inq.Message),
		inq.Page, string(inq.Status), inq.CreatedAt.Format(timeLayout))
	if err != nil {
		return Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}
	return inq, nil
}

// List returns inquiries newest first together with the total number of rows
// matching the status filter (ignoring limit and offset).
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Inquiry, int, error) {
	where := ""
	var args []any
	if opts.Status != "" {
		where = " WHERE status = ?"
		args = append(args, string(opts.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inquiries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone, service, message, page, status, created_at, updated_at
		FROM inquiries`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	items := []Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	return items, total, nil
}

// Get returns a single inquiry by ID.
func (s *Store) Get(ctx context.Context, id string) (Inquiry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, phone, service, message, page, status, created_at, updated_at
		FROM inquiries WHERE id = ?`, id)
	inq, err := scanInquiry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Inquiry{}, ErrNotFound
	}
	return inq, err
}

// UpdateStatus sets the status of one inquiry and stamps updated_at.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update inquiry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update inquiry %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInquiry(sc scanner) (Inquiry, error) {
	var (
		inq              Inquiry
		service, message sql.NullString
		status, created  string
		updated          sql.NullString
	)
	if err := sc.Scan(&inq.ID, &inq.Name, &inq.Email, &inq.Phone, &service, &message,
		&inq.Page, &status, &created, &updated); err != nil {
		return Inquiry{}, err
	}
	inq.Service = service.String
	inq.Message = message.String
	inq.Status = NormalizeStatus(status)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Inquiry{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	inq.CreatedAt = t
	if updated.Valid && strings.TrimSpace(updated.String) != "" {
		u, err := time.Parse(timeLayout, updated.String)
		if err != nil {
			return Inquiry{}, fmt.Errorf("parse updated_at %q: %w", updated.String, err)
		}
		inq.UpdatedAt = &u
	}
	return inq, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
