package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ListingRepoImpl stores listings in a local SQLite file.
type ListingRepoImpl struct {
	db *sql.DB
}

// NewListingRepo opens (creating if absent) the database file at path and applies the schema.
func NewListingRepo(ctx context.Context, path string) (*ListingRepoImpl, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// The pipeline is the only writer; one connection avoids SQLITE_BUSY between pooled conns.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	r := &ListingRepoImpl{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return r, nil
}

// migrate applies all embedded SQL files in lexical order. Migrations are idempotent.
func (r *ListingRepoImpl) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := fs.ReadFile(migrationsFS, "migrations/"+f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

// Exists reports whether a listing with this id is stored.
func (r *ListingRepoImpl) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ?`, id).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("sqlite: exists %q: %w", id, err)
	}
	return true, nil
}

// Insert adds a new listing. Returns ErrDuplicateKey if the id exists; the stored row is kept.
func (r *ListingRepoImpl) Insert(ctx context.Context, l *entity.Listing) error {
	if l == nil || l.ID == "" {
		return repository.ErrInvalidInput
	}

	createdAt := l.ObservedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, title, price, link, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		l.ID, l.Title, l.Price, l.Link, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert %q: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: insert %q: %w", l.ID, err)
	}
	if n == 0 {
		return repository.ErrDuplicateKey
	}
	return nil
}

func (r *ListingRepoImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ListingRepoImpl) Close() error {
	return r.db.Close()
}

var _ repository.ListingRepository = (*ListingRepoImpl)(nil)
