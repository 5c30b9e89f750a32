package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ListingRepoImpl provides a concrete implementation for the ListingRepository interface using PostgreSQL.
type ListingRepoImpl struct {
	db *pgxpool.Pool
}

// NewListingRepo connects to dsn and applies the schema.
func NewListingRepo(ctx context.Context, dsn string) (*ListingRepoImpl, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	r := &ListingRepoImpl{db: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return r, nil
}

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
		if _, err := r.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

// Exists reports whether a listing with this id is stored.
func (r *ListingRepoImpl) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists %q: %w", id, err)
	}
	return exists, nil
}

// Insert stores a new listing. An existing row is never updated; ErrDuplicateKey is returned instead.
func (r *ListingRepoImpl) Insert(ctx context.Context, l *entity.Listing) error {
	if l == nil || l.ID == "" {
		return repository.ErrInvalidInput
	}

	createdAt := l.ObservedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO listings (id, title, price, link, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	tag, err := r.db.Exec(ctx, query, l.ID, l.Title, l.Price, l.Link, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("postgres: insert %q: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrDuplicateKey
	}
	return nil
}

func (r *ListingRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *ListingRepoImpl) Close() error {
	r.db.Close()
	return nil
}

var _ repository.ListingRepository = (*ListingRepoImpl)(nil)
