package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

func newTestRepo(t *testing.T) (*ListingRepoImpl, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "listings.db")
	repo, err := NewListingRepo(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestListingRepo_CreatesFileOnFirstRun(t *testing.T) {
	_, path := newTestRepo(t)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestListingRepo_InsertAndExists(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "111")
	require.NoError(t, err)
	assert.False(t, exists)

	observed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, &entity.Listing{
		ID: "111", Title: "RTX 3090", Price: 849.99, Link: "https://www.ebay.com/itm/111", ObservedAt: observed,
	}))

	exists, err = repo.Exists(ctx, "111")
	require.NoError(t, err)
	assert.True(t, exists)

	var title, createdAt string
	var price float64
	err = repo.db.QueryRowContext(ctx, `SELECT title, price, created_at FROM listings WHERE id = ?`, "111").
		Scan(&title, &price, &createdAt)
	require.NoError(t, err)
	assert.Equal(t, "RTX 3090", title)
	assert.Equal(t, 849.99, price)
	assert.Equal(t, "2026-10-17T12:00:00Z", createdAt)
}

func TestListingRepo_DuplicateKeyDoesNotOverwrite(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &entity.Listing{ID: "1", Title: "first", Price: 100, Link: "a"}))
	err := repo.Insert(ctx, &entity.Listing{ID: "1", Title: "second", Price: 200, Link: "b"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	var title string
	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT title FROM listings WHERE id = '1'`).Scan(&title))
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count))
	assert.Equal(t, "first", title)
	assert.Equal(t, 1, count)
}

func TestListingRepo_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.db")
	ctx := context.Background()

	repo, err := NewListingRepo(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, &entity.Listing{ID: "42", Title: "t", Price: 1, Link: "l"}))
	require.NoError(t, repo.Close())

	reopened, err := NewListingRepo(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	exists, err := reopened.Exists(ctx, "42")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListingRepo_InvalidInput(t *testing.T) {
	repo, _ := newTestRepo(t)

	assert.ErrorIs(t, repo.Insert(context.Background(), &entity.Listing{}), repository.ErrInvalidInput)
	assert.NoError(t, repo.Ping(context.Background()))
}
