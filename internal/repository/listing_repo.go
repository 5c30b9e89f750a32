package repository

import (
	"context"

	"github.com/user/dealwatch/internal/entity"
)

// ListingRepository is the append-only record of listings already seen.
type ListingRepository interface {
	// Exists reports whether a listing with this id has been inserted before.
	Exists(ctx context.Context, id string) (bool, error)
	// Insert stores a new listing. Returns ErrDuplicateKey if the id is already present;
	// the stored record is never overwritten.
	Insert(ctx context.Context, l *entity.Listing) error
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}
