package memory

import (
	"context"
	"sync"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

// ListingRepoImpl is an in-memory implementation of repository.ListingRepository.
type ListingRepoImpl struct {
	mu   sync.RWMutex
	data map[string]entity.Listing // keyed by listing id
}

// NewListingRepo creates an empty in-memory listing store.
func NewListingRepo() *ListingRepoImpl {
	return &ListingRepoImpl{data: make(map[string]entity.Listing)}
}

// Exists reports whether the id has been inserted.
func (r *ListingRepoImpl) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[id]
	return ok, nil
}

// Insert adds a new listing. Returns ErrDuplicateKey if the id exists.
func (r *ListingRepoImpl) Insert(_ context.Context, l *entity.Listing) error {
	if l == nil || l.ID == "" {
		return repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[l.ID]; exists {
		return repository.ErrDuplicateKey
	}
	// Store a copy to prevent external mutation
	r.data[l.ID] = *l
	return nil
}

// Get returns a copy of a stored listing.
func (r *ListingRepoImpl) Get(id string) (entity.Listing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.data[id]
	return l, ok
}

// Len returns the number of stored listings.
func (r *ListingRepoImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *ListingRepoImpl) Ping(context.Context) error { return nil }

func (r *ListingRepoImpl) Close() error { return nil }

// Verify interface compliance at compile time.
var _ repository.ListingRepository = (*ListingRepoImpl)(nil)
