package repository

import "context"

// SeenCache is a fast membership set of listing ids placed in front of a ListingRepository.
type SeenCache interface {
	// IsSeen checks whether the id has been recorded.
	IsSeen(ctx context.Context, id string) (bool, error)
	// MarkSeen records the id.
	MarkSeen(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
