package repository

import (
	"context"

	"github.com/user/dealwatch/internal/entity"
)

// Notifier delivers a one-off alert about a listing.
type Notifier interface {
	Notify(ctx context.Context, l *entity.Listing) error
}
