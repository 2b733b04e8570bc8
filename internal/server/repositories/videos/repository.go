// Package videos persists video metadata records.
package videos

import (
	"context"

	"github.com/dmitrijs2005/clipshare/internal/server/models"
)

// Repository stores videos. List methods return records ordered by
// created_at descending, ties broken by id descending.
type Repository interface {
	Create(ctx context.Context, v *models.Video) (*models.Video, error)
	GetByID(ctx context.Context, id string) (*models.Video, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Video, error)
}
