package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
)

// Repository defines persistence operations for the identity projection and
// its deletion cascade.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	CountListingsByOwner(ctx context.Context, ownerID string) (int64, error)
	CountChatsByUser(ctx context.Context, userID string) (int64, error)
	CountTransactionsByUser(ctx context.Context, userID string) (int64, error)
	DeactivateListings(ctx context.Context, ownerID string) (int64, error)
}
