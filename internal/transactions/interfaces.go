package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

// Repository defines persistence operations for the transaction ledger and
// the listing/user rows the payment path touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	ListPaid(ctx context.Context, params pagination.Params) ([]models.Transaction, *pagination.Cursor, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindListingByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	UpdateListingStatus(ctx context.Context, id uuid.UUID, status enums.ListingStatus) error
	CreditSellerEarnings(ctx context.Context, userID string, amountCents int64) error
	CountListings(ctx context.Context) (int64, error)
	CountListingsByStatus(ctx context.Context, status enums.ListingStatus) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	SumPaidCents(ctx context.Context) (int64, error)
	RecentListings(ctx context.Context, limit int) ([]models.Listing, error)
}
