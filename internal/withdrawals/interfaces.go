package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
)

// Repository defines persistence operations for the withdrawal ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	List(ctx context.Context) ([]models.Withdrawal, error)
	ListByUser(ctx context.Context, userID string) ([]models.Withdrawal, error)
	MarkWithdrawn(ctx context.Context, id uuid.UUID, withdrawnAt time.Time) (bool, error)
	FindUserByIDForUpdate(ctx context.Context, userID string) (*models.User, error)
	SumRequestedByUser(ctx context.Context, userID string) (int64, error)
}
