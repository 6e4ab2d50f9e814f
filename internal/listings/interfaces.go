package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

// Repository defines persistence operations for listings and their escrowed
// credentials.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error)
	ListUnverified(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error)
	ListUnchanged(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateCredential(ctx context.Context, credential *models.Credential) error
	FindCredentialByListing(ctx context.Context, listingID uuid.UUID) (*models.Credential, error)
	FindCredentialByListingForUpdate(ctx context.Context, listingID uuid.UUID) (*models.Credential, error)
	UpdateCredentialFields(ctx context.Context, credentialID uuid.UUID, updates map[string]any) error
}
