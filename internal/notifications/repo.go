package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
)

// Repository loads the rows a notification email needs.
type Repository interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindCredentialByListing(ctx context.Context, listingID uuid.UUID) (*models.Credential, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a read-only repository for the worker.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repositoryImpl) FindCredentialByListing(ctx context.Context, listingID uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}
