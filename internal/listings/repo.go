package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a listings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// sqlite serializes writers on its own and rejects FOR UPDATE.
func (r *repositoryImpl) forUpdate(query *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repositoryImpl) ListAll(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).Preload("Owner")
	return r.listPage(ctx, query, params)
}

func (r *repositoryImpl) ListUnverified(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("is_credential_submitted = ? AND is_credential_verified = ? AND status <> ?", true, false, "deleted")
	return r.listPage(ctx, query, params)
}

func (r *repositoryImpl) ListUnchanged(ctx context.Context, params pagination.Params) ([]models.Listing, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("is_credential_verified = ? AND is_credential_changed = ? AND status <> ?", true, false, "deleted")
	return r.listPage(ctx, query, params)
}

func (r *repositoryImpl) listPage(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Listing, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var listings []models.Listing
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&listings).Error; err != nil {
		return nil, nil, err
	}

	if len(listings) > normalized {
		next := listings[normalized]
		listings = listings[:normalized]
		return listings, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return listings, nil, nil
}

func (r *repositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) CreateCredential(ctx context.Context, credential *models.Credential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

func (r *repositoryImpl) FindCredentialByListing(ctx context.Context, listingID uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *repositoryImpl) FindCredentialByListingForUpdate(ctx context.Context, listingID uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("listing_id = ?", listingID).
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *repositoryImpl) UpdateCredentialFields(ctx context.Context, credentialID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("id = ?", credentialID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
