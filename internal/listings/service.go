package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	dbtypes "github.com/flipearn/flipearn-backend/pkg/db/types"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/outbox"
	"github.com/flipearn/flipearn-backend/pkg/outbox/payloads"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the caller of a listing operation.
type Actor struct {
	UserID string
	Role   enums.Role
}

// Service defines the listing lifecycle operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Listing, error)
	SubmitCredential(ctx context.Context, params SubmitCredentialParams) error
	Verify(ctx context.Context, actor Actor, listingID uuid.UUID) error
	RotateCredential(ctx context.Context, params RotateCredentialParams) error
	ChangeStatus(ctx context.Context, actor Actor, listingID uuid.UUID, status enums.ListingStatus) error
	SoftDelete(ctx context.Context, actor Actor, listingID uuid.UUID) error
	MyListings(ctx context.Context, ownerID string) ([]models.Listing, error)
	ListAll(ctx context.Context, params pagination.Params) (*ListingPage, error)
	UnverifiedListings(ctx context.Context, params pagination.Params) (*ListingPage, error)
	UnchangedListings(ctx context.Context, params pagination.Params) (*ListingPage, error)
	GetCredential(ctx context.Context, listingID uuid.UUID) (*models.Credential, error)
}

// CreateParams captures the fields a seller provides for a new listing.
type CreateParams struct {
	Actor       Actor
	Platform    string
	Username    string
	Title       string
	Description *string
	PriceCents  int64
}

// SubmitCredentialParams carries the seller's escrow submission.
type SubmitCredentialParams struct {
	Actor     Actor
	ListingID uuid.UUID
	Fields    dbtypes.CredentialFields
}

// RotateCredentialParams carries an admin credential rotation.
type RotateCredentialParams struct {
	Actor        Actor
	ListingID    uuid.UUID
	CredentialID uuid.UUID
	Fields       dbtypes.CredentialFields
}

// ListingPage is one cursor page of listings.
type ListingPage struct {
	Items      []models.Listing
	NextCursor string
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds a listing service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Listing, error) {
	if params.Actor.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	if strings.TrimSpace(params.Platform) == "" ||
		strings.TrimSpace(params.Username) == "" ||
		strings.TrimSpace(params.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform, username and title are required")
	}
	if params.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	listing := &models.Listing{
		OwnerID:     params.Actor.UserID,
		Platform:    strings.TrimSpace(params.Platform),
		Username:    strings.TrimSpace(params.Username),
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		PriceCents:  params.PriceCents,
		Status:      enums.ListingStatusActive,
	}
	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create listing")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithListingID(ctx, created.ID.String()), "listing.created")
	}
	return created, nil
}

func (s *service) SubmitCredential(ctx context.Context, params SubmitCredentialParams) error {
	if params.Actor.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	if len(params.Fields) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credential fields are required")
	}
	for _, field := range params.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "credential field names are required")
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByIDForUpdate(ctx, params.ListingID)
		if err != nil {
			return translateFindErr(err)
		}
		if listing.OwnerID != params.Actor.UserID && params.Actor.Role != enums.RoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
		}
		if listing.Status == enums.ListingStatusDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is deleted")
		}
		if listing.IsCredentialSubmitted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "credential already submitted")
		}

		credential := &models.Credential{
			ListingID:          listing.ID,
			OriginalCredential: params.Fields.Clone(),
			UpdatedCredential:  params.Fields.Clone(),
		}
		if err := repo.CreateCredential(ctx, credential); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store credential")
		}

		if err := repo.UpdateFields(ctx, listing.ID, map[string]any{
			"is_credential_submitted": true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flag credential submitted")
		}
		return nil
	})
}

func (s *service) Verify(ctx context.Context, actor Actor, listingID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			return translateFindErr(err)
		}
		if listing.Status == enums.ListingStatusDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is deleted")
		}
		if !listing.IsCredentialSubmitted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "credential not submitted")
		}
		if listing.IsCredentialVerified {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "credential already verified")
		}

		return repo.UpdateFields(ctx, listing.ID, map[string]any{
			"is_credential_verified": true,
		})
	})
}

func (s *service) RotateCredential(ctx context.Context, params RotateCredentialParams) error {
	if len(params.Fields) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credential fields are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByIDForUpdate(ctx, params.ListingID)
		if err != nil {
			return translateFindErr(err)
		}
		if listing.Status == enums.ListingStatusDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is deleted")
		}
		if !listing.IsCredentialVerified {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "credential not verified")
		}

		credential, err := repo.FindCredentialByListingForUpdate(ctx, listing.ID)
		if err != nil {
			return translateCredentialErr(err)
		}
		if params.CredentialID != uuid.Nil && credential.ID != params.CredentialID {
			return pkgerrors.New(pkgerrors.CodeConflict, "credential id mismatch")
		}

		if err := repo.UpdateCredentialFields(ctx, credential.ID, map[string]any{
			"updated_credential": params.Fields.Clone(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate credential")
		}

		return repo.UpdateFields(ctx, listing.ID, map[string]any{
			"is_credential_changed": true,
		})
	})
}

func (s *service) ChangeStatus(ctx context.Context, actor Actor, listingID uuid.UUID, status enums.ListingStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing status")
	}
	if status == enums.ListingStatusDeleted {
		return s.SoftDelete(ctx, actor, listingID)
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			return translateFindErr(err)
		}
		return repo.UpdateFields(ctx, listing.ID, map[string]any{
			"status": status,
		})
	})
}

func (s *service) SoftDelete(ctx context.Context, actor Actor, listingID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			return translateFindErr(err)
		}
		if listing.OwnerID != actor.UserID && actor.Role != enums.RoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
		}
		if listing.Status == enums.ListingStatusDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already deleted")
		}

		if err := repo.UpdateFields(ctx, listing.ID, map[string]any{
			"status": enums.ListingStatusDeleted,
		}); err != nil {
			return err
		}

		// Only listings holding an escrowed credential need the owner
		// notified.
		if _, err := repo.FindCredentialByListing(ctx, listing.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load credential")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingDeleted,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.ListingDeletedEvent{
				ListingID: listing.ID,
				OwnerID:   listing.OwnerID,
				Title:     listing.Title,
				Username:  listing.Username,
				Platform:  listing.Platform,
			},
			Version: 1,
		})
	})
}

func (s *service) MyListings(ctx context.Context, ownerID string) ([]models.Listing, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}
	listings, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list listings")
	}
	return listings, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*ListingPage, error) {
	items, next, err := s.repo.ListAll(ctx, params)
	return buildPage(items, next, err)
}

func (s *service) UnverifiedListings(ctx context.Context, params pagination.Params) (*ListingPage, error) {
	items, next, err := s.repo.ListUnverified(ctx, params)
	return buildPage(items, next, err)
}

func (s *service) UnchangedListings(ctx context.Context, params pagination.Params) (*ListingPage, error) {
	items, next, err := s.repo.ListUnchanged(ctx, params)
	return buildPage(items, next, err)
}

func (s *service) GetCredential(ctx context.Context, listingID uuid.UUID) (*models.Credential, error) {
	credential, err := s.repo.FindCredentialByListing(ctx, listingID)
	if err != nil {
		return nil, translateCredentialErr(err)
	}
	return credential, nil
}

func buildPage(items []models.Listing, next *pagination.Cursor, err error) (*ListingPage, error) {
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list listings")
	}
	page := &ListingPage{Items: items}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func translateFindErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
}

func translateCredentialErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "credential not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load credential")
}
