package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProjectionParams is the user snapshot an identity webhook delivers.
type ProjectionParams struct {
	ID       string
	Email    string
	Name     string
	ImageURL *string
}

// Service keeps the local user table in sync with the identity provider.
type Service interface {
	UpsertFromIdentity(ctx context.Context, params ProjectionParams) error
	DeleteFromIdentity(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*models.User, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a user projection service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) UpsertFromIdentity(ctx context.Context, params ProjectionParams) error {
	if strings.TrimSpace(params.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(params.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user := &models.User{
		ID:       params.ID,
		Email:    strings.ToLower(strings.TrimSpace(params.Email)),
		Name:     strings.TrimSpace(params.Name),
		ImageURL: params.ImageURL,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert user")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, params.ID), "user.projected")
	}
	return nil
}

// DeleteFromIdentity removes the user when nothing references them; a user
// with listings, chats or transactions keeps the row and has their listings
// deactivated instead.
func (s *service) DeleteFromIdentity(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Already gone, replay is fine.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		listings, err := repo.CountListingsByOwner(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count listings")
		}
		chats, err := repo.CountChatsByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count chats")
		}
		transactions, err := repo.CountTransactionsByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count transactions")
		}

		if listings == 0 && chats == 0 && transactions == 0 {
			if err := repo.Delete(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
			}
			if s.logg != nil {
				s.logg.Info(s.logg.WithUserID(ctx, userID), "user.deleted")
			}
			return nil
		}

		deactivated, err := repo.DeactivateListings(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate listings")
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"deactivated_listings": deactivated,
			})
			s.logg.Info(s.logg.WithUserID(logCtx, userID), "user.deactivated")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
