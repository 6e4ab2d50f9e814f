package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/outbox"
	"github.com/flipearn/flipearn-backend/pkg/outbox/payloads"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
	pkgstripe "github.com/flipearn/flipearn-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CheckoutGateway opens a hosted payment page for a pending transaction.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, params pkgstripe.CheckoutParams) (*stripe.CheckoutSession, error)
}

// Service defines the transaction ledger operations.
type Service interface {
	CreateCheckout(ctx context.Context, buyerID string, listingID uuid.UUID) (*CheckoutResult, error)
	RecordPaymentSuccess(ctx context.Context, transactionID uuid.UUID) error
	AdminList(ctx context.Context, params pagination.Params) (*AdminTransactionPage, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway CheckoutGateway
	logg    *logger.Logger
}

// NewService builds a transaction service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, gateway CheckoutGateway, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, gateway: gateway, logg: logg}, nil
}

func (s *service) CreateCheckout(ctx context.Context, buyerID string, listingID uuid.UUID) (*CheckoutResult, error) {
	if buyerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller required")
	}

	listing, err := s.repo.FindListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
	}
	if listing.Status != enums.ListingStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not for sale")
	}
	if !listing.IsCredentialVerified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing credential is not verified")
	}
	if listing.OwnerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot buy your own listing")
	}

	transaction := &models.Transaction{
		ListingID:   listing.ID,
		UserID:      buyerID,
		OwnerID:     listing.OwnerID,
		AmountCents: listing.PriceCents,
	}
	if _, err := s.repo.Create(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create transaction")
	}

	buyerEmail := ""
	if buyer, err := s.repo.FindUserByID(ctx, buyerID); err == nil {
		buyerEmail = buyer.Email
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, pkgstripe.CheckoutParams{
		TransactionID: transaction.ID.String(),
		ListingTitle:  listing.Title,
		AmountCents:   listing.PriceCents,
		BuyerEmail:    buyerEmail,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open checkout session")
	}

	if s.logg != nil {
		logCtx := s.logg.WithTransactionID(ctx, transaction.ID.String())
		s.logg.Info(s.logg.WithListingID(logCtx, listing.ID.String()), "checkout.session_created")
	}
	return &CheckoutResult{TransactionID: transaction.ID, CheckoutURL: session.URL}, nil
}

// RecordPaymentSuccess is the single entry point the payment webhook uses. It
// is a no-op for already-paid transactions and is safe to redeliver at any
// abort point: the flag flip, the outbox emit, the listing flip and the
// seller credit all commit in one transaction.
func (s *service) RecordPaymentSuccess(ctx context.Context, transactionID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		transaction, err := repo.FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
		}
		if transaction.IsPaid {
			return nil
		}

		listing, err := repo.FindListingByIDForUpdate(ctx, transaction.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeInternal, "listing missing for paid transaction")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
		}
		if listing.Status == enums.ListingStatusSold {
			// Another transaction already sold this listing. Refuse before
			// touching the ledger so the buyer sees a failed payment, not a
			// second sale of the same account.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment not confirmed")
		}

		paidAt := time.Now().UTC()
		updated, err := repo.MarkPaid(ctx, transaction.ID, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark transaction paid")
		}
		if !updated {
			// A concurrent delivery won the race inside its own tx.
			return nil
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPurchaseCompleted,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Data: payloads.PurchaseCompletedEvent{
				TransactionID: transaction.ID,
				ListingID:     transaction.ListingID,
				BuyerID:       transaction.UserID,
				SellerID:      transaction.OwnerID,
				AmountCents:   transaction.AmountCents,
				PaidAt:        paidAt,
			},
			Version: 1,
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit purchase event")
		}

		if err := repo.UpdateListingStatus(ctx, listing.ID, enums.ListingStatusSold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark listing sold")
		}

		if err := repo.CreditSellerEarnings(ctx, transaction.OwnerID, transaction.AmountCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit seller")
		}

		if s.logg != nil {
			s.logg.Info(s.logg.WithTransactionID(ctx, transaction.ID.String()), "payment.recorded")
		}
		return nil
	})
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (*AdminTransactionPage, error) {
	transactions, next, err := s.repo.ListPaid(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}

	buyerIDs := make([]string, 0, len(transactions))
	seen := map[string]bool{}
	for _, transaction := range transactions {
		if !seen[transaction.UserID] {
			seen[transaction.UserID] = true
			buyerIDs = append(buyerIDs, transaction.UserID)
		}
	}

	buyers, err := s.repo.FindUsersByIDs(ctx, buyerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyers")
	}
	byID := make(map[string]models.User, len(buyers))
	for _, buyer := range buyers {
		byID[buyer.ID] = buyer
	}

	page := &AdminTransactionPage{Items: make([]AdminTransaction, 0, len(transactions))}
	for _, transaction := range transactions {
		item := AdminTransaction{
			ID:          transaction.ID,
			ListingID:   transaction.ListingID,
			OwnerID:     transaction.OwnerID,
			AmountCents: transaction.AmountCents,
			PaidAt:      transaction.PaidAt,
			CreatedAt:   transaction.CreatedAt,
		}
		if buyer, ok := byID[transaction.UserID]; ok {
			item.Buyer = &BuyerSummary{
				ID:       buyer.ID,
				Email:    buyer.Email,
				Name:     buyer.Name,
				ImageURL: buyer.ImageURL,
			}
		}
		page.Items = append(page.Items, item)
	}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	totalListings, err := s.repo.CountListings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count listings")
	}
	activeListings, err := s.repo.CountListingsByStatus(ctx, enums.ListingStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count active listings")
	}
	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	revenue, err := s.repo.SumPaidCents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	recent, err := s.repo.RecentListings(ctx, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent listings")
	}

	return &DashboardStats{
		TotalListings:     totalListings,
		ActiveListings:    activeListings,
		TotalUsers:        totalUsers,
		TotalRevenueCents: revenue,
		RecentListings:    recent,
	}, nil
}
