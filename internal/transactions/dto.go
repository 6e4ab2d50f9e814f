package transactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
)

// CheckoutResult is returned to the buyer after a checkout session opens.
type CheckoutResult struct {
	TransactionID uuid.UUID `json:"transactionId"`
	CheckoutURL   string    `json:"checkoutUrl"`
}

// BuyerSummary is the identity slice admins see next to each sale.
type BuyerSummary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// AdminTransaction is one paid ledger row with the buyer joined in.
type AdminTransaction struct {
	ID          uuid.UUID     `json:"id"`
	ListingID   uuid.UUID     `json:"listingId"`
	OwnerID     string        `json:"ownerId"`
	AmountCents int64         `json:"amountCents"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	Buyer       *BuyerSummary `json:"buyer,omitempty"`
}

// AdminTransactionPage is one cursor page of paid transactions.
type AdminTransactionPage struct {
	Items      []AdminTransaction `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// DashboardStats aggregates the admin overview numbers.
type DashboardStats struct {
	TotalListings     int64            `json:"totalListings"`
	ActiveListings    int64            `json:"activeListings"`
	TotalUsers        int64            `json:"totalUsers"`
	TotalRevenueCents int64            `json:"totalRevenueCents"`
	RecentListings    []models.Listing `json:"recentListings"`
}
