package payloads

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseCompletedEvent is emitted in the payment-success transaction. The
// worker uses it to deliver the escrowed credential to the buyer.
type PurchaseCompletedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	ListingID     uuid.UUID `json:"listing_id"`
	BuyerID       string    `json:"buyer_id"`
	SellerID      string    `json:"seller_id"`
	AmountCents   int64     `json:"amount_cents"`
	PaidAt        time.Time `json:"paid_at"`
}

// ListingDeletedEvent is emitted when a listing with an escrowed credential
// is soft-deleted; the worker returns both credential sets to the owner.
type ListingDeletedEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	Platform  string    `json:"platform"`
}

// WithdrawalRequestedEvent notifies operations that a payout needs manual
// review.
type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	UserID       string    `json:"user_id"`
	AmountCents  int64     `json:"amount_cents"`
}
