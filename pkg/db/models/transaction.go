package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction records a purchase attempt. Rows are append-only: a failed or
// abandoned checkout stays is_paid=false forever, payment success flips the
// flag exactly once.
type Transaction struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID   uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	Listing     *Listing  `gorm:"foreignKey:ListingID"`
	UserID      string    `gorm:"column:user_id;type:text;not null;index"`
	OwnerID     string    `gorm:"column:owner_id;type:text;not null"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	IsPaid      bool      `gorm:"column:is_paid;not null;default:false"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
