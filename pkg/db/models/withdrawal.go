package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal is a seller payout request against their earned balance.
type Withdrawal struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      string     `gorm:"column:user_id;type:text;not null;index"`
	User        *User      `gorm:"foreignKey:UserID"`
	AmountCents int64      `gorm:"column:amount_cents;not null"`
	IsWithdrawn bool       `gorm:"column:is_withdrawn;not null;default:false"`
	WithdrawnAt *time.Time `gorm:"column:withdrawn_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
