package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat links a prospective buyer to a listing owner. It exists here as a
// dependency record for the user-deletion cascade.
type Chat struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	OwnerID    string    `gorm:"column:owner_id;type:text;not null;index"`
	ChatUserID string    `gorm:"column:chat_user_id;type:text;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
