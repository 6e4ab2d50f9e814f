package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flipearn/flipearn-backend/pkg/enums"
)

// Listing is a digital account offered for sale. Status and the three
// credential flags together drive the escrow workflow: submitted means the
// seller handed over the credential, verified means an admin confirmed it
// works, changed means the credential was rotated after verification.
type Listing struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID               string              `gorm:"column:owner_id;type:text;not null;index"`
	Owner                 *User               `gorm:"foreignKey:OwnerID"`
	Platform              string              `gorm:"column:platform;type:text;not null"`
	Username              string              `gorm:"column:username;type:text;not null"`
	Title                 string              `gorm:"column:title;type:text;not null"`
	Description           *string             `gorm:"column:description"`
	PriceCents            int64               `gorm:"column:price_cents;not null"`
	Status                enums.ListingStatus `gorm:"column:status;type:listing_status_enum;not null;default:active"`
	IsCredentialSubmitted bool                `gorm:"column:is_credential_submitted;not null;default:false"`
	IsCredentialVerified  bool                `gorm:"column:is_credential_verified;not null;default:false"`
	IsCredentialChanged   bool                `gorm:"column:is_credential_changed;not null;default:false"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
