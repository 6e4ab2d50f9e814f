package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/flipearn/flipearn-backend/pkg/db/types"
)

// Credential holds the escrowed login for a listing. OriginalCredential is
// immutable after submission; UpdatedCredential mirrors it until an admin
// rotates the login, after which only UpdatedCredential moves.
type Credential struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID          uuid.UUID                `gorm:"column:listing_id;type:uuid;not null;uniqueIndex"`
	Listing            *Listing                 `gorm:"foreignKey:ListingID"`
	OriginalCredential dbtypes.CredentialFields `gorm:"column:original_credential;type:jsonb;not null"`
	UpdatedCredential  dbtypes.CredentialFields `gorm:"column:updated_credential;type:jsonb;not null"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
