package models

import "time"

// User is the local projection of an identity-provider account. The primary
// key is the provider's opaque user id, not a generated uuid.
type User struct {
	ID          string    `gorm:"type:text;primaryKey"`
	Email       string    `gorm:"type:text;not null;uniqueIndex"`
	Name        string    `gorm:"type:text;not null"`
	ImageURL    *string   `gorm:"column:image_url"`
	EarnedCents int64     `gorm:"column:earned_cents;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
