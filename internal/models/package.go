package models

import "time"

// AllowedDurations lists the package lengths in months that may be sold.
var AllowedDurations = []int{1, 3, 6, 12}

// ValidDuration reports whether months is a sellable package length.
func ValidDuration(months int) bool {
	for _, allowed := range AllowedDurations {
		if months == allowed {
			return true
		}
	}
	return false
}

// Package is a reusable subscription template. Packages are disabled, never deleted,
// so existing subscriptions keep a valid reference.
type Package struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Name           string  `gorm:"type:text;not null" json:"name"`              // Display name.
	DurationMonths int     `gorm:"not null;index" json:"durationMonths"`        // One of 1, 3, 6 or 12.
	Price          float64 `gorm:"type:decimal(10,2);not null" json:"price"`    // Current list price.
	Description    *string `gorm:"type:text" json:"description,omitempty"`      // Optional description.
	IsActive       bool    `gorm:"not null;default:true;index" json:"isActive"` // Whether the package can be sold.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"` // Last update timestamp.
}
