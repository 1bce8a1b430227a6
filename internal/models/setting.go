package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores a key/value configuration entry in the database.
type Setting struct {
	Key         string         `gorm:"type:varchar(255);primaryKey" json:"key"`  // Configuration key.
	Value       datatypes.JSON `gorm:"type:text;not null" json:"value"`          // JSON-encoded value, stored as text on every dialect.
	Description *string        `gorm:"type:text" json:"description,omitempty"`   // Human readable description.
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updatedAt"` // Last update timestamp.
}
