package models

import "time"

// SchemaMigration records an applied schema version.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"` // Monotonic schema version.
	Name      string    `gorm:"type:text;not null"`             // Short migration name.
	AppliedAt time.Time `gorm:"not null"`                       // When the version was applied.
}
