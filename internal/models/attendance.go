package models

import "time"

// Attendance is a single check-in event. Rows are never updated.
type Attendance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	MemberID    uint64    `gorm:"not null;index" json:"memberId"`    // Member who checked in.
	CheckInTime time.Time `gorm:"not null;index" json:"checkInTime"` // Check-in instant (UTC).
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`  // Optional free-text note.

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"` // Member relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"` // Creation timestamp.
}

// TableName keeps the singular table name used by existing databases.
func (Attendance) TableName() string { return "attendance" }
