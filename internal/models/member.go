package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gender enumerates the accepted member genders.
type Gender string

// Gender values.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// Member is a registered gym patron.
type Member struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	FirstName  string  `gorm:"type:text;not null;index" json:"firstName"` // Given name, searched by substring.
	MiddleName *string `gorm:"type:text" json:"middleName,omitempty"`     // Optional middle name.
	LastName   string  `gorm:"type:text;not null" json:"lastName"`        // Family name.
	Gender     Gender  `gorm:"type:text;not null;index" json:"gender"`    // male, female or other.

	Address     string         `gorm:"type:text;not null" json:"address"`                       // Postal address.
	WhatsappNo  string         `gorm:"type:varchar(10);not null" json:"whatsappNo"`             // 10 digit contact number.
	Email       string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`     // Unique contact email.
	DateOfBirth datatypes.Date `gorm:"not null" json:"dateOfBirth"`                             // Calendar birth date.
	Profession  string         `gorm:"type:text;not null" json:"profession"`                    // Occupation.
	Reference   *string        `gorm:"type:text" json:"reference,omitempty"`                    // Optional referral note.
	AadharCard  string         `gorm:"type:varchar(12);not null;uniqueIndex" json:"aadharCard"` // 12 digit identity document number.
	PhotoURL    *string        `gorm:"type:text" json:"photoUrl,omitempty"`                     // Optional photo reference.

	MemberPackages    []MemberPackage `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"memberPackages,omitempty"`    // Purchased subscriptions.
	AttendanceRecords []Attendance    `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"attendanceRecords,omitempty"` // Check-ins.
	Payments          []Payment       `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`          // Payments made.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}

// FullName joins the non-empty name parts.
func (m *Member) FullName() string {
	name := m.FirstName
	if m.MiddleName != nil && *m.MiddleName != "" {
		name += " " + *m.MiddleName
	}
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}
