package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionStatus is the lifecycle state of a MemberPackage.
type SubscriptionStatus string

// SubscriptionStatus values. Transitions only move forward out of active.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// MemberPackage is one purchased subscription tying a member to a package for a date range.
type MemberPackage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	MemberID  uint64 `gorm:"not null;index" json:"memberId"`  // Owning member.
	PackageID uint64 `gorm:"not null;index" json:"packageId"` // Template the subscription was sold from.

	StartDate datatypes.Date     `gorm:"not null" json:"startDate"`                             // First day covered.
	EndDate   datatypes.Date     `gorm:"not null;index" json:"endDate"`                         // Start plus the package duration in calendar months.
	Amount    float64            `gorm:"type:decimal(10,2);not null" json:"amount"`             // Price snapshot at renewal.
	Status    SubscriptionStatus `gorm:"type:text;not null;default:active;index" json:"status"` // active, expired or cancelled.

	Member   *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`                                      // Owning member.
	Package  *Package  `gorm:"foreignKey:PackageID;constraint:OnDelete:RESTRICT" json:"package,omitempty"`       // Source template.
	Payments []Payment `gorm:"foreignKey:MemberPackageID;constraint:OnDelete:CASCADE" json:"payments,omitempty"` // Linked payments.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}
