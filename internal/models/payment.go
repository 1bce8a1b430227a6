package models

import "time"

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

// PaymentMethod values.
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer:
		return true
	default:
		return false
	}
}

// Payment is a monetary transaction against a subscription. Several payments may
// reference the same subscription when it is paid in installments.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	MemberID        uint64        `gorm:"not null;index" json:"memberId"`                // Paying member.
	MemberPackageID uint64        `gorm:"not null;index" json:"memberPackageId"`         // Subscription paid for.
	Amount          float64       `gorm:"type:decimal(10,2);not null" json:"amount"`     // Amount received.
	PaymentMethod   PaymentMethod `gorm:"type:text;not null;index" json:"paymentMethod"` // cash, card, upi or bank_transfer.
	TransactionID   *string       `gorm:"type:text" json:"transactionId,omitempty"`      // External reference, if any.
	Notes           *string       `gorm:"type:text" json:"notes,omitempty"`              // Optional notes.

	Member        *Member        `gorm:"foreignKey:MemberID" json:"member,omitempty"`               // Member relation.
	MemberPackage *MemberPackage `gorm:"foreignKey:MemberPackageID" json:"memberPackage,omitempty"` // Subscription relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
}
