package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/gorm"
)

// PaymentService records payments against subscriptions.
type PaymentService struct {
	db  *gorm.DB
	now func() time.Time
}

// PaymentInput records a payment for an existing subscription. MemberID is optional;
// when set it must match the subscription's member.
type PaymentInput struct {
	MemberPackageID uint64 `json:"memberPackageId" validate:"required"`
	MemberID        uint64 `json:"memberId"`
	PaymentDetails
}

// Normalize normalizes the embedded payment details.
func (in PaymentInput) Normalize() PaymentInput {
	in.PaymentDetails = in.PaymentDetails.Normalize()
	return in
}

// Validate checks field rules on a normalized input.
func (in PaymentInput) Validate() error { return validateStruct(in) }

// PaymentFilters narrows FindAll. Zero values disable a filter.
type PaymentFilters struct {
	MemberID      uint64
	PaymentMethod models.PaymentMethod
	DateRange     *DateRange
}

// Record stores a payment. The member is taken from the subscription.
func (s *PaymentService) Record(ctx context.Context, input PaymentInput) (*models.Payment, error) {
	input = input.Normalize()
	if errValidate := input.Validate(); errValidate != nil {
		return nil, errValidate
	}
	if input.Amount <= 0 {
		return nil, fieldError("amount", "must be greater than 0")
	}

	conn := s.db.WithContext(ctx)
	var subscription models.MemberPackage
	if errFind := conn.Where("id = ?", input.MemberPackageID).First(&subscription).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFound("MemberPackage", input.MemberPackageID)
		}
		return nil, fmt.Errorf("get member package: %w", errFind)
	}
	if input.MemberID != 0 && input.MemberID != subscription.MemberID {
		return nil, fieldError("memberId", "does not match the subscription's member")
	}

	payment := models.Payment{
		MemberID:        subscription.MemberID,
		MemberPackageID: subscription.ID,
		Amount:          input.Amount,
		PaymentMethod:   input.PaymentMethod,
		TransactionID:   optionalString(input.TransactionID),
		Notes:           optionalString(input.Notes),
		CreatedAt:       s.now().UTC(),
	}
	if errCreate := conn.Create(&payment).Error; errCreate != nil {
		return nil, fmt.Errorf("create payment: %w", errCreate)
	}
	metrics.RecordPayment(string(payment.PaymentMethod), payment.Amount)
	return &payment, nil
}

// FindAll lists payments newest first with member and subscription attached.
func (s *PaymentService) FindAll(ctx context.Context, filters PaymentFilters) ([]models.Payment, error) {
	if errRange := filters.DateRange.Validate(); errRange != nil {
		return nil, errRange
	}

	q := s.db.WithContext(ctx).Model(&models.Payment{})
	if filters.MemberID != 0 {
		q = q.Where("member_id = ?", filters.MemberID)
	}
	if filters.PaymentMethod != "" {
		if !filters.PaymentMethod.Valid() {
			return nil, fieldError("paymentMethod", "must be one of: cash, card, upi, bank_transfer")
		}
		q = q.Where("payment_method = ?", filters.PaymentMethod)
	}
	q = filters.DateRange.apply(q, "created_at")

	var rows []models.Payment
	errFind := q.
		Preload("Member").
		Preload("MemberPackage").
		Preload("MemberPackage.Package").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list payments: %w", errFind)
	}
	return rows, nil
}
