package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PackageService manages subscription templates and the subscriptions sold from them.
type PackageService struct {
	db  *gorm.DB
	now func() time.Time
}

// PackageInput is the create payload. IsActive defaults to true.
type PackageInput struct {
	Name           string  `json:"name" validate:"required,max=255"`
	DurationMonths int     `json:"durationMonths" validate:"required,oneof=1 3 6 12"`
	Price          float64 `json:"price" validate:"gte=0"`
	Description    string  `json:"description"`
	IsActive       *bool   `json:"isActive"`
}

// PackagePatch lists every mutable package field. Nil fields are left untouched.
type PackagePatch struct {
	Name           *string  `json:"name"`
	DurationMonths *int     `json:"durationMonths"`
	Price          *float64 `json:"price"`
	Description    *string  `json:"description"`
	IsActive       *bool    `json:"isActive"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PackagePatch) IsEmpty() bool {
	return p.Name == nil && p.DurationMonths == nil && p.Price == nil && p.Description == nil && p.IsActive == nil
}

// PaymentDetails describes a payment taken together with a renewal.
// A zero Amount means the full subscription amount.
type PaymentDetails struct {
	Amount        float64              `json:"amount" validate:"gte=0"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash card upi bank_transfer"`
	TransactionID string               `json:"transactionId" validate:"max=255"`
	Notes         string               `json:"notes"`
}

// RenewRequest sells a package to a member, optionally recording the payment in the same transaction.
type RenewRequest struct {
	MemberID  uint64          `json:"memberId"`
	PackageID uint64          `json:"packageId"`
	Payment   *PaymentDetails `json:"payment,omitempty"`
}

// Normalize trims the text fields.
func (in PackageInput) Normalize() PackageInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Validate checks field rules on a normalized input.
func (in PackageInput) Validate() error { return validateStruct(in) }

// Normalize trims fields and lowercases the payment method.
func (d PaymentDetails) Normalize() PaymentDetails {
	d.PaymentMethod = models.PaymentMethod(strings.ToLower(strings.TrimSpace(string(d.PaymentMethod))))
	d.TransactionID = strings.TrimSpace(d.TransactionID)
	d.Notes = strings.TrimSpace(d.Notes)
	return d
}

// Validate checks field rules on normalized details.
func (d PaymentDetails) Validate() error { return validateStruct(d) }

// Create validates and stores a package template.
func (s *PackageService) Create(ctx context.Context, input PackageInput) (*models.Package, error) {
	input = input.Normalize()
	if errValidate := input.Validate(); errValidate != nil {
		return nil, errValidate
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	pkg := models.Package{
		Name:           input.Name,
		DurationMonths: input.DurationMonths,
		Price:          input.Price,
		Description:    optionalString(input.Description),
		IsActive:       isActive,
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&pkg).Error; errCreate != nil {
			return errCreate
		}
		// A zero bool is dropped in favour of the column default on insert.
		if !isActive {
			if errUpdate := tx.Model(&pkg).Update("is_active", false).Error; errUpdate != nil {
				return errUpdate
			}
			pkg.IsActive = false
		}
		return nil
	})
	if errTx != nil {
		return nil, fmt.Errorf("create package: %w", errTx)
	}
	return &pkg, nil
}

// FindAll lists active packages, shortest and cheapest first.
func (s *PackageService) FindAll(ctx context.Context) ([]models.Package, error) {
	var packages []models.Package
	errFind := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("duration_months ASC").
		Order("price ASC").
		Order("id ASC").
		Find(&packages).Error
	if errFind != nil {
		return nil, fmt.Errorf("list packages: %w", errFind)
	}
	return packages, nil
}

// FindOne returns a package whether or not it is active.
func (s *PackageService) FindOne(ctx context.Context, id uint64) (*models.Package, error) {
	var pkg models.Package
	if errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFound("Package", id)
		}
		return nil, fmt.Errorf("get package: %w", errFind)
	}
	return &pkg, nil
}

// Update applies patch. Subscriptions already sold keep their amount.
func (s *PackageService) Update(ctx context.Context, id uint64, patch PackagePatch) (*models.Package, error) {
	if patch.IsEmpty() {
		return nil, fieldError("patch", "at least one field must be provided")
	}
	existing, errFind := s.FindOne(ctx, id)
	if errFind != nil {
		return nil, errFind
	}

	merged := PackageInput{
		Name:           existing.Name,
		DurationMonths: existing.DurationMonths,
		Price:          existing.Price,
		Description:    derefString(existing.Description),
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.DurationMonths != nil {
		merged.DurationMonths = *patch.DurationMonths
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	merged = merged.Normalize()
	if errValidate := merged.Validate(); errValidate != nil {
		return nil, errValidate
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		updates["name"] = merged.Name
	}
	if patch.DurationMonths != nil {
		updates["duration_months"] = merged.DurationMonths
	}
	if patch.Price != nil {
		updates["price"] = merged.Price
	}
	if patch.Description != nil {
		updates["description"] = optionalString(merged.Description)
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if errUpdate := s.db.WithContext(ctx).Model(&models.Package{}).Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
		return nil, fmt.Errorf("update package: %w", errUpdate)
	}
	return s.FindOne(ctx, id)
}

// RenewMemberPackage sells packageID to memberID starting today.
func (s *PackageService) RenewMemberPackage(ctx context.Context, memberID, packageID uint64) (*models.MemberPackage, error) {
	return s.Renew(ctx, RenewRequest{MemberID: memberID, PackageID: packageID})
}

// Renew creates a subscription from an active package and, when req.Payment is set, its payment.
// Either every row is written or none is.
//
// The subscription starts on today's calendar date and ends durationMonths calendar months later,
// clamped to the end of the month. Its amount is the package price at this moment.
func (s *PackageService) Renew(ctx context.Context, req RenewRequest) (*models.MemberPackage, error) {
	var details *PaymentDetails
	if req.Payment != nil {
		normalized := req.Payment.Normalize()
		if errValidate := normalized.Validate(); errValidate != nil {
			return nil, errValidate
		}
		details = &normalized
	}

	var created models.MemberPackage
	var durationMonths int
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pkg models.Package
		if errFind := tx.Where("id = ? AND is_active = ?", req.PackageID, true).First(&pkg).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFound("Package", req.PackageID)
			}
			return fmt.Errorf("get package: %w", errFind)
		}
		exists, errExists := memberExists(tx, req.MemberID)
		if errExists != nil {
			return fmt.Errorf("get member: %w", errExists)
		}
		if !exists {
			return notFound("Member", req.MemberID)
		}

		start := DateOnly(s.now())
		created = models.MemberPackage{
			MemberID:  req.MemberID,
			PackageID: pkg.ID,
			StartDate: datatypes.Date(start),
			EndDate:   datatypes.Date(AddMonths(start, pkg.DurationMonths)),
			Amount:    pkg.Price,
			Status:    models.SubscriptionActive,
			CreatedAt: s.now().UTC(),
		}
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			return fmt.Errorf("create member package: %w", errCreate)
		}
		durationMonths = pkg.DurationMonths

		if details == nil {
			return nil
		}
		amount := details.Amount
		if amount == 0 {
			amount = created.Amount
		}
		if amount <= 0 {
			return fieldError("payment.amount", "must be greater than 0")
		}
		payment := models.Payment{
			MemberID:        req.MemberID,
			MemberPackageID: created.ID,
			Amount:          amount,
			PaymentMethod:   details.PaymentMethod,
			TransactionID:   optionalString(details.TransactionID),
			Notes:           optionalString(details.Notes),
			CreatedAt:       created.CreatedAt,
		}
		if errCreate := tx.Create(&payment).Error; errCreate != nil {
			return fmt.Errorf("create payment: %w", errCreate)
		}
		created.Payments = []models.Payment{payment}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	metrics.RecordRenewal(durationMonths)
	for _, payment := range created.Payments {
		metrics.RecordPayment(string(payment.PaymentMethod), payment.Amount)
	}
	return &created, nil
}

// GetMemberPackages lists a member's subscriptions newest first with their package.
func (s *PackageService) GetMemberPackages(ctx context.Context, memberID uint64) ([]models.MemberPackage, error) {
	var rows []models.MemberPackage
	errFind := s.db.WithContext(ctx).
		Preload("Package").
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list member packages: %w", errFind)
	}
	return rows, nil
}

// CancelMemberPackage moves an active subscription to cancelled.
func (s *PackageService) CancelMemberPackage(ctx context.Context, memberPackageID uint64) (*models.MemberPackage, error) {
	conn := s.db.WithContext(ctx)
	var current models.MemberPackage
	if errFind := conn.Where("id = ?", memberPackageID).First(&current).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFound("MemberPackage", memberPackageID)
		}
		return nil, fmt.Errorf("get member package: %w", errFind)
	}
	if current.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%w: %s subscription cannot be cancelled", ErrInvalidTransition, current.Status)
	}

	res := conn.Model(&models.MemberPackage{}).
		Where("id = ? AND status = ?", memberPackageID, models.SubscriptionActive).
		Updates(map[string]any{"status": models.SubscriptionCancelled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, fmt.Errorf("cancel member package: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: subscription is no longer active", ErrInvalidTransition)
	}
	metrics.RecordCancellation()

	var updated models.MemberPackage
	if errFind := conn.Preload("Package").Where("id = ?", memberPackageID).First(&updated).Error; errFind != nil {
		return nil, fmt.Errorf("get member package: %w", errFind)
	}
	return &updated, nil
}
