package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/tusharkarle/gym-management/internal/db"
	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemberService registers and maintains gym members.
type MemberService struct {
	db  *gorm.DB
	now func() time.Time
}

// MemberInput is the registration payload.
type MemberInput struct {
	FirstName   string        `json:"firstName" validate:"required,max=100"`
	MiddleName  string        `json:"middleName" validate:"max=100"`
	LastName    string        `json:"lastName" validate:"required,max=100"`
	Gender      models.Gender `json:"gender" validate:"required,oneof=male female other"`
	Address     string        `json:"address" validate:"required"`
	WhatsappNo  string        `json:"whatsappNo" validate:"required,digits=10"`
	Email       string        `json:"email" validate:"required,email,max=255"`
	DateOfBirth string        `json:"dateOfBirth" validate:"required"`
	Profession  string        `json:"profession" validate:"required"`
	Reference   string        `json:"reference"`
	AadharCard  string        `json:"aadharCard" validate:"required,digits=12"`
	PhotoURL    string        `json:"photoUrl"`
}

// MemberPatch lists every mutable member field. Nil fields are left untouched;
// optional fields are cleared by an empty string.
type MemberPatch struct {
	FirstName   *string        `json:"firstName"`
	MiddleName  *string        `json:"middleName"`
	LastName    *string        `json:"lastName"`
	Gender      *models.Gender `json:"gender"`
	Address     *string        `json:"address"`
	WhatsappNo  *string        `json:"whatsappNo"`
	Email       *string        `json:"email"`
	DateOfBirth *string        `json:"dateOfBirth"`
	Profession  *string        `json:"profession"`
	Reference   *string        `json:"reference"`
	AadharCard  *string        `json:"aadharCard"`
	PhotoURL    *string        `json:"photoUrl"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MemberPatch) IsEmpty() bool {
	return p.FirstName == nil && p.MiddleName == nil && p.LastName == nil && p.Gender == nil &&
		p.Address == nil && p.WhatsappNo == nil && p.Email == nil && p.DateOfBirth == nil &&
		p.Profession == nil && p.Reference == nil && p.AadharCard == nil && p.PhotoURL == nil
}

// MemberFilters narrows FindAll.
type MemberFilters struct {
	Search string        // Case-sensitive substring of the first name.
	Gender models.Gender // Exact gender.
}

// Normalize trims fields, lowercases gender and email, and strips separators from numbers.
func (in MemberInput) Normalize() MemberInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = models.Gender(strings.ToLower(strings.TrimSpace(string(in.Gender))))
	in.Address = strings.TrimSpace(in.Address)
	in.WhatsappNo = normalizeDigits(in.WhatsappNo)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	in.Profession = strings.TrimSpace(in.Profession)
	in.Reference = strings.TrimSpace(in.Reference)
	in.AadharCard = normalizeDigits(in.AadharCard)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	return in
}

// Validate checks field rules on a normalized input and returns the parsed date of birth.
func (in MemberInput) Validate(now time.Time) (time.Time, error) {
	ve := &ValidationError{}
	if errStruct := validateStruct(in); errStruct != nil {
		if !errors.As(errStruct, &ve) {
			return time.Time{}, errStruct
		}
	}

	var dob time.Time
	if _, invalid := ve.Fields["dateOfBirth"]; !invalid {
		parsed, errParse := parseCalendarDate(in.DateOfBirth)
		switch {
		case errParse != nil:
			ve.Add("dateOfBirth", "must be a date in YYYY-MM-DD format")
		case parsed.After(DateOnly(now)):
			ve.Add("dateOfBirth", "must not be in the future")
		default:
			dob = parsed
		}
	}
	return dob, ve.errOrNil()
}

func inputFromMember(m *models.Member) MemberInput {
	return MemberInput{
		FirstName:   m.FirstName,
		MiddleName:  derefString(m.MiddleName),
		LastName:    m.LastName,
		Gender:      m.Gender,
		Address:     m.Address,
		WhatsappNo:  m.WhatsappNo,
		Email:       m.Email,
		DateOfBirth: time.Time(m.DateOfBirth).Format(time.DateOnly),
		Profession:  m.Profession,
		Reference:   derefString(m.Reference),
		AadharCard:  m.AadharCard,
		PhotoURL:    derefString(m.PhotoURL),
	}
}

// Apply merges the provided patch fields into in.
func (p MemberPatch) Apply(in MemberInput) MemberInput {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.FirstName, p.FirstName)
	set(&in.MiddleName, p.MiddleName)
	set(&in.LastName, p.LastName)
	if p.Gender != nil {
		in.Gender = *p.Gender
	}
	set(&in.Address, p.Address)
	set(&in.WhatsappNo, p.WhatsappNo)
	set(&in.Email, p.Email)
	set(&in.DateOfBirth, p.DateOfBirth)
	set(&in.Profession, p.Profession)
	set(&in.Reference, p.Reference)
	set(&in.AadharCard, p.AadharCard)
	set(&in.PhotoURL, p.PhotoURL)
	return in
}

// Create validates and registers a new member.
func (s *MemberService) Create(ctx context.Context, input MemberInput) (*models.Member, error) {
	input = input.Normalize()
	dob, errValidate := input.Validate(s.now())
	if errValidate != nil {
		return nil, errValidate
	}

	conn := s.db.WithContext(ctx)
	if errUnique := checkMemberUnique(conn, input.AadharCard, input.Email, 0); errUnique != nil {
		return nil, errUnique
	}

	member := models.Member{
		FirstName:   input.FirstName,
		MiddleName:  optionalString(input.MiddleName),
		LastName:    input.LastName,
		Gender:      input.Gender,
		Address:     input.Address,
		WhatsappNo:  input.WhatsappNo,
		Email:       input.Email,
		DateOfBirth: datatypes.Date(dob),
		Profession:  input.Profession,
		Reference:   optionalString(input.Reference),
		AadharCard:  input.AadharCard,
		PhotoURL:    optionalString(input.PhotoURL),
		CreatedAt:   s.now().UTC(),
	}
	if errCreate := conn.Create(&member).Error; errCreate != nil {
		return nil, classifyMemberWriteError(conn, errCreate, input.AadharCard, input.Email, 0)
	}
	metrics.RecordMemberCreated()
	return &member, nil
}

// FindAll lists members newest first with their subscriptions.
func (s *MemberService) FindAll(ctx context.Context, filters MemberFilters) ([]models.Member, error) {
	q := s.db.WithContext(ctx).Model(&models.Member{})
	if filters.Search != "" {
		q = q.Where(dbutil.ContainsExpr(s.db, "first_name"), filters.Search)
	}
	if filters.Gender != "" {
		if !filters.Gender.Valid() {
			return nil, fieldError("gender", "must be one of: male, female, other")
		}
		q = q.Where("gender = ?", filters.Gender)
	}

	var members []models.Member
	errFind := q.
		Preload("MemberPackages", orderNewestFirst).
		Preload("MemberPackages.Package").
		Order("created_at DESC").
		Order("id DESC").
		Find(&members).Error
	if errFind != nil {
		return nil, fmt.Errorf("list members: %w", errFind)
	}
	return members, nil
}

// FindOne returns a member with subscriptions, attendance and payments.
func (s *MemberService) FindOne(ctx context.Context, id uint64) (*models.Member, error) {
	var member models.Member
	errFind := s.db.WithContext(ctx).
		Preload("MemberPackages", orderNewestFirst).
		Preload("MemberPackages.Package").
		Preload("AttendanceRecords", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("check_in_time DESC").Order("id DESC")
		}).
		Preload("Payments", orderNewestFirst).
		Where("id = ?", id).
		First(&member).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFound("Member", id)
		}
		return nil, fmt.Errorf("get member: %w", errFind)
	}
	return &member, nil
}

// Update applies patch to the member after validating the merged result with the Create rules.
func (s *MemberService) Update(ctx context.Context, id uint64, patch MemberPatch) (*models.Member, error) {
	if patch.IsEmpty() {
		return nil, fieldError("patch", "at least one field must be provided")
	}

	conn := s.db.WithContext(ctx)
	var existing models.Member
	if errFind := conn.Where("id = ?", id).First(&existing).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFound("Member", id)
		}
		return nil, fmt.Errorf("get member: %w", errFind)
	}

	merged := patch.Apply(inputFromMember(&existing)).Normalize()
	dob, errValidate := merged.Validate(s.now())
	if errValidate != nil {
		return nil, errValidate
	}

	identityChanged := merged.AadharCard != existing.AadharCard
	emailChanged := merged.Email != existing.Email
	if identityChanged || emailChanged {
		aadhar, email := "", ""
		if identityChanged {
			aadhar = merged.AadharCard
		}
		if emailChanged {
			email = merged.Email
		}
		if errUnique := checkMemberUnique(conn, aadhar, email, id); errUnique != nil {
			return nil, errUnique
		}
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.FirstName != nil {
		updates["first_name"] = merged.FirstName
	}
	if patch.MiddleName != nil {
		updates["middle_name"] = optionalString(merged.MiddleName)
	}
	if patch.LastName != nil {
		updates["last_name"] = merged.LastName
	}
	if patch.Gender != nil {
		updates["gender"] = merged.Gender
	}
	if patch.Address != nil {
		updates["address"] = merged.Address
	}
	if patch.WhatsappNo != nil {
		updates["whatsapp_no"] = merged.WhatsappNo
	}
	if patch.Email != nil {
		updates["email"] = merged.Email
	}
	if patch.DateOfBirth != nil {
		updates["date_of_birth"] = datatypes.Date(dob)
	}
	if patch.Profession != nil {
		updates["profession"] = merged.Profession
	}
	if patch.Reference != nil {
		updates["reference"] = optionalString(merged.Reference)
	}
	if patch.AadharCard != nil {
		updates["aadhar_card"] = merged.AadharCard
	}
	if patch.PhotoURL != nil {
		updates["photo_url"] = optionalString(merged.PhotoURL)
	}

	if errUpdate := conn.Model(&models.Member{}).Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
		return nil, classifyMemberWriteError(conn, errUpdate, merged.AadharCard, merged.Email, id)
	}
	return s.FindOne(ctx, id)
}

// Remove hard-deletes a member; subscriptions, attendance and payments go with it.
func (s *MemberService) Remove(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Member{})
	if res.Error != nil {
		return fmt.Errorf("delete member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Member", id)
	}
	return nil
}

// checkMemberUnique checks the identity document before the email. Blank values are skipped.
func checkMemberUnique(conn *gorm.DB, aadhar, email string, excludeID uint64) error {
	taken := func(column, value string) (bool, error) {
		q := conn.Model(&models.Member{}).Where(column+" = ?", value)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		var count int64
		if errCount := q.Count(&count).Error; errCount != nil {
			return false, fmt.Errorf("check %s uniqueness: %w", column, errCount)
		}
		return count > 0, nil
	}

	if aadhar != "" {
		exists, err := taken("aadhar_card", aadhar)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdentity
		}
	}
	if email != "" {
		exists, err := taken("email", email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEmail
		}
	}
	return nil
}

// classifyMemberWriteError maps a unique-index violation that raced past the pre-check.
func classifyMemberWriteError(conn *gorm.DB, err error, aadhar, email string, excludeID uint64) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("save member: %w", err)
	}
	if errUnique := checkMemberUnique(conn, aadhar, email, excludeID); errUnique != nil {
		return errUnique
	}
	// Some other unique index fired; keep the driver error.
	return fmt.Errorf("save member: %w", err)
}

func orderNewestFirst(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at DESC").Order("id DESC")
}
