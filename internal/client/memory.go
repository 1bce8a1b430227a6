package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/datatypes"
)

// MemoryBackend implements Backend in process memory with the same rules as the server.
// It is safe for concurrent use.
type MemoryBackend struct {
	mu  sync.Mutex
	now func() time.Time

	lastID        uint64
	members       map[uint64]*models.Member
	packages      map[uint64]*models.Package
	subscriptions map[uint64]*models.MemberPackage
	attendance    map[uint64]*models.Attendance
	payments      map[uint64]*models.Payment
}

// NewMemoryBackend creates an empty MemoryBackend. A nil clock means time.Now.
func NewMemoryBackend(now func() time.Time) *MemoryBackend {
	if now == nil {
		now = time.Now
	}
	return &MemoryBackend{
		now:           now,
		members:       map[uint64]*models.Member{},
		packages:      map[uint64]*models.Package{},
		subscriptions: map[uint64]*models.MemberPackage{},
		attendance:    map[uint64]*models.Attendance{},
		payments:      map[uint64]*models.Payment{},
	}
}

var _ Backend = (*MemoryBackend)(nil)

func (m *MemoryBackend) nextID() uint64 {
	m.lastID++
	return m.lastID
}

func validationError(field, message string) error {
	ve := &membership.ValidationError{}
	ve.Add(field, message)
	return ve
}

func notFound(entity string, id uint64) error {
	return &membership.NotFoundError{Entity: entity, ID: id}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// newestFirst orders by creation time then id, both descending.
func newestFirst(aTime, bTime time.Time, aID, bID uint64) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}

// uniqueMember checks the identity document before the email, ignoring excludeID.
func (m *MemoryBackend) uniqueMember(aadhar, email string, excludeID uint64) error {
	for _, existing := range m.members {
		if existing.ID != excludeID && aadhar != "" && existing.AadharCard == aadhar {
			return membership.ErrDuplicateIdentity
		}
	}
	for _, existing := range m.members {
		if existing.ID != excludeID && email != "" && existing.Email == email {
			return membership.ErrDuplicateEmail
		}
	}
	return nil
}

func memberInputOf(member *models.Member) membership.MemberInput {
	return membership.MemberInput{
		FirstName:   member.FirstName,
		MiddleName:  deref(member.MiddleName),
		LastName:    member.LastName,
		Gender:      member.Gender,
		Address:     member.Address,
		WhatsappNo:  member.WhatsappNo,
		Email:       member.Email,
		DateOfBirth: time.Time(member.DateOfBirth).Format(time.DateOnly),
		Profession:  member.Profession,
		Reference:   deref(member.Reference),
		AadharCard:  member.AadharCard,
		PhotoURL:    deref(member.PhotoURL),
	}
}

func fillMember(member *models.Member, input membership.MemberInput, dob time.Time) {
	member.FirstName = input.FirstName
	member.MiddleName = optional(input.MiddleName)
	member.LastName = input.LastName
	member.Gender = input.Gender
	member.Address = input.Address
	member.WhatsappNo = input.WhatsappNo
	member.Email = input.Email
	member.DateOfBirth = datatypes.Date(dob)
	member.Profession = input.Profession
	member.Reference = optional(input.Reference)
	member.AadharCard = input.AadharCard
	member.PhotoURL = optional(input.PhotoURL)
}

// subscriptionView copies a subscription with its package attached.
func (m *MemoryBackend) subscriptionView(sub *models.MemberPackage) models.MemberPackage {
	out := *sub
	out.Payments = nil
	if pkg, ok := m.packages[sub.PackageID]; ok {
		p := *pkg
		out.Package = &p
	}
	return out
}

func (m *MemoryBackend) memberSubscriptions(memberID uint64) []models.MemberPackage {
	out := make([]models.MemberPackage, 0)
	for _, sub := range m.subscriptions {
		if sub.MemberID == memberID {
			out = append(out, m.subscriptionView(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// CreateMember registers a member.
func (m *MemoryBackend) CreateMember(_ context.Context, input membership.MemberInput) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	input = input.Normalize()
	dob, errValidate := input.Validate(m.now())
	if errValidate != nil {
		return nil, errValidate
	}
	if errUnique := m.uniqueMember(input.AadharCard, input.Email, 0); errUnique != nil {
		return nil, errUnique
	}

	now := m.now().UTC()
	member := &models.Member{ID: m.nextID(), CreatedAt: now, UpdatedAt: now}
	fillMember(member, input, dob)
	m.members[member.ID] = member
	out := *member
	return &out, nil
}

// ListMembers lists members newest first with their subscriptions.
func (m *MemoryBackend) ListMembers(_ context.Context, filters membership.MemberFilters) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if filters.Gender != "" && !filters.Gender.Valid() {
		return nil, validationError("gender", "must be one of: male, female, other")
	}
	out := make([]models.Member, 0, len(m.members))
	for _, member := range m.members {
		if filters.Search != "" && !strings.Contains(member.FirstName, filters.Search) {
			continue
		}
		if filters.Gender != "" && member.Gender != filters.Gender {
			continue
		}
		row := *member
		row.MemberPackages = m.memberSubscriptions(member.ID)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// GetMember returns a member with subscriptions, attendance and payments.
func (m *MemoryBackend) GetMember(_ context.Context, id uint64) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getMember(id)
}

func (m *MemoryBackend) getMember(id uint64) (*models.Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, notFound("Member", id)
	}
	out := *member
	out.MemberPackages = m.memberSubscriptions(id)

	out.AttendanceRecords = make([]models.Attendance, 0)
	for _, row := range m.attendance {
		if row.MemberID == id {
			out.AttendanceRecords = append(out.AttendanceRecords, *row)
		}
	}
	sort.Slice(out.AttendanceRecords, func(i, j int) bool {
		a, b := out.AttendanceRecords[i], out.AttendanceRecords[j]
		return newestFirst(a.CheckInTime, b.CheckInTime, a.ID, b.ID)
	})

	out.Payments = make([]models.Payment, 0)
	for _, row := range m.payments {
		if row.MemberID == id {
			out.Payments = append(out.Payments, *row)
		}
	}
	sort.Slice(out.Payments, func(i, j int) bool {
		a, b := out.Payments[i], out.Payments[j]
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return &out, nil
}

// UpdateMember applies patch after validating the merged result.
func (m *MemoryBackend) UpdateMember(_ context.Context, id uint64, patch membership.MemberPatch) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.IsEmpty() {
		return nil, validationError("patch", "at least one field must be provided")
	}
	member, ok := m.members[id]
	if !ok {
		return nil, notFound("Member", id)
	}
	merged := patch.Apply(memberInputOf(member)).Normalize()
	dob, errValidate := merged.Validate(m.now())
	if errValidate != nil {
		return nil, errValidate
	}

	aadhar, email := "", ""
	if merged.AadharCard != member.AadharCard {
		aadhar = merged.AadharCard
	}
	if merged.Email != member.Email {
		email = merged.Email
	}
	if errUnique := m.uniqueMember(aadhar, email, id); errUnique != nil {
		return nil, errUnique
	}

	fillMember(member, merged, dob)
	member.UpdatedAt = m.now().UTC()
	return m.getMember(id)
}

// DeleteMember removes a member with its subscriptions, attendance and payments.
func (m *MemoryBackend) DeleteMember(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[id]; !ok {
		return notFound("Member", id)
	}
	delete(m.members, id)
	for subID, sub := range m.subscriptions {
		if sub.MemberID == id {
			delete(m.subscriptions, subID)
		}
	}
	for rowID, row := range m.attendance {
		if row.MemberID == id {
			delete(m.attendance, rowID)
		}
	}
	for rowID, row := range m.payments {
		if row.MemberID == id {
			delete(m.payments, rowID)
		}
	}
	return nil
}

// CreatePackage adds a package template.
func (m *MemoryBackend) CreatePackage(_ context.Context, input membership.PackageInput) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	input = input.Normalize()
	if errValidate := input.Validate(); errValidate != nil {
		return nil, errValidate
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	now := m.now().UTC()
	pkg := &models.Package{
		ID:             m.nextID(),
		Name:           input.Name,
		DurationMonths: input.DurationMonths,
		Price:          input.Price,
		Description:    optional(input.Description),
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.packages[pkg.ID] = pkg
	out := *pkg
	return &out, nil
}

// ListPackages lists active packages, shortest and cheapest first.
func (m *MemoryBackend) ListPackages(_ context.Context) ([]models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Package, 0, len(m.packages))
	for _, pkg := range m.packages {
		if pkg.IsActive {
			out = append(out, *pkg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DurationMonths != b.DurationMonths {
			return a.DurationMonths < b.DurationMonths
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ID < b.ID
	})
	return out, nil
}

// GetPackage returns a package whether or not it is active.
func (m *MemoryBackend) GetPackage(_ context.Context, id uint64) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg, ok := m.packages[id]
	if !ok {
		return nil, notFound("Package", id)
	}
	out := *pkg
	return &out, nil
}

// UpdatePackage applies patch. Subscriptions already sold keep their amount.
func (m *MemoryBackend) UpdatePackage(_ context.Context, id uint64, patch membership.PackagePatch) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.IsEmpty() {
		return nil, validationError("patch", "at least one field must be provided")
	}
	pkg, ok := m.packages[id]
	if !ok {
		return nil, notFound("Package", id)
	}
	merged := membership.PackageInput{
		Name:           pkg.Name,
		DurationMonths: pkg.DurationMonths,
		Price:          pkg.Price,
		Description:    deref(pkg.Description),
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

	pkg.Name = merged.Name
	pkg.DurationMonths = merged.DurationMonths
	pkg.Price = merged.Price
	pkg.Description = optional(merged.Description)
	if patch.IsActive != nil {
		pkg.IsActive = *patch.IsActive
	}
	pkg.UpdatedAt = m.now().UTC()
	out := *pkg
	return &out, nil
}

// RenewPackage creates a subscription from an active package and, when payment is set, its payment.
func (m *MemoryBackend) RenewPackage(_ context.Context, memberID, packageID uint64, payment *membership.PaymentDetails) (*models.MemberPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var details *membership.PaymentDetails
	if payment != nil {
		normalized := payment.Normalize()
		if errValidate := normalized.Validate(); errValidate != nil {
			return nil, errValidate
		}
		details = &normalized
	}

	pkg, ok := m.packages[packageID]
	if !ok || !pkg.IsActive {
		return nil, notFound("Package", packageID)
	}
	if _, ok := m.members[memberID]; !ok {
		return nil, notFound("Member", memberID)
	}

	start := membership.DateOnly(m.now())
	created := &models.MemberPackage{
		MemberID:  memberID,
		PackageID: pkg.ID,
		StartDate: datatypes.Date(start),
		EndDate:   datatypes.Date(membership.AddMonths(start, pkg.DurationMonths)),
		Amount:    pkg.Price,
		Status:    models.SubscriptionActive,
		CreatedAt: m.now().UTC(),
	}
	created.UpdatedAt = created.CreatedAt

	var paid *models.Payment
	if details != nil {
		amount := details.Amount
		if amount == 0 {
			amount = created.Amount
		}
		if amount <= 0 {
			return nil, validationError("payment.amount", "must be greater than 0")
		}
		paid = &models.Payment{
			MemberID:      memberID,
			Amount:        amount,
			PaymentMethod: details.PaymentMethod,
			TransactionID: optional(details.TransactionID),
			Notes:         optional(details.Notes),
			CreatedAt:     created.CreatedAt,
		}
	}

	// Nothing is stored until every check has passed.
	created.ID = m.nextID()
	m.subscriptions[created.ID] = created
	out := *created
	if paid != nil {
		paid.ID = m.nextID()
		paid.MemberPackageID = created.ID
		m.payments[paid.ID] = paid
		out.Payments = []models.Payment{*paid}
	}
	return &out, nil
}

// MemberPackages lists a member's subscriptions newest first with their package.
func (m *MemoryBackend) MemberPackages(_ context.Context, memberID uint64) ([]models.MemberPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memberSubscriptions(memberID), nil
}

// CancelMemberPackage moves an active subscription to cancelled.
func (m *MemoryBackend) CancelMemberPackage(_ context.Context, memberPackageID uint64) (*models.MemberPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[memberPackageID]
	if !ok {
		return nil, notFound("MemberPackage", memberPackageID)
	}
	if sub.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%w: %s subscription cannot be cancelled", membership.ErrInvalidTransition, sub.Status)
	}
	sub.Status = models.SubscriptionCancelled
	sub.UpdatedAt = m.now().UTC()
	out := m.subscriptionView(sub)
	return &out, nil
}

// CheckIn records a check-in for an existing member at the current time.
func (m *MemoryBackend) CheckIn(_ context.Context, memberID uint64, notes string) (*models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[memberID]; !ok {
		return nil, notFound("Member", memberID)
	}
	now := m.now().UTC()
	row := &models.Attendance{
		ID:          m.nextID(),
		MemberID:    memberID,
		CheckInTime: now,
		Notes:       optional(notes),
		CreatedAt:   now,
	}
	m.attendance[row.ID] = row
	out := *row
	return &out, nil
}

func inRange(r *membership.DateRange, t time.Time) bool {
	return r == nil || (!t.Before(r.Start) && t.Before(r.End))
}

func (m *MemoryBackend) listAttendance(memberID uint64, r *membership.DateRange) []models.Attendance {
	out := make([]models.Attendance, 0)
	for _, row := range m.attendance {
		if memberID != 0 && row.MemberID != memberID {
			continue
		}
		if !inRange(r, row.CheckInTime) {
			continue
		}
		view := *row
		if member, ok := m.members[row.MemberID]; ok {
			mm := *member
			view.Member = &mm
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CheckInTime, out[j].CheckInTime, out[i].ID, out[j].ID)
	})
	return out
}

// ListAttendance lists check-ins newest first with the member attached.
func (m *MemoryBackend) ListAttendance(_ context.Context, filters membership.AttendanceFilters) ([]models.Attendance, error) {
	if errRange := filters.DateRange.Validate(); errRange != nil {
		return nil, errRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listAttendance(filters.MemberID, filters.DateRange), nil
}

// TodaysAttendance lists check-ins made during the current local day.
func (m *MemoryBackend) TodaysAttendance(_ context.Context) ([]models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, end := membership.LocalDayBounds(m.now())
	return m.listAttendance(0, &membership.DateRange{Start: start, End: end}), nil
}

// RecordPayment stores a payment for an existing subscription.
func (m *MemoryBackend) RecordPayment(_ context.Context, input membership.PaymentInput) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	input = input.Normalize()
	if errValidate := input.Validate(); errValidate != nil {
		return nil, errValidate
	}
	if input.Amount <= 0 {
		return nil, validationError("amount", "must be greater than 0")
	}
	sub, ok := m.subscriptions[input.MemberPackageID]
	if !ok {
		return nil, notFound("MemberPackage", input.MemberPackageID)
	}
	if input.MemberID != 0 && input.MemberID != sub.MemberID {
		return nil, validationError("memberId", "does not match the subscription's member")
	}
	payment := &models.Payment{
		ID:              m.nextID(),
		MemberID:        sub.MemberID,
		MemberPackageID: sub.ID,
		Amount:          input.Amount,
		PaymentMethod:   input.PaymentMethod,
		TransactionID:   optional(input.TransactionID),
		Notes:           optional(input.Notes),
		CreatedAt:       m.now().UTC(),
	}
	m.payments[payment.ID] = payment
	out := *payment
	return &out, nil
}

// ListPayments lists payments newest first with member and subscription attached.
func (m *MemoryBackend) ListPayments(_ context.Context, filters membership.PaymentFilters) ([]models.Payment, error) {
	if errRange := filters.DateRange.Validate(); errRange != nil {
		return nil, errRange
	}
	if filters.PaymentMethod != "" && !filters.PaymentMethod.Valid() {
		return nil, validationError("paymentMethod", "must be one of: cash, card, upi, bank_transfer")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Payment, 0)
	for _, row := range m.payments {
		if filters.MemberID != 0 && row.MemberID != filters.MemberID {
			continue
		}
		if filters.PaymentMethod != "" && row.PaymentMethod != filters.PaymentMethod {
			continue
		}
		if !inRange(filters.DateRange, row.CreatedAt) {
			continue
		}
		view := *row
		if member, ok := m.members[row.MemberID]; ok {
			mm := *member
			view.Member = &mm
		}
		if sub, ok := m.subscriptions[row.MemberPackageID]; ok {
			sv := m.subscriptionView(sub)
			view.MemberPackage = &sv
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}
