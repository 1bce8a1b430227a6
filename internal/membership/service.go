package membership

import (
	"time"

	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/gorm"
)

// Option customizes the services built by NewServices.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the wall clock. Renewal start dates and check-in times derive from it.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Services bundles the domain services sharing one database handle.
type Services struct {
	Members    *MemberService
	Packages   *PackageService
	Attendance *AttendanceService
	Payments   *PaymentService
}

// NewServices constructs every domain service over db.
func NewServices(db *gorm.DB, opts ...Option) *Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Services{
		Members:    &MemberService{db: db, now: o.now},
		Packages:   &PackageService{db: db, now: o.now},
		Attendance: &AttendanceService{db: db, now: o.now},
		Payments:   &PaymentService{db: db, now: o.now},
	}
}

// DateRange bounds a timestamp filter as [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate requires both bounds and a non-empty range. A nil range is valid.
func (r *DateRange) Validate() error {
	if r == nil {
		return nil
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fieldError("dateRange", "start and end are both required")
	}
	if !r.End.After(r.Start) {
		return fieldError("dateRange", "end must be after start")
	}
	return nil
}

// apply adds the range predicate on column.
func (r *DateRange) apply(q *gorm.DB, column string) *gorm.DB {
	if r == nil {
		return q
	}
	return q.Where(column+" >= ? AND "+column+" < ?", r.Start.UTC(), r.End.UTC())
}

// memberExists reports whether a member row with id exists.
func memberExists(tx *gorm.DB, id uint64) (bool, error) {
	var count int64
	if errCount := tx.Model(&models.Member{}).Where("id = ?", id).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}
