// Package client provides typed access to the gym API. Views depend on Backend;
// Client talks to a running server and MemoryBackend keeps everything in process.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
)

// Backend is the data-access contract shared by the HTTP client and the in-memory fake.
type Backend interface {
	CreateMember(ctx context.Context, input membership.MemberInput) (*models.Member, error)
	ListMembers(ctx context.Context, filters membership.MemberFilters) ([]models.Member, error)
	GetMember(ctx context.Context, id uint64) (*models.Member, error)
	UpdateMember(ctx context.Context, id uint64, patch membership.MemberPatch) (*models.Member, error)
	DeleteMember(ctx context.Context, id uint64) error

	CreatePackage(ctx context.Context, input membership.PackageInput) (*models.Package, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	GetPackage(ctx context.Context, id uint64) (*models.Package, error)
	UpdatePackage(ctx context.Context, id uint64, patch membership.PackagePatch) (*models.Package, error)
	RenewPackage(ctx context.Context, memberID, packageID uint64, payment *membership.PaymentDetails) (*models.MemberPackage, error)
	MemberPackages(ctx context.Context, memberID uint64) ([]models.MemberPackage, error)
	CancelMemberPackage(ctx context.Context, memberPackageID uint64) (*models.MemberPackage, error)

	CheckIn(ctx context.Context, memberID uint64, notes string) (*models.Attendance, error)
	ListAttendance(ctx context.Context, filters membership.AttendanceFilters) ([]models.Attendance, error)
	TodaysAttendance(ctx context.Context) ([]models.Attendance, error)

	RecordPayment(ctx context.Context, input membership.PaymentInput) (*models.Payment, error)
	ListPayments(ctx context.Context, filters membership.PaymentFilters) ([]models.Payment, error)
}

// APIError is a failed response from the server. It unwraps to the matching membership error
// so callers can use errors.Is and errors.As the same way for either Backend.
type APIError struct {
	StatusCode int                 // HTTP status.
	Message    string              // Envelope error message.
	Details    map[string][]string // Per-field validation messages, if any.
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gym api: status %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the status code back onto the domain error.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		if len(e.Details) > 0 {
			return &membership.ValidationError{Fields: e.Details}
		}
		return membership.ErrValidation
	case http.StatusNotFound:
		return membership.ErrNotFound
	case http.StatusConflict:
		switch e.Message {
		case membership.ErrDuplicateIdentity.Error():
			return membership.ErrDuplicateIdentity
		case membership.ErrDuplicateEmail.Error():
			return membership.ErrDuplicateEmail
		default:
			return membership.ErrInvalidTransition
		}
	default:
		return nil
	}
}

// IsNotFound reports whether err means the referenced entity does not exist.
func IsNotFound(err error) bool { return errors.Is(err, membership.ErrNotFound) }
