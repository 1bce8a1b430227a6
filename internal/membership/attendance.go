package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/gorm"
)

// AttendanceService records and lists member check-ins.
type AttendanceService struct {
	db  *gorm.DB
	now func() time.Time
}

// AttendanceFilters narrows FindAll. Zero values disable a filter.
type AttendanceFilters struct {
	MemberID  uint64
	DateRange *DateRange
}

// CheckIn records a check-in for an existing member at the current time.
func (s *AttendanceService) CheckIn(ctx context.Context, memberID uint64, notes string) (*models.Attendance, error) {
	conn := s.db.WithContext(ctx)
	exists, errExists := memberExists(conn, memberID)
	if errExists != nil {
		return nil, fmt.Errorf("get member: %w", errExists)
	}
	if !exists {
		return nil, notFound("Member", memberID)
	}

	row := models.Attendance{
		MemberID:    memberID,
		CheckInTime: s.now().UTC(),
		Notes:       optionalString(notes),
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		return nil, fmt.Errorf("create attendance: %w", errCreate)
	}
	metrics.RecordCheckIn()
	return &row, nil
}

// FindAll lists check-ins newest first with the member attached.
func (s *AttendanceService) FindAll(ctx context.Context, filters AttendanceFilters) ([]models.Attendance, error) {
	if errRange := filters.DateRange.Validate(); errRange != nil {
		return nil, errRange
	}

	q := s.db.WithContext(ctx).Model(&models.Attendance{})
	if filters.MemberID != 0 {
		q = q.Where("member_id = ?", filters.MemberID)
	}
	q = filters.DateRange.apply(q, "check_in_time")

	var rows []models.Attendance
	errFind := q.
		Preload("Member").
		Order("check_in_time DESC").
		Order("id DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list attendance: %w", errFind)
	}
	return rows, nil
}

// GetTodaysAttendance lists check-ins from local midnight to the next local midnight.
func (s *AttendanceService) GetTodaysAttendance(ctx context.Context) ([]models.Attendance, error) {
	start, end := LocalDayBounds(s.now())
	return s.FindAll(ctx, AttendanceFilters{DateRange: &DateRange{Start: start, End: end}})
}
