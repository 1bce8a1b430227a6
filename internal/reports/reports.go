// Package reports computes dashboard statistics and business reports from the membership tables.
//
// Calendar buckets (days, months) follow the location of the injected clock, so a
// server running in local time reports local days.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
	"github.com/tusharkarle/gym-management/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultTrendDays     = 7
	defaultRevenueMonths = 6
	maxWindowDays        = 366
	maxRevenueMonths     = 36
)

// Service answers reporting queries.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs a Service. A nil now uses time.Now.
func NewService(db *gorm.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

// Stats is the dashboard headline.
type Stats struct {
	TotalMembers    int64   `json:"totalMembers"`
	ActivePackages  int64   `json:"activePackages"`
	TodayAttendance int64   `json:"todayAttendance"`
	MonthlyRevenue  float64 `json:"monthlyRevenue"`
}

// ExpiringSubscription is an active subscription ending soon.
type ExpiringSubscription struct {
	MemberPackageID uint64  `json:"memberPackageId"`
	MemberID        uint64  `json:"memberId"`
	MemberName      string  `json:"memberName"`
	WhatsappNo      string  `json:"whatsappNo"`
	PackageName     string  `json:"packageName"`
	EndDate         string  `json:"endDate"`
	DaysLeft        int     `json:"daysLeft"`
	Amount          float64 `json:"amount"`
}

// Birthday is an upcoming member birthday.
type Birthday struct {
	MemberID     uint64 `json:"memberId"`
	MemberName   string `json:"memberName"`
	WhatsappNo   string `json:"whatsappNo"`
	DateOfBirth  string `json:"dateOfBirth"`
	NextBirthday string `json:"nextBirthday"`
	TurningAge   int    `json:"turningAge"`
	DaysUntil    int    `json:"daysUntil"`
	IsToday      bool   `json:"isToday"`
}

// AttendanceDay is the number of check-ins on one day.
type AttendanceDay struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// PackagePopularity aggregates subscriptions sold per package.
type PackagePopularity struct {
	PackageID      uint64  `json:"packageId"`
	PackageName    string  `json:"packageName"`
	DurationMonths int     `json:"durationMonths"`
	Subscriptions  int64   `json:"subscriptions"`
	Revenue        float64 `json:"revenue"`
}

// MonthRevenue aggregates one calendar month.
type MonthRevenue struct {
	Month      string  `json:"month"`
	Label      string  `json:"label"`
	Revenue    float64 `json:"revenue"`
	Payments   int64   `json:"payments"`
	NewMembers int64   `json:"newMembers"`
}

// Stats returns member, subscription, attendance and revenue totals.
// Active packages counts subscriptions, not members, that are active and not yet past their end date.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	conn := s.db.WithContext(ctx)
	var out Stats

	if errCount := conn.Model(&models.Member{}).Count(&out.TotalMembers).Error; errCount != nil {
		return nil, fmt.Errorf("count members: %w", errCount)
	}

	today := datatypes.Date(membership.DateOnly(now))
	if errCount := conn.Model(&models.MemberPackage{}).
		Where("status = ? AND end_date >= ?", models.SubscriptionActive, today).
		Count(&out.ActivePackages).Error; errCount != nil {
		return nil, fmt.Errorf("count active packages: %w", errCount)
	}

	dayStart, dayEnd := membership.LocalDayBounds(now)
	if errCount := conn.Model(&models.Attendance{}).
		Where("check_in_time >= ? AND check_in_time < ?", dayStart.UTC(), dayEnd.UTC()).
		Count(&out.TodayAttendance).Error; errCount != nil {
		return nil, fmt.Errorf("count attendance: %w", errCount)
	}

	monthStart := startOfMonth(now)
	var revenue sql.NullFloat64
	if errScan := conn.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("created_at >= ? AND created_at < ?", monthStart.UTC(), monthStart.AddDate(0, 1, 0).UTC()).
		Row().Scan(&revenue); errScan != nil {
		return nil, fmt.Errorf("sum monthly revenue: %w", errScan)
	}
	out.MonthlyRevenue = revenue.Float64
	return &out, nil
}

// Expiring lists active subscriptions ending within days, soonest first.
// days <= 0 uses the EXPIRING_WINDOW_DAYS setting.
func (s *Service) Expiring(ctx context.Context, days int) ([]ExpiringSubscription, error) {
	if days <= 0 {
		days = settings.IntValue(settings.ExpiringWindowDaysKey, settings.DefaultExpiringWindowDays)
	}
	days = clamp(days, 0, maxWindowDays)

	today := membership.DateOnly(s.now())
	var rows []models.MemberPackage
	errFind := s.db.WithContext(ctx).
		Preload("Member").
		Preload("Package").
		Where("status = ? AND end_date >= ? AND end_date <= ?",
			models.SubscriptionActive, datatypes.Date(today), datatypes.Date(today.AddDate(0, 0, days))).
		Order("end_date ASC").
		Order("id ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list expiring subscriptions: %w", errFind)
	}

	out := make([]ExpiringSubscription, 0, len(rows))
	for _, row := range rows {
		end := membership.DateOnly(time.Time(row.EndDate))
		item := ExpiringSubscription{
			MemberPackageID: row.ID,
			MemberID:        row.MemberID,
			EndDate:         end.Format(time.DateOnly),
			DaysLeft:        daysBetween(today, end),
			Amount:          row.Amount,
		}
		if row.Member != nil {
			item.MemberName = row.Member.FullName()
			item.WhatsappNo = row.Member.WhatsappNo
		}
		if row.Package != nil {
			item.PackageName = row.Package.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// Birthdays lists members whose next birthday is within days (0 means today only), soonest first.
// Members born on Feb 29 celebrate on Feb 28 in common years.
func (s *Service) Birthdays(ctx context.Context, days int) ([]Birthday, error) {
	days = clamp(days, 0, maxWindowDays)
	today := membership.DateOnly(s.now())

	var members []models.Member
	errFind := s.db.WithContext(ctx).
		Select("id", "first_name", "middle_name", "last_name", "whatsapp_no", "date_of_birth").
		Order("id ASC").
		Find(&members).Error
	if errFind != nil {
		return nil, fmt.Errorf("list members: %w", errFind)
	}

	out := make([]Birthday, 0)
	for i := range members {
		m := &members[i]
		dob := membership.DateOnly(time.Time(m.DateOfBirth))
		next := birthdayIn(dob, today.Year())
		if next.Before(today) {
			next = birthdayIn(dob, today.Year()+1)
		}
		until := daysBetween(today, next)
		if until > days {
			continue
		}
		out = append(out, Birthday{
			MemberID:     m.ID,
			MemberName:   m.FullName(),
			WhatsappNo:   m.WhatsappNo,
			DateOfBirth:  dob.Format(time.DateOnly),
			NextBirthday: next.Format(time.DateOnly),
			TurningAge:   next.Year() - dob.Year(),
			DaysUntil:    until,
			IsToday:      until == 0,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out, nil
}

// AttendanceTrend counts check-ins per day for the last days days including today, oldest first.
func (s *Service) AttendanceTrend(ctx context.Context, days int) ([]AttendanceDay, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	days = clamp(days, 1, maxWindowDays)

	now := s.now()
	todayStart, end := membership.LocalDayBounds(now)
	start := todayStart.AddDate(0, 0, -(days - 1))

	var rows []models.Attendance
	errFind := s.db.WithContext(ctx).
		Select("id", "check_in_time").
		Where("check_in_time >= ? AND check_in_time < ?", start.UTC(), end.UTC()).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("list attendance: %w", errFind)
	}

	counts := make(map[string]int64, days)
	for _, row := range rows {
		counts[row.CheckInTime.In(now.Location()).Format(time.DateOnly)]++
	}

	out := make([]AttendanceDay, 0, days)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		out = append(out, AttendanceDay{Date: key, Day: day.Format("Mon"), Count: counts[key]})
	}
	return out, nil
}

// PopularPackages ranks packages by subscriptions sold in dateRange (all time when nil).
func (s *Service) PopularPackages(ctx context.Context, dateRange *membership.DateRange) ([]PackagePopularity, error) {
	type aggregate struct {
		PackageID     uint64
		Subscriptions int64
		Revenue       float64
	}

	q := s.db.WithContext(ctx).
		Model(&models.MemberPackage{}).
		Select("package_id, COUNT(*) AS subscriptions, COALESCE(SUM(amount), 0) AS revenue")
	if dateRange != nil {
		if errRange := dateRange.Validate(); errRange != nil {
			return nil, errRange
		}
		q = q.Where("created_at >= ? AND created_at < ?", dateRange.Start.UTC(), dateRange.End.UTC())
	}

	var aggregates []aggregate
	if errScan := q.Group("package_id").Scan(&aggregates).Error; errScan != nil {
		return nil, fmt.Errorf("aggregate packages: %w", errScan)
	}
	if len(aggregates) == 0 {
		return []PackagePopularity{}, nil
	}

	ids := make([]uint64, 0, len(aggregates))
	for _, a := range aggregates {
		ids = append(ids, a.PackageID)
	}
	var packages []models.Package
	if errFind := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&packages).Error; errFind != nil {
		return nil, fmt.Errorf("list packages: %w", errFind)
	}
	byID := make(map[uint64]models.Package, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
	}

	out := make([]PackagePopularity, 0, len(aggregates))
	for _, a := range aggregates {
		pkg := byID[a.PackageID]
		out = append(out, PackagePopularity{
			PackageID:      a.PackageID,
			PackageName:    pkg.Name,
			DurationMonths: pkg.DurationMonths,
			Subscriptions:  a.Subscriptions,
			Revenue:        a.Revenue,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Subscriptions != out[j].Subscriptions {
			return out[i].Subscriptions > out[j].Subscriptions
		}
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].PackageID < out[j].PackageID
	})
	return out, nil
}

// RevenueByMonth totals payments and new members for the last months months including the current one, oldest first.
func (s *Service) RevenueByMonth(ctx context.Context, months int) ([]MonthRevenue, error) {
	if months <= 0 {
		months = defaultRevenueMonths
	}
	months = clamp(months, 1, maxRevenueMonths)

	now := s.now()
	loc := now.Location()
	current := startOfMonth(now)
	start := current.AddDate(0, -(months - 1), 0)
	end := current.AddDate(0, 1, 0)
	conn := s.db.WithContext(ctx)

	var payments []models.Payment
	if errFind := conn.Select("id", "amount", "created_at").
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Find(&payments).Error; errFind != nil {
		return nil, fmt.Errorf("list payments: %w", errFind)
	}
	var members []models.Member
	if errFind := conn.Select("id", "created_at").
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Find(&members).Error; errFind != nil {
		return nil, fmt.Errorf("list members: %w", errFind)
	}

	out := make([]MonthRevenue, 0, months)
	index := make(map[string]int, months)
	for month := start; month.Before(end); month = month.AddDate(0, 1, 0) {
		key := month.Format("2006-01")
		index[key] = len(out)
		out = append(out, MonthRevenue{Month: key, Label: month.Format("Jan 2006")})
	}
	for _, p := range payments {
		if i, ok := index[p.CreatedAt.In(loc).Format("2006-01")]; ok {
			out[i].Revenue += p.Amount
			out[i].Payments++
		}
	}
	for _, m := range members {
		if i, ok := index[m.CreatedAt.In(loc).Format("2006-01")]; ok {
			out[i].NewMembers++
		}
	}
	return out, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// birthdayIn returns the birthday of dob in year, moving Feb 29 to Feb 28 in common years.
func birthdayIn(dob time.Time, year int) time.Time {
	month, day := dob.Month(), dob.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysBetween counts calendar days from a to b; both are midnight UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
