package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbutil "github.com/tusharkarle/gym-management/internal/db"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
	"github.com/tusharkarle/gym-management/internal/settings"
	"gorm.io/gorm"
)

type fixture struct {
	conn    *gorm.DB
	now     time.Time
	svc     *membership.Services
	reports *Service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:reports_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	require.NoError(t, errOpen)
	t.Cleanup(func() { _ = dbutil.Close(conn) })
	require.NoError(t, dbutil.Migrate(conn))

	f := &fixture{conn: conn, now: now}
	clock := func() time.Time { return f.now }
	f.svc = membership.NewServices(conn, membership.WithClock(clock))
	f.reports = NewService(conn, clock)
	return f
}

func (f *fixture) member(t *testing.T, name, aadhar, dob string) *models.Member {
	t.Helper()

	m, err := f.svc.Members.Create(context.Background(), membership.MemberInput{
		FirstName: name, LastName: "Test", Gender: models.GenderOther, Address: "Pune",
		WhatsappNo: "9876543210", Email: name + "@example.com", DateOfBirth: dob,
		Profession: "Accountant", AadharCard: aadhar,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) pkg(t *testing.T, name string, months int, price float64) *models.Package {
	t.Helper()

	p, err := f.svc.Packages.Create(context.Background(), membership.PackageInput{Name: name, DurationMonths: months, Price: price})
	require.NoError(t, err)
	return p
}

func (f *fixture) renewPaid(t *testing.T, memberID, packageID uint64) *models.MemberPackage {
	t.Helper()

	sub, err := f.svc.Packages.Renew(context.Background(), membership.RenewRequest{
		MemberID:  memberID,
		PackageID: packageID,
		Payment:   &membership.PaymentDetails{PaymentMethod: models.PaymentCash},
	})
	require.NoError(t, err)
	return sub
}

func TestStats(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC))
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	priya := f.member(t, "Priya", "100000000002", "1992-02-10")
	monthly := f.pkg(t, "Monthly", 1, 2000)

	// Paid last month, still active.
	f.renewPaid(t, ravi.ID, monthly.ID)

	f.now = time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	f.renewPaid(t, priya.ID, monthly.ID)
	cancelled := f.renewPaid(t, priya.ID, monthly.ID)
	_, err := f.svc.Packages.CancelMemberPackage(context.Background(), cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.Attendance.CheckIn(context.Background(), ravi.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Attendance.CheckIn(context.Background(), priya.ID, "")
	require.NoError(t, err)

	f.now = time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC)
	stats, err := f.reports.Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalMembers)
	// Ravi's Jan 20 - Feb 20 and Priya's first Feb subscription.
	assert.EqualValues(t, 2, stats.ActivePackages)
	assert.EqualValues(t, 2, stats.TodayAttendance)
	assert.Equal(t, 4000.0, stats.MonthlyRevenue)
}

func TestExpiring(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC))
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	priya := f.member(t, "Priya", "100000000002", "1992-02-10")
	monthly := f.pkg(t, "Monthly", 1, 2000)
	yearly := f.pkg(t, "Yearly", 12, 18000)

	f.renewPaid(t, ravi.ID, monthly.ID) // ends 2024-02-25
	f.now = time.Date(2024, 1, 28, 8, 0, 0, 0, time.UTC)
	f.renewPaid(t, priya.ID, monthly.ID) // ends 2024-02-28
	f.renewPaid(t, priya.ID, yearly.ID)  // ends 2025-01-28

	f.now = time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC)
	items, err := f.reports.Expiring(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ravi Test", items[0].MemberName)
	assert.Equal(t, "Monthly", items[0].PackageName)
	assert.Equal(t, "2024-02-25", items[0].EndDate)
	assert.Equal(t, 5, items[0].DaysLeft)

	items, err = f.reports.Expiring(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ravi.ID, items[0].MemberID)
	assert.Equal(t, priya.ID, items[1].MemberID)
	assert.Equal(t, 8, items[1].DaysLeft)
}

func TestExpiringDefaultsToSetting(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC))
	t.Cleanup(func() { settings.StoreDBConfig(nil) })
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	monthly := f.pkg(t, "Monthly", 1, 2000)
	f.renewPaid(t, ravi.ID, monthly.ID) // ends 2024-02-25

	f.now = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	settings.StoreDBConfig(map[string]json.RawMessage{settings.ExpiringWindowDaysKey: json.RawMessage(`7`)})
	items, err := f.reports.Expiring(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	settings.StoreDBConfig(map[string]json.RawMessage{settings.ExpiringWindowDaysKey: json.RawMessage(`30`)})
	items, err = f.reports.Expiring(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestBirthdays(t *testing.T) {
	f := newFixture(t, time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC))
	leap := f.member(t, "Leap", "100000000001", "2000-02-29")
	f.member(t, "March", "100000000002", "1995-03-03")
	f.member(t, "Later", "100000000003", "1990-12-25")

	today, err := f.reports.Birthdays(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, leap.ID, today[0].MemberID)
	assert.True(t, today[0].IsToday)
	assert.Equal(t, 25, today[0].TurningAge)
	assert.Equal(t, "2025-02-28", today[0].NextBirthday)

	week, err := f.reports.Birthdays(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "Leap Test", week[0].MemberName)
	assert.Equal(t, "March Test", week[1].MemberName)
	assert.Equal(t, 3, week[1].DaysUntil)
	assert.Equal(t, 30, week[1].TurningAge)
}

func TestBirthdaysWrapIntoNextYear(t *testing.T) {
	f := newFixture(t, time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC))
	f.member(t, "January", "100000000001", "1990-01-02")

	items, err := f.reports.Birthdays(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-01-02", items[0].NextBirthday)
	assert.Equal(t, 3, items[0].DaysUntil)
	assert.Equal(t, 35, items[0].TurningAge)
}

func TestAttendanceTrend(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC))
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	for _, at := range []time.Time{
		time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 19, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 6, 0, 0, 0, time.UTC),
	} {
		f.now = at
		_, err := f.svc.Attendance.CheckIn(context.Background(), ravi.ID, "")
		require.NoError(t, err)
	}

	f.now = time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC)
	trend, err := f.reports.AttendanceTrend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, trend, 7)

	assert.Equal(t, AttendanceDay{Date: "2024-03-01", Day: "Fri", Count: 1}, trend[0])
	assert.Equal(t, AttendanceDay{Date: "2024-03-05", Day: "Tue", Count: 2}, trend[4])
	assert.Equal(t, AttendanceDay{Date: "2024-03-06", Day: "Wed", Count: 0}, trend[5])
	assert.Equal(t, AttendanceDay{Date: "2024-03-07", Day: "Thu", Count: 1}, trend[6])
}

func TestPopularPackages(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC))
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	priya := f.member(t, "Priya", "100000000002", "1992-02-10")
	monthly := f.pkg(t, "Monthly", 1, 2000)
	yearly := f.pkg(t, "Yearly", 12, 18000)

	f.renewPaid(t, ravi.ID, yearly.ID)
	f.now = time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC)
	f.renewPaid(t, ravi.ID, monthly.ID)
	f.renewPaid(t, priya.ID, monthly.ID)

	all, err := f.reports.PopularPackages(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, PackagePopularity{PackageID: monthly.ID, PackageName: "Monthly", DurationMonths: 1, Subscriptions: 2, Revenue: 4000}, all[0])
	assert.Equal(t, yearly.ID, all[1].PackageID)

	january, err := f.reports.PopularPackages(context.Background(), &membership.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, january, 1)
	assert.Equal(t, 18000.0, january[0].Revenue)

	_, err = f.reports.PopularPackages(context.Background(), &membership.DateRange{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, membership.ErrValidation)
}

func TestRevenueByMonth(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	ravi := f.member(t, "Ravi", "100000000001", "1990-06-15")
	monthly := f.pkg(t, "Monthly", 1, 2000)
	f.renewPaid(t, ravi.ID, monthly.ID)

	f.now = time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	priya := f.member(t, "Priya", "100000000002", "1992-02-10")
	f.renewPaid(t, priya.ID, monthly.ID)
	f.renewPaid(t, ravi.ID, monthly.ID)

	months, err := f.reports.RevenueByMonth(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, months, 3)

	assert.Equal(t, MonthRevenue{Month: "2024-01", Label: "Jan 2024", Revenue: 2000, Payments: 1, NewMembers: 1}, months[0])
	assert.Equal(t, MonthRevenue{Month: "2024-02", Label: "Feb 2024"}, months[1])
	assert.Equal(t, MonthRevenue{Month: "2024-03", Label: "Mar 2024", Revenue: 4000, Payments: 2, NewMembers: 1}, months[2])
}
