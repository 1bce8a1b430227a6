package membership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tusharkarle/gym-management/internal/models"
)

func TestCheckInUnknownMemberWritesNothing(t *testing.T) {
	svc, conn, _ := newTestServices(t, fixedNow)

	_, err := svc.Attendance.CheckIn(context.Background(), 42, "")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Member with ID 42 not found")
	assert.Zero(t, countRows(t, conn, &models.Attendance{}))
}

func TestCheckInUsesClock(t *testing.T) {
	svc, _, _ := newTestServices(t, fixedNow)
	member := mustCreateMember(t, svc, "Ravi", "100000000001", "ravi@example.com")

	row, err := svc.Attendance.CheckIn(context.Background(), member.ID, "  evening batch ")
	require.NoError(t, err)

	assert.True(t, row.CheckInTime.Equal(fixedNow))
	require.NotNil(t, row.Notes)
	assert.Equal(t, "evening batch", *row.Notes)
}

func TestAttendanceFindAllFilters(t *testing.T) {
	svc, _, clock := newTestServices(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	ravi := mustCreateMember(t, svc, "Ravi", "100000000001", "ravi@example.com")
	priya := mustCreateMember(t, svc, "Priya", "100000000002", "priya@example.com")

	checkIn := func(at time.Time, memberID uint64) {
		clock.Set(at)
		_, err := svc.Attendance.CheckIn(context.Background(), memberID, "")
		require.NoError(t, err)
	}
	checkIn(time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC), ravi.ID)
	checkIn(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ravi.ID)
	checkIn(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), priya.ID)
	checkIn(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), ravi.ID)

	byMember, err := svc.Attendance.FindAll(context.Background(), AttendanceFilters{MemberID: ravi.ID})
	require.NoError(t, err)
	require.Len(t, byMember, 3)
	assert.True(t, byMember[0].CheckInTime.After(byMember[1].CheckInTime))
	require.NotNil(t, byMember[0].Member)
	assert.Equal(t, "Ravi", byMember[0].Member.FirstName)

	// The range includes its start and excludes its end.
	inRange, err := svc.Attendance.FindAll(context.Background(), AttendanceFilters{DateRange: &DateRange{
		Start: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, priya.ID, inRange[0].MemberID)
	assert.Equal(t, ravi.ID, inRange[1].MemberID)

	_, err = svc.Attendance.FindAll(context.Background(), AttendanceFilters{DateRange: &DateRange{
		Start: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}})
	assert.ErrorIs(t, err, ErrValidation)

	clock.Set(time.Date(2024, 3, 5, 21, 0, 0, 0, time.UTC))
	today, err := svc.Attendance.GetTodaysAttendance(context.Background())
	require.NoError(t, err)
	assert.Len(t, today, 2)
}
