package membership

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	dbutil "github.com/tusharkarle/gym-management/internal/db"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/gorm"
)

// testClock is a settable clock shared by the services under test.
type testClock struct {
	now atomic.Value // stores time.Time
}

func newTestClock(t time.Time) *testClock {
	c := &testClock{}
	c.Set(t)
	return c
}

func (c *testClock) Now() time.Time          { return c.now.Load().(time.Time) }
func (c *testClock) Set(t time.Time)         { c.now.Store(t) }
func (c *testClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:membership_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	require.NoError(t, errOpen)
	t.Cleanup(func() { _ = dbutil.Close(conn) })
	require.NoError(t, dbutil.Migrate(conn))
	return conn
}

func newTestServices(t *testing.T, now time.Time) (*Services, *gorm.DB, *testClock) {
	t.Helper()

	conn := openTestDB(t)
	clock := newTestClock(now)
	return NewServices(conn, WithClock(clock.Now)), conn, clock
}

func validMemberInput(firstName, aadhar, email string) MemberInput {
	return MemberInput{
		FirstName:   firstName,
		LastName:    "Sharma",
		Gender:      models.GenderMale,
		Address:     "12 MG Road, Pune",
		WhatsappNo:  "9876543210",
		Email:       email,
		DateOfBirth: "1990-06-15",
		Profession:  "Engineer",
		AadharCard:  aadhar,
	}
}

func mustCreateMember(t *testing.T, svc *Services, firstName, aadhar, email string) *models.Member {
	t.Helper()

	member, err := svc.Members.Create(context.Background(), validMemberInput(firstName, aadhar, email))
	require.NoError(t, err)
	return member
}

func mustCreatePackage(t *testing.T, svc *Services, name string, months int, price float64) *models.Package {
	t.Helper()

	pkg, err := svc.Packages.Create(context.Background(), PackageInput{Name: name, DurationMonths: months, Price: price})
	require.NoError(t, err)
	return pkg
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}
