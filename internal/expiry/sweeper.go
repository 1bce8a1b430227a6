package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultSchedule runs the sweep five minutes after local midnight.
	DefaultSchedule = "5 0 * * *"

	sweepTimeout = 5 * time.Minute
)

// Sweeper moves active subscriptions whose end date has passed to expired.
type Sweeper struct {
	db       *gorm.DB
	schedule string
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSweeper constructs a Sweeper. An empty schedule uses DefaultSchedule.
func NewSweeper(db *gorm.DB, schedule string) *Sweeper {
	if db == nil {
		return nil
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{db: db, schedule: schedule, now: time.Now}
}

// SweepOnce expires every active subscription that ended before today and returns how many changed.
// A subscription stays active through its end date.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	today := membership.DateOnly(s.now())
	res := s.db.WithContext(ctx).
		Model(&models.MemberPackage{}).
		Where("status = ? AND end_date < ?", models.SubscriptionActive, datatypes.Date(today)).
		Updates(map[string]any{"status": models.SubscriptionExpired, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", res.Error)
	}
	metrics.RecordExpirySweep(res.RowsAffected, time.Since(started))
	return res.RowsAffected, nil
}

// Start runs one sweep immediately and then on the cron schedule until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := cron.New(cron.WithLocation(time.Local))
	if _, errAdd := c.AddFunc(s.schedule, func() { s.run(ctx) }); errAdd != nil {
		return fmt.Errorf("expiry: invalid schedule %q: %w", s.schedule, errAdd)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	s.run(ctx)
	c.Start()
	log.Infof("subscription expiry sweeper started (schedule=%q)", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (s *Sweeper) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.SweepOnce(sweepCtx)
	if err != nil {
		log.WithError(err).Warn("subscription expiry sweep failed")
		return
	}
	if n > 0 {
		log.Infof("subscription expiry sweep: expired %d subscriptions", n)
	}
}
