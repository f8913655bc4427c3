package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"haoshi-console/internal/backend"
	"haoshi-console/internal/cleanup"
	"haoshi-console/internal/config"
)

// Refresher reloads every collection from the backend.
type Refresher interface {
	Refresh(ctx context.Context) (*backend.RefreshResult, error)
}

// Cleaner prunes the audit trail.
type Cleaner interface {
	Run(ctx context.Context, config cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
}

// Pruner drops idle request counters.
type Pruner interface {
	Prune() int
}

// jobTimeout bounds one scheduled run.
const jobTimeout = 5 * time.Minute

// Status describes the scheduler for the admin panel.
type Status struct {
	Running     bool                   `json:"running"`
	Refreshing  bool                   `json:"refreshing"`
	RefreshSpec string                 `json:"refresh_spec"`
	CleanupSpec string                 `json:"cleanup_spec,omitempty"`
	NextRefresh *time.Time             `json:"next_refresh,omitempty"`
	LastRefresh *time.Time             `json:"last_refresh,omitempty"`
	LastError   string                 `json:"last_error,omitempty"`
	LastResult  *backend.RefreshResult `json:"last_result,omitempty"`
	LastCleanup *cleanup.CleanupResult `json:"last_cleanup,omitempty"`
}

// Scheduler handles the periodic refresh and the daily audit cleanup
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	cleaner   Cleaner
	pruner    Pruner
	config    config.SchedulerConfig
	logger    *zap.Logger

	refreshing atomic.Bool
	refreshID  cron.EntryID

	mu          sync.Mutex
	isRunning   bool
	lastRefresh time.Time
	lastError   string
	lastResult  *backend.RefreshResult
	lastCleanup *cleanup.CleanupResult
}

// NewScheduler creates a new scheduler. cleaner may be nil when no audit
// database is configured.
func NewScheduler(refresher Refresher, cleaner Cleaner, cfg config.SchedulerConfig, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		refresher: refresher,
		cleaner:   cleaner,
		config:    cfg,
		logger:    logger,
	}
}

// SetPruner adds p to the daily job. Call it before Start.
func (s *Scheduler) SetPruner(p Pruner) {
	s.pruner = p
}

func (s *Scheduler) hasDailyJob() bool {
	return s.cleaner != nil || s.pruner != nil
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler: disabled in configuration")
		return nil
	}

	id, err := s.cron.AddFunc(s.config.RefreshSpec, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			s.logger.Warn("Scheduler: refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh spec %q: %w", s.config.RefreshSpec, err)
	}
	s.refreshID = id

	if s.hasDailyJob() {
		cleanupSpec := s.parseDailyRunTime(s.config.CleanupTime)
		if _, err := s.cron.AddFunc(cleanupSpec, s.runDaily); err != nil {
			return err
		}
		s.logger.Info("Scheduler: daily cleanup scheduled",
			zap.String("time", s.config.CleanupTime),
			zap.String("cron", cleanupSpec))
	}

	s.cron.Start()
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	s.logger.Info("Scheduler: started", zap.String("refresh", s.config.RefreshSpec))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	if running {
		<-s.cron.Stop().Done()
		s.logger.Info("Scheduler: stopped")
	}
}

// ErrBusy is returned when a refresh is already in progress.
var ErrBusy = errors.New("refresh already in progress")

// RunNow refreshes immediately. Overlapping runs are rejected with ErrBusy.
func (s *Scheduler) RunNow(ctx context.Context) (*backend.RefreshResult, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	res, err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = time.Now()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}
	s.lastError = ""
	s.lastResult = res
	return res, nil
}

func (s *Scheduler) runDaily() {
	if s.pruner != nil {
		if n := s.pruner.Prune(); n > 0 {
			s.logger.Info("Scheduler: pruned idle rate limit keys", zap.Int("keys", n))
		}
	}
	if s.cleaner != nil {
		s.runCleanup()
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg := cleanup.DefaultCleanupConfig()
	if s.config.AuditRetentionDays > 0 {
		cfg.RetentionDays = s.config.AuditRetentionDays
	}

	res, err := s.cleaner.Run(ctx, cfg)
	if err != nil {
		s.logger.Warn("Scheduler: audit cleanup failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.lastCleanup = res
	s.mu.Unlock()
}

// Status reports the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:     s.isRunning,
		Refreshing:  s.refreshing.Load(),
		RefreshSpec: s.config.RefreshSpec,
		LastError:   s.lastError,
		LastResult:  s.lastResult,
		LastCleanup: s.lastCleanup,
	}
	if s.hasDailyJob() {
		st.CleanupSpec = s.parseDailyRunTime(s.config.CleanupTime)
	}
	if !s.lastRefresh.IsZero() {
		t := s.lastRefresh
		st.LastRefresh = &t
	}
	if s.isRunning && s.refreshID != 0 {
		if next := s.cron.Entry(s.refreshID).Next; !next.IsZero() {
			st.NextRefresh = &next
		}
	}
	return st
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *"
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	s.logger.Warn("Scheduler: failed to parse time, using default 03:00", zap.String("time", timeStr))
	return "0 3 * * *"
}
