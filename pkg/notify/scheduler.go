// pkg/notify/scheduler.go
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hydrapp/hydration-reminder/pkg/config"
	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
	"github.com/robfig/cron/v3"
)

type State int

const (
	StateStopped State = iota
	StateProduction
	StateTest
)

func (s State) String() string {
	switch s {
	case StateProduction:
		return "production"
	case StateTest:
		return "test"
	default:
		return "stopped"
	}
}

// TickGate authorizes a tick before any work happens. A nil gate always
// authorizes; a distributed-lock guard can be injected here when more
// than one instance shares the subscription store.
type TickGate func(now time.Time) bool

// Scheduler drives the reminder pipeline: one tick per minute, due-check
// per subscription owner, concurrent dispatch, failure bookkeeping. It is
// an explicit instance owned by the composition root; production and test
// mode are mutually exclusive.
type Scheduler struct {
	sender       Sender
	opts         SendOptions
	fallback     *time.Location
	tickInterval time.Duration

	mu       sync.Mutex
	state    State
	stop     chan struct{}
	nextTick time.Time
	gate     TickGate

	zoneMu sync.Mutex
	zones  map[string]*time.Location

	inFlight atomic.Bool
	cleanup  *cron.Cron
}

func NewScheduler(sender Sender, cfg config.SchedulerConfig, opts SendOptions) (*Scheduler, error) {
	zone := cfg.Timezone
	if zone == "" {
		zone = "UTC"
	}
	fallback, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		sender:       sender,
		opts:         opts,
		fallback:     fallback,
		tickInterval: time.Minute,
		zones:        make(map[string]*time.Location),
	}, nil
}

// SetTickGate installs the tick authorization hook. Must be called before
// the scheduler is started.
func (s *Scheduler) SetTickGate(gate TickGate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = gate
}

// Start switches to production mode, replacing any running mode first.
func (s *Scheduler) Start() {
	s.startMode(StateProduction, ModeProduction)
}

// StartTest switches to the accelerated test mode, replacing any running
// mode first.
func (s *Scheduler) StartTest() {
	s.startMode(StateTest, ModeTest)
}

func (s *Scheduler) startMode(state State, mode TickMode) {
	s.mu.Lock()
	s.stopLocked()
	stop := make(chan struct{})
	s.stop = stop
	s.state = state
	s.nextTick = time.Now().Add(s.tickInterval)
	s.mu.Unlock()

	logger.Info("scheduler started", "mode", mode.String())
	go s.run(stop, mode)
}

// Stop cancels the ticker. Calling it when already stopped is a no-op. A
// tick already in flight finishes; its outcomes are still recorded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopped := s.stopLocked()
	s.mu.Unlock()
	if stopped {
		logger.Info("scheduler stopped")
	}
}

func (s *Scheduler) stopLocked() bool {
	if s.stop == nil {
		return false
	}
	close(s.stop)
	s.stop = nil
	s.state = StateStopped
	s.nextTick = time.Time{}
	return true
}

// Close stops the ticker and the cleanup job. For process shutdown.
func (s *Scheduler) Close() {
	s.Stop()
	s.mu.Lock()
	c := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextTick returns the estimated time of the next tick; ok is false when
// the scheduler is stopped.
func (s *Scheduler) NextTick() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextTick, !s.nextTick.IsZero()
}

// StartCleanup schedules the daily maintenance sweep that removes stale
// and over-failed subscriptions. Independent of the minute ticker.
func (s *Scheduler) StartCleanup(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		deleted, err := db.DeleteStaleSubscriptions(time.Now().UTC(), db.StaleRetentionDays, db.HardFailureCeiling)
		if err != nil {
			logger.Error("subscription cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("subscription cleanup complete", "deleted", deleted)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.mu.Lock()
	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	s.cleanup = c
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run(stop chan struct{}, mode TickMode) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			if s.stop != stop {
				// This mode was replaced while the tick fired.
				s.mu.Unlock()
				return
			}
			s.nextTick = now.Add(s.tickInterval)
			s.mu.Unlock()
			s.RunOnce(mode, now)
		}
	}
}

// RunOnce executes a single due-check-and-dispatch cycle synchronously.
// The ticker and the manual trigger both go through here, so test and
// production behavior cannot drift apart. Ticks never overlap: if the
// previous cycle is still running, this one is skipped.
func (s *Scheduler) RunOnce(mode TickMode, now time.Time) {
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Warn("previous tick still running, skipping", "mode", mode.String())
		return
	}
	defer s.inFlight.Store(false)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick panicked", "mode", mode.String(), "panic", r)
		}
	}()

	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil && !gate(now) {
		logger.Debug("tick not authorized, skipping", "mode", mode.String())
		return
	}

	started := time.Now()
	subs, err := db.ListActiveSubscriptions()
	if err != nil {
		logger.Error("failed to load subscriptions", "error", err)
		return
	}

	var due []db.PushSubscription
	for _, sub := range subs {
		hour, minute := s.localClock(sub.User.Timezone, now)
		if DueCheck(sub.User.Preferences(), hour, minute, mode) {
			due = append(due, sub)
		}
	}
	if len(due) == 0 {
		logger.Debug("no reminders due", "mode", mode.String(), "subscriptions", len(subs))
		return
	}

	payload := BuildReminderPayload(mode == ModeTest, now)
	results := Dispatch(context.Background(), s.sender, due, payload, s.opts)
	sent, failed := RecordOutcomes(results, now)
	s.writeTickReport(mode, len(due), sent, failed, results, started)

	logger.Info("reminder tick complete",
		"mode", mode.String(), "due", len(due), "sent", sent, "failed", failed)
}

// localClock resolves the current hour and minute in the user's zone,
// falling back to the deployment reference zone when the user zone is
// empty or unknown.
func (s *Scheduler) localClock(zone string, now time.Time) (hour, minute int) {
	loc := s.fallback
	if zone != "" {
		loc = s.loadZone(zone)
	}
	local := now.In(loc)
	return local.Hour(), local.Minute()
}

func (s *Scheduler) loadZone(zone string) *time.Location {
	s.zoneMu.Lock()
	defer s.zoneMu.Unlock()
	if loc, ok := s.zones[zone]; ok {
		return loc
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		logger.Warn("unknown user timezone, using reference zone", "timezone", zone)
		loc = s.fallback
	}
	s.zones[zone] = loc
	return loc
}

type tickOutcome struct {
	SubscriptionID uint   `json:"subscriptionId"`
	Status         int    `json:"status,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

func (s *Scheduler) writeTickReport(mode TickMode, due, sent, failed int, results []DeliveryResult, started time.Time) {
	outcomes := make([]tickOutcome, 0, len(results))
	for _, r := range results {
		o := tickOutcome{SubscriptionID: r.SubscriptionID, Status: r.StatusCode, Success: r.Success}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		outcomes = append(outcomes, o)
	}
	raw, err := json.Marshal(outcomes)
	if err != nil {
		logger.Error("failed to marshal tick outcomes", "error", err)
		raw = []byte("[]")
	}
	report := db.TickReport{
		Mode:        mode.String(),
		DueCount:    due,
		SentCount:   sent,
		FailedCount: failed,
		Outcomes:    raw,
		StartedAt:   started,
		DurationMS:  time.Since(started).Milliseconds(),
	}
	if err := db.DB.Create(&report).Error; err != nil {
		logger.Error("failed to write tick report", "error", err)
	}
}
