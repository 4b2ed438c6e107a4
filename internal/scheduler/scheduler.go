package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/mywx-push/internal/observation"
	"github.com/i474232898/mywx-push/internal/push"
)

// Collector produces one observation per cycle.
type Collector interface {
	Collect(ctx context.Context) (observation.Observation, error)
}

// Pusher delivers one observation.
type Pusher interface {
	Push(ctx context.Context, obs observation.Observation) error
}

// Recorder receives the outcome of every cycle.
type Recorder interface {
	Record(res Result)
}

// Stage names the step a cycle failed in.
type Stage string

const (
	StageNone    Stage = ""
	StageCollect Stage = "collect"
	StagePush    Stage = "push"
)

// minCycleTimeout bounds a cycle when the interval is shorter.
const minCycleTimeout = 30 * time.Second

// Result is the outcome of a single cycle.
type Result struct {
	ID        uuid.UUID
	Started   time.Time
	Variables int
	Stage     Stage
	Err       error
}

// OK reports whether the observation was collected and pushed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Scheduler runs the collect → push cycle on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	collector Collector
	pusher    Pusher
	recorder  Recorder
	logger    *slog.Logger
	interval  time.Duration
}

// New creates a new Scheduler. recorder may be nil.
func New(interval time.Duration, collector Collector, pusher Pusher, recorder Recorder, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	// Cycles never overlap.
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		collector: collector,
		pusher:    pusher,
		recorder:  recorder,
		logger:    logger,
		interval:  interval,
	}
}

// Start schedules the cycle job and starts the underlying scheduler. The first
// cycle runs immediately. Cycles start at a fixed rate of one per interval, so
// a slow cycle shortens the pause before the next one. Singleton mode holds a
// new cycle back until the previous one has finished.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %v", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout())
		defer cancel()
		s.RunCycle(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started", "interval", s.interval.String())
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future cycles.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) cycleTimeout() time.Duration {
	if s.interval > minCycleTimeout {
		return s.interval
	}
	return minCycleTimeout
}

// RunCycle performs one collect → push cycle. It never panics and never
// returns an error: every failure is logged and reported in the Result.
func (s *Scheduler) RunCycle(ctx context.Context) (res Result) {
	res = Result{ID: uuid.New(), Started: time.Now()}
	log := s.logger.With("cycle", res.ID.String())

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("unexpected panic: %v", r)
			log.Warn("cycle aborted", "stage", string(res.Stage), "err", res.Err, "stack", string(debug.Stack()))
		}
		if s.recorder != nil {
			s.recorder.Record(res)
		}
	}()

	res.Stage = StageCollect
	obs, err := s.collector.Collect(ctx)
	if err != nil {
		res.Err = err
		log.Warn(describe(err), "stage", string(res.Stage), "err", err)
		return res
	}

	res.Stage = StagePush
	if err := s.pusher.Push(ctx, obs); err != nil {
		res.Err = err
		log.Warn(describe(err), "stage", string(res.Stage), "err", err)
		return res
	}

	res.Stage = StageNone
	res.Variables = obs.Variables()
	log.Info(fmt.Sprintf("Collected and pushed %d variables.", res.Variables))
	return res
}

func describe(err error) string {
	var ce *observation.CollectionError
	var pe *push.PushError
	switch {
	case errors.As(err, &ce):
		return "Failed to collect observation: " + ce.Error()
	case errors.As(err, &pe):
		return fmt.Sprintf("Failed to push observation: %d %s: %s", pe.StatusCode, pe.Status, pe.Body)
	default:
		return "Cycle failed: " + err.Error()
	}
}
