package status

import (
	"errors"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/mywx-push/internal/observation"
	"github.com/i474232898/mywx-push/internal/push"
	"github.com/i474232898/mywx-push/internal/scheduler"
)

// Tracker counts cycle outcomes. It keeps no readings.
type Tracker struct {
	started time.Time

	cycles          atomic.Int64
	pushed          atomic.Int64
	collectFailures atomic.Int64
	pushFailures    atomic.Int64
	otherFailures   atomic.Int64

	lastSuccess   atomic.Time
	lastVariables atomic.Int64
	lastError     atomic.String
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Started         time.Time  `json:"started"`
	Cycles          int64      `json:"cycles"`
	Pushed          int64      `json:"pushed"`
	CollectFailures int64      `json:"collectFailures"`
	PushFailures    int64      `json:"pushFailures"`
	OtherFailures   int64      `json:"otherFailures"`
	LastSuccess     *time.Time `json:"lastSuccess,omitempty"`
	LastVariables   int64      `json:"lastVariables"`
	LastError       string     `json:"lastError,omitempty"`
}

func NewTracker() *Tracker {
	return &Tracker{started: time.Now().UTC()}
}

// Record implements scheduler.Recorder.
func (t *Tracker) Record(res scheduler.Result) {
	t.cycles.Inc()

	if res.OK() {
		t.pushed.Inc()
		t.lastSuccess.Store(res.Started.UTC())
		t.lastVariables.Store(int64(res.Variables))
		return
	}

	var ce *observation.CollectionError
	var pe *push.PushError
	switch {
	case errors.As(res.Err, &ce):
		t.collectFailures.Inc()
	case errors.As(res.Err, &pe):
		t.pushFailures.Inc()
	default:
		t.otherFailures.Inc()
	}
	t.lastError.Store(res.Err.Error())
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		Started:         t.started,
		Cycles:          t.cycles.Load(),
		Pushed:          t.pushed.Load(),
		CollectFailures: t.collectFailures.Load(),
		PushFailures:    t.pushFailures.Load(),
		OtherFailures:   t.otherFailures.Load(),
		LastVariables:   t.lastVariables.Load(),
		LastError:       t.lastError.Load(),
	}
	if last := t.lastSuccess.Load(); !last.IsZero() {
		s.LastSuccess = &last
	}
	return s
}

// Healthy reports whether the last push happened within maxAge.
func (t *Tracker) Healthy(maxAge time.Duration) bool {
	last := t.lastSuccess.Load()
	if last.IsZero() {
		return time.Since(t.started) < maxAge
	}
	return time.Since(last) < maxAge
}
