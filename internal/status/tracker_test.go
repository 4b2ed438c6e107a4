package status

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/mywx-push/internal/scheduler"
)

func TestTrackerUnclassifiedFailure(t *testing.T) {
	tr := NewTracker()
	tr.Record(scheduler.Result{Err: errors.New("unexpected panic: boom")})

	s := tr.Snapshot()
	if s.Cycles != 1 || s.OtherFailures != 1 || s.Pushed != 0 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.LastSuccess != nil {
		t.Fatal("LastSuccess must be nil before any push")
	}
	if s.LastError != "unexpected panic: boom" {
		t.Errorf("LastError = %q", s.LastError)
	}
}

func TestTrackerHealthyBeforeFirstPush(t *testing.T) {
	tr := NewTracker()
	if !tr.Healthy(time.Minute) {
		t.Fatal("a freshly started tracker is healthy within the grace period")
	}
	if tr.Healthy(0) {
		t.Fatal("zero grace period must be unhealthy without a push")
	}
}
