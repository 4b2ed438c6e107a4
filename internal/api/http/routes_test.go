package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/mywx-push/internal/observation"
	"github.com/i474232898/mywx-push/internal/push"
	"github.com/i474232898/mywx-push/internal/scheduler"
	"github.com/i474232898/mywx-push/internal/status"
)

func newApp(tracker *status.Tracker, staleAfter time.Duration) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, tracker, staleAfter)
	return app
}

// TestStatusCounters verifies that cycle outcomes are reflected by the status endpoint.
func TestStatusCounters(t *testing.T) {
	tracker := status.NewTracker()
	tracker.Record(scheduler.Result{Started: time.Now(), Variables: 13})
	tracker.Record(scheduler.Result{Stage: scheduler.StageCollect, Err: &observation.CollectionError{Host: "wll", Err: errors.New("timeout")}})
	tracker.Record(scheduler.Result{Stage: scheduler.StagePush, Err: &push.PushError{StatusCode: 503, Status: "Service Unavailable", Body: "unavailable"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	resp, err := newApp(tracker, time.Minute).Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var snap status.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Cycles != 3 || snap.Pushed != 1 || snap.CollectFailures != 1 || snap.PushFailures != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.LastVariables != 13 || snap.LastSuccess == nil {
		t.Fatalf("unexpected last success in %+v", snap)
	}
	if snap.LastError == "" {
		t.Fatal("expected last error to be reported")
	}
}

// TestHealth verifies the health endpoint turns unavailable once pushes go stale.
func TestHealth(t *testing.T) {
	tracker := status.NewTracker()
	tracker.Record(scheduler.Result{Started: time.Now().Add(-time.Hour), Variables: 13})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := newApp(tracker, time.Minute).Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}

	tracker.Record(scheduler.Result{Started: time.Now(), Variables: 13})
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err = newApp(tracker, time.Minute).Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
