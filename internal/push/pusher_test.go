package push

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/i474232898/mywx-push/internal/observation"
)

func sampleObservation() observation.Observation {
	return observation.Observation{
		observation.KeyTimestamp:     int64(1714564800),
		observation.KeyTemperature:   12.35,
		observation.KeyWindDirection: 184,
		observation.KeyAirQuality: map[string]any{
			"pm_2p5": 2.22,
		},
	}
}

func TestNewTarget(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "https://www.mywx.live/", want: "https://www.mywx.live/stations/home/push_data"},
		{base: "https://www.mywx.live", want: "https://www.mywx.live/stations/home/push_data"},
		{base: "http://localhost:8000/api/", want: "http://localhost:8000/api/stations/home/push_data"},
	}

	for _, tt := range tests {
		p, err := New(http.DefaultClient, tt.base, "home", "s3cret")
		if err != nil {
			t.Fatalf("New(%q): %v", tt.base, err)
		}
		if p.Target() != tt.want {
			t.Errorf("Target() = %q, want %q", p.Target(), tt.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	obs := sampleObservation()

	values, err := Encode("s3cret", obs)
	if err != nil {
		t.Fatal(err)
	}
	secret, got, err := Decode(values)
	if err != nil {
		t.Fatal(err)
	}
	if secret != "s3cret" {
		t.Errorf("secret = %q", secret)
	}
	if len(got) != len(obs) {
		t.Fatalf("decoded %d keys, want %d", len(got), len(obs))
	}

	// JSON numbers decode as float64.
	if got[observation.KeyTimestamp] != float64(1714564800) {
		t.Errorf("ts = %#v", got[observation.KeyTimestamp])
	}
	if got[observation.KeyTemperature] != 12.35 {
		t.Errorf("temperature = %#v", got[observation.KeyTemperature])
	}
	if got[observation.KeyWindDirection] != float64(184) {
		t.Errorf("wind_direction = %#v", got[observation.KeyWindDirection])
	}
	aq, ok := got[observation.KeyAirQuality].(map[string]any)
	if !ok || aq["pm_2p5"] != 2.22 {
		t.Errorf("air_quality = %#v", got[observation.KeyAirQuality])
	}
}

func TestPushSuccess(t *testing.T) {
	var gotSecret string
	var gotObs observation.Observation

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stations/home/push_data" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		var err error
		gotSecret, gotObs, err = Decode(r.PostForm)
		if err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(srv.Client(), srv.URL, "home", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Push(context.Background(), sampleObservation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSecret != "s3cret" || len(gotObs) != 4 {
		t.Fatalf("secret = %q, observation = %v", gotSecret, gotObs)
	}
}

func TestPushFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		text   string
	}{
		{name: "internal error", status: http.StatusInternalServerError, body: `{"detail": "boom"}`, text: "Internal Server Error"},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: "unavailable", text: "Service Unavailable"},
		{name: "created is not success", status: http.StatusCreated, body: "", text: "Created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, _ := New(srv.Client(), srv.URL, "home", "s3cret")
			err := p.Push(context.Background(), sampleObservation())

			var pe *PushError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PushError, got %v", err)
			}
			if pe.StatusCode != tt.status || pe.Status != tt.text || pe.Body != tt.body {
				t.Errorf("PushError = %+v", pe)
			}
			if !strings.Contains(err.Error(), tt.body) {
				t.Errorf("error %q does not contain body", err.Error())
			}
			if hits != 1 {
				t.Errorf("expected exactly one request, got %d", hits)
			}
		})
	}
}

func TestPushTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p, _ := New(http.DefaultClient, url, "home", "s3cret")
	err := p.Push(context.Background(), sampleObservation())
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *PushError
	if errors.As(err, &pe) {
		t.Fatal("transport failure must not be a PushError")
	}
}
