package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/mywx-push/internal/observation"
)

// Form field names of the push payload.
const (
	FieldSecretKey = "secret_key"
	FieldData      = "data"
)

var errNoHTTPClient = errors.New("http client not configured")

// PushError is returned when the endpoint answers with anything but 200.
type PushError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push rejected: %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Pusher submits observations to the remote ingestion endpoint.
type Pusher struct {
	client    *http.Client
	target    string
	secretKey string
}

// New builds a Pusher posting to {baseURI}/stations/{slug}/push_data.
func New(client *http.Client, baseURI, slug, secretKey string) (*Pusher, error) {
	target, err := url.JoinPath(baseURI, "stations", slug, "push_data")
	if err != nil {
		return nil, fmt.Errorf("invalid base uri %q: %w", baseURI, err)
	}
	return &Pusher{
		client:    client,
		target:    target,
		secretKey: secretKey,
	}, nil
}

// Target returns the push URL.
func (p *Pusher) Target() string {
	return p.target
}

// Encode builds the form payload for obs.
func Encode(secretKey string, obs observation.Observation) (url.Values, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("encode observation: %w", err)
	}
	values := url.Values{}
	values.Set(FieldSecretKey, secretKey)
	values.Set(FieldData, string(data))
	return values, nil
}

// Decode is the inverse of Encode.
func Decode(values url.Values) (string, observation.Observation, error) {
	raw := values.Get(FieldData)
	if raw == "" {
		return "", nil, fmt.Errorf("missing %s field", FieldData)
	}
	var obs observation.Observation
	if err := json.Unmarshal([]byte(raw), &obs); err != nil {
		return "", nil, fmt.Errorf("decode observation: %w", err)
	}
	return values.Get(FieldSecretKey), obs, nil
}

// Push sends obs in a single request. It never retries.
func (p *Pusher) Push(ctx context.Context, obs observation.Observation) error {
	if p.client == nil {
		return errNoHTTPClient
	}

	values, err := Encode(p.secretKey, obs)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.target, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to %s: %w", p.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	// The body is reported verbatim, even if only partially read.
	body, _ := io.ReadAll(resp.Body)
	return &PushError{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
		Body:       string(body),
	}
}

// statusText returns the reason phrase the server sent, falling back to the standard one.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
