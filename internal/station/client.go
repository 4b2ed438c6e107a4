package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client abstracts a local station source (weather-station controller or
// air-quality sensor) that reports its current conditions.
type Client interface {
	Host() string
	CurrentConditions(ctx context.Context) ([]Record, error)
}

const conditionsPath = "/v1/current_conditions"

var (
	errUnexpectedStatus = errors.New("unexpected status code")
	errStationReported  = errors.New("station reported error")
	errNoHTTPClient     = errors.New("http client not configured")
	errNoType           = errors.New("condition without data_structure_type")
)

// HTTPClient queries a station's local HTTP API.
type HTTPClient struct {
	host    string
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for host, which may be "addr", "addr:port" or a full URL.
func NewHTTPClient(client *http.Client, host string) *HTTPClient {
	base := strings.TrimRight(host, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &HTTPClient{
		host:    host,
		baseURL: base,
		client:  client,
	}
}

func (c *HTTPClient) Host() string {
	return c.host
}

// conditionsPayload is the envelope returned by current_conditions.
type conditionsPayload struct {
	Data *struct {
		DeviceID   string           `json:"did"`
		Timestamp  int64            `json:"ts"`
		Conditions []map[string]any `json:"conditions"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CurrentConditions fetches and decodes the station's condition records.
func (c *HTTPClient) CurrentConditions(ctx context.Context) ([]Record, error) {
	if c.client == nil {
		return nil, errNoHTTPClient
	}

	records, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.host, err)
	}
	return records, nil
}

func (c *HTTPClient) fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+conditionsPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var payload conditionsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode current conditions: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("%w: %d %s", errStationReported, payload.Error.Code, payload.Error.Message)
	}
	if payload.Data == nil {
		return nil, nil
	}

	return decodeConditions(payload.Data.Conditions)
}

// decodeConditions keeps input order and every numeric field of each condition.
func decodeConditions(raw []map[string]any) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for _, cond := range raw {
		t, ok := cond["data_structure_type"].(float64)
		if !ok {
			return nil, errNoType
		}

		values := make(map[string]float64, len(cond))
		for k, v := range cond {
			if k == "data_structure_type" {
				continue
			}
			if f, ok := v.(float64); ok {
				values[k] = f
			}
		}

		records = append(records, Record{
			Type:   RecordType(int(t)),
			Values: values,
		})
	}
	return records, nil
}
