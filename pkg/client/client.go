package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// BaseProvider resolves the backend base URL for each call. The supervisor
// implements this with its discovered active host so every consumer
// follows host rotation automatically.
type BaseProvider interface {
	BaseURL() string
}

// StaticBase is a BaseProvider for a fixed address
type StaticBase string

// BaseURL returns the fixed address
func (s StaticBase) BaseURL() string { return string(s) }

// Client is a thin REST client for the managed backend
type Client struct {
	base BaseProvider
	http *http.Client
}

// New creates a client. The http.Client may carry a RetryTransport for
// transport-level auto-restart.
func New(base BaseProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: base, http: httpClient}
}

// ServiceStatus fetches the backend status body
func (c *Client) ServiceStatus(ctx context.Context) (*types.ServiceStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var status types.ServiceStatus
	if err := c.getJSON(ctx, "/service/status", nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// ServiceMetrics fetches the backend status and adapts it to the metrics
// snapshot the UI renders. The backend reports resource usage inside the
// status body; this is the single documented place that mapping happens.
func (c *Client) ServiceMetrics(ctx context.Context) (*types.ServiceMetrics, error) {
	status, err := c.ServiceStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &types.ServiceMetrics{
		Status:      status.Status,
		PID:         status.PID,
		Uptime:      status.Uptime,
		MemoryUsage: status.MemoryUsage,
		CPUPercent:  status.CPUPercent,
	}, nil
}

// AttendanceQuery filters a historical attendance page
type AttendanceQuery struct {
	Limit    int
	Offset   int
	DeviceID string
	Date     string // YYYY-MM-DD
}

// AttendanceLogs fetches one historical page of attendance events
func (c *Client) AttendanceLogs(ctx context.Context, query AttendanceQuery) (*types.AttendancePage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := url.Values{}
	if query.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", query.Limit))
	}
	if query.Offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", query.Offset))
	}
	if query.DeviceID != "" {
		params.Set("device_id", query.DeviceID)
	}
	if query.Date != "" {
		params.Set("date", query.Date)
	}

	var page types.AttendancePage
	if err := c.getJSON(ctx, "/attendance/logs", params, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// LiveEventsURL returns the push-stream endpoint for the current host
func (c *Client) LiveEventsURL() string {
	return c.base.BaseURL() + "/live-events"
}

// HTTPClient exposes the underlying client for the stream reader
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.base.BaseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
