// Package backend pkg/backend/client.go is the REST client for the
// dashboard backend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
	"github.com/omnisense/raindash/pkg/timewindow"
)

const defaultTimeout = 15 * time.Second

// ErrTransport marks a fetch that failed outright or returned a
// non-success status. Callers must surface it as an explicit error
// state, never keep stale data labeled as current.
var ErrTransport = errors.New("backend transport error")

// Client talks to the backend REST API.
type Client struct {
	base   string
	token  string
	client *http.Client
	logger *zap.SugaredLogger
}

// NewClient creates a client for the API at base. An empty token
// disables the Authorization header.
func NewClient(base, token string, logger *zap.SugaredLogger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// Health reports whether the backend answers its health endpoint.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var payload struct {
		OK bool `json:"ok"`
	}

	if err := c.get(ctx, "/api/health", nil, &payload); err != nil {
		return false, err
	}

	return payload.OK, nil
}

// Devices fetches the full device list.
func (c *Client) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	var devices []models.DeviceSummary
	if err := c.get(ctx, "/api/devices", nil, &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

// Device fetches a single device summary.
func (c *Client) Device(ctx context.Context, id models.DeviceID) (models.DeviceSummary, error) {
	var device models.DeviceSummary
	if err := c.get(ctx, "/api/devices/"+strconv.FormatInt(int64(id), 10), nil, &device); err != nil {
		return models.DeviceSummary{}, err
	}

	return device, nil
}

// Readings fetches the readings for one device over the given range,
// as of now. The hours parameter is always sent; the today form adds
// today=true so the backend can anchor the window to local midnight.
func (c *Client) Readings(
	ctx context.Context, id models.DeviceID, r timewindow.Range, now time.Time) ([]models.Reading, error) {
	query := url.Values{}
	query.Set("hours", strconv.Itoa(r.QueryHours(now)))

	if r.IsToday() {
		query.Set("today", "true")
	}

	var readings []models.Reading

	path := "/api/devices/" + strconv.FormatInt(int64(id), 10) + "/rain"
	if err := c.get(ctx, path, query, &readings); err != nil {
		return nil, err
	}

	return readings, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst interface{}) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warnw("backend request failed", "path", path, "status", resp.Status)

		return fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}

	return nil
}
