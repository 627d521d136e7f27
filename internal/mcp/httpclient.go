package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/calendar"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/tracker"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w: %w", path, models.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrUnavailable)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]tracker.Template, error) {
	var templates []tracker.Template
	if err := c.get(ctx, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, date civil.Date) (*models.Workout, error) {
	var w models.Workout
	if err := c.get(ctx, "/api/v1/workouts/"+date.String(), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) PreviousWorkout(ctx context.Context, template string, date civil.Date) (*models.Workout, error) {
	params := url.Values{}
	params.Set("template", template)
	params.Set("date", date.String())

	var resp struct {
		Previous *models.Workout `json:"previous"`
	}
	if err := c.get(ctx, "/api/v1/workouts/previous", params, &resp); err != nil {
		return nil, err
	}
	return resp.Previous, nil
}

func (c *HTTPClient) CalendarMonth(ctx context.Context, m calendar.Month) (*calendar.MonthView, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(m.Year))
	params.Set("month", strconv.Itoa(int(m.Month)))

	var view calendar.MonthView
	if err := c.get(ctx, "/api/v1/calendar", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Today asks the server, so "today" follows the server's configured zone.
func (c *HTTPClient) Today(ctx context.Context) (civil.Date, error) {
	var action calendar.Action
	if err := c.get(ctx, "/api/v1/calendar/today", nil, &action); err != nil {
		return civil.Date{}, err
	}
	return action.Date, nil
}
