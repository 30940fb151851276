// Package client talks to an external farm resource API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"farmdash/farm"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	// RatePerSecond limits outbound calls; zero means unlimited
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// Client implements the farm resource contract against a remote API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a resource API client
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: hc,
		limiter:    limiter,
	}
}

// CreatePlan creates a plan
func (c *Client) CreatePlan(ctx context.Context, input farm.PlanInput) (*farm.Plan, error) {
	var plan farm.Plan
	if err := c.write(ctx, "create plan", http.MethodPost, "/plans", input, &plan, "plan", 0); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan applies a partial update to a plan
func (c *Client) UpdatePlan(ctx context.Context, planID int64, patch farm.PlanPatch) (*farm.Plan, error) {
	var plan farm.Plan
	path := fmt.Sprintf("/plans/%d", planID)
	if err := c.write(ctx, "update plan", http.MethodPut, path, patch, &plan, "plan", planID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlanStatus moves a plan through the status side channel
func (c *Client) UpdatePlanStatus(ctx context.Context, planID int64, status farm.PlanStatus, reportBy string) (*farm.Plan, error) {
	q := url.Values{}
	q.Set("status", string(status))
	if reportBy != "" {
		q.Set("report_by", reportBy)
	}

	var plan farm.Plan
	path := fmt.Sprintf("/plans/%d/status?%s", planID, q.Encode())
	if err := c.write(ctx, "update plan status", http.MethodPut, path, nil, &plan, "plan", planID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateCaringTask creates a caring task
func (c *Client) CreateCaringTask(ctx context.Context, task farm.CaringTask) (*farm.CaringTask, error) {
	var out farm.CaringTask
	if err := c.write(ctx, "create caring task", http.MethodPost, "/caring-tasks", task, &out, "", 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateHarvestingTask creates a harvesting task
func (c *Client) CreateHarvestingTask(ctx context.Context, task farm.HarvestingTask) (*farm.HarvestingTask, error) {
	var out farm.HarvestingTask
	if err := c.write(ctx, "create harvesting task", http.MethodPost, "/harvesting-tasks", task, &out, "", 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInspectingForm creates an inspecting form
func (c *Client) CreateInspectingForm(ctx context.Context, form farm.InspectingForm) (*farm.InspectingForm, error) {
	var out farm.InspectingForm
	if err := c.write(ctx, "create inspecting form", http.MethodPost, "/inspecting-forms", form, &out, "", 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPlan reads a plan
func (c *Client) GetPlan(ctx context.Context, planID int64) (*farm.Plan, error) {
	var plan farm.Plan
	if err := c.read(ctx, fmt.Sprintf("/plans/%d", planID), &plan, "plan", planID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans reads every plan
func (c *Client) ListPlans(ctx context.Context) ([]farm.Plan, error) {
	var plans []farm.Plan
	if err := c.read(ctx, "/plans", &plans, "", 0); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListCaringTasks reads the caring tasks of a plan
func (c *Client) ListCaringTasks(ctx context.Context, planID int64) ([]farm.CaringTask, error) {
	var tasks []farm.CaringTask
	if err := c.read(ctx, fmt.Sprintf("/plans/%d/caring-tasks", planID), &tasks, "plan", planID); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListHarvestingTasks reads the harvesting tasks of a plan
func (c *Client) ListHarvestingTasks(ctx context.Context, planID int64) ([]farm.HarvestingTask, error) {
	var tasks []farm.HarvestingTask
	if err := c.read(ctx, fmt.Sprintf("/plans/%d/harvesting-tasks", planID), &tasks, "plan", planID); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListInspectingForms reads the inspecting forms of a plan
func (c *Client) ListInspectingForms(ctx context.Context, planID int64) ([]farm.InspectingForm, error) {
	var forms []farm.InspectingForm
	if err := c.read(ctx, fmt.Sprintf("/plans/%d/inspecting-forms", planID), &forms, "plan", planID); err != nil {
		return nil, err
	}
	return forms, nil
}

// ListCatalog reads a reference catalog such as items or pesticides
func (c *Client) ListCatalog(ctx context.Context, name string) ([]farm.CatalogEntry, error) {
	var entries []farm.CatalogEntry
	if err := c.read(ctx, "/"+url.PathEscape(name), &entries, "", 0); err != nil {
		return nil, err
	}
	return entries, nil
}

// write sends a mutating call. Failures come back as *farm.RemoteWriteError,
// except a 404 on an addressed record which is a *farm.NotFoundError.
func (c *Client) write(ctx context.Context, op, method, path string, body, out any, resource string, id int64) error {
	status, err := c.do(ctx, method, path, body, out)
	if err == nil {
		return nil
	}
	if status == http.StatusNotFound && resource != "" {
		return &farm.NotFoundError{Resource: resource, ID: id}
	}
	logger.LogErr(err, "resource API write failed", "op", op, "status", fmt.Sprint(status))
	return &farm.RemoteWriteError{Op: op, StatusCode: status, Err: err}
}

func (c *Client) read(ctx context.Context, path string, out any, resource string, id int64) error {
	status, err := c.do(ctx, http.MethodGet, path, nil, out)
	if err == nil {
		return nil
	}
	if status == http.StatusNotFound && resource != "" {
		return &farm.NotFoundError{Resource: resource, ID: id}
	}
	return serr.Wrap(err, "resource API read failed", "path", path)
}

// do performs one round trip and decodes a 2xx JSON body into out.
// The returned status is zero when no response was received.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, serr.Wrap(err, "rate limiter wait aborted")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, serr.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, serr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.Debug("Resource API request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, serr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, serr.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, serr.New(fmt.Sprintf("API error: %s - %s", resp.Status, strings.TrimSpace(string(respBody))))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, serr.Wrap(err, "failed to parse response")
		}
	}
	return resp.StatusCode, nil
}
