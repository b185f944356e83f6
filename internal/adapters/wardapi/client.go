package wardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/maternity-ward/reporting/internal/shared/metrics"
	"github.com/maternity-ward/reporting/internal/ward"
)

// Resource paths of the ward API
const (
	ResourcePatients    = "Patients"
	ResourceAdmissions  = "Admissions"
	ResourceEmployees   = "Employees"
	ResourceAllocations = "Allocations"
)

// Client implements ward.Source over the ward REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
}

var _ ward.Source = (*Client)(nil)

// Config holds configuration for the ward API client
type Config struct {
	// API endpoint
	BaseURL string `json:"base_url"`

	// Timeouts
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`

	// Rate limiting
	MaxRequestsPerSecond int `json:"max_requests_per_second"`
	Burst                int `json:"burst"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:              "https://web.socem.plymouth.ac.uk/COMP2005/api",
		Timeout:              30 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           1 * time.Second,
		MaxRequestsPerSecond: 10,
		Burst:                5,
	}
}

// StatusError is returned for an unexpected HTTP status from the ward API
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ward API %s: unexpected status code %d", e.Path, e.StatusCode)
}

// New creates a new ward API client
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	limit := rate.Inf
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		config:     cfg,
		logger:     logger.With().Str("component", "ward_api").Logger(),
	}
}

func (c *Client) FetchAllPatients(ctx context.Context) ([]ward.Patient, error) {
	return fetchAll[ward.Patient](ctx, c, ResourcePatients)
}

func (c *Client) FetchAllAdmissions(ctx context.Context) ([]ward.Admission, error) {
	return fetchAll[ward.Admission](ctx, c, ResourceAdmissions)
}

func (c *Client) FetchAllEmployees(ctx context.Context) ([]ward.Employee, error) {
	return fetchAll[ward.Employee](ctx, c, ResourceEmployees)
}

func (c *Client) FetchAllAllocations(ctx context.Context) ([]ward.Allocation, error) {
	return fetchAll[ward.Allocation](ctx, c, ResourceAllocations)
}

func (c *Client) FetchPatient(ctx context.Context, id int) (*ward.Patient, error) {
	return fetchOne[ward.Patient](ctx, c, ResourcePatients, id)
}

func (c *Client) FetchAdmission(ctx context.Context, id int) (*ward.Admission, error) {
	return fetchOne[ward.Admission](ctx, c, ResourceAdmissions, id)
}

func (c *Client) FetchEmployee(ctx context.Context, id int) (*ward.Employee, error) {
	return fetchOne[ward.Employee](ctx, c, ResourceEmployees, id)
}

func (c *Client) FetchAllocation(ctx context.Context, id int) (*ward.Allocation, error) {
	return fetchOne[ward.Allocation](ctx, c, ResourceAllocations, id)
}

// fetchAll loads a whole collection. A JSON null body decodes to a nil slice.
func fetchAll[T any](ctx context.Context, c *Client, resource string) ([]T, error) {
	path := "/" + resource

	resp, err := c.doRequest(ctx, resource, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	var records []T
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", resource, err)
	}
	return records, nil
}

// fetchOne loads a single record. A 404 is reported as (nil, nil).
func fetchOne[T any](ctx context.Context, c *Client, resource string, id int) (*T, error) {
	path := fmt.Sprintf("/%s/%d", resource, id)

	resp, err := c.doRequest(ctx, resource, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %d: %w", resource, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	var record T
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode %s %d: %w", resource, id, err)
	}
	return &record, nil
}

// doRequest performs a GET with rate limiting and retry logic.
// Transport errors and 5xx responses are retried; any other response is
// returned to the caller.
func (c *Client) doRequest(ctx context.Context, resource, path string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}

		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordWardAPIRequest(resource, 0, time.Since(start))
			lastErr = err
			c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Str("request_id", requestID).Msg("ward API request failed")
			continue
		}
		metrics.RecordWardAPIRequest(resource, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			lastErr = &StatusError{Path: path, StatusCode: resp.StatusCode}
			c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Int("attempt", attempt+1).Str("request_id", requestID).Msg("ward API server error")
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.config.RetryAttempts, lastErr)
}
