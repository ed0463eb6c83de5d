package api

// API CLIENT

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

	"go.uber.org/zap"

	"fabricquote/internal/calculator"
	"fabricquote/internal/grid"
)

// Error is a non-2xx answer from the service.
type Error struct {
	StatusCode int
	Message    string   `json:"error"`
	Details    []string `json:"details"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("fabricquote: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fabricquote: %d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Details, "; "))
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

type NormalizedGrid struct {
	Grid       *grid.StandardGrid    `json:"grid"`
	Format     string                `json:"format"`
	Validation grid.ValidationResult `json:"validation"`
}

// NewClient creates a client for the service at baseURL. token is sent as a bearer token
// when not empty.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) Calculate(ctx context.Context, p calculator.Params) (*calculator.Result, error) {
	var res calculator.Result
	if err := c.do(ctx, http.MethodPost, "/v1/calculations", p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// NormalizeGrid sends a raw grid payload and returns its canonical form.
func (c *Client) NormalizeGrid(ctx context.Context, payload json.RawMessage) (*NormalizedGrid, error) {
	var res NormalizedGrid
	if err := c.do(ctx, http.MethodPost, "/v1/grids/normalize", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveGrid normalizes payload server-side and stores it on the window covering.
func (c *Client) SaveGrid(ctx context.Context, windowCoveringID string, payload any) (*grid.StandardGrid, error) {
	var res grid.StandardGrid
	path := fmt.Sprintf("/v1/window-coverings/%s/grid", url.PathEscape(windowCoveringID))
	if err := c.do(ctx, http.MethodPut, path, payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
