// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the default address of the analysis backend.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds non-streaming requests. The original web client
	// used 120 seconds because analysis queries can be slow.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the retry budget for idempotent requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 32 * 1024 * 1024 // 32MB; result sets can be large

	// MaxVisualizationRows caps the rows sent to the visualization
	// endpoint. First-N sampling, matching the original client.
	MaxVisualizationRows = 1000
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("analysis backend unavailable")

	// ErrRateLimited indicates the backend rejected the request with 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoData indicates the backend has no uploaded dataset for the
	// session (HTTP 400 with the backend's "no data" message).
	ErrNoData = errors.New("no data uploaded for session")
)

// APIError represents a non-success response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the DataWise analysis backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no timeout; streaming requests are bounded by
	// their context instead.
	streamClient *http.Client
	maxRetries   int
	limiter      *rate.Limiter
	logger       *log.Logger
}

// NewClient creates a client for the given base URL. An empty baseURL
// falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: trimTrailingSlash(baseURL),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		streamClient: &http.Client{
			Transport: transport,
			// No timeout for streaming - controlled via context
		},
		maxRetries: DefaultMaxRetries,
		// Polite client-side pacing; the UI additionally enforces one
		// in-flight query per session.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  log.Default(),
	}
}

// WithTimeout sets the request timeout for non-streaming calls.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the retry budget for idempotent requests.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithLogger sets the logger used for request/response lines and
// skipped protocol frames.
func (c *Client) WithLogger(l *log.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// logRequest logs a request line without headers or body.
func (c *Client) logRequest(req *http.Request) {
	c.logger.Printf("API request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs a response status with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	c.logger.Printf("API response: %d %s (%v)", resp.StatusCode, resp.Request.URL.Path, duration)
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload sends a spreadsheet to the backend as multipart form data.
// The file contents are read from r; name is the original filename and
// size its total length, used for progress reporting. sessionID scopes
// the backend's working dataset; onProgress may be nil.
func (c *Client) Upload(ctx context.Context, r io.Reader, name string, size int64, sessionID string, onProgress ProgressFunc) (*UploadAck, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// The multipart body is assembled in memory: upload size is capped
	// well below MaxResponseSize by the coordinator.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload source: %w", err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	// Wrap the assembled body so progress is reported as the transport
	// drains it, mirroring the original onUploadProgress contract:
	// percent = round(sent*100/total).
	pr := &progressReader{
		r:          bytes.NewReader(body.Bytes()),
		total:      int64(body.Len()),
		onProgress: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analysis/", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = int64(body.Len())
	_ = size // size of the source file; the form body length governs progress

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp.StatusCode, data)
	}

	var ack UploadAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return &ack, nil
}

// progressReader reports read progress as a 0..100 percentage.
type progressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	lastPct    int
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil && p.total > 0 {
			pct := int((p.sent*100 + p.total/2) / p.total)
			if pct > 100 {
				pct = 100
			}
			if pct != p.lastPct {
				p.lastPct = pct
				p.onProgress(pct)
			}
		}
	}
	return n, err
}

// =============================================================================
// VISUALIZATION
// =============================================================================

// Visualize requests chart and insight generation for a result set.
// Rows beyond MaxVisualizationRows are not transmitted (first-N cap).
func (c *Client) Visualize(ctx context.Context, rows []Row, question string) (*Visualization, error) {
	if len(rows) > MaxVisualizationRows {
		rows = rows[:MaxVisualizationRows]
	}

	data, err := c.postJSON(ctx, "/api/visualize/", visualizeRequest{
		Results:  rows,
		Question: question,
	})
	if err != nil {
		return nil, err
	}

	var viz Visualization
	if err := json.Unmarshal(data, &viz); err != nil {
		return nil, fmt.Errorf("failed to parse visualization response: %w", err)
	}
	return &viz, nil
}

// =============================================================================
// HISTORY AND SESSION DIRECTORY
// =============================================================================

// History fetches the persisted turns for a session. The backend
// returns most-recent-first; the result is reversed so callers always
// receive chronological order.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryTurn, error) {
	data, err := c.getWithRetry(ctx, "/api/chat-history/?session_id="+url.QueryEscape(sessionID))
	if err != nil {
		return nil, err
	}

	var hist historyResponse
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to parse history response: %w", err)
	}

	turns := hist.History
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListSessions fetches the session directory, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	data, err := c.getWithRetry(ctx, "/api/chat-sessions/")
	if err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions response: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a persisted session and its history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/chat-sessions/"+url.PathEscape(sessionID)+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.errorFromResponse(resp.StatusCode, data)
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// SaveResults asks the backend to render a result set as CSV and
// returns the raw bytes for the caller to write to disk.
func (c *Client) SaveResults(ctx context.Context, rows []Row) ([]byte, error) {
	return c.postJSON(ctx, "/api/save-results/", map[string]any{"results": rows})
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// postJSON performs a non-streaming JSON POST and returns the body.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp.StatusCode, data)
	}
	return data, nil
}

// getWithRetry performs a GET with exponential backoff on transport
// failures and 5xx responses. Only idempotent requests go through here.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		c.logRequest(req)
		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}
		c.logResponse(resp, time.Since(start))

		data, err := readBody(resp)
		if err != nil {
			resp.Body.Close()
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = c.errorFromResponse(resp.StatusCode, data)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, c.errorFromResponse(resp.StatusCode, data)
		}
		return data, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoffDelay returns the delay before the given retry attempt.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// readBody reads a response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return data, nil
}

// errorFromResponse converts a non-success response into an error,
// mapping well-known statuses to sentinels.
func (c *Client) errorFromResponse(status int, body []byte) error {
	msg := ""
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Error
	}

	switch status {
	case http.StatusTooManyRequests:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return ErrRateLimited
	case http.StatusBadRequest:
		if msg != "" && containsNoData(msg) {
			return fmt.Errorf("%w: %s", ErrNoData, msg)
		}
	}

	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: status, Message: msg}
}

// containsNoData matches the backend's "no data uploaded" message.
func containsNoData(msg string) bool {
	return len(msg) >= 7 && (msg[:7] == "No data" || msg[:7] == "no data")
}
