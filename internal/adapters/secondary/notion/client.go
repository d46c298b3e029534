package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"golang.org/x/time/rate"
)

const (
	serviceName    = "notion"
	defaultBaseURL = "https://api.notion.com/v1"
	defaultVersion = "2022-06-28"
	queryPageSize  = 100
	maxBodyBytes   = 16 << 20
	maxRetryWait   = 30 * time.Second
)

// Config holds configuration for the Notion API client.
type Config struct {
	// BaseURL defaults to the public v1 API.
	BaseURL string

	// Token is the integration secret. Required.
	Token string

	// Version is sent as the Notion-Version header.
	Version string

	// RequestsPerSecond throttles every request. Notion allows an average
	// of three per second per integration.
	RequestsPerSecond float64

	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a minimal Notion REST client: database queries and page writes.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Notion client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("notion: token is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		version:    version,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.With("component", "notion"),
	}, nil
}

// QueryDatabase walks every page of the database, calling fn for each.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, fn func(Page) error) error {
	body := map[string]any{"page_size": queryPageSize}
	path := "/databases/" + databaseID + "/query"

	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, "query database", body, &resp); err != nil {
			return err
		}
		for _, p := range resp.Results {
			if err := fn(p); err != nil {
				return err
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return nil
		}
		body["start_cursor"] = resp.NextCursor
	}
}

// CreatePage creates a page and returns its id.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (string, error) {
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", "create page", req, &page); err != nil {
		return "", err
	}
	return page.ID, nil
}

// UpdatePage patches page properties, or archives the page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, req UpdatePageRequest) error {
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, "update page", req, nil)
}

func (c *Client) do(ctx context.Context, method, path, op string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("notion: encode %s: %w", op, err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		status, header, body, err := c.roundTrip(ctx, method, path, payload)
		if err != nil {
			return &apperrors.UpstreamError{Service: serviceName, Operation: op, Err: err}
		}

		if status == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(header)
			c.logger.WarnContext(ctx, "rate limited, retrying", "operation", op, "wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if status < 200 || status >= 300 {
			return apperrors.NewUpstreamError(serviceName, op, status, body)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &apperrors.UpstreamError{Service: serviceName, Operation: op, StatusCode: status, Err: err}
		}
		return nil
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func retryAfter(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs >= 0 {
		wait := time.Duration(secs) * time.Second
		if wait > maxRetryWait {
			wait = maxRetryWait
		}
		return wait
	}
	return time.Second
}

// isArchivedError reports whether Notion refused an edit because the page is
// already archived.
func isArchivedError(err error) bool {
	var upstream *apperrors.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(upstream.Body), "archived")
}
