package movidesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"golang.org/x/time/rate"
)

const (
	serviceName     = "movidesk"
	defaultBaseURL  = "https://api.movidesk.com/public/v1"
	defaultPageSize = 85
	maxBodyBytes    = 32 << 20

	selectFields = "id,subject,status,owner,createdDate,clients,assets,justification"
	expandFields = "owner,clients,assets,actions"
)

// Config holds configuration for the Movidesk ticket client.
type Config struct {
	// BaseURL defaults to the public v1 API.
	BaseURL string

	// Token is the API token, sent as a query parameter. Required.
	Token string

	// PageSize is the $top of every page request. Defaults to 85.
	PageSize int

	// Statuses are the labels used to build the $filter expression. Empty
	// fetches every ticket.
	Statuses []string

	// RequestsPerSecond throttles page requests. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client reads active tickets from the Movidesk REST API.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	filter     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ports.TicketSource = (*Client)(nil)

// NewClient creates a Movidesk client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("movidesk: token is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
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
		pageSize:   pageSize,
		filter:     StatusFilter(cfg.Statuses),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.With("component", "movidesk"),
	}, nil
}

// StatusFilter builds the OData $filter matching any of the given status
// labels.
func StatusFilter(statuses []string) string {
	labels := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s = strings.TrimSpace(s); s != "" {
			labels = append(labels, s)
		}
	}
	if len(labels) == 0 {
		return ""
	}
	sort.Strings(labels)

	clauses := make([]string, len(labels))
	for i, l := range labels {
		clauses[i] = "status eq '" + strings.ReplaceAll(l, "'", "''") + "'"
	}
	return "(" + strings.Join(clauses, " or ") + ")"
}

// ListActiveTickets pages through the ticket list, newest first. It stops on
// an empty or short page. On a failed page it returns the tickets gathered so
// far together with the error; callers must treat that snapshot as partial.
func (c *Client) ListActiveTickets(ctx context.Context) ([]domain.Ticket, error) {
	var (
		tickets []domain.Ticket
		seen    = make(map[string]bool)
	)

	for skip := 0; ; skip += c.pageSize {
		page, err := c.fetchPage(ctx, skip)
		if err != nil {
			return tickets, err
		}

		for _, dto := range page {
			t := dto.toDomain()
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tickets = append(tickets, t)
		}

		c.logger.DebugContext(ctx, "ticket page fetched", "skip", skip, "count", len(page))
		if len(page) < c.pageSize {
			break
		}
	}

	c.logger.InfoContext(ctx, "tickets fetched", "count", len(tickets))
	return tickets, nil
}

func (c *Client) fetchPage(ctx context.Context, skip int) ([]ticketDTO, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("token", c.token)
	q.Set("$select", selectFields)
	q.Set("$expand", expandFields)
	q.Set("$orderby", "createdDate desc")
	q.Set("$top", strconv.Itoa(c.pageSize))
	q.Set("$skip", strconv.Itoa(skip))
	if c.filter != "" {
		q.Set("$filter", c.filter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tickets?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("movidesk: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{
			Service:   serviceName,
			Operation: "list tickets",
			Err:       c.redact(err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("movidesk: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError(serviceName, fmt.Sprintf("list tickets (skip %d)", skip), resp.StatusCode, body)
	}

	var page []ticketDTO
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &apperrors.UpstreamError{
			Service:    serviceName,
			Operation:  "decode tickets",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return page, nil
}

// redact strips the token from transport errors, which embed the full URL.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.token), "REDACTED")
		return &redacted
	}
	return err
}
