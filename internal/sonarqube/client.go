package sonarqube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultPageSize is the maximum page size accepted by /api/issues/search.
	DefaultPageSize = 500

	// MaxResults is the largest result window SonarQube serves for a search.
	// Pages beyond it are rejected by the server.
	MaxResults = 10000

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// issuesPath is the issue search endpoint.
	issuesPath = "/api/issues/search"

	// bodyExcerptLimit caps how much of an error body is kept.
	bodyExcerptLimit = 512
)

var (
	// ErrInvalidURL is returned when the server URL cannot be used.
	ErrInvalidURL = errors.New("invalid SonarQube URL")

	// ErrRequestFailed is returned when the server answers with a non-2xx status.
	ErrRequestFailed = errors.New("SonarQube request failed")

	// ErrInvalidResponse is returned when a response body is not a search result.
	ErrInvalidResponse = errors.New("invalid SonarQube response")
)

// Issue is one issue as returned by /api/issues/search.
// Only the fields used for reports and traceability are kept.
type Issue struct {
	Key          string   `json:"key,omitempty"`
	Rule         string   `json:"rule,omitempty"`
	Type         string   `json:"type,omitempty"`
	Severity     string   `json:"severity,omitempty"`
	Message      string   `json:"message,omitempty"`
	Component    string   `json:"component,omitempty"`
	Project      string   `json:"project,omitempty"`
	Line         *int     `json:"line,omitempty"`
	Status       string   `json:"status,omitempty"`
	Effort       string   `json:"effort,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreationDate string   `json:"creationDate,omitempty"`
	UpdateDate   string   `json:"updateDate,omitempty"`
}

// paging is the paging block of a search response.
type paging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

// searchResponse is the body of /api/issues/search.
type searchResponse struct {
	Issues []Issue `json:"issues"`
	Paging paging  `json:"paging"`
	// Total is the pre-paging field still sent by older servers.
	Total int `json:"total"`
}

// Client talks to one SonarQube server.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	pageSize   int
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPageSize sets the number of issues requested per page.
// Values outside 1..DefaultPageSize are clamped.
func WithPageSize(size int) Option {
	return func(c *Client) {
		c.pageSize = min(max(size, 1), DefaultPageSize)
	}
}

// WithRateLimit limits page requests to rps per second.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a Client for the server at baseURL.
// An empty token sends unauthenticated requests, which public servers accept.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidURL, baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host: %q", ErrInvalidURL, baseURL)
	}

	c := &Client{
		baseURL:    u,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		pageSize:   DefaultPageSize,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchIssues returns the unresolved issues of the project identified by
// componentKey, in server order.
//
// Pages are requested until the reported total is reached, a page comes back
// empty, or MaxResults issues have been read.
func (c *Client) FetchIssues(ctx context.Context, componentKey string) ([]Issue, error) {
	if componentKey == "" {
		return nil, errors.New("component key is required")
	}

	issues := make([]Issue, 0)
	for page := 1; ; page++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.searchPage(ctx, componentKey, page)
		if err != nil {
			return nil, err
		}

		issues = append(issues, resp.Issues...)

		total := resp.Paging.Total
		if total == 0 {
			total = resp.Total
		}

		c.logger.Debug("fetched issue page",
			"project", componentKey,
			"page", page,
			"issues", len(resp.Issues),
			"total", total)

		if len(resp.Issues) == 0 || page*c.pageSize >= total {
			break
		}
		if page*c.pageSize >= MaxResults {
			c.logger.Warn("issue list truncated at the server result window",
				"project", componentKey,
				"total", total,
				"fetched", len(issues))
			break
		}
	}

	if len(issues) > MaxResults {
		issues = issues[:MaxResults]
	}
	return issues, nil
}

// searchPage requests one page of the issue search.
func (c *Client) searchPage(ctx context.Context, componentKey string, page int) (*searchResponse, error) {
	u := c.baseURL.JoinPath(issuesPath)
	q := url.Values{}
	q.Set("componentKeys", componentKey)
	q.Set("resolved", "false")
	q.Set("ps", strconv.Itoa(c.pageSize))
	q.Set("p", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.SetBasicAuth(c.token, "")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues page %d: %w", page, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(res.Body, bodyExcerptLimit))
		return nil, fmt.Errorf("%w: %s: %s", ErrRequestFailed, res.Status, strings.TrimSpace(string(excerpt)))
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidResponse, page, err)
	}
	return &body, nil
}
