package worksuite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

const apiKeyHeader = "X-Api-Key"

var (
	errBaseURLRequired = errors.New("worksuite base url is required")
	errAPIKeyRequired  = errors.New("worksuite api key is required")
	errLoggerRequired  = errors.New("worksuite logger is required")
)

// Client talks to the WorkSuite workforce platform: paginated user listing,
// form-submission listing and clock time activities. Every request carries the
// API key header; 5xx and network failures are retried with bounded backoff,
// 4xx responses are treated as permanent configuration errors.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pageSize     int
	maxUserPages int
	maxRetries   int
	backoff      time.Duration
	logger       *logger.Logger
}

// NewClient validates the configuration and builds a WorkSuite client.
func NewClient(ctx context.Context, cfg config.WorkSuiteConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxUserPages := cfg.MaxUserPages
	if maxUserPages <= 0 {
		maxUserPages = 10
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		apiKey:       apiKey,
		pageSize:     pageSize,
		maxUserPages: maxUserPages,
		maxRetries:   cfg.MaxRetries,
		backoff:      backoff,
		logger:       logg,
	}

	logg.Info(ctx, "worksuite client initialized")
	return c, nil
}

// PageSize returns the configured listing page size.
func (c *Client) PageSize() int {
	if c == nil {
		return 0
	}
	return c.pageSize
}

// MaxUserPages returns the runaway-loop guard for user pagination.
func (c *Client) MaxUserPages() int {
	if c == nil {
		return 0
	}
	return c.maxUserPages
}

// getJSON performs a GET with retries and decodes the response into dest.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.backoff))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build worksuite request")
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// network failure, retryable
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "worksuite request failed"))
		}
		defer resp.Body.Close()

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeUpstream, readErr, "read worksuite response"))
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body = payload
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeUpstream,
				fmt.Sprintf("worksuite returned %d", resp.StatusCode)))
		default:
			// 4xx is a permanent input/configuration error, never retried
			return pkgerrors.New(pkgerrors.CodeUpstream,
				fmt.Sprintf("worksuite rejected request with %d", resp.StatusCode)).
				WithDetails(map[string]any{"status": resp.StatusCode, "path": path})
		}
	})
	if err != nil {
		c.log(ctx, "error", path, map[string]any{"error": err.Error()})
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnsupportedShape, err, "decode worksuite response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, kind, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"worksuite_op": operation}
	for k, v := range fields {
		merged[k] = v
	}
	ctx = c.logger.WithFields(ctx, merged)
	switch kind {
	case "error":
		c.logger.Warn(ctx, "worksuite call failed")
	default:
		c.logger.Info(ctx, "worksuite call")
	}
}
