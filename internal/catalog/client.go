package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/engineerr"
)

// Errors a concrete HTTP-backed catalog client can return.
var (
	ErrNoAPIKey     = errors.New("catalog API key is required")
	ErrUnauthorized = errors.New("invalid or expired API key")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrNotFound     = errors.New("resource not found")
	ErrServerError  = errors.New("catalog server error")
)

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// HTTPClient is the production Client implementation: REST calls over
// net/http with the same retry/backoff/rate-limit discipline the catalog's
// predecessor GraphQL client used, generalised to per-operation endpoints
// instead of a single GraphQL query surface.
type HTTPClient struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu              sync.RWMutex
	lastRequest     time.Time
	minRequestDelay time.Duration
	rateLimit       RateLimit
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs an HTTPClient with sensible retry/backoff
// defaults when the caller leaves them zero.
func NewHTTPClient(cfg ClientConfig) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 1 * time.Second
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	return &HTTPClient{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		httpClient:      httpClient,
		maxRetries:      maxRetries,
		initialBackoff:  initialBackoff,
		maxBackoff:      maxBackoff,
		minRequestDelay: 100 * time.Millisecond,
	}, nil
}

type request struct {
	method string
	path   string
	query  map[string]string
	body   interface{}
}

func (c *HTTPClient) do(ctx context.Context, req request, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.waitForRateLimit(ctx); err != nil {
			return err
		}

		resp, err := c.doRequest(ctx, req)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return err
		}

		err = c.decodeResponse(resp, out)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *HTTPClient) doRequest(ctx context.Context, req request) (*http.Response, error) {
	url := c.baseURL + req.path
	if len(req.query) > 0 {
		url += "?"
		first := true
		for k, v := range req.query {
			if !first {
				url += "&"
			}
			url += k + "=" + v
			first = false
		}
	}

	var bodyReader io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("User-Agent", "rippermod-manager-sub000/1.0")

	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	c.parseRateLimitHeaders(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case http.StatusPaymentRequired:
		resp.Body.Close()
		return nil, engineerr.PremiumRequired("catalog requires a premium account for this operation")
	default:
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *HTTPClient) decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) waitForRateLimit(ctx context.Context) error {
	c.mu.RLock()
	lastReq := c.lastRequest
	minDelay := c.minRequestDelay
	c.mu.RUnlock()

	elapsed := time.Since(lastReq)
	if elapsed < minDelay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(minDelay - elapsed):
		}
	}
	return nil
}

func (c *HTTPClient) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.initialBackoff) * math.Pow(2, float64(attempt-1))
	if backoff > float64(c.maxBackoff) {
		backoff = float64(c.maxBackoff)
	}
	return time.Duration(backoff)
}

func (c *HTTPClient) parseRateLimitHeaders(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rl := RateLimit{ObservedAt: time.Now()}
	if v := resp.Header.Get("X-RL-Hourly-Limit"); v != "" {
		rl.HourlyLimit, _ = strconv.Atoi(v)
	}
	if v := resp.Header.Get("X-RL-Hourly-Remaining"); v != "" {
		rl.HourlyRemaining, _ = strconv.Atoi(v)
	}
	if v := resp.Header.Get("X-RL-Daily-Limit"); v != "" {
		rl.DailyLimit, _ = strconv.Atoi(v)
	}
	if v := resp.Header.Get("X-RL-Daily-Remaining"); v != "" {
		rl.DailyRemaining, _ = strconv.Atoi(v)
	}
	c.rateLimit = rl

	if rl.HourlyRemaining > 0 && rl.HourlyRemaining < 10 {
		c.minRequestDelay = 1 * time.Second
	} else if rl.HourlyRemaining > 100 {
		c.minRequestDelay = 100 * time.Millisecond
	}
}

// LastRateLimit returns the rate-limit snapshot observed on the most recent
// call.
func (c *HTTPClient) LastRateLimit() RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimit
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError)
}

func (c *HTTPClient) ValidateKey(ctx context.Context) (KeyInfo, error) {
	var out KeyInfo
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/users/validate"}, &out)
	return out, err
}

func (c *HTTPClient) GetTrackedMods(ctx context.Context) ([]TrackedRef, error) {
	var out []TrackedRef
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/user/tracked_mods"}, &out)
	return out, err
}

func (c *HTTPClient) GetEndorsements(ctx context.Context) ([]TrackedRef, error) {
	var out []TrackedRef
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/user/endorsements"}, &out)
	return out, err
}

func (c *HTTPClient) GetModInfo(ctx context.Context, domain string, modID int64) (ModInfo, error) {
	var out ModInfo
	path := fmt.Sprintf("/v1/games/%s/mods/%d", domain, modID)
	err := c.do(ctx, request{method: http.MethodGet, path: path}, &out)
	return out, err
}

func (c *HTTPClient) GetModFiles(ctx context.Context, domain string, modID int64, category string) (ModFilesResult, error) {
	var out ModFilesResult
	path := fmt.Sprintf("/v1/games/%s/mods/%d/files", domain, modID)
	q := map[string]string{}
	if category != "" {
		q["category"] = category
	}
	err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &out)
	return out, err
}

func (c *HTTPClient) MD5Search(ctx context.Context, domain, md5 string) ([]MD5SearchHit, error) {
	var out []MD5SearchHit
	path := fmt.Sprintf("/v1/games/%s/mods/md5_search/%s", domain, md5)
	err := c.do(ctx, request{method: http.MethodGet, path: path}, &out)
	return out, err
}

func (c *HTTPClient) GetUpdatedMods(ctx context.Context, domain string, period UpdatePeriod) ([]UpdatedModRef, error) {
	var out []UpdatedModRef
	path := fmt.Sprintf("/v1/games/%s/mods/updated", domain)
	err := c.do(ctx, request{method: http.MethodGet, path: path, query: map[string]string{"period": string(period)}}, &out)
	return out, err
}

func (c *HTTPClient) GetDownloadLinks(ctx context.Context, domain string, modID, fileID int64, nxmKey string, nxmExpires int64) ([]DownloadLink, error) {
	var out []DownloadLink
	path := fmt.Sprintf("/v1/games/%s/mods/%d/files/%d/download_link", domain, modID, fileID)
	q := map[string]string{}
	if nxmKey != "" {
		q["key"] = nxmKey
		q["expires"] = strconv.FormatInt(nxmExpires, 10)
	}
	err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &out)
	return out, err
}

func (c *HTTPClient) Endorse(ctx context.Context, domain string, modID int64) (bool, error) {
	return c.postAction(ctx, fmt.Sprintf("/v1/games/%s/mods/%d/endorse", domain, modID))
}

func (c *HTTPClient) Abstain(ctx context.Context, domain string, modID int64) (bool, error) {
	return c.postAction(ctx, fmt.Sprintf("/v1/games/%s/mods/%d/abstain", domain, modID))
}

func (c *HTTPClient) Track(ctx context.Context, domain string, modID int64) (bool, error) {
	return c.postAction(ctx, fmt.Sprintf("/v1/user/tracked_mods?domain_name=%s&mod_id=%d", domain, modID))
}

func (c *HTTPClient) Untrack(ctx context.Context, domain string, modID int64) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	path := fmt.Sprintf("/v1/user/tracked_mods?domain_name=%s&mod_id=%d", domain, modID)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path}, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (c *HTTPClient) postAction(ctx context.Context, path string) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: path}, &out)
	if err != nil {
		return false, err
	}
	return out.Success, nil
}
