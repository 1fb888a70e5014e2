// Package api is the client for the portal REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pressroom/app/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxResponseBytes = 10 << 20

// TokenStore is the part of the session the client needs.
type TokenStore interface {
	Credentials() *oauth2.Token
	UpdateTokens(token, refreshToken string) error
	Clear() error
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 for unlimited
	Burst      int
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Client talks to the portal API on behalf of the cached session.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	tokens  TokenStore
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	refreshMu sync.Mutex
}

// New returns a client. tokens may be nil for anonymous use.
func New(opts Options, tokens TokenStore) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("api: invalid base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		tokens:  tokens,
		logger:  logger.Named("api"),
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// request describes one call. route is the path template used as the metric
// label so ids do not blow up cardinality.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any

	// raw bodies are sent as is, for multipart uploads.
	raw         []byte
	contentType string

	// anonymous requests never carry a token.
	anonymous bool
	// noRefresh requests carry the token but a 401 is returned as is.
	noRefresh bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	payload, ctype, err := r.encode()
	if err != nil {
		return err
	}

	tok := c.credentials(r)
	refreshed := false
	if !r.noRefresh && tok != nil && tok.RefreshToken != "" && !tok.Expiry.IsZero() && !c.now().Before(tok.Expiry) {
		if err := c.refresh(ctx, tok.AccessToken); err != nil {
			c.logger.Debug("proactive refresh failed", zap.Error(err))
		} else {
			refreshed = true
			tok = c.credentials(r)
		}
	}

	status, body, reqID, err := c.send(ctx, r, payload, ctype, tok)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && tok != nil && !r.noRefresh {
		if refreshed {
			return c.expire(decodeError(status, body, reqID))
		}
		if err := c.refresh(ctx, tok.AccessToken); err != nil {
			// An unreachable server says nothing about the session.
			if IsNetwork(err) {
				return err
			}
			return c.expire(err)
		}
		status, body, reqID, err = c.send(ctx, r, payload, ctype, c.credentials(r))
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return c.expire(decodeError(status, body, reqID))
		}
	}

	if status >= http.StatusBadRequest {
		return decodeError(status, body, reqID)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", r.method, r.route, err)
	}
	return nil
}

func (c *Client) credentials(r request) *oauth2.Token {
	if r.anonymous || c.tokens == nil {
		return nil
	}
	return c.tokens.Credentials()
}

func (c *Client) send(ctx context.Context, r request, payload []byte, ctype string, tok *oauth2.Token) (int, []byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, "", &NetworkError{Op: "rate limit", Err: err}
	}

	u := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return 0, nil, "", fmt.Errorf("api: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(r.method, r.route, 0, time.Since(start))
		c.logger.Warn("request failed",
			zap.String("method", r.method),
			zap.String("route", r.route),
			zap.String("request_id", reqID),
			zap.Error(err))
		return 0, nil, reqID, &NetworkError{Op: r.method + " " + r.route, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveAPI(r.method, r.route, resp.StatusCode, elapsed)
	if err != nil {
		return 0, nil, reqID, &NetworkError{Op: "read " + r.route, Err: err}
	}
	c.logger.Debug("request",
		zap.String("method", r.method),
		zap.String("route", r.route),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", reqID))
	return resp.StatusCode, data, reqID, nil
}

// refresh exchanges the refresh token for a new access token. stale is the
// access token that was rejected; when another call already replaced it the
// refresh is skipped.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tok := c.tokens.Credentials()
	if tok == nil {
		return errors.New("api: no session to refresh")
	}
	if tok.AccessToken != stale {
		return nil
	}
	if tok.RefreshToken == "" {
		c.metrics.Refresh(false)
		return errors.New("api: no refresh token")
	}

	var resp refreshResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/auth/refresh",
		path:      "/auth/refresh",
		body:      refreshRequest{RefreshToken: tok.RefreshToken},
		anonymous: true,
	}, &resp)
	if err == nil && resp.Token == "" {
		err = errors.New("api: refresh returned no token")
	}
	if err != nil {
		c.metrics.Refresh(false)
		return err
	}
	c.metrics.Refresh(true)
	return c.tokens.UpdateTokens(resp.Token, resp.RefreshToken)
}

// expire forces a logout after the refresh path gave up.
func (c *Client) expire(cause error) error {
	c.logger.Info("session expired, clearing cache", zap.Error(cause))
	if err := c.tokens.Clear(); err != nil {
		c.logger.Error("clear session", zap.Error(err))
	}
	return ErrSessionExpired
}

func (r request) encode() ([]byte, string, error) {
	if r.raw != nil {
		return r.raw, r.contentType, nil
	}
	if r.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("api: encode %s %s: %w", r.method, r.route, err)
	}
	return data, "application/json", nil
}

func get(route, path string) request {
	return request{method: http.MethodGet, route: route, path: path}
}

func post(route, path string, body any) request {
	return request{method: http.MethodPost, route: route, path: path, body: body}
}
