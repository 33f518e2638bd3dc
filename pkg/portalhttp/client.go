package portalhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utilibill/portal-sdk/pkg/configuration"
	"github.com/utilibill/portal-sdk/pkg/serrors"
)

// Client is the authenticated JSON client for the portal API. It attaches
// the bearer token to every request and performs exactly one silent
// refresh-and-retry on HTTP 401; every other failure class is terminal.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
	refreshPath     string
	log             *logrus.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

type Options struct {
	BaseURL         string
	AccessToken     string
	RefreshToken    string
	Timeout         time.Duration
	RequestIDHeader string
	Logger          *logrus.Logger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         u,
		httpClient:      &http.Client{Timeout: timeout},
		requestIDHeader: opts.RequestIDHeader,
		refreshPath:     "/auth/refresh",
		log:             opts.Logger,
		accessToken:     strings.TrimSpace(opts.AccessToken),
		refreshToken:    strings.TrimSpace(opts.RefreshToken),
	}, nil
}

// FromConfiguration builds a client from the process-wide configuration.
func FromConfiguration(cfg *configuration.Configuration) (*Client, error) {
	return NewClient(Options{
		BaseURL:         cfg.API.BaseURL,
		AccessToken:     cfg.API.AccessToken,
		RefreshToken:    cfg.API.RefreshToken,
		Timeout:         cfg.API.Timeout,
		RequestIDHeader: cfg.RequestIDHeader,
		Logger:          cfg.Logger(),
	})
}

// Tokens returns the current access and refresh tokens.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// SetTokens replaces the token pair, e.g. after an external login.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// DoJSON issues one API call and decodes its envelope. op names the logical
// operation for error messages and metrics ("fetch change requests", ...).
func (c *Client) DoJSON(ctx context.Context, op, method, path string, query url.Values, reqBody any) (*Envelope, error) {
	start := time.Now()
	env, err := c.doOnce(ctx, op, method, path, query, reqBody, true)
	observeRequest(op, resultLabel(env, err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if !env.Succeeded() {
		return env, apiError(env.Message)
	}
	return env, nil
}

func (c *Client) doOnce(ctx context.Context, op, method, path string, query url.Values, reqBody any, allowRefresh bool) (*Envelope, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, networkError(op)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	access, _ := c.Tokens()
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("operation", op).Warn("portal API transport failure")
		}
		return nil, networkError(op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && allowRefresh {
		if err := c.refreshAccessToken(ctx); err != nil {
			return nil, err
		}
		return c.doOnce(ctx, op, method, path, query, reqBody, false)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(op)
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apiError(fmt.Sprintf("server returned status %d during %s", resp.StatusCode, op))
		}
		return nil, serrors.NewError(CodeBadEnvelope, "response is not a valid envelope")
	}
	if err := env.Validate(); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apiError(fmt.Sprintf("server returned status %d during %s", resp.StatusCode, op))
		}
		return nil, err
	}
	return &env, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return apiError("session expired")
	}

	env, err := c.doOnce(ctx, "refresh token", http.MethodPost, c.refreshPath, nil, refreshRequest{RefreshToken: refresh}, false)
	if err != nil {
		return err
	}
	if !env.Succeeded() {
		return apiError(env.Message)
	}

	var out refreshResult
	if err := json.Unmarshal(env.Data, &out); err != nil || out.AccessToken == "" {
		return serrors.NewError(CodeBadEnvelope, "refresh response is missing accessToken")
	}
	c.mu.Lock()
	c.accessToken = out.AccessToken
	if out.RefreshToken != "" {
		c.refreshToken = out.RefreshToken
	}
	c.mu.Unlock()
	if c.log != nil {
		c.log.Debug("portal API access token refreshed")
	}
	return nil
}
