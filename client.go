// Package sdk provides the BehavioGuard Go client SDK: a mobile-style client
// for a social platform gated by risk-adaptive authentication. It owns the
// token lifecycle (acquire, persist, attach, refresh) and routes the caller
// through step-up verification when the server reports elevated risk.
package sdk

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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/behavioguard/behavioguard-go/headers"
	"github.com/behavioguard/behavioguard-go/routes"
)

const defaultUserAgent = "behavioguard-sdk/0.3"
const defaultRequestTimeout = 10 * time.Second

// Config wires the backend URL, secret storage, and observability for the client.
type Config struct {
	// BaseURL points at the BehavioGuard API root (e.g. http://host:5000/api). Required.
	BaseURL string
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
	// Store persists tokens across restarts. Defaults to an in-memory store.
	Store SecretStore
	// Logger receives structured SDK logs. Defaults to a no-op logger.
	// Token values are never logged.
	Logger *zerolog.Logger
	// Telemetry exposes request/response hooks for observability.
	Telemetry TelemetryHooks
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// DeviceID identifies this installation to the server's device-trust
	// scoring. Defaults to a fresh UUID per process.
	DeviceID string
	// RefreshSkew refreshes JWT access tokens this close to expiry instead of
	// waiting for a 401. Defaults to 30s.
	RefreshSkew time.Duration
}

// Client is the API transport plus the grouped service clients. Construct it
// with NewClient; the zero value is not usable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	telemetry  TelemetryHooks
	logger     zerolog.Logger
	userAgent  string
	deviceID   string

	// Tokens owns the credential lifecycle.
	Tokens *TokenManager
	// Session sequences screens from authentication outcomes.
	Session *SessionController

	// Grouped service clients.
	Auth     *AuthClient
	Posts    *PostsClient
	Messages *MessagesClient
	Security *SecurityClient
	Admin    *AdminClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	normalized, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	deviceID := strings.TrimSpace(cfg.DeviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	client := &Client{
		baseURL:    normalized,
		httpClient: httpClient,
		telemetry:  cfg.Telemetry,
		logger:     logger,
		userAgent:  ua,
		deviceID:   deviceID,
	}
	client.Tokens = newTokenManager(store, logger, cfg.RefreshSkew)
	client.Tokens.refreshFn = client.refreshAccessToken
	client.Session = newSessionController(client.Tokens, logger)
	client.Auth = &AuthClient{client: client}
	client.Posts = &PostsClient{client: client}
	client.Messages = &MessagesClient{client: client}
	client.Security = &SecurityClient{client: client}
	client.Admin = &AdminClient{client: client}
	return client, nil
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("sdk: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("sdk: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("sdk: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("sdk: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// requestSpec describes one logical API call.
type requestSpec struct {
	method       string
	path         string
	payload      any
	authRequired bool
	// bearerOverride bypasses the token manager (used by the refresh call
	// itself, which authenticates with the refresh token).
	bearerOverride string
}

// do issues the request, attaching the current bearer credential when
// required, and transparently retries exactly once after a successful refresh
// when the first attempt came back 401. A second 401 is surfaced as a
// terminal *APIError, never looped.
func (c *Client) do(ctx context.Context, spec requestSpec, out any) error {
	var encoded []byte
	if spec.payload != nil {
		var err error
		encoded, err = json.Marshal(spec.payload)
		if err != nil {
			return err
		}
	}

	if spec.authRequired && spec.bearerOverride == "" &&
		c.Tokens.canRefresh() && c.Tokens.accessTokenStale(time.Now()) {
		if _, err := c.Tokens.Refresh(ctx); err != nil {
			return err
		}
	}

	bearer := spec.bearerOverride
	if bearer == "" && spec.authRequired {
		bearer, _ = c.Tokens.bearerToken()
	}

	resp, err := c.send(ctx, spec, encoded, bearer)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized &&
		spec.authRequired && spec.bearerOverride == "" && c.Tokens.canRefresh() {
		_ = resp.Body.Close()
		newToken, refreshErr := c.Tokens.Refresh(ctx)
		if refreshErr != nil {
			return refreshErr
		}
		resp, err = c.send(ctx, spec, encoded, newToken)
		if err != nil {
			return err
		}
	}

	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, spec requestSpec, encoded []byte, bearer string) (*http.Response, error) {
	var body io.Reader
	if encoded != nil {
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, spec.method, c.baseURL+spec.path, body)
	if err != nil {
		return nil, err
	}
	if encoded != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headers.RequestID, uuid.NewString())
	req.Header.Set(headers.DeviceID, c.deviceID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	injectTraceparent(ctx, req)

	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(ctx, req)
	}
	c.telemetry.log(ctx, LogLevelInfo, "http_request", map[string]any{
		"method": spec.method,
		"path":   spec.path,
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(ctx, req, resp, err, latency)
	}
	c.telemetry.metric(ctx, "sdk_http_request_latency_ms", float64(latency.Milliseconds()), map[string]string{
		"path": spec.path,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("method", spec.method).Str("path", spec.path).Msg("request failed")
		return nil, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: spec.method + " " + spec.path + " failed",
			Cause:   err,
		}
	}
	c.logger.Debug().
		Str("method", spec.method).
		Str("path", spec.path).
		Int("status", resp.StatusCode).
		Dur("latency", latency).
		Msg("http request")
	return resp, nil
}

// refreshAccessToken performs the raw /auth/refresh call. The refresh token
// is the bearer credential and the body is empty; the response carries only a
// new access token (the backend does not rotate refresh tokens).
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, requestSpec{
		method:         http.MethodPost,
		path:           routes.AuthRefresh,
		authRequired:   true,
		bearerOverride: refreshToken,
	}, &payload)
	if err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("sdk: refresh response missing access_token")
	}
	return payload.AccessToken, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, requestSpec{method: http.MethodGet, path: path, authRequired: true}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, requestSpec{method: http.MethodPost, path: path, payload: payload, authRequired: true}, out)
}
