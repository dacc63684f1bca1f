package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// Credentials supplies the access token for outgoing requests and recovers
// from its expiry. The session store implements it.
type Credentials interface {
	AccessToken() string
	// RefreshAfterUnauthorized is called once per logical call after a 401 on a
	// request that carried staleToken. A nil error means AccessToken now
	// returns a token worth retrying with.
	RefreshAfterUnauthorized(ctx context.Context, staleToken string) error
}

// Request is one logical outbound call.
type Request struct {
	Method string
	Path   string // relative to the client's base URL
	Body   any    // JSON encoded when non-nil
	Bearer string // explicit token; disables credential lookup and refresh
}

// Client is the HTTP call layer used by every feature data-access module.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (which carries a cookie jar).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCredentials makes the client attach and refresh access tokens.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithTimeout bounds every individual HTTP exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = recorder
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "[apiclient.New] cookiejar.New")
		}
		c.httpClient = &http.Client{Jar: jar}
	}
	return c, nil
}

// WithCredentials returns a copy of c sharing its transport and cookie jar
// that authenticates with creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// GetJSON issues a GET and decodes the response into a T.
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Get(ctx, path, &out)
	return out, err
}

// PostJSON issues a POST and decodes the response into a T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Post(ctx, path, body, &out)
	return out, err
}

// PutJSON issues a PUT and decodes the response into a T.
func PutJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Put(ctx, path, body, &out)
	return out, err
}

// Do runs one logical call: send, and on a 401 for a credentialed request,
// refresh once and resend once.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return errors.Wrapf(err, "[apiclient.Do] encode %s %s", req.Method, req.Path)
	}

	call := &pendingCall{req: req, payload: payload, state: stateSending, retryEligible: true}
	call.token = req.Bearer
	if call.token == "" && c.creds != nil {
		call.token = c.creds.AccessToken()
	}

	for call.state != stateDone {
		switch call.state {
		case stateSending:
			call.err = c.send(ctx, call, out)
			if IsUnauthorized(call.err) && c.refreshable(call) {
				call.state = stateRefreshingThenRetry
				continue
			}
			call.state = stateDone

		case stateRefreshingThenRetry:
			call.retryEligible = false
			if err := c.creds.RefreshAfterUnauthorized(ctx, call.token); err != nil {
				c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("token refresh failed, not retrying")
				if ctxErr := ctx.Err(); ctxErr != nil {
					call.err = errors.Wrapf(ctxErr, "[apiclient.Do] %s %s", req.Method, req.Path)
				}
				call.state = stateDone
				continue
			}
			call.token = c.creds.AccessToken()
			c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("retrying after token refresh")
			call.state = stateSending
		}
	}
	return call.err
}

func (c *Client) refreshable(call *pendingCall) bool {
	return call.retryEligible && c.creds != nil && call.req.Bearer == "" && call.token != ""
}

func (c *Client) send(ctx context.Context, call *pendingCall, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if call.payload != nil {
		body = bytes.NewReader(call.payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.req.Method, c.baseURL+call.req.Path, body)
	if err != nil {
		return errors.Wrapf(err, "[apiclient.send] build %s %s", call.req.Method, call.req.Path)
	}
	httpReq.Header.Set("Accept", "application/json")
	if call.payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(requestIDHeader, requestID)
	if call.token != "" {
		(&oauth2.Token{AccessToken: call.token, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Request(call.req.Method, 0)
		return errors.Wrapf(err, "[apiclient.send] %s %s", call.req.Method, call.req.Path)
	}
	defer resp.Body.Close()
	c.metrics.Request(call.req.Method, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[apiclient.send] read %s %s", call.req.Method, call.req.Path)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", call.req.Method).
		Str("path", call.req.Path).
		Int("status", resp.StatusCode).
		Bool("retry", !call.retryEligible).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Status:  resp.StatusCode,
			Method:  call.req.Method,
			Path:    call.req.Path,
			Message: errorMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "[apiclient.send] decode %s %s", call.req.Method, call.req.Path)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}
