package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/pkg/errors"
)

// Endpoints are the paths of the auth API relative to the base URL.
type Endpoints struct {
	Login    string
	Register string
	Me       string
	Refresh  string
	Logout   string
}

// DefaultEndpoints returns the paths used by the campaign tracker API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/auth/login",
		Register: "/auth/register",
		Me:       "/auth/me",
		Refresh:  "/auth/refresh",
		Logout:   "/auth/refresh/logout",
	}
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// Client talks to the /auth endpoints. It never attaches session
// credentials on its own and never triggers a token refresh.
type Client struct {
	api       *apiclient.Client
	endpoints Endpoints
}

type ClientOption func(*Client)

func WithEndpoints(endpoints Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// NewClient wraps api. Any credentials configured on api are dropped.
func NewClient(api *apiclient.Client, options ...ClientOption) (*Client, error) {
	if api == nil {
		return nil, errors.Wrap(NoClientErr, "[auth.NewClient]")
	}
	c := &Client{
		api:       api.WithCredentials(nil),
		endpoints: DefaultEndpoints(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	var resp Response
	if err := c.api.Post(ctx, c.endpoints.Login, credentialsBody{Username: username, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "[auth.Client.Login]")
	}
	return &resp, nil
}

// Register creates an account. The response may or may not carry tokens.
func (c *Client) Register(ctx context.Context, username, password string) (*Response, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	var resp Response
	if err := c.api.Post(ctx, c.endpoints.Register, credentialsBody{Username: username, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "[auth.Client.Register]")
	}
	return &resp, nil
}

// Me re-validates accessToken and returns the user it belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*Response, error) {
	if accessToken == "" {
		return nil, errors.New("[auth.Client.Me] access token is required")
	}
	var resp Response
	req := apiclient.Request{Method: http.MethodGet, Path: c.endpoints.Me, Bearer: accessToken}
	if err := c.api.Do(ctx, req, &resp); err != nil {
		return nil, errors.Wrap(err, "[auth.Client.Me]")
	}
	return &resp, nil
}

// Refresh obtains a new access token. With an empty refreshToken the server
// is expected to read the httpOnly refresh cookie instead.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Response, error) {
	var body any
	if refreshToken != "" {
		body = refreshBody{RefreshToken: refreshToken}
	}
	var resp Response
	if err := c.api.Post(ctx, c.endpoints.Refresh, body, &resp); err != nil {
		return nil, errors.Wrap(err, "[auth.Client.Refresh]")
	}
	return &resp, nil
}

// Logout asks the server to invalidate the refresh credential.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	req := apiclient.Request{Method: http.MethodPost, Path: c.endpoints.Logout, Bearer: accessToken}
	if refreshToken != "" {
		req.Body = refreshBody{RefreshToken: refreshToken}
	}
	if err := c.api.Do(ctx, req, nil); err != nil {
		return errors.Wrap(err, "[auth.Client.Logout]")
	}
	return nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return MissingCredentialsErr
	}
	return nil
}
