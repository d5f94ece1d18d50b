package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/contextkeys"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
)

// Paths of the remote endpoints, relative to the base URL
const (
	LoginPath    = "/login"
	MenuRolePath = "/menurole"
	LogoutPath   = "/logout"
)

// DefaultTimeout bounds every call that has no earlier context deadline
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read for its message
const maxErrorBody = 64 << 10

// ErrUnauthorized is returned when the remote API rejects the token
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the remote API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 answers
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// User is the part of the login answer the dashboard keeps
type User struct {
	Role  string    `json:"role"`
	Menus menu.Tree `json:"menus"`
}

// LoginResult is the remote login answer
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Client talks to the remote REST API that owns users, roles and menus
type Client struct {
	baseURL *url.URL
	http    *http.Client
	metrics *observability.Metrics
}

// New creates a client for baseURL. metrics may be nil.
func New(baseURL string, timeout time.Duration, metrics *observability.Metrics) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			// redirects from the API are answers, not something to follow
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: metrics,
	}, nil
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

func (c *Client) endpoint(path string) string {
	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into dest when dest is not nil
func (c *Client) do(req *http.Request, operation string, dest interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPICall(operation, 0, time.Since(start))
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPICall(operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s: invalid response body: %w", operation, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

// Login exchanges credentials for a token and the caller's authorization.
// Credentials are sent as a multipart form.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("email", email); err != nil {
		return nil, err
	}
	if err := form.WriteField("password", password); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, LoginPath, "", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var result LoginResult
	if err := c.do(req, "login", &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: response has no token")
	}
	return &result, nil
}

// MenuRole fetches the menu tree the API has already filtered for the
// token's role
func (c *Client) MenuRole(ctx context.Context, token string) (menu.Tree, error) {
	req, err := c.newRequest(ctx, http.MethodGet, MenuRolePath, token, nil)
	if err != nil {
		return nil, err
	}

	var tree menu.Tree
	if err := c.do(req, "menurole", &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		tree = menu.Tree{}
	}
	return tree, nil
}

// Logout invalidates token on the remote side
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, LogoutPath, token, nil)
	if err != nil {
		return err
	}
	return c.do(req, "logout", nil)
}

// Ping reports whether the API answers at all. Any HTTP response counts;
// only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodHead, "/", "", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
