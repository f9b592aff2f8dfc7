// Package apiclient wraps every outbound call to the task server. It
// attaches the bearer credential, and owns the unauthorized-response
// interceptor: a 401-equivalent rejection tears the session down with
// at most one user-facing notice per unauthorized episode.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/taskhub/go-task-server/credentials"
	"github.com/taskhub/go-task-server/session"
)

const (
	sessionExpiredTitle = "Session Expired"
	sessionExpiredBody  = "Your session was closed for security reasons. Please log in again."
)

// softFailPaths are the endpoint class whose 401 responses are absorbed
// instead of tearing down the session. A stale roster listing must not
// log out an otherwise valid session.
var softFailPaths = []string{"/get-team"}

// Client is the outbound API client. All requests flow through do(),
// which is where the interceptor lives.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Manager
	store      credentials.Store
	notifier   Notifier
	navigator  Navigator
	log        zerolog.Logger
}

// ClientOption modifies the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNotifier sets the alert presenter.
func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithNavigator sets the navigation signal receiver.
func WithNavigator(n Navigator) ClientOption {
	return func(c *Client) {
		c.navigator = n
	}
}

func New(baseURL string, sessions *session.Manager, store credentials.Store, logger zerolog.Logger, options ...ClientOption) (*Client, error) {
	if sessions == nil {
		return nil, errors.New("[apiclient.New] session manager is required")
	}
	if store == nil {
		return nil, errors.New("[apiclient.New] credential store is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
		store:      store,
		notifier:   NopNotifier{},
		navigator:  NopNavigator{},
		log:        logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// isAuthEndpoint reports whether the path belongs to the login/register
// class that runs without a stored credential.
func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/login") || strings.Contains(path, "/register")
}

func isSoftFail(path string) bool {
	for _, p := range softFailPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// do performs one API call. Behaviors layered on top of the transport:
//
//  1. Non-auth endpoints are blocked outright when no token is held -
//     the rejection is handled locally without a round trip.
//  2. A 401 on a soft-fail endpoint is swallowed: out is left at its
//     zero value (an empty successful result) and no teardown happens.
//  3. A 401 anywhere else triggers session teardown with at most one
//     alert per unauthorized episode.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.sessions.Snapshot().Token

	if !isAuthEndpoint(path) && token == "" {
		c.log.Debug().Str("path", path).Msg("[Client.do] no credential held, forcing logout")
		c.handleUnauthorized()
		return &APIError{StatusCode: http.StatusUnauthorized, Kind: KindAuth, Message: KindAuth.UserMessage()}
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.do] encode body")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "[Client.do] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: KindNetwork.UserMessage()}
	}
	defer resp.Body.Close()

	// A 401 from the login/register class is an ordinary failed attempt
	// and falls through to plain classification below.
	if resp.StatusCode == http.StatusUnauthorized && !isAuthEndpoint(path) {
		if isSoftFail(path) {
			c.log.Warn().Str("path", path).Msg("[Client.do] soft-fail endpoint rejected, substituting empty result")
			return nil
		}
		c.handleUnauthorized()
		return &APIError{StatusCode: resp.StatusCode, Kind: KindAuth, Message: KindAuth.UserMessage()}
	}

	if resp.StatusCode >= 400 {
		kind := classifyStatus(resp.StatusCode)
		message := kind.UserMessage()
		var status struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err == nil && status.Message != "" {
			message = status.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: kind, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Client.do] decode response")
	}
	return nil
}

// handleUnauthorized is the session teardown path. The credential store
// is cleared first so a crash mid-teardown cannot resurrect the
// session; then exactly one notice is presented per episode, and its
// acknowledgment completes the logout transition. Losers of the
// check-and-set skip the notice and log out directly.
func (c *Client) handleUnauthorized() {
	if err := c.store.Clear(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("[Client.handleUnauthorized] credential clear failed")
	}

	if c.sessions.BeginUnauthorized() {
		c.notifier.Alert(sessionExpiredTitle, sessionExpiredBody, func() {
			c.sessions.Logout()
			c.sessions.EndUnauthorized()
			c.navigator.NavigateToLogin()
		})
		return
	}

	c.sessions.Logout()
	c.navigator.NavigateToLogin()
}
