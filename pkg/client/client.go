// Package client is the data layer for stockroom front ends. It wraps the
// HTTP API, attaches the bearer token to every request, transparently
// refreshes an expired access token exactly once per request, and keeps the
// session in a pluggable store so it survives restarts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	mu   sync.Mutex // guards sess
	sess Session

	// refreshMu serializes refresh attempts: when several requests hit 401 at
	// once, only the first talks to /refresh and the rest reuse its result.
	refreshMu sync.Mutex
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. to change the
// timeout or install a test transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client and loads any persisted session from the store.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	c.sess = sess
	return c, nil
}

// Session returns a copy of the current session state.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

type authPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Register creates an account and establishes a session.
func (c *Client) Register(ctx context.Context, name, email, password, confirmation string) (User, error) {
	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": confirmation,
	}
	return c.authenticate(ctx, "/register", body)
}

// Login establishes a session from credentials.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (User, error) {
	resp, err := c.send(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return User{}, statusError(resp)
	}

	var payload authPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, fmt.Errorf("decode auth response: %w", err)
	}
	sess := Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		User:         payload.User,
	}
	if err := c.setSession(sess); err != nil {
		return User{}, err
	}
	if payload.User == nil {
		return User{}, nil
	}
	return *payload.User, nil
}

// Logout tells the server to revoke the tokens and always clears the local
// session, even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	sess := c.Session()
	defer c.clearSession()

	if !sess.Authenticated() {
		return nil
	}
	body := map[string]string{"refresh_token": sess.RefreshToken}
	resp, err := c.send(ctx, http.MethodPost, "/logout", body, sess.AccessToken)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Me resolves the current session to a server-side identity.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// do runs one authenticated request. On a 401 it refreshes the access token
// (at most once) and replays the request; the caller only ever sees the
// final outcome.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token := c.Session().AccessToken

	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		token, err = c.refreshAccessToken(ctx, token)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, body, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// refreshAccessToken exchanges the stored refresh token for a new pair.
// prev is the access token the failed request used: if another goroutine
// already rotated the session past it, its token is reused without another
// network call. Any failure clears the session.
func (c *Client) refreshAccessToken(ctx context.Context, prev string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess := c.Session()
	if sess.AccessToken != "" && sess.AccessToken != prev {
		return sess.AccessToken, nil
	}
	if sess.RefreshToken == "" {
		c.clearSession()
		return "", ErrUnauthorized
	}

	body := map[string]string{"refresh_token": sess.RefreshToken}
	resp, err := c.send(ctx, http.MethodPost, "/refresh", body, "")
	if err != nil {
		// transport failure: keep the session, the tokens may still be good
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.clearSession()
		return "", ErrUnauthorized
	}

	var payload authPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.clearSession()
		return "", ErrUnauthorized
	}

	newSess := Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		User:         payload.User,
	}
	if newSess.User == nil {
		newSess.User = sess.User
	}
	if err := c.setSession(newSess); err != nil {
		return "", err
	}
	return newSess.AccessToken, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

func (c *Client) setSession(s Session) error {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
	return c.store.Save(s)
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.sess = Session{}
	c.mu.Unlock()
	_ = c.store.Clear()
}

// statusError maps an HTTP error response onto the client error taxonomy.
func statusError(resp *http.Response) error {
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case len(body.Fields) > 0:
		return &ValidationError{Fields: body.Fields}
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusConflict ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		msg := body.Error
		if msg == "" {
			msg = "invalid request"
		}
		return &ValidationError{Fields: map[string]string{"_": msg}}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
