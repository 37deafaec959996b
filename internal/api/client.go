// Package api is the HTTP client for the civic issue backend.
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
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/civic-dashboard/internal/model"
)

// Session is where the client reads tokens from and writes refreshed
// tokens to.
type Session interface {
	Tokens() (token, refreshToken string)

	// SetCredentials stores a new token pair. A nil user keeps the current
	// one.
	SetCredentials(user *model.User, token, refreshToken string) error

	Logout() error
}

// Client talks to the backend's JSON API. A 401 triggers one token refresh
// and one resend of the original request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	session    Session
	log        logrus.FieldLogger

	refresh singleflight.Group
}

// NewClient creates a client for cfg. session may be nil for anonymous use.
func NewClient(cfg model.APIConfig, session Session, log logrus.FieldLogger) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		session:    session,
		log:        log.WithField("component", "api"),
	}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the wrapper every backend response uses.
type envelope struct {
	Success    *bool             `json:"success"`
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
}

type request struct {
	method string
	path   string
	query  url.Values

	// body is sent as JSON unless form is set.
	body any
	form *multipartForm

	// anonymous requests carry no bearer token and never trigger a refresh.
	anonymous bool

	// pagination receives the envelope's pagination block when non-nil.
	pagination *model.Pagination
}

// do sends req and decodes the envelope's data into out. On a 401 it
// refreshes the session once and resends; if the refresh fails the original
// error is returned.
func (c *Client) do(ctx context.Context, req request, out any) error {
	sentWith, err := c.send(ctx, req, out)
	if err == nil || req.anonymous || c.session == nil || !IsUnauthorized(err) {
		return err
	}
	if rerr := c.reauthenticate(ctx, sentWith); rerr != nil {
		return err
	}
	_, err = c.send(ctx, req, out)
	return err
}

var errNoRefreshToken = errors.New("no refresh token")

// reauthenticate obtains a new token pair. Callers that saw a 401 at the
// same time share a single refresh call. staleToken is the token the
// failed request carried; if the session already holds a different one,
// another caller has refreshed and there is nothing to do.
//
// The refresh runs detached from ctx so one caller giving up does not fail
// it for the others. Only a refusal from the server clears the session.
func (c *Client) reauthenticate(ctx context.Context, staleToken string) error {
	detached := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan("refresh", func() (any, error) {
		return nil, c.refreshTokens(detached, staleToken)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.log.Debug("joined in-flight token refresh")
		}
		return res.Err
	}
}

func (c *Client) refreshTokens(ctx context.Context, staleToken string) error {
	token, refreshToken := c.session.Tokens()
	if token != "" && token != staleToken {
		return nil
	}
	if refreshToken == "" {
		c.logout()
		return errNoRefreshToken
	}
	var res AuthResult
	_, err := c.send(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		body:      map[string]string{"refreshToken": refreshToken},
		anonymous: true,
	}, &res)
	if IsTransport(err) {
		c.log.WithError(err).Warn("token refresh unreachable, keeping session")
		return err
	}
	if err != nil {
		c.log.WithError(err).Warn("token refresh failed, logging out")
		c.logout()
		return err
	}

	var user *model.User
	if res.User.ID != "" {
		user = &res.User
	}
	next := res.RefreshToken
	if next == "" {
		next = refreshToken
	}
	if err := c.session.SetCredentials(user, res.Token, next); err != nil {
		return fmt.Errorf("storing refreshed credentials: %w", err)
	}
	c.log.Debug("token refreshed")
	return nil
}

func (c *Client) logout() {
	if err := c.session.Logout(); err != nil {
		c.log.WithError(err).Error("clearing session")
	}
}

// send performs req, retrying on 429 with the server's Retry-After or an
// exponential backoff. It returns the bearer token the request carried.
func (c *Client) send(ctx context.Context, req request, out any) (string, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var token string
	if !req.anonymous && c.session != nil {
		token, _ = c.session.Tokens()
	}

	payload, contentType, err := req.encode()
	if err != nil {
		return token, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, bodyReader)
		if err != nil {
			return token, fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if contentType != "" {
			httpReq.Header.Set("Content-Type", contentType)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return token, &Error{Kind: KindTransport, Method: req.method, Path: req.path, Err: err}
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return token, &Error{Kind: KindTransport, Method: req.method, Path: req.path, Err: readErr}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfterDuration(resp, attempt)
			lastErr = decodeError(req, resp.StatusCode, respBody)
			c.log.WithFields(logrus.Fields{"path": req.path, "wait": wait}).Warn("rate limited")
			select {
			case <-ctx.Done():
				return token, ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		c.log.WithFields(logrus.Fields{
			"method": req.method,
			"path":   req.path,
			"status": resp.StatusCode,
		}).Debug("api call")
		return token, decode(req, resp.StatusCode, respBody, out)
	}
	return token, lastErr
}

func (r request) encode() ([]byte, string, error) {
	if r.form != nil {
		return r.form.encode()
	}
	if r.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request body: %w", err)
	}
	return data, "application/json", nil
}

func decode(req request, status int, body []byte, out any) error {
	if status < 200 || status >= 300 {
		return decodeError(req, status, body)
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", req.method, req.path, err)
	}
	if env.Success != nil && !*env.Success {
		return &Error{
			Kind:       KindBusiness,
			StatusCode: status,
			Method:     req.method,
			Path:       req.path,
			Message:    firstNonEmpty(env.Message, env.Error),
		}
	}
	if req.pagination != nil && env.Pagination != nil {
		*req.pagination = *env.Pagination
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func decodeError(req request, status int, body []byte) error {
	apiErr := &Error{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Method:     req.method,
		Path:       req.path,
	}
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		apiErr.Message = firstNonEmpty(env.Message, env.Error)
	}
	return apiErr
}

// retryAfterDuration reads the Retry-After header and falls back to
// exponential backoff when it is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pathID(prefix, id string, rest ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
