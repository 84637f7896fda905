// Package apiclient is the HTTP transport for the dashboard core. It
// injects the bearer token from the session, translates error bodies,
// and converts any 401 into a session-expired event instead of
// retrying.
package apiclient

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
	"time"

	"github.com/cenkalti/backoff/v5"

	"txdash/internal/filter"
	"txdash/internal/query"
	"txdash/internal/session"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
// The client has already published the session-expired event by the
// time the caller sees it; the request is never retried.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError is a non-2xx response with a decoded error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: %d %s", e.Status, e.Message)
}

// TokenSource supplies the current session token. Satisfied by
// *session.Manager.
type TokenSource interface {
	Snapshot() session.Snapshot
}

// Client talks to the dashboard API. All list and mutation calls read
// the bearer token from the token source; Me takes an explicit token
// because it runs before the session trusts one.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	events  *session.EventChannel
}

// New returns a client rooted at baseURL.
func New(baseURL string, tokens TokenSource, events *session.EventChannel) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		events:  events,
	}
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// do issues one request with the session's current token.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Snapshot().Token
	}
	return c.doWithToken(ctx, method, path, params, token, body, out, true)
}

func (c *Client) doWithToken(ctx context.Context, method, path string, params url.Values, token string, body, out any, publish401 bool) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if publish401 && c.events != nil {
			c.events.Publish(session.ExpiredEvent{
				Reason:  session.ReasonUnauthorized,
				Message: session.ExpiredMessage,
			})
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// listParams is the wire form of a list query: the filter parameters
// plus explicit sort and pagination.
func listParams(q query.Query) url.Values {
	params := filter.Serialize(q.Filters)
	params.Set("sort", q.Sort.Field)
	params.Set("dir", q.Sort.Dir)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("page", strconv.Itoa(q.Page))
	return params
}

// permanent marks errors the query engine must not retry: a dead
// session and any 4xx rejection. Network failures and 5xx stay
// retryable.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnauthorized) {
		return backoff.Permanent(err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return backoff.Permanent(err)
	}
	return err
}
