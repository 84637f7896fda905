package apiclient

import (
	"context"
	"net/http"

	userdomain "txdash/internal/user/domain"
)

// LoginResult is the login response: a signed token and its user.
type LoginResult struct {
	Token string          `json:"token"`
	User  userdomain.User `json:"user"`
}

// Login exchanges credentials for a token. A 401 here means wrong
// credentials, not a dead session, so no session-expired event is
// published.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	err := c.doWithToken(ctx, http.MethodPost, "/api/auth/login", nil, "", body, &out, false)
	return out, err
}

// Me resolves a token to its user. Implements session.Authenticator.
func (c *Client) Me(ctx context.Context, token string) (*userdomain.User, error) {
	var out struct {
		User userdomain.User `json:"user"`
	}
	if err := c.doWithToken(ctx, http.MethodGet, "/api/auth/me", nil, token, nil, &out, true); err != nil {
		return nil, err
	}
	return &out.User, nil
}
