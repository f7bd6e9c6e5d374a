package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wolfeidau/storefront/internal/models"
)

// LoginResult is a validated login response.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Validate checks the response before any field is trusted.
func (r *LoginResult) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidLoginResponse)
	}
	if err := r.User.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLoginResponse, err)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a credential. A 401 here means the
// credentials were wrong, it never invalidates the current session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:         loginRequest{Email: email, Password: password},
		anonymous:    true,
		noCredential: true,
	}, &res)
	if err != nil {
		return nil, err
	}

	if err := res.Validate(); err != nil {
		return nil, err
	}

	return &res, nil
}

// Logout revokes the current credential on the API. Failures are returned but
// callers clear the local session regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout", anonymous: true}, nil)
}

// Me returns the identity the API associates with the current credential.
// The identity is validated before it is returned.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}
