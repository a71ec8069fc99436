package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/depotctl/depotctl/internal/domain"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type sessionResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, username, password, email string) error {
	body := credentials{Username: username, Password: password, Email: email}
	return c.doJSON(ctx, http.MethodPost, "/register", nil, body, nil)
}

// Login authenticates and returns the established session identity
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var resp sessionResponse
	body := credentials{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, body, &resp); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{Username: resp.Username, Role: domain.Role(resp.Role)}
	if session.Username == "" {
		session.Username = username
	}
	if !session.Role.IsValid() {
		session.Role = domain.RoleUser
	}
	c.SetUsername(session.Username)
	return session, nil
}

// Logout ends the server-side session
func (c *Client) Logout(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodPost, "/logout", nil, body, nil)
}

// ForgotPassword starts the password reset flow
func (c *Client) ForgotPassword(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodPost, "/forgot-password", nil, body, nil)
}

// AdminExists reports whether any admin account is registered; the
// first-run flow uses this to decide between register and login.
func (c *Client) AdminExists(ctx context.Context) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin-exists", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Role returns the role of the attributed user
func (c *Client) Role(ctx context.Context) (domain.Role, error) {
	var resp struct {
		Role string `json:"role"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/user-role", nil, nil, &resp); err != nil {
		return "", err
	}
	return domain.Role(resp.Role), nil
}

// RoleOf returns the role of an arbitrary user
func (c *Client) RoleOf(ctx context.Context, username string) (domain.Role, error) {
	var resp struct {
		Role string `json:"role"`
	}
	q := url.Values{"username": {username}}
	if err := c.doJSON(ctx, http.MethodGet, "/get-user-role", q, nil, &resp); err != nil {
		return "", err
	}
	return domain.Role(resp.Role), nil
}
