package api

import (
	"context"
	"net/http"

	"github.com/depotctl/depotctl/internal/domain"
)

// Users lists every account
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddUser creates an account
func (c *Client) AddUser(ctx context.Context, user domain.User, password string) error {
	body := struct {
		domain.User
		Password string `json:"password"`
	}{User: user, Password: password}
	return c.doJSON(ctx, http.MethodPost, "/add-user", nil, body, nil)
}

// UpdateUser updates an account's role or email
func (c *Client) UpdateUser(ctx context.Context, user domain.User) error {
	return c.doJSON(ctx, http.MethodPut, "/update-user", nil, user, nil)
}

// DeleteUser removes an account
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodDelete, "/delete-user", nil, body, nil)
}

// AssignAdmin grants the admin role
func (c *Client) AssignAdmin(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodPost, "/assign-admin", nil, body, nil)
}

// RevokeAdmin removes the admin role
func (c *Client) RevokeAdmin(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.doJSON(ctx, http.MethodPost, "/revoke-admin", nil, body, nil)
}
