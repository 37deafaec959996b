package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nhle/civic-dashboard/internal/model"
)

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []model.User
	Pagination model.Pagination
}

func (c *Client) ListUsers(ctx context.Context, params url.Values) (UserPage, error) {
	var page UserPage
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/users",
		query:      params,
		pagination: &page.Pagination,
	}, &page.Users)
	return page, err
}

func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	var p userPayload
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/users", id)}, &p)
	return p.User, err
}

func (c *Client) CreateUser(ctx context.Context, reg Registration) (model.User, error) {
	var p userPayload
	err := c.do(ctx, request{method: http.MethodPost, path: "/users", body: reg}, &p)
	return p.User, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	var p userPayload
	err := c.do(ctx, request{method: http.MethodPut, path: pathID("/users", id), body: patch}, &p)
	return p.User, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/users", id)}, nil)
}

func (c *Client) UserStats(ctx context.Context) (model.UserStats, error) {
	var s model.UserStats
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/stats"}, &s)
	return s, err
}
