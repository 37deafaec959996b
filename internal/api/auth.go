package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nhle/civic-dashboard/internal/model"
)

// AuthResult is returned by login, register and refresh.
type AuthResult struct {
	User         model.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

// Registration is the payload for self sign-up and for admins creating
// accounts.
type Registration struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	Phone      string     `json:"phone,omitempty"`
	Role       model.Role `json:"role,omitempty"`
	Department string     `json:"department,omitempty"`
}

// userPayload decodes a user sent either bare or wrapped as {"user": ...}.
type userPayload struct {
	model.User
}

func (p *userPayload) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.User != nil {
		p.User = *wrapped.User
		return nil
	}
	return json.Unmarshal(data, &p.User)
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"email": email, "password": password},
		anonymous: true,
	}, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      reg,
		anonymous: true,
	}, &res)
	return res, err
}

// Me fetches the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var p userPayload
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &p)
	return p.User, err
}

func (c *Client) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error) {
	var p userPayload
	err := c.do(ctx, request{method: http.MethodPut, path: "/auth/profile", body: patch}, &p)
	return p.User, err
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/change-password",
		body:   map[string]string{"currentPassword": current, "newPassword": next},
	}, nil)
}

// Logout tells the server to drop the refresh token. The local session is
// cleared by the caller whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}
