package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type userEnvelope struct {
	User *models.PartnerProfile `json:"user"`
}

func (c *Client) Register(ctx context.Context, form models.RegistrationForm) (*models.PartnerProfile, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", form, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("register: response carried no user")
	}
	return env.User, nil
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.PartnerProfile, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", creds, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("login: response carried no user")
	}
	return env.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*models.PartnerProfile, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/delivery/profile", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, ErrUnauthenticated
	}
	return env.User, nil
}

// UpdateProfile returns the raw user object so the caller can merge only
// the fields the backend sent back.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (json.RawMessage, error) {
	var env struct {
		User json.RawMessage `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/delivery/profile", update, &env); err != nil {
		return nil, err
	}
	if len(env.User) == 0 {
		return nil, fmt.Errorf("update profile: response carried no user")
	}
	return env.User, nil
}
