package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/erazemk/resaledesk/internal/auth"
	"github.com/erazemk/resaledesk/internal/model"
)

type loginResponse struct {
	Username    string `json:"username"`
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Login posts credentials and returns the session the backend grants.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, &model.ValidationError{Message: "username and password are required"}
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", creds, &resp); err != nil {
		return nil, fmt.Errorf("logging in as %q: %w", creds.Username, err)
	}

	s := model.Session{Username: resp.Username, Token: resp.Token}
	if s.Token == "" {
		s.Token = resp.AccessToken
	}
	if s.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	if resp.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
			s.ExpiresAt = t
		}
	}

	s = auth.ParseSession(s)
	if s.Username == "" {
		s.Username = creds.Username
	}
	return &s, nil
}
