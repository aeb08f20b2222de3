package view

import (
	"context"
	"errors"
	"net/http"

	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/model"
)

// LoginBackend is the part of the REST client the login page needs.
type LoginBackend interface {
	Login(ctx context.Context, creds model.Credentials) (*model.Session, error)
}

// Login is the state of the login page.
type Login struct {
	base
	backend LoginBackend

	username string
	session  *model.Session
}

// NewLogin creates a login page.
func NewLogin(backend LoginBackend) *Login {
	return &Login{backend: backend}
}

// Username returns the last submitted username, kept for redisplay.
func (v *Login) Username() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.username
}

// Session returns the session granted by the last successful submit.
func (v *Login) Session() *model.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

// Submit logs in with creds. The password is never kept.
func (v *Login) Submit(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	v.mu.Lock()
	v.username = creds.Username
	v.mu.Unlock()

	if creds.Username == "" || creds.Password == "" {
		err := &model.ValidationError{Message: "Enter a username and password."}
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Message})
		return nil, err
	}

	s, err := v.backend.Login(ctx, creds)
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			v.SetNotice(&Notice{Level: NoticeError, Message: "Invalid credentials."})
			return nil, err
		}
		return nil, v.fail(err)
	}

	v.mu.Lock()
	v.session = s
	v.mu.Unlock()
	v.succeed("Login successful.")
	return s, nil
}

// Logout forgets the session.
func (v *Login) Logout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session = nil
}
