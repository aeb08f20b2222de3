package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/resaledesk/internal/auth"
	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

type loginPage struct {
	PageData
	LoginUsername string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: s.page(w, r, "Log in", "login", nil),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	creds := model.Credentials{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}

	v := view.NewLogin(s.Client)
	sess, err := v.Submit(r.Context(), creds)
	if err != nil {
		slog.Warn("login failed", "user", creds.Username, "error", err)
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &loginPage{
			PageData:      s.page(w, r, "Log in", "login", v.Notice()),
			LoginUsername: v.Username(),
		})
		return
	}

	now := s.Now()
	value, err := auth.Seal(s.Secret, *sess, now)
	if err != nil {
		slog.Error("failed to seal session", "error", err)
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", &loginPage{
			PageData:      s.page(w, r, "Log in", "login", &view.Notice{Level: view.NoticeError, Message: "Could not start a session."}),
			LoginUsername: creds.Username,
		})
		return
	}

	expires := now.Add(auth.CookieExpiry)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(expires) {
		expires = sess.ExpiresAt
	}
	setSessionCookie(w, value, expires, now)

	slog.Info("user logged in", "user", sess.Username)
	redirectWithNotice(w, r, "/", v.Notice())
}

// Logout handles POST /logout. The cookie is revoked so a copied value
// stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFrom(r.Context()); sess != nil && sess.ID != "" && s.Journal != nil {
		expires := sess.ExpiresAt
		if expires.IsZero() {
			expires = s.Now().Add(auth.CookieExpiry)
		}
		if err := journal.RevokeSession(r.Context(), s.Journal, sess.ID, expires); err != nil {
			slog.Error("failed to revoke session", "error", err)
		} else {
			slog.Info("user logged out", "user", sess.Username)
		}
	}

	clearSessionCookie(w)
	redirectWithNotice(w, r, "/login", &view.Notice{Level: view.NoticeInfo, Message: "Logged out."})
}
