package web

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/resaledesk/internal/auth"
	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

type webContextKey string

const sessionKey webContextKey = "session"

const (
	sessionCookie = "session"
	flashCookie   = "flash"
)

// SessionMiddleware reads the session cookie, checks it has not been revoked,
// and adds the session to the context. Requests without a valid session
// continue anonymously; the backend decides whether it needs a token.
func SessionMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := auth.Open(secret, cookie.Value)
			if err != nil {
				clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			if sess.ID != "" && db != nil {
				revoked, err := journal.IsSessionRevoked(r.Context(), db, sess.ID)
				if err != nil {
					slog.Error("failed to check session revocation", "error", err)
				}
				if err != nil || revoked {
					clearSessionCookie(w)
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session added by SessionMiddleware, or nil.
func SessionFrom(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionKey).(*model.Session)
	return sess
}

// backend returns the REST client for the request, carrying the session's
// token when there is one.
func (s *Server) backend(r *http.Request) *client.Client {
	if sess := SessionFrom(r.Context()); sess != nil && sess.Token != "" {
		return s.Client.WithToken(sess.Token)
	}
	return s.Client
}

// needsLogin redirects to the login page when the backend rejected the
// request as unauthenticated. It reports whether it did.
func (s *Server) needsLogin(w http.ResponseWriter, r *http.Request, err error) bool {
	var se *client.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		return false
	}
	clearSessionCookie(w)
	setFlash(w, &view.Notice{Level: view.NoticeInfo, Message: "Please log in to continue."})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

func setSessionCookie(w http.ResponseWriter, value string, expires time.Time, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(expires.Sub(now).Seconds()),
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// setFlash keeps a notice for the page shown after a redirect.
func setFlash(w http.ResponseWriter, n *view.Notice) {
	if n == nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString([]byte(n.Level + "\n" + n.Message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readFlash returns the pending flash notice and clears it.
func readFlash(w http.ResponseWriter, r *http.Request) *view.Notice {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	level, msg, ok := strings.Cut(string(raw), "\n")
	if !ok || msg == "" {
		return nil
	}
	switch level {
	case view.NoticeError, view.NoticeSuccess, view.NoticeInfo:
	default:
		level = view.NoticeInfo
	}
	return &view.Notice{Level: level, Message: msg}
}

// redirectWithNotice stores the notice as a flash and redirects to target.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, target string, n *view.Notice) {
	setFlash(w, n)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
