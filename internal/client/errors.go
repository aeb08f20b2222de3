package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error kinds, matched with errors.Is.
var (
	ErrNetwork          = errors.New("backend unreachable")
	ErrClient           = errors.New("request rejected")
	ErrServer           = errors.New("backend error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

// NetworkError means no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// StatusError is a response with a 4xx or 5xx status code.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is matches ErrClient for 4xx, ErrServer for 5xx, and the more specific
// ErrPermissionDenied and ErrNotFound for 403 and 404.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrClient:
		return e.StatusCode >= 400 && e.StatusCode < 500
	case ErrServer:
		return e.StatusCode >= 500
	case ErrPermissionDenied:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Describe returns a short message suitable for showing to a user.
func Describe(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, ErrPermissionDenied):
		return "You do not have permission to do that."
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.Is(err, ErrNotFound):
		return "The record no longer exists."
	case errors.Is(err, ErrServer):
		return "The server failed to handle the request."
	default:
		return err.Error()
	}
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body message
	msg := ""
	if json.Unmarshal(data, &body) == nil {
		msg = body.Error
		if msg == "" {
			msg = body.Message
		}
	}
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(msg),
	}
}
