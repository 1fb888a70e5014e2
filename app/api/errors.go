package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Sentinels matched by errors.Is against an *Error.
var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
	ErrValidation   = errors.New("api: validation failed")

	// ErrSessionExpired is returned after the refresh-and-retry failed and
	// the cached session was cleared.
	ErrSessionExpired = fmt.Errorf("api: session expired: %w", ErrUnauthorized)
)

// Error is a non-2xx answer from the portal API.
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// Is maps status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// NetworkError wraps a transport failure: the request never got an answer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return "api: " + e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

const maxErrorText = 200

func decodeError(status int, body []byte, requestID string) *Error {
	e := &Error{StatusCode: status, RequestID: requestID}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > maxErrorText {
			n := maxErrorText
			for n > 0 && !utf8.RuneStart(e.Message[n]) {
				n--
			}
			e.Message = e.Message[:n]
		}
	}
	return e
}
