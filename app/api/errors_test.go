package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	tests := map[string]struct {
		body string
		want string
	}{
		"message field": {`{"message":"bad title"}`, "bad title"},
		"error field":   {`{"error":"nope"}`, "nope"},
		"plain text":    {"upstream down\n", "upstream down"},
		"empty":         {"", ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := decodeError(http.StatusBadGateway, []byte(tt.body), "req-1")
			assert.Equal(t, tt.want, e.Message)
			assert.Equal(t, "req-1", e.RequestID)
		})
	}
}

func TestDecodeErrorTruncatesText(t *testing.T) {
	e := decodeError(http.StatusInternalServerError, []byte(strings.Repeat("x", 1000)), "")
	assert.Len(t, e.Message, maxErrorText)
}

func TestDecodeErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("x", maxErrorText-1) + "é" + strings.Repeat("y", 50)
	e := decodeError(http.StatusInternalServerError, []byte(body), "")
	assert.True(t, utf8.ValidString(e.Message))
	assert.Equal(t, strings.Repeat("x", maxErrorText-1), e.Message)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "api: 404 Not Found", (&Error{StatusCode: 404}).Error())
	assert.Equal(t, "api: 409 taken", (&Error{StatusCode: 409, Message: "taken"}).Error())
}

func TestWrappedErrorsStillMatch(t *testing.T) {
	err := fmt.Errorf("load feed: %w", &Error{StatusCode: http.StatusForbidden})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusForbidden, StatusCode(err))

	netErr := fmt.Errorf("load feed: %w", &NetworkError{Op: "GET /blog/posts", Err: errors.New("refused")})
	assert.True(t, IsNetwork(netErr))
	assert.False(t, IsNetwork(err))
}
