package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pressroom/app/api"
	"pressroom/app/guard"
	"pressroom/app/services"
	"pressroom/app/signup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not logged in", services.ErrNotLoggedIn, http.StatusUnauthorized},
		{"session expired", api.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", &api.Error{StatusCode: 403, Message: "nope"}, http.StatusForbidden},
		{"not found", &api.Error{StatusCode: 404}, http.StatusNotFound},
		{"conflict", &api.Error{StatusCode: 409}, http.StatusConflict},
		{"api validation", &api.Error{StatusCode: 422}, http.StatusUnprocessableEntity},
		{"local validation", fmt.Errorf("%w: bad", services.ErrInvalid), http.StatusUnprocessableEntity},
		{"too deep", services.ErrTooDeep, http.StatusUnprocessableEntity},
		{"nothing to upload", services.ErrNothingToUpload, http.StatusUnprocessableEntity},
		{"upstream failure", &api.Error{StatusCode: 503}, http.StatusBadGateway},
		{"network", &api.NetworkError{Op: "GET /x", Err: errors.New("refused")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestDescribeDetails(t *testing.T) {
	_, body := describe(&api.Error{StatusCode: 403, Message: "admins only"})
	assert.Equal(t, "admins only", body.Error)

	_, body = describe(services.ErrNotLoggedIn)
	assert.Equal(t, guard.LoginPath, body.Redirect)

	_, body = describe(&api.NetworkError{Op: "GET /x", Err: errors.New("dial tcp: refused")})
	assert.NotContains(t, body.Error, "dial tcp")
}

func TestDescribeStepError(t *testing.T) {
	err := fmt.Errorf("%w: %w", signup.ErrIncomplete, &signup.StepError{
		Step:   signup.StepProfile,
		Fields: signup.FieldErrors{"organization": "is required"},
	})

	status, body := describe(err)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "profile", body.Step)
	assert.Equal(t, "is required", body.Fields["organization"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.True(t, decodeJSON(w, r, &v))
	assert.Equal(t, "x", v.Name)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.False(t, decodeJSON(w, r, &v))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.True(t, decodeJSON(w, r, &v), "an empty body decodes to the zero value")
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=-1&days=x", nil)
	assert.Equal(t, 3, queryInt(r, "page", 1))
	assert.Equal(t, 10, queryInt(r, "limit", 10))
	assert.Equal(t, 30, queryInt(r, "days", 30))
	assert.Equal(t, 7, queryInt(r, "missing", 7))
}
