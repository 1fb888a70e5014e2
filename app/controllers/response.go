package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"pressroom/app/api"
	"pressroom/app/bulk"
	"pressroom/app/guard"
	"pressroom/app/services"
	"pressroom/app/signup"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error    string             `json:"error"`
	Step     string             `json:"step,omitempty"`
	Fields   signup.FieldErrors `json:"fields,omitempty"`
	Rejected []bulk.RowError    `json:"rejected,omitempty"`
	Redirect string             `json:"redirect,omitempty"`
}

// Helper methods for consistent response handling

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, err error) {
	status, body := describe(err)
	sendJSON(w, status, body)
}

// describe maps an error from the service layer to a status and body.
func describe(err error) (int, ErrorBody) {
	body := ErrorBody{Error: err.Error()}

	var se *signup.StepError
	if errors.As(err, &se) {
		body.Error = "signup step " + se.Step.String() + " is incomplete"
		body.Step = se.Step.String()
		body.Fields = se.Fields
		return http.StatusUnprocessableEntity, body
	}
	var fe signup.FieldErrors
	if errors.As(err, &fe) {
		body.Fields = fe
		return http.StatusUnprocessableEntity, body
	}

	var ae *api.Error
	if errors.As(err, &ae) && ae.Message != "" {
		body.Error = ae.Message
	}

	switch {
	case errors.Is(err, services.ErrNotLoggedIn), errors.Is(err, api.ErrUnauthorized):
		body.Redirect = guard.LoginPath
		return http.StatusUnauthorized, body
	case errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, api.ErrConflict):
		return http.StatusConflict, body
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, services.ErrTooDeep),
		errors.Is(err, services.ErrNothingToUpload),
		errors.Is(err, api.ErrValidation):
		return http.StatusUnprocessableEntity, body
	case api.IsNetwork(err):
		body.Error = "portal API unreachable"
		return http.StatusBadGateway, body
	case ae != nil:
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, body
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		sendJSON(w, http.StatusBadRequest, ErrorBody{Error: "Invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
