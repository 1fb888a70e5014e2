// Package signup drives the three step registration form:
// credentials, then profile, then interests.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pressroom/app/api"
)

// Step identifies a wizard page.
type Step int

const (
	StepCredentials Step = iota
	StepProfile
	StepInterests
)

var stepNames = [...]string{"credentials", "profile", "interests"}

func (s Step) String() string {
	if s < StepCredentials || s > StepInterests {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

var (
	ErrFirstStep  = errors.New("signup: already at the first step")
	ErrLastStep   = errors.New("signup: already at the last step")
	ErrNotFinal   = errors.New("signup: submit is only possible from the last step")
	ErrIncomplete = errors.New("signup: form is incomplete")
	ErrSubmitting = errors.New("signup: submission already in progress")
	ErrSubmitted  = errors.New("signup: already submitted")
)

// StepError carries the field errors of the step that failed.
type StepError struct {
	Step   Step
	Fields FieldErrors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("signup: %s: %s", e.Step, e.Fields.Error())
}

func (e *StepError) Unwrap() error { return e.Fields }

// Registrar performs the single registration request.
type Registrar interface {
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
}

// Wizard keeps the form data of all steps in memory. Fields may be edited
// directly between calls.
type Wizard struct {
	Credentials Credentials
	Profile     Profile
	Interests   Interests

	mu         sync.Mutex
	step       Step
	submitting bool
	submitted  bool
}

// New returns a wizard on the first step.
func New() *Wizard {
	return &Wizard{}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Next validates the current step and moves forward. On invalid input it
// returns FieldErrors and stays put.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepInterests {
		return ErrLastStep
	}
	if errs := w.check(w.step); errs != nil {
		return errs
	}
	w.step++
	return nil
}

// Back moves to the previous step without validating.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepCredentials {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// Validate checks a single step.
func (w *Wizard) Validate(s Step) FieldErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.check(s)
}

func (w *Wizard) check(s Step) FieldErrors {
	switch s {
	case StepCredentials:
		return w.Credentials.validate()
	case StepProfile:
		return w.Profile.validate()
	case StepInterests:
		return w.Interests.validate()
	}
	return FieldErrors{"": "unknown step"}
}

// Request builds the registration payload from the collected data.
func (w *Wizard) Request() api.RegisterRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.request()
}

func (w *Wizard) request() api.RegisterRequest {
	return api.RegisterRequest{
		Email:        strings.TrimSpace(w.Credentials.Email),
		Password:     w.Credentials.Password,
		FirstName:    strings.TrimSpace(w.Profile.FirstName),
		LastName:     strings.TrimSpace(w.Profile.LastName),
		Role:         w.Credentials.Role,
		Organization: strings.TrimSpace(w.Profile.Organization),
		JobTitle:     w.Profile.JobTitle,
		Phone:        w.Profile.Phone,
		Country:      strings.ToUpper(w.Profile.Country),
		Interests:    w.Interests.Topics,
		Newsletter:   w.Interests.Newsletter,
		AcceptTerms:  w.Interests.AcceptTerms,
	}
}

// Submit sends the registration. It is only allowed from the last step, and
// every step is validated again first. A failed request leaves the wizard on
// the last step with its data so it can be retried.
func (w *Wizard) Submit(ctx context.Context, r Registrar) (api.RegisterResponse, error) {
	w.mu.Lock()
	switch {
	case w.submitted:
		w.mu.Unlock()
		return api.RegisterResponse{}, ErrSubmitted
	case w.submitting:
		w.mu.Unlock()
		return api.RegisterResponse{}, ErrSubmitting
	case w.step != StepInterests:
		w.mu.Unlock()
		return api.RegisterResponse{}, ErrNotFinal
	}
	for s := StepCredentials; s <= StepInterests; s++ {
		if errs := w.check(s); errs != nil {
			w.mu.Unlock()
			return api.RegisterResponse{}, fmt.Errorf("%w: %w", ErrIncomplete, &StepError{Step: s, Fields: errs})
		}
	}
	req := w.request()
	w.submitting = true
	w.mu.Unlock()

	resp, err := r.Register(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		return api.RegisterResponse{}, fmt.Errorf("signup: register: %w", err)
	}
	w.submitted = true
	return resp, nil
}

// Form is the whole wizard in one payload.
type Form struct {
	Credentials Credentials `json:"credentials"`
	Profile     Profile     `json:"profile"`
	Interests   Interests   `json:"interests"`
}

// Run walks a fresh wizard through every step with f and submits it. A
// validation failure comes back as a *StepError naming the step.
func Run(ctx context.Context, r Registrar, f Form) (api.RegisterResponse, error) {
	w := New()
	w.Credentials, w.Profile, w.Interests = f.Credentials, f.Profile, f.Interests
	for w.Step() != StepInterests {
		step := w.Step()
		if err := w.Next(); err != nil {
			var fe FieldErrors
			if errors.As(err, &fe) {
				return api.RegisterResponse{}, &StepError{Step: step, Fields: fe}
			}
			return api.RegisterResponse{}, err
		}
	}
	if errs := w.Validate(StepInterests); errs != nil {
		return api.RegisterResponse{}, &StepError{Step: StepInterests, Fields: errs}
	}
	return w.Submit(ctx, r)
}
