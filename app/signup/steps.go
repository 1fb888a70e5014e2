package signup

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"

	"pressroom/app/models"

	"github.com/go-playground/validator/v10"
)

// Credentials is the first step.
type Credentials struct {
	Email           string      `json:"email" validate:"required,email,max=254"`
	Password        string      `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string      `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            models.Role `json:"role" validate:"required"`
}

// Profile is the second step. Organization is the media outlet for
// journalists and the company for communications professionals.
type Profile struct {
	FirstName    string `json:"firstName" validate:"required,max=60"`
	LastName     string `json:"lastName" validate:"required,max=60"`
	Organization string `json:"organization" validate:"required,max=120"`
	JobTitle     string `json:"jobTitle,omitempty" validate:"max=80"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,e164"`
	Country      string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// Interests is the last step.
type Interests struct {
	Topics      []string `json:"topics,omitempty" validate:"max=10,dive,required,max=40"`
	Newsletter  bool     `json:"newsletter"`
	AcceptTerms bool     `json:"acceptTerms" validate:"required"`
}

// FieldErrors maps a field's JSON name to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func check(step any) FieldErrors {
	err := validate.Struct(step)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := out[name]; !seen {
			out[name] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return "must be accepted"
		}
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "e164":
		return "must be an international number like +15551234567"
	case "iso3166_1_alpha2":
		return "must be a two letter country code"
	}
	return "is invalid"
}

func (c Credentials) validate() FieldErrors {
	errs := check(c)
	if errs == nil {
		errs = FieldErrors{}
	}
	passwordStrength(errs, c.Password)
	if _, bad := errs["role"]; !bad {
		switch c.Role {
		case models.RoleJournalist, models.RoleComms:
		case models.RoleAdmin:
			errs["role"] = "admin accounts cannot be self-registered"
		default:
			errs["role"] = "must be journalist or comms"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (p Profile) validate() FieldErrors {
	p.Country = strings.ToUpper(p.Country)
	return check(p)
}

func (i Interests) validate() FieldErrors {
	return check(i)
}

type passwordPair struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// CheckPassword applies the signup password rules, for password resets.
func CheckPassword(password, confirm string) FieldErrors {
	errs := check(passwordPair{Password: password, ConfirmPassword: confirm})
	if errs == nil {
		errs = FieldErrors{}
	}
	passwordStrength(errs, password)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func passwordStrength(errs FieldErrors, password string) {
	if _, bad := errs["password"]; !bad && password != "" && !mixed(password) {
		errs["password"] = "must contain a letter and a number"
	}
}

func mixed(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
