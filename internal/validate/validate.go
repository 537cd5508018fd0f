// Package validate holds the field checks shared by the request handlers.
// Constraints are go-playground/validator tags; failures are reported as
// apperr.FieldErrors keyed by the JSON field name.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var phonePattern = regexp.MustCompile(`^\+?[0-9-]+$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(val, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(val, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(val, "maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("validate: bad maxbytes param %q", fl.Param()))
		}
		return len(fl.Field().String()) <= n
	})
	return val
}

func mustRegister(val *validator.Validate, tag string, fn validator.Func) {
	if err := val.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct checks s against its validate tags.
func Struct(s any) apperr.FieldErrors {
	fe := apperr.FieldErrors{}
	collect(fe, "", v.Struct(s))
	return fe
}

// Var checks a single value against tag and records failures under field.
func Var(fe apperr.FieldErrors, field string, value any, tag string) {
	collect(fe, field, v.Var(value, tag))
}

func collect(fe apperr.FieldErrors, field string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only reachable with a non-struct argument or a malformed tag
		panic(err)
	}
	for _, e := range verrs {
		name := field
		if name == "" {
			name = e.Field()
		}
		fe.Add(name, message(e))
	}
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return "this field may not be blank"
	case "email":
		return "enter a valid email address"
	case "phone":
		return "enter a valid phone number"
	case "http_url":
		return "enter a valid URL"
	case "datetime":
		return "date has wrong format, use YYYY-MM-DD"
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
	case "maxbytes":
		return fmt.Sprintf("ensure this field has no more than %s bytes", e.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", e.Param())
	case "eqfield":
		return fmt.Sprintf("this field must match %s", strings.ToLower(e.Param()))
	}
	return "invalid value"
}

// Date parses a YYYY-MM-DD calendar date.
func Date(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String reads a member decoded with respond.DecodeFields. It records an
// error when the member is missing (and required), null or not a string, and
// reports whether a usable value was read.
func String(fe apperr.FieldErrors, fields map[string]json.RawMessage, name string, required bool) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		if required {
			fe.Add(name, "this field is required")
		}
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		fe.Add(name, "not a valid string")
		return "", false
	}
	if s == nil {
		fe.Add(name, "this field may not be null")
		return "", false
	}
	return *s, true
}
