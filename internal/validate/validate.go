// Package validate holds field-level checks shared by the service layer and
// the CLI. Every check returns nil or a *Error.
package validate

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aalvaropc/tether/internal/domain"
)

type Kind string

const (
	KindRequired      Kind = "required"
	KindInvalidValue  Kind = "invalid_value"
	KindInvalidLength Kind = "invalid_length"
	KindInvalidFormat Kind = "invalid_format"
	KindOutOfRange    Kind = "out_of_range"
	KindMultiple      Kind = "multiple"
)

// Error is a validation failure for one field, or a group of failures when
// Kind is KindMultiple.
type Error struct {
	Kind   Kind
	Field  string
	Detail string
	Errs   []*Error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRequired:
		return fmt.Sprintf("required field missing: %s", e.Field)
	case KindInvalidValue:
		return fmt.Sprintf("invalid field value: %s - %s", e.Field, e.Detail)
	case KindInvalidLength:
		return fmt.Sprintf("invalid field length: %s - %s", e.Field, e.Detail)
	case KindInvalidFormat:
		return fmt.Sprintf("invalid field format: %s - %s", e.Field, e.Detail)
	case KindOutOfRange:
		return fmt.Sprintf("field value out of range: %s - %s", e.Field, e.Detail)
	case KindMultiple:
		parts := make([]string, 0, len(e.Errs))
		for _, inner := range e.Errs {
			parts = append(parts, inner.Error())
		}
		return fmt.Sprintf("multiple validation errors: %d errors (%s)", len(e.Errs), strings.Join(parts, "; "))
	default:
		return fmt.Sprintf("invalid field: %s", e.Field)
	}
}

// Is makes every validation error match domain.ErrValidation.
func (e *Error) Is(target error) bool {
	return target == domain.ErrValidation
}

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	urlRe      = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
)

// NotEmpty rejects empty and whitespace-only values.
func NotEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{Kind: KindRequired, Field: field}
	}
	return nil
}

// Length checks the byte length of value against an inclusive range.
func Length(value, field string, min, max int) error {
	if n := len(value); n < min || n > max {
		return &Error{
			Kind:   KindInvalidLength,
			Field:  field,
			Detail: fmt.Sprintf("length must be between %d and %d", min, max),
		}
	}
	return nil
}

func Range[T cmp.Ordered](value T, field string, min, max T) error {
	if value < min || value > max {
		return &Error{
			Kind:   KindOutOfRange,
			Field:  field,
			Detail: fmt.Sprintf("value must be between %v and %v", min, max),
		}
	}
	return nil
}

func Email(value, field string) error {
	if !emailRe.MatchString(value) {
		return &Error{Kind: KindInvalidFormat, Field: field, Detail: "invalid email format"}
	}
	return nil
}

func URL(value, field string) error {
	if !urlRe.MatchString(value) {
		return &Error{Kind: KindInvalidFormat, Field: field, Detail: "invalid URL format"}
	}
	return nil
}

func Username(value, field string) error {
	if !usernameRe.MatchString(value) {
		return &Error{
			Kind:   KindInvalidFormat,
			Field:  field,
			Detail: "username must be 3-20 characters and contain only letters, numbers, underscores, and hyphens",
		}
	}
	return nil
}

// OneOf rejects values outside allowed.
func OneOf(value, field string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &Error{
		Kind:   KindInvalidValue,
		Field:  field,
		Detail: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")),
	}
}

// All collects the failures among results. One failure is returned as-is;
// two or more are grouped under KindMultiple.
func All(results ...error) error {
	var errs []*Error
	for _, err := range results {
		if err == nil {
			continue
		}
		var ve *Error
		if !errors.As(err, &ve) {
			ve = &Error{Kind: KindInvalidValue, Detail: err.Error()}
		}
		errs = append(errs, ve)
	}
	return group(errs)
}

// RequiredFields checks that each named key is present and non-empty.
func RequiredFields(data map[string]string, fields ...string) error {
	var errs []*Error
	for _, f := range fields {
		if v, ok := data[f]; !ok || v == "" {
			errs = append(errs, &Error{Kind: KindRequired, Field: f})
		}
	}
	return group(errs)
}

func group(errs []*Error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &Error{Kind: KindMultiple, Errs: errs}
	}
}
