package usecase

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/validate"
)

func TestUserMessage(t *testing.T) {
	h := NewErrorHandler(zerolog.Nop())

	cases := map[string]error{
		"The provided data is invalid. Please check your input and try again.":  domain.NewError("x", domain.KindValidation, "bad"),
		"The requested resource could not be found.":                            domain.NewError("x", domain.KindNotFound, "gone"),
		"This resource already exists.":                                         domain.NewError("x", domain.KindAlreadyExists, "dup"),
		"You don't have permission to perform this action.":                     domain.NewError("x", domain.KindPermissionDenied, "no"),
		"An external service is currently unavailable. Please try again later.": domain.NewError("x", domain.KindExternalService, "down"),
		"An error occurred. Our team has been notified.":                        errors.New("mystery"),
	}
	for want, err := range cases {
		assert.Equal(t, want, h.UserMessage(err))
	}

	assert.Equal(t, "The provided data is invalid. Please check your input and try again.",
		h.UserMessage(validate.NotEmpty("", "name")))
}

func TestHandleErrorLogsExtraLines(t *testing.T) {
	var buf bytes.Buffer
	h := NewErrorHandler(zerolog.New(&buf))

	h.HandleError(domain.NewError("x", domain.KindExternalService, "down"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"error"`)
	assert.Contains(t, lines[1], `"level":"warn"`)

	buf.Reset()
	h.HandleError(domain.NewError("x", domain.KindDatabase, "locked"))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "error.database_needs_attention")

	buf.Reset()
	h.HandleError(domain.NewError("x", domain.KindValidation, "bad"))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	buf.Reset()
	h.HandleError(nil)
	assert.Empty(t, buf.String())
}
