package usecase

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
)

// ErrorHandler logs failures and turns them into text fit for end users.
type ErrorHandler struct {
	log zerolog.Logger
}

func NewErrorHandler(log zerolog.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}
	kind := classify(err)
	h.log.Error().Err(err).Str("kind", string(kind)).Msg("error.occurred")

	switch kind {
	case domain.KindExternalService:
		h.log.Warn().Err(err).Msg("error.external_service")
	case domain.KindDatabase:
		h.log.Error().Err(err).Msg("error.database_needs_attention")
	}
}

func (h *ErrorHandler) UserMessage(err error) string {
	switch classify(err) {
	case domain.KindValidation:
		return "The provided data is invalid. Please check your input and try again."
	case domain.KindNotFound:
		return "The requested resource could not be found."
	case domain.KindAlreadyExists:
		return "This resource already exists."
	case domain.KindPermissionDenied:
		return "You don't have permission to perform this action."
	case domain.KindExternalService:
		return "An external service is currently unavailable. Please try again later."
	default:
		return "An error occurred. Our team has been notified."
	}
}

// classify also recognizes field errors from the validate package, which
// match domain.ErrValidation without being an OpError.
func classify(err error) domain.ErrorKind {
	if k := domain.KindOf(err); k != "" {
		return k
	}
	if errors.Is(err, domain.ErrValidation) {
		return domain.KindValidation
	}
	return ""
}
