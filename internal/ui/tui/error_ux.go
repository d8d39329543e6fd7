package tui

import (
	"errors"
	"strings"

	"github.com/aalvaropc/tether/internal/domain"
)

// userMessage is the one-line status shown under the list.
func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		switch oe.Kind {
		case domain.KindNotFound:
			if oe.Path != "" {
				return "Resource not found: " + oe.Path
			}
			return "Not found"
		case domain.KindPermissionDenied:
			return "Access denied (check the API key)"
		case domain.KindExternalService:
			if strings.Contains(strings.ToLower(err.Error()), "timed out") {
				return "API timed out"
			}
			return "API unavailable"
		case domain.KindInvalidConfig:
			return "Invalid config"
		case domain.KindProcessing:
			return "Unexpected API response"
		}
	}
	return "Unexpected error (see logs)"
}
