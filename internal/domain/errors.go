package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidConfig    = errors.New("invalid config")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrProcessing       = errors.New("processing failed")
	ErrExternalService  = errors.New("external service error")
	ErrDatabase         = errors.New("database error")
	ErrExecution        = errors.New("execution error")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidConfig    ErrorKind = "invalid_config"
	KindValidation       ErrorKind = "validation"
	KindAlreadyExists    ErrorKind = "already_exists"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindProcessing       ErrorKind = "processing"
	KindExternalService  ErrorKind = "external_service"
	KindDatabase         ErrorKind = "database"
	KindExecution        ErrorKind = "execution"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path or resource id
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match an OpError against the sentinel of its kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

var kindSentinels = map[ErrorKind]error{
	KindNotFound:         ErrNotFound,
	KindInvalidConfig:    ErrInvalidConfig,
	KindValidation:       ErrValidation,
	KindAlreadyExists:    ErrAlreadyExists,
	KindPermissionDenied: ErrPermissionDenied,
	KindProcessing:       ErrProcessing,
	KindExternalService:  ErrExternalService,
	KindDatabase:         ErrDatabase,
	KindExecution:        ErrExecution,
}

// NewError builds an OpError whose message is msg.
func NewError(op string, kind ErrorKind, msg string) error {
	return &OpError{Op: op, Kind: kind, Err: errors.New(msg)}
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the outermost OpError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
