package types

import (
	"errors"
	"fmt"
)

// Error kinds returned by controllers. Handlers map them to status codes
// with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrGone       = errors.New("gone")
	ErrUpstream   = errors.New("upstream service failed")
)

// KindError carries a client facing message and unwraps to one of the kinds.
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Kind
}

func NewError(kind error, message string) error {
	return &KindError{Kind: kind, Message: message}
}

func Invalidf(format string, args ...any) error {
	return &KindError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) error {
	return &KindError{Kind: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &KindError{Kind: ErrConflict, Message: message}
}

func Gone(message string) error {
	return &KindError{Kind: ErrGone, Message: message}
}

func Upstream(message string) error {
	return &KindError{Kind: ErrUpstream, Message: message}
}

// PublicMessage returns the message safe to show a client, or fallback when
// err does not carry one.
func PublicMessage(err error, fallback string) string {
	var kindErr *KindError
	if errors.As(err, &kindErr) {
		return kindErr.Message
	}
	return fallback
}
