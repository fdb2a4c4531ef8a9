package services

import (
	"errors"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream generation failure")
	ErrPersistence  = errors.New("persistence failure")
)

// Error carries a taxonomy kind, a message safe to show to clients, and the
// underlying cause for server-side logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidInput(message string) error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

func notFound(message string, err error) error {
	return &Error{Kind: ErrNotFound, Message: message, Err: err}
}

func upstream(message string, err error) error {
	return &Error{Kind: ErrUpstream, Message: message, Err: err}
}

func persistence(message string, err error) error {
	return &Error{Kind: ErrPersistence, Message: message, Err: err}
}

// PublicMessage returns the client-facing message of err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
