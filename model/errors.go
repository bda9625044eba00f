package model

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad means the designer target could not be located in source.
	ErrLoad = errors.New("load error")
	// ErrIntegration means the desired state violates the generator contract.
	ErrIntegration = errors.New("integration error")
	// ErrPrecondition means a resolved region is malformed.
	ErrPrecondition = errors.New("precondition violation")
)

// Error carries a taxonomy kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return fmt.Sprintf("%v: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// LoadError builds an ErrLoad error.
func LoadError(op, format string, a ...any) error {
	return &Error{Kind: ErrLoad, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// IntegrationError builds an ErrIntegration error.
func IntegrationError(op, format string, a ...any) error {
	return &Error{Kind: ErrIntegration, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// PreconditionError builds an ErrPrecondition error.
func PreconditionError(op, format string, a ...any) error {
	return &Error{Kind: ErrPrecondition, Op: op, Msg: fmt.Sprintf(format, a...)}
}
