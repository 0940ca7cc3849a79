// Package failure classifies errors by how a run should react to them.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the reaction a run takes to an error.
type Kind int

const (
	// Retryable errors are transient; the operation may be attempted again.
	Retryable Kind = iota
	// Fatal errors are configuration problems that end the run.
	Fatal
	// Informational outcomes are recorded but never stop anything.
	Informational
)

func (k Kind) String() string {
	switch k {
	case Fatal:
		return "fatal"
	case Informational:
		return "informational"
	default:
		return "retryable"
	}
}

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatalf creates a fatal error. %w verbs are honoured.
func Fatalf(format string, args ...any) error {
	return &Error{Kind: Fatal, Err: fmt.Errorf(format, args...)}
}

// AsFatal marks err as fatal. A nil err stays nil.
func AsFatal(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Fatal, Err: err}
}

// AsInformational marks err as an outcome to record, never to act on.
// A nil err stays nil.
func AsInformational(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Informational, Err: err}
}

// KindOf returns the classification of err. Unclassified errors are retryable.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Retryable
}

// IsFatal reports whether err must end the run.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == Fatal
}
