package errorsx

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the event log. It is not a stable error code.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindConfiguration Kind = "configuration"
	KindState         Kind = "state"
	KindTransport     Kind = "transport"
	KindProtocol      Kind = "protocol"
)

// KindedError wraps an error with a Kind.
type KindedError struct {
	Err  error
	Kind Kind
}

func (e KindedError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e KindedError) Unwrap() error {
	return e.Err
}

// New builds a kinded error from a format string.
func New(kind Kind, format string, args ...any) error {
	return KindedError{Err: fmt.Errorf(format, args...), Kind: kind}
}

// Wrap attaches a kind to err. An error that already carries a kind keeps it.
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return err
	}
	return KindedError{Err: err, Kind: kind}
}

func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Describe renders err as "<kind> error: <message>" for the event log.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s error: %s", KindOf(err), err.Error())
}
