package finance

import (
	"errors"

	"organizapay/internal/records"
)

// Kind classifies controller errors for the caller.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindPlanLimit    Kind = "plan_limit"
	KindNotFound     Kind = "not_found"
	KindTransport    Kind = "transport"
)

var (
	ErrNotAuthenticated = errors.New("no signed-in user")
	ErrPremiumRequired  = errors.New("premium plan required")
	ErrClosed           = errors.New("controller closed")
	ErrStale            = errors.New("cached data is out of date")
)

// Error is returned by every controller operation that fails.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a controller error, or "" for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// storeError classifies an error coming back from the record store.
func storeError(op string, err error) *Error {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return newError(op, KindNotFound, err)
	default:
		return newError(op, KindTransport, err)
	}
}
