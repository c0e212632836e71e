package common

import (
	"errors"
	"fmt"
)

// Kind is the stable, user-visible classification of a failure.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidArgument        Kind = "invalid_argument"
	KindUnauthorized           Kind = "unauthorized"
	KindConflict               Kind = "conflict"
	KindRecursionLimitExceeded Kind = "recursion_limit_exceeded"
	KindTokenExpired           Kind = "token_expired"
	KindInvalidToken           Kind = "invalid_token"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindInternal               Kind = "internal"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal            = errors.New("internal error")
	ErrorUnauthorized        = errors.New("unauthorized")
	ErrorInvalidArgument     = errors.New("invalid argument")
	ErrorUpstreamUnavailable = errors.New("upstream unavailable")

	// Cascade delete guard.
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")

	// Share token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

var sentinels = map[Kind]error{
	KindNotFound:               ErrorNotFound,
	KindInvalidArgument:        ErrorInvalidArgument,
	KindUnauthorized:           ErrorUnauthorized,
	KindConflict:               ErrorConflict,
	KindRecursionLimitExceeded: ErrRecursionLimitExceeded,
	KindTokenExpired:           ErrTokenExpired,
	KindInvalidToken:           ErrInvalidToken,
	KindUpstreamUnavailable:    ErrorUpstreamUnavailable,
	KindInternal:               ErrorInternal,
}

// Error carries a Kind and a human-readable message, optionally wrapping
// the underlying cause. errors.Is matches it against the sentinel of its kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around err.
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of err. Plain sentinels are recognized too;
// anything else is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindInternal
}

// Message returns the outermost human-readable message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
