package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a backend failure.
type Kind int

const (
	// KindTransport means the request never produced a usable response.
	KindTransport Kind = iota
	// KindBusiness means the backend answered with {success:false, error} or a 4xx/5xx.
	KindBusiness
	// KindUnauthorized means the backend rejected the session (401).
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TRANSPORT"
	case KindBusiness:
		return "BUSINESS"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 for transport errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

func businessError(status int, msg string) *Error {
	kind := KindBusiness
	if status == 401 {
		kind = KindUnauthorized
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

// IsKind reports whether err is a backend error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}
