package scraper

import (
	"errors"

	"github.com/aluiziolira/go-flashsale/session"
)

// ErrorKind names a class of transport failure. The value doubles as the
// error_type metric label.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
)

// TransportError is a classified failure of a feed request.
type TransportError struct {
	Kind ErrorKind
	Err  error
}

func (e TransportError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// ErrRemoteStatus is returned when the feed answers without a SUCCESS marker,
// which is also how it reports a bad signature or an expired session.
type ErrRemoteStatus struct {
	Status string
}

func (e ErrRemoteStatus) Error() string {
	return "API Error: " + e.Status
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var transport TransportError
	if errors.As(err, &transport) {
		return string(transport.Kind)
	}
	var remote ErrRemoteStatus
	if errors.As(err, &remote) {
		return "remote_status"
	}
	if errors.Is(err, session.ErrMissingCredential) {
		return "missing_credential"
	}
	return "other"
}
