package events

import (
	"errors"
	"fmt"
)

var ErrCapabilityUnavailable = errors.New("geolocation capability unavailable")

// TransportError is returned when a backend call could not be made or came back with a
// non-success status. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a response body is not the expected JSON.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError carries a message meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsUpstream reports whether err came from talking to the backend.
func IsUpstream(err error) bool {
	var te *TransportError
	var de *DecodeError
	return errors.As(err, &te) || errors.As(err, &de)
}
