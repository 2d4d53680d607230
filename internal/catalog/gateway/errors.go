package gateway

import (
	"errors"
	"fmt"
)

// ErrNetwork matches every failure returned by the gateway.
var ErrNetwork = errors.New("network error")

// NetworkError describes a failed call to the product API: a transport failure, a
// non-2xx status or an undecodable body. StatusCode is 0 when no response was received.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
