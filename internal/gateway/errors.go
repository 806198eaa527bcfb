package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers network failures and non-OK responses alike.
	ErrUnavailable = errors.New("guild api unavailable")

	// ErrNotFound is returned when a single guild cannot be fetched.
	ErrNotFound = errors.New("guild not found")
)

// StatusError is a non-OK HTTP response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Unwrap makes every StatusError match ErrUnavailable.
func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}
