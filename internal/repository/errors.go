// Package repository defines the persistence boundary for rooms and
// bookings together with the error kinds shared by every layer above it.
// Handlers translate these sentinels into HTTP status codes with errors.Is:
// ErrInvalidInput is a caller mistake, ErrNotFound a dangling reference,
// ErrRoomUnavailable a room that was not free at registration time,
// ErrInvalidTransition a lifecycle step from the wrong state, and
// ErrStorageFailure anything the database itself could not do.
package repository

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when required fields are missing or malformed.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned when a referenced room or booking does not exist.
var ErrNotFound = errors.New("not found")

// ErrRoomUnavailable is returned when a guest is registered against a room
// that is not free, including the losing side of a concurrent registration.
var ErrRoomUnavailable = errors.New("room unavailable")

// ErrInvalidTransition is returned when a booking is not in the state that
// a check-in or check-out requires.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrStorageFailure marks unexpected persistence errors.  The request that
// hit it fails; nothing is retried.
var ErrStorageFailure = errors.New("storage failure")

// StorageError wraps a driver error with the operation that produced it.
// errors.Is matches both ErrStorageFailure and the wrapped cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorageFailure, e.Err} }

func storageFailure(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Invalidf builds an ErrInvalidInput carrying a caller-facing message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
