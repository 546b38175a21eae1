// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("poll not found")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrInvalidBallot = errors.New("invalid ballot")
	ErrAnonymousPoll = errors.New("poll is anonymous")
	ErrConflict      = errors.New("unique constraint conflict")
	ErrStorage       = errors.New("storage failure")
)

// ValidationError reports a missing or malformed organizer input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidBallotError reports a selection that does not fit the poll's mode
type InvalidBallotError struct {
	Reason string
}

func (e *InvalidBallotError) Error() string {
	return "invalid ballot: " + e.Reason
}

func (e *InvalidBallotError) Unwrap() error { return ErrInvalidBallot }

// StorageError wraps a persistence failure. It matches both ErrStorage
// and the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// storageErr wraps err as a StorageError unless it already carries a
// domain meaning the caller must see unchanged.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrAlreadyVoted, ErrInvalidBallot, ErrValidation, ErrAnonymousPoll, ErrStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}
