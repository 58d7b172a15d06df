package models

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write loses to a newer revision.
	ErrConflict = errors.New("document update conflict")
)
