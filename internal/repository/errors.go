package repository

import "errors"

var (
	// ErrNotFound record not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate unique constraint violated.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidData the supplied data cannot be stored.
	ErrInvalidData = errors.New("invalid data")
)
