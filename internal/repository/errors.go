package repository

import "errors"

var (
	// ErrDuplicate signals an insert that would violate a collection's
	// unique key.
	ErrDuplicate = errors.New("repository: record already exists")
	// ErrNotFound signals a lookup or mutation whose target record is
	// absent.
	ErrNotFound = errors.New("repository: record not found")
)
