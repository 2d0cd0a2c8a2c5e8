package store

import "errors"

// ErrNotFound is returned when a record does not exist, or exists but
// is owned by a different user. Callers must not distinguish the two.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user with the same email
// already exists.
var ErrDuplicateEmail = errors.New("email already registered")
