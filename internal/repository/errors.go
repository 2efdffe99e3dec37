// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish failure scenarios and map them to
// HTTP statuses without inspecting driver error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when registering or updating a user
// with an email that is already taken. The users.email unique key
// is the source of truth; no existence check precedes the write.
var ErrEmailExists = errors.New("email already exists")

// ErrLandNameExists is returned when a land parcel with the same
// name already exists (lands.name unique key).
var ErrLandNameExists = errors.New("land name already exists")

// ErrReceiverNotFound is returned when a chat message addresses a
// receiver that does not resolve to an existing user.
var ErrReceiverNotFound = errors.New("receiver not found")

// isDuplicateKey reports whether err is a MySQL duplicate-key
// violation (error 1062). Unique keys are the enforcement point
// for uniqueness invariants, so this mapping is how a racing write
// becomes a typed conflict instead of a silent double insert.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isFKViolation reports whether err is a MySQL foreign-key
// violation (error 1452), meaning a referenced row does not exist.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1452")
}
