// Package services holds the studio's business logic: the entity Store with
// its id sequence, validation and cascades, plus the auth, analytics and
// idempotency helpers built on top of it.
//
// Errors returned here are sentinels; translation into HTTP status codes and
// WebSocket log entries happens in the transport layers.
package services

import (
	"errors"

	"github.com/tbourn/wolfoman-studio/internal/repo"
)

var (
	// ErrNotFound indicates that the referenced entity does not exist. It is
	// the repo sentinel, so errors.Is works across layers.
	ErrNotFound = repo.ErrNotFound

	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = repo.ErrDuplicate

	// ErrValidation wraps every input rejected before it reaches the
	// database: binding-tag violations, unknown enum values and references
	// to missing owners.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned by Login for an unknown username or a
	// wrong password. The two cases are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
