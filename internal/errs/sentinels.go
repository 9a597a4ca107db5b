// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., identifier already attached).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument indicates a malformed request field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimited indicates too many verification sends for one identifier.
	ErrRateLimited = errors.New("rate limited")
)

// Discovery sentinels.
var (
	// ErrEmptyServer is returned when the identity server candidate is blank. No call is made.
	ErrEmptyServer = errors.New("please enter an identity server")

	// ErrServerValidation collapses every remote failure of a terms check.
	ErrServerValidation = errors.New("identity server could not be validated")

	// ErrBindOperation indicates a failed bind/unbind call; the identifier keeps its state.
	ErrBindOperation = errors.New("bind operation failed")

	// ErrSuperseded is returned to a submit whose session was replaced by a newer one.
	ErrSuperseded = errors.New("verification superseded")

	// ErrNoIdentityServer indicates an operation that needs a configured identity server.
	ErrNoIdentityServer = errors.New("no identity server configured")

	// ErrInvalidState indicates an identifier is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid identifier state")

	// ErrInvalidIdentifier indicates an unknown medium or an empty address.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
