package domain

import "errors"

// API errors - translated from HTTP responses by the api client
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrPermissionDenied indicates the server rejected the actor
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized indicates a missing or expired session
	ErrUnauthorized = errors.New("not authenticated")

	// ErrRejected indicates a 4xx validation failure; the server message
	// is carried alongside via wrapping
	ErrRejected = errors.New("request rejected")

	// ErrServerFailure indicates a 5xx response, reported generically
	ErrServerFailure = errors.New("operation failed")

	// ErrNetwork indicates the request never completed
	ErrNetwork = errors.New("network error")
)

// Client-side precondition errors - caught before any request is sent
var (
	// ErrEmptyName indicates a required name field was blank
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrPathEscape indicates a navigation target outside the view's root
	ErrPathEscape = errors.New("path escapes the container root")

	// ErrNotOwner indicates the local ownership check failed
	ErrNotOwner = errors.New("entry is owned by another user")

	// ErrSelfDelete indicates an attempt to delete the active account
	ErrSelfDelete = errors.New("cannot delete the active account")

	// ErrUnresolvedConflict indicates a conflicting item was submitted
	// before a resolution was chosen
	ErrUnresolvedConflict = errors.New("conflict not resolved")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
