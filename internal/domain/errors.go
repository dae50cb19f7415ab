package domain

import "errors"

// App authentication failures. Surfaced on every endpoint before any
// user-facing logic runs.
var (
	// ErrMissingAppCredentials indicates the app id or secret header was empty.
	ErrMissingAppCredentials = errors.New("missing app credentials")
	// ErrUnknownApp indicates the app id is not registered.
	ErrUnknownApp = errors.New("unknown app")
	// ErrInvalidAppSecret indicates the supplied secret does not match.
	ErrInvalidAppSecret = errors.New("invalid app secret")
)

// Input failures, the caller's fault.
var (
	// ErrInvalidInput indicates signup fields are empty or too short.
	ErrInvalidInput = errors.New("invalid username or password syntax")
	// ErrMissingFields indicates login fields are empty.
	ErrMissingFields = errors.New("username and password are required")
	// ErrMissingSession indicates a logout request without a session id.
	ErrMissingSession = errors.New("session id is required")
)

// Credential failures. Deliberately distinguishable (see logout vs introspect
// for where distinguishability stops).
var (
	// ErrUsernameTaken indicates the username already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrAccountNotFound indicates no user with that username exists.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session failures, surfaced on logout only.
var (
	// ErrSessionNotFound indicates no session with that id exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrWrongApp indicates the session belongs to a different app.
	ErrWrongApp = errors.New("session does not belong to this app")
)
