package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login only.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every token-level rejection: unverifiable,
	// unknown to the ledger, expired, replayed, or belonging to a dead
	// session. Callers are deliberately not told which.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidSession means the token verified but its session row is
	// gone. Should not happen in normal operation.
	ErrInvalidSession = errors.New("session does not exist")

	// ErrUpstreamUnavailable wraps persistence failures so callers never
	// mistake an aborted rotation for a completed one.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
