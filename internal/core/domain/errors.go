package domain

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed, expired or otherwise
	// unverifiable credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the identity is valid but the profile's role does
	// not satisfy the route's policy.
	ErrForbidden = errors.New("access forbidden")
	// ErrRateLimited means the caller exhausted the route's request budget
	// for the current window.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidSignature means webhook authenticity verification failed;
	// the event must not be treated as applied.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnresolvedUser means the webhook payload does not map to a known
	// application user.
	ErrUnresolvedUser = errors.New("webhook references unknown user")
	// ErrUserNotFound is returned by the profile store for absent documents.
	ErrUserNotFound = errors.New("user not found")
	// ErrStorageUnavailable wraps transient backing-store failures; callers
	// may retry the whole operation (safe under the idempotence guarantees).
	ErrStorageUnavailable = errors.New("storage unavailable")
)
