package store

import "errors"

// Error taxonomy shared by every backend. Store implementations translate
// their native failures into these sentinels so callers can branch with
// errors.Is regardless of which backend produced the error.
var (
	// ErrNotFound reports that a referenced entity is absent. Direct ID
	// lookups surface it; stale cart ids swallow it by policy.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a uniqueness violation, either an account email
	// or a (account, topic) certification pair.
	ErrConflict = errors.New("already exists")

	// ErrValidation reports input rejected before persistence.
	ErrValidation = errors.New("validation failed")

	// ErrAccessDenied reports an entitlement or ownership failure.
	ErrAccessDenied = errors.New("access denied")
)
