package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrProvider indicates that an upstream rate provider fetch failed
// (network failure, malformed payload, auth/quota rejection).
var ErrProvider = errors.New("provider error")

// ErrUnsupportedBase indicates that a provider was asked for a base
// currency it structurally cannot answer for.
var ErrUnsupportedBase = errors.New("unsupported base currency")

// ErrMissingCredential indicates that a provider requiring a credential
// was invoked without one configured.
var ErrMissingCredential = errors.New("missing provider credential")

// ErrLockUnavailable indicates that a distributed lock could not be
// acquired because another holder owns it. Callers treat this as a
// skip signal, not a failure.
var ErrLockUnavailable = errors.New("lock unavailable")
