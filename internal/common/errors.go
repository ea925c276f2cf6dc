// Package common defines shared constants and sentinel errors used across
// client and server layers of Cryptora. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrorForbidden marks cross-account access. It is never rendered as
	// such externally: the HTTP layer folds it into a plain not-found so a
	// caller cannot tell "not yours" from "does not exist".
	ErrorForbidden = errors.New("forbidden")

	// Validation errors (empty content, malformed fields), rejected before
	// any store access.
	ErrorValidation = errors.New("validation error")

	// ErrorConflict signals a stale fingerprint on a guarded note update.
	ErrorConflict = errors.New("fingerprint conflict")

	// ErrorDecryption is returned by the cipher when the secret is wrong
	// or the stored ciphertext is corrupt.
	ErrorDecryption = errors.New("decryption failed")

	// ErrorExpired marks a share link past its expiry. The public boundary
	// folds it into not-found.
	ErrorExpired = errors.New("expired")
)
