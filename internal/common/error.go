// Package common defines shared constants and sentinel errors used across
// client and server layers of the service. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation is returned for requests rejected before they touch
	// storage (empty fields, bad permission values, self-shares).
	ErrValidation = errors.New("validation failed")

	// Authorization errors. ErrUnauthorized means no valid session (or the
	// KMS refused an unwrap); ErrForbidden means the caller is authenticated
	// but lacks permission on the target.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Cryptographic errors. ErrIntegrity is returned when an authenticated
	// decryption fails tag verification (tampered ciphertext or wrong key).
	// ErrKeyFormat covers malformed wrapped keys and unparsable public keys.
	ErrIntegrity = errors.New("integrity check failed")
	ErrKeyFormat = errors.New("malformed key material")

	// ErrInvalidToken is returned for unknown or expired share-link tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUpstream is returned when a KMS or storage call failed or timed out.
	ErrUpstream = errors.New("upstream failure")

	ErrInternal = errors.New("internal error")
)
