// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/codec/session layers.
var (
	// ErrNoSession indicates there is no stored token pair to resume from.
	ErrNoSession = errors.New("no session")

	// ErrTokenDecode indicates a token that could not be parsed or lacks an expiry claim.
	ErrTokenDecode = errors.New("token decode failed")

	// ErrTokenExpired indicates a structurally valid token past its validity window.
	ErrTokenExpired = errors.New("token expired")

	// ErrStorageInconsistent indicates a stored pair missing one of the two tokens.
	ErrStorageInconsistent = errors.New("stored token pair incomplete")
)
