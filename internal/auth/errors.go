package auth

import "errors"

// Error types for credential store operations.
var (
	// ErrAuthenticationRequired indicates no usable token exists. The only
	// recovery is re-running the authorization flow; nothing is retried
	// internally.
	ErrAuthenticationRequired = errors.New("auth: authentication required, run 'outlook-bridge login'")

	// ErrAccountNotFound indicates the requested account identifier is not
	// in the registry.
	ErrAccountNotFound = errors.New("auth: account not found")

	// ErrRefreshFailed indicates the token endpoint rejected a refresh
	// request (revoked or expired refresh token, bad client credentials).
	ErrRefreshFailed = errors.New("auth: token refresh failed")

	// ErrExchangeFailed indicates the token endpoint rejected an
	// authorization code exchange.
	ErrExchangeFailed = errors.New("auth: code exchange failed")

	// ErrStorageRead indicates the durable token store could not be read.
	// Callers treat this as "no tokens available".
	ErrStorageRead = errors.New("auth: token store read failed")

	// ErrStorageWrite indicates the durable token store could not be
	// written. The in-memory tokens remain usable for this process.
	ErrStorageWrite = errors.New("auth: token store write failed")
)
