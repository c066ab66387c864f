// Package auth owns OAuth2 credentials for one or more Outlook accounts.
//
// This package provides:
//   - A durable multi-account token registry persisted as one JSON document
//   - Lazy, coalesced loading and single-flight token refresh
//   - Authorization-code exchange with identity lookup for account keys
//   - A temporary localhost callback server for the login flow
//
// Microsoft endpoints use the "common" tenant by default, allowing both
// personal Microsoft accounts and Azure AD accounts. The "offline_access"
// scope is required for refresh tokens.
//
// Legacy single-account token documents are recognised at load time and
// normalised to a registry with one account named "default".
package auth
