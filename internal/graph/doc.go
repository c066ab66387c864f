// Package graph is a thin authenticated client for Microsoft Graph.
//
// This package provides:
//   - A single-call primitive with bearer authentication and typed errors
//   - Cursor-following paginated retrieval with bounded accumulation
//   - OData query string assembly with dedicated $filter handling
//   - Rate limiting for Microsoft Graph API requests
//
// # Pagination
//
// Graph collection responses carry @odata.nextLink when more pages exist.
// FetchPaginated follows the link verbatim (it already encodes the original
// query parameters) and stops at the page ceiling, the requested item cap,
// or the natural end of data, in that order. The ceiling guarantees
// termination even against a looping cursor.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per
// app. The client paces requests conservatively and backs off on 429.
package graph
