// Package errors defines domain-level errors used throughout the application.
// These errors represent repository, manifest, and cache failures and are mapped
// to appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// This typically results from validation failures or incorrect request parameters.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrNetwork indicates that fetching a manifest or downloading script content
	// failed at the transport level (unreachable host, non-OK status, timeout).
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrNetwork = errors.New("repository unreachable")

	// ErrParse indicates that manifest bytes do not conform to either supported
	// layout (flat list or nested-by-category) and could not be decoded.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrParse = errors.New("manifest malformed")

	// ErrValidation indicates that a manifest decoded successfully but violates
	// field or uniqueness invariants (missing id/url/checksum, duplicate id).
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrValidation = errors.New("manifest invalid")

	// ErrChecksum indicates that downloaded content did not match the declared
	// checksum after all retries were exhausted. Content failing this check is
	// never stored in the cache.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrChecksum = errors.New("download could not be verified")

	// ErrNotFound indicates that a referenced repository, script, local manifest
	// path, or cache entry does not exist.
	// Recommended to map to HTTP 404 Not Found.
	ErrNotFound = errors.New("not found")
)
