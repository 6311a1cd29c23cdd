// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"net/http"
)

// AuthError adds a behavioural hint to an Error.
type AuthError interface {
	error

	// SuggestedResponseCode gives a HTTP status code.
	SuggestedResponseCode() int
}

// badRequestError is returned on formal errors,
// such as a malformed header or a missing parameter.
type badRequestError string

// Error implements the error interface.
func (e badRequestError) Error() string { return string(e) }

// SuggestedResponseCode implements the AuthError interface.
func (e badRequestError) SuggestedResponseCode() int { return http.StatusBadRequest }

// unauthorizedError is given when the request is not signed using this scheme,
// or the signature does not match.
//
// The client should try again using different credentials.
type unauthorizedError string

// Error implements the error interface.
func (e unauthorizedError) Error() string { return string(e) }

// SuggestedResponseCode implements the AuthError interface.
func (e unauthorizedError) SuggestedResponseCode() int { return http.StatusUnauthorized }

// forbiddenError is returned when the consumer or token is unknown,
// or the request is outside the time window.
//
// The client should not try again with the same request.
type forbiddenError string

// Error implements the error interface.
func (e forbiddenError) Error() string { return string(e) }

// SuggestedResponseCode implements the AuthError interface.
func (e forbiddenError) SuggestedResponseCode() int { return http.StatusForbidden }

// payloadTooLargeError is returned when a body that takes part in the signature
// exceeds what the server is willing to buffer.
type payloadTooLargeError string

// Error implements the error interface.
func (e payloadTooLargeError) Error() string { return string(e) }

// SuggestedResponseCode implements the AuthError interface.
func (e payloadTooLargeError) SuggestedResponseCode() int { return http.StatusRequestEntityTooLarge }
