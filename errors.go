// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth

// PreconditionError means the caller passed something unusable.
// Nothing has been sent when you get one.
type PreconditionError string

// Error implements the error interface.
func (e PreconditionError) Error() string { return "oauth: " + string(e) }

// Conditions that must be met before a request can be signed.
const (
	ErrNilURL             PreconditionError = "the URL is missing"
	ErrNoConsumerKey      PreconditionError = "the consumer key is empty"
	ErrNoConsumerSecret   PreconditionError = "the consumer secret is empty"
	ErrNoBearerToken      PreconditionError = "the bearer token is empty"
	ErrTokenSecretNoToken PreconditionError = "an access token secret has been given without access token"
)
