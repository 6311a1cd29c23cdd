// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oauth1 implements the signing half of OAuth 1.0a (RFC 5849)
// with signature method HMAC-SHA1, and its inverse for servers.
//
// A client sends a header "Authorization" formatted like this:
//
//  Authorization: OAuth oauth_consumer_key="ck",oauth_signature_method="HMAC-SHA1",
//      oauth_timestamp="1400000000",oauth_nonce="N1",oauth_version="1.0",
//      oauth_token="at",oauth_signature="(see below)"
//
// The signature is computed over the "signature base string":
//
//  METHOD & encode(scheme://host[:port]/path) & encode(sorted "k=v" pairs joined by "&")
//
// using the key encode(consumer secret) & encode(token secret).
//
// Values taken from the query string or from a form-encoded body
// enter the base string as they have been sent, that is: not encoded once more.
// Twitter's API validates signatures this way, and so do we.
//
// This is how you'd compute a signature on the Linux shell,
// given the base string in ${base}:
//  printf '%s' "${base}" \
//  | openssl dgst -sha1 -hmac "cs&ats" -binary \
//  | openssl enc -base64
package oauth1 // import "blitznote.com/src/http.oauth/signature.oauth1"
