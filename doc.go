// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oauth signs HTTP requests the way OAuth 1.0a with HMAC-SHA1 demands,
// and composes them with bodies that can be streamed.
//
// A client gets the header "Authorization" like this:
//
//  signer := oauth.OAuth1{Credentials: creds}
//  h, err := signer.AuthorizationHeader("POST", u, body)
//  req.Header.Set("Authorization", h.String())
//
// or, more conveniently, lets Request do all of that:
//
//  r := oauth.Request{Method: "POST", URL: u, Body: form, Auth: signer}
//  req, err := r.HTTPRequest(ctx, progress)
//  resp, err := http.DefaultClient.Do(req)
//
// Parameters from the query string and from bodies of type
// "application/x-www-form-urlencoded" become part of the signature.
// They are expected to have been percent-encoded already, see QueryString.
//
// Bodies are found in packages "content" (text, JSON, forms)
// and "formdata" (multipart/form-data, for example with files).
// Package "signature.oauth1" has the primitives, and verification for servers.
package oauth // import "blitznote.com/src/http.oauth"
