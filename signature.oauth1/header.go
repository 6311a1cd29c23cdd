// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"crypto/hmac"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"text/scanner"
)

// Scheme is the authorization scheme token.
const Scheme = "OAuth"

// Used in errors that are returned when parsing a malformed "Authorization" header.
const (
	errStrUnexpectedPrefix       badRequestError   = "unexpected token at position: "
	errStrUnexpectedValuePrefix  badRequestError   = "unexpected value (not in quotes?) at position: "
	errAuthorizationNotSupported unauthorizedError = "authorization challenge not supported"
	errParameterMissing          badRequestError   = "parameter is missing: "
	errParameterDuplicated       badRequestError   = "parameter is given more than once: "
	errSignatureMethod           badRequestError   = "unsupported 'oauth_signature_method'"
	errVersion                   badRequestError   = "unsupported 'oauth_version'"
	errRequestTooOld             forbiddenError    = "the request is too old, its timestamp is outside tolerance"
)

// AuthorizationHeader is the parsed form of an "Authorization: OAuth …" header.
type AuthorizationHeader struct {
	Realm string

	// Protocol parameters, decoded, in the order they have been sent.
	// Excludes the signature and the realm.
	Params Params

	Signature []byte
}

// Parse translates a string representation to this struct.
//
// Use this to deserialize the result of http.Header.Get(…).
func (a *AuthorizationHeader) Parse(str string) (err AuthError) {
	*a, err = parseAuthorizationHeader(str)
	return
}

func parseAuthorizationHeader(src string) (AuthorizationHeader, AuthError) {
	var (
		a AuthorizationHeader
		s scanner.Scanner
	)

	s.Init(strings.NewReader(src))
	s.Error = func(*scanner.Scanner, string) {} // reported through tokens instead
	tok := s.Scan()
	if tok == scanner.EOF || s.TokenText() != Scheme {
		return a, errAuthorizationNotSupported
	}

	tok = s.Scan()
	for tok != scanner.EOF {
		if tok != scanner.Ident {
			return a, errStrUnexpectedPrefix + badRequestError(s.Pos().String())
		}
		ident := s.TokenText()

		tok = s.Scan()
		if tok != '=' {
			return a, errStrUnexpectedPrefix + badRequestError(s.Pos().String())
		}

		tok = s.Scan()
		if tok != scanner.String {
			return a, errStrUnexpectedValuePrefix + badRequestError(s.Pos().String())
		}
		quoted, err := strconv.Unquote(s.TokenText())
		if err != nil {
			return a, errStrUnexpectedValuePrefix + badRequestError(s.Pos().String())
		}
		v, err := url.PathUnescape(quoted)
		if err != nil {
			return a, errStrUnexpectedValuePrefix + badRequestError(s.Pos().String())
		}

		switch ident {
		case "realm":
			a.Realm = v
		case ParamSignature:
			sig, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return a, badRequestError(err.Error())
			}
			a.Signature = sig
		default:
			if _, dup := a.Params.Get(ident); dup {
				return a, errParameterDuplicated + badRequestError(ident)
			}
			a.Params.Add(ident, v)
		}

		tok = s.Scan()
		if tok == ',' {
			tok = s.Scan()
		}
	}

	return a, nil
}

// Get returns the value of a protocol parameter, or the empty string.
func (a *AuthorizationHeader) Get(key string) string {
	v, _ := a.Params.Get(key)
	return v
}

// CheckFormal tests for the mandatory parameters and
// whether the timestamp is within tolerance of 'timestampRecv'.
//
// Nonces are not tracked here.
func (a *AuthorizationHeader) CheckFormal(timestampRecv, timeTolerance uint64) AuthError {
	for _, k := range []string{ParamConsumerKey, ParamSignatureMethod, ParamTimestamp, ParamNonce} {
		if _, found := a.Params.Get(k); !found {
			return errParameterMissing + badRequestError(k)
		}
	}
	if len(a.Signature) == 0 {
		return errParameterMissing + badRequestError(ParamSignature)
	}
	if a.Get(ParamSignatureMethod) != SignatureMethod {
		return errSignatureMethod
	}
	if v, found := a.Params.Get(ParamVersion); found && v != Version {
		return errVersion
	}

	timestampThen, err := strconv.ParseUint(a.Get(ParamTimestamp), 10, 64)
	if err != nil {
		return badRequestError(err.Error())
	}
	if abs64(int64(timestampRecv-timestampThen)) > timeTolerance {
		return errRequestTooOld
	}
	return nil
}

// SatisfiedBy tests if the request and secrets result in the same signature as given in the header.
//
// 'extra' are the raw query and form parameters, see SplitRawParams.
// As this is a rather costly function, call 'CheckFormal' first to avoid 'SatisfiedBy' where possible.
func (a *AuthorizationHeader) SatisfiedBy(method string, u *url.URL, extra Params, consumerSecret, tokenSecret string) bool {
	params := make(Params, 0, len(a.Params)+len(extra))
	params = append(params, a.Params...)
	params = append(params, extra...)
	expectedMAC := Sign(method, u, params, consumerSecret, tokenSecret)
	return hmac.Equal(a.Signature, expectedMAC)
}
