// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Errors thrown by Verify.
const (
	errMethodUnauthorized forbiddenError    = "method not authorized"
	errSignatureMismatch  unauthorizedError = "signature mismatch"
	errBodyUnreadable     badRequestError   = "form body cannot be read"

	errFormTooLarge payloadTooLargeError = "form body exceeds the size limit"
)

// maxFormBody caps how much of a form-encoded body Verify will buffer.
const maxFormBody = 1 << 20

// SecretStore maps keys (consumer keys or tokens) to their shared secrets.
type SecretStore map[string]string

// Insert splits the tuples and adds/updates them into the existing collection.
//
// The format of each tuple is:
//  key=secret
//
// The first tuple that cannot be split is returned as error string.
func (m SecretStore) Insert(tuples []string) error {
	for idx := range tuples {
		p := strings.SplitN(tuples[idx], "=", 2)
		if len(p) != 2 || p[0] == "" {
			return badRequestError(tuples[idx])
		}
		m[p[0]] = p[1]
	}
	return nil
}

// Secrets is what a server needs to know to verify requests.
type Secrets struct {
	Consumers SecretStore
	Tokens    SecretStore
}

// RequestURL reconstructs the URL a client has signed.
//
// 'origin' is "scheme://host[:port]" as seen by clients; if nil,
// the scheme is guessed from r.TLS and the host taken from r.Host.
func RequestURL(r *http.Request, origin *url.URL) *url.URL {
	u := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if origin != nil {
		u.Scheme, u.Host = origin.Scheme, origin.Host
	}
	return u
}

// RawParams collects the parameters of r that take part in the signature:
// the raw query and, for form-encoded bodies, the raw body.
//
// The body is restored so that handlers further down can read it again.
// Form bodies larger than 1 MiB are left unread past that mark, and yield an AuthError.
func RawParams(r *http.Request) (Params, error) {
	raw := r.URL.RawQuery

	ctype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if r.Body != nil && strings.EqualFold(ctype, "application/x-www-form-urlencoded") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxFormBody {
			// Put back what has been read, ahead of the unread remainder.
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
			return nil, errFormTooLarge
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		raw += "&" + string(body)
	}

	return SplitRawParams(raw), nil
}

// Verify authenticates r, which is expected to carry an "Authorization: OAuth …" header.
//
// 'timestampRecv' is the Unix Timestamp at the time when the request has been received.
func Verify(r *http.Request, origin *url.URL, secrets Secrets, timestampRecv, timeTolerance uint64) (*AuthorizationHeader, AuthError) {
	if len(secrets.Consumers) == 0 {
		return nil, errMethodUnauthorized
	}

	var a AuthorizationHeader
	if err := a.Parse(r.Header.Get("Authorization")); err != nil {
		return nil, err
	}
	if err := a.CheckFormal(timestampRecv, timeTolerance); err != nil {
		return nil, err
	}

	consumerSecret, consumerFound := secrets.Consumers[a.Get(ParamConsumerKey)]
	var tokenSecret string
	tokenFound := true
	if token := a.Get(ParamToken); token != "" {
		tokenSecret, tokenFound = secrets.Tokens[token]
	}

	extra, err := RawParams(r)
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			return nil, authErr
		}
		return nil, errBodyUnreadable
	}

	// do this anyway to obscure if the key exists
	isSatisfied := a.SatisfiedBy(r.Method, RequestURL(r, origin), extra, consumerSecret, tokenSecret)

	if !consumerFound || !tokenFound {
		return nil, errMethodUnauthorized
	}
	if !isSatisfied {
		return nil, errSignatureMismatch
	}
	return &a, nil
}
