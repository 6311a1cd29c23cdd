// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blitznote.com/src/http.oauth/content"
	"blitznote.com/src/http.oauth/signature.oauth1"
)

// AuthorizationHeaderValue is the value of header "Authorization".
type AuthorizationHeaderValue struct {
	Scheme    string
	Parameter string
}

// String renders "scheme parameter", or only the scheme if there is no parameter.
func (v AuthorizationHeaderValue) String() string {
	if v.Parameter == "" {
		return v.Scheme
	}
	return v.Scheme + " " + v.Parameter
}

// Authorizer produces the header "Authorization" for one request.
//
// body is nil for requests without one.
type Authorizer interface {
	AuthorizationHeader(method string, u *url.URL, body content.Info) (AuthorizationHeaderValue, error)
}

// OAuth1 signs requests with HMAC-SHA1.
type OAuth1 struct {
	Credentials

	// Generator defaults to oauth1.Generator, which uses the clock and crypto/rand.
	Generator oauth1.ParameterGenerator

	// Logger, if set, learns on level Debug what has been signed. It never gets secrets.
	Logger *zap.Logger
}

// AuthorizationHeader implements the Authorizer interface.
//
// The query of u and a body of type "application/x-www-form-urlencoded"
// are signed as they are, without decoding or encoding them again.
func (o OAuth1) AuthorizationHeader(method string, u *url.URL, body content.Info) (AuthorizationHeaderValue, error) {
	if u == nil {
		return AuthorizationHeaderValue{}, ErrNilURL
	}
	if err := o.Credentials.Validate(); err != nil {
		return AuthorizationHeaderValue{}, err
	}
	gen := o.Generator
	if gen == nil {
		gen = oauth1.Generator{}
	}

	params, err := gen.Generate(o.ConsumerKey, o.AccessToken)
	if err != nil {
		return AuthorizationHeaderValue{}, errors.Wrap(err, "oauth")
	}
	signed := append(oauth1.Params(nil), params...)
	signed = append(signed, oauth1.SplitRawParams(u.RawQuery)...)
	if form, ok := body.(*content.StringContent); ok && form != nil && form.IsForm() {
		signed = append(signed, oauth1.SplitRawParams(form.String())...)
	}

	sig := oauth1.SignBase64(method, u, signed, o.ConsumerSecret, o.AccessTokenSecret)
	params.Add(oauth1.ParamSignature, sig)

	if o.Logger != nil {
		o.Logger.Debug("Signed request",
			zap.String("method", strings.ToUpper(method)),
			zap.String("url", oauth1.BaseURL(u)),
			zap.Int("params", len(signed)),
			zap.Object("credentials", o.Credentials))
	}

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(oauth1.Encode(p.Key))
		b.WriteString(`="`)
		b.WriteString(oauth1.Encode(p.Value))
		b.WriteByte('"')
	}
	return AuthorizationHeaderValue{Scheme: oauth1.Scheme, Parameter: b.String()}, nil
}

// Bearer authorizes with an OAuth 2 token, as obtained by the "client credentials" grant.
type Bearer struct {
	Token string
}

// AuthorizationHeader implements the Authorizer interface.
func (b Bearer) AuthorizationHeader(string, *url.URL, content.Info) (AuthorizationHeaderValue, error) {
	if b.Token == "" {
		return AuthorizationHeaderValue{}, ErrNoBearerToken
	}
	return AuthorizationHeaderValue{Scheme: "Bearer", Parameter: b.Token}, nil
}

// BasicClientCredentials is what a client sends to get or revoke a bearer token.
func BasicClientCredentials(consumerKey, consumerSecret string) (AuthorizationHeaderValue, error) {
	switch {
	case consumerKey == "":
		return AuthorizationHeaderValue{}, ErrNoConsumerKey
	case consumerSecret == "":
		return AuthorizationHeaderValue{}, ErrNoConsumerSecret
	}
	return AuthorizationHeaderValue{
		Scheme:    "Basic",
		Parameter: base64.StdEncoding.EncodeToString([]byte(consumerKey + ":" + consumerSecret)),
	}, nil
}

// QueryString renders params as "k=v&k2=v2", both sides percent-encoded,
// ready to be used as url.URL.RawQuery.
func QueryString(params oauth1.Params) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(oauth1.Encode(p.Key))
		b.WriteByte('=')
		b.WriteString(oauth1.Encode(p.Value))
	}
	return b.String()
}
