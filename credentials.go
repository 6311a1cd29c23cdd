// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Credentials of a client (consumer) and, optionally, of the user it acts for.
//
// The zero value of AccessToken denotes requests without a user context,
// such as those for obtaining a request token.
type Credentials struct {
	ConsumerKey       string `envconfig:"CONSUMER_KEY" required:"true"`
	ConsumerSecret    string `envconfig:"CONSUMER_SECRET" required:"true"`
	AccessToken       string `envconfig:"ACCESS_TOKEN"`
	AccessTokenSecret string `envconfig:"ACCESS_TOKEN_SECRET"`
}

const redacted = "(redacted)"

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// String never reveals any secrets.
func (c Credentials) String() string {
	return "Credentials{ConsumerKey:" + c.ConsumerKey +
		" ConsumerSecret:" + redact(c.ConsumerSecret) +
		" AccessToken:" + c.AccessToken +
		" AccessTokenSecret:" + redact(c.AccessTokenSecret) + "}"
}

// MarshalLogObject implements the zapcore.ObjectMarshaler interface,
// skipping all secrets.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("consumer_key", c.ConsumerKey)
	if c.AccessToken != "" {
		enc.AddString("access_token", c.AccessToken)
	}
	return nil
}

// Validate returns a PreconditionError if the credentials cannot sign anything.
func (c Credentials) Validate() error {
	switch {
	case c.ConsumerKey == "":
		return ErrNoConsumerKey
	case c.ConsumerSecret == "":
		return ErrNoConsumerSecret
	case c.AccessToken == "" && c.AccessTokenSecret != "":
		return ErrTokenSecretNoToken
	}
	return nil
}

// LoadCredentials reads credentials from the environment.
//
// With prefix "TWITTER" these are
// TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_TOKEN_SECRET,
// of which the first two are required.
func LoadCredentials(prefix string) (Credentials, error) {
	var c Credentials
	if err := envconfig.Process(prefix, &c); err != nil {
		return c, errors.Wrap(err, "oauth: loading credentials")
	}
	return c, c.Validate()
}
