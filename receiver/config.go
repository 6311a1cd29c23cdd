// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package receiver

import (
	"net/url"
	"os"
	"unicode"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Config of one scope.
//
// With LoadConfig("UPLOAD") field WriteToPath is read from UPLOAD_WRITE_TO_PATH, and so on.
type Config struct {
	// The upload destination, a directory.
	WriteToPath string `envconfig:"WRITE_TO_PATH"`

	// How big a difference between 'now' and a request's timestamp is tolerated, in seconds.
	TimestampTolerance uint64 `envconfig:"TIMESTAMP_TOLERANCE" default:"4"`

	// Larger files are rejected. Zero means no limit.
	MaxFilesize int64 `envconfig:"MAX_FILESIZE"`

	// Tuples "key=secret", for consumers and for tokens.
	// Request verification is disabled if there are no consumers.
	ConsumerSecrets []string `envconfig:"CONSUMER_SECRETS"`
	TokenSecrets    []string `envconfig:"TOKEN_SECRETS"`

	// Scheme and host as clients see them, like "https://upload.example.com".
	// Needed behind proxies that don't pass "Host".
	Origin string `envconfig:"ORIGIN"`

	// Space-separated Unicode ranges which file names must be in, see ParseRanges.
	AcceptableRunes string `envconfig:"ACCEPTABLE_RUNES"`

	// A skilled attacker will monitor traffic and timings.
	// Enabling this merely obscures the path, by passing on unauthenticated requests.
	SilenceAuthErrors bool `envconfig:"SILENT_AUTH_ERRORS"`
}

// NewDefaultConfig is what you get without any environment variables but the destination.
func NewDefaultConfig(writeToPath string) Config {
	return Config{
		WriteToPath:        writeToPath,
		TimestampTolerance: 1 << 2,
	}
}

// LoadConfig reads the configuration from environment variables that start with prefix.
func LoadConfig(prefix string) (Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return c, errors.Wrap(err, "receiver: loading configuration")
	}
	return c, nil
}

// validate rejects configurations that could not possibly work.
func (c Config) validate() error {
	if c.WriteToPath == "" {
		return errors.New("receiver: no destination given")
	}
	fi, err := os.Stat(c.WriteToPath)
	if err != nil {
		return errors.Wrap(err, "receiver")
	}
	if !fi.IsDir() {
		return errors.Errorf("receiver: destination is not a directory: %q", c.WriteToPath)
	}
	if c.TimestampTolerance > 1<<16 {
		return errors.New("receiver: the timestamp tolerance must not exceed 65536 seconds")
	}
	if c.MaxFilesize < 0 {
		return errors.New("receiver: the maximum file size must not be negative")
	}
	return nil
}

func (c Config) origin() (*url.URL, error) {
	if c.Origin == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, errors.Wrap(err, "receiver: origin")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("receiver: origin lacks scheme or host: %q", c.Origin)
	}
	return u, nil
}

func (c Config) fileNamePolicy() (FileNamePolicy, error) {
	nfc := norm.NFC
	p := FileNamePolicy{Form: &nfc}
	if c.AcceptableRunes != "" {
		rt, err := ParseRanges(c.AcceptableRunes)
		if err != nil {
			return p, errors.Wrap(err, "receiver")
		}
		p.Ranges = []*unicode.RangeTable{rt}
	}
	return p, nil
}
