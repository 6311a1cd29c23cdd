// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	oauth "blitznote.com/src/http.oauth"
	"blitznote.com/src/http.oauth/content"
	"blitznote.com/src/http.oauth/signature.oauth1"
)

// Global flags.
var (
	logLevel  string
	envPrefix string

	logger = zap.NewNop()
)

// Flags of the commands that sign requests.
var (
	credentialFlags oauth.Credentials
	bearerToken     string
	fixedNonce      string
	fixedTimestamp  int64
)

var rootCmd = &cobra.Command{
	Use:   "oauthsign",
	Short: "Sign HTTP requests with OAuth 1.0a, and receive signed uploads",
	Long: `Sign HTTP requests with OAuth 1.0a, and receive signed uploads.

Credentials are read from the environment, see --env-prefix,
unless --consumer-key is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
			return errors.Wrap(err, "--log-level")
		}
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "one of: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "OAUTH", "prefix of the environment variables to read credentials or configuration from")

	rootCmd.AddCommand(headerCmd, uploadCmd, serveCmd)
}

// addSigningFlags adds to commands that send or print signed requests.
func addSigningFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&credentialFlags.ConsumerKey, "consumer-key", "", "overrides <prefix>_CONSUMER_KEY and the like")
	f.StringVar(&credentialFlags.ConsumerSecret, "consumer-secret", "", "")
	f.StringVar(&credentialFlags.AccessToken, "token", "", "")
	f.StringVar(&credentialFlags.AccessTokenSecret, "token-secret", "", "")
	f.StringVar(&bearerToken, "bearer", "", "use this OAuth2 bearer token instead")
	f.StringVar(&fixedNonce, "nonce", "", "for reproducible signatures")
	f.Int64Var(&fixedTimestamp, "timestamp", 0, "for reproducible signatures, in seconds since the epoch")
}

// authorizer is what the flags and the environment amount to.
func authorizer() (oauth.Authorizer, error) {
	if bearerToken != "" {
		return oauth.Bearer{Token: bearerToken}, nil
	}

	creds := credentialFlags
	if creds.ConsumerKey == "" {
		var err error
		if creds, err = oauth.LoadCredentials(envPrefix); err != nil {
			return nil, err
		}
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("signing", zap.Object("credentials", creds))

	s := oauth.OAuth1{Credentials: creds, Logger: logger}
	if (fixedNonce != "") != (fixedTimestamp != 0) {
		return nil, errors.New("--nonce and --timestamp go together")
	}
	if fixedNonce != "" {
		s.Generator = oauth1.FixedGenerator{Nonce: fixedNonce, Timestamp: fixedTimestamp}
	}
	return s, nil
}

// parsePairs splits "key=value" arguments.
func parsePairs(pairs []string) ([]content.Parameter, error) {
	params := make([]content.Parameter, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("not of the form key=value: %q", p)
		}
		params = append(params, content.Parameter{Key: k, Value: v})
	}
	return params, nil
}
