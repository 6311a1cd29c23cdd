// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"blitznote.com/src/http.oauth/content"
)

var (
	headerMethod string
	headerForm   []string
)

var headerCmd = &cobra.Command{
	Use:   "header <url>",
	Short: "Print the Authorization header for a request",
	Example: `  # For use with curl
  curl -H "Authorization: $(oauthsign header https://api.example.com/1.1/account/verify_credentials.json)" \
    https://api.example.com/1.1/account/verify_credentials.json

  # Form bodies are part of the signature
  oauthsign header -X POST --form status=hello https://api.example.com/1.1/statuses/update.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil {
			return errors.Wrap(err, "url")
		}
		var body content.Info
		if len(headerForm) > 0 {
			params, err := parsePairs(headerForm)
			if err != nil {
				return err
			}
			body = content.FormURLEncoded(params)
		}
		auth, err := authorizer()
		if err != nil {
			return err
		}

		h, err := auth.AuthorizationHeader(strings.ToUpper(headerMethod), u, body)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h.String())
		return nil
	},
}

func init() {
	headerCmd.Flags().StringVarP(&headerMethod, "method", "X", "GET", "")
	headerCmd.Flags().StringArrayVar(&headerForm, "form", nil, "key=value, to be sent form-encoded")
	addSigningFlags(headerCmd)
}
