// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command oauthsign signs requests using OAuth 1.0a, uploads files with them,
// and runs a server which receives such uploads.
package main // import "blitznote.com/src/http.oauth/cmd/oauthsign"

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
