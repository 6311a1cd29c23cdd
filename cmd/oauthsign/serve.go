// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blitznote.com/src/http.oauth/receiver"
)

const shutdownGracePeriod = 10 * time.Second

var (
	serveListen  string
	serveScope   string
	serveDir     string
	serveConfine bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive uploads, from signed requests",
	Long: `Receive uploads, from signed requests.

The configuration is read from variables <prefix>_WRITE_TO_PATH, <prefix>_CONSUMER_SECRETS and so on.
Use --env-prefix=UPLOAD to have UPLOAD_WRITE_TO_PATH and the like.`,
	Example: `  UPLOAD_CONSUMER_SECRETS=ck=cs UPLOAD_TOKEN_SECRETS=at=ats \
    oauthsign serve --env-prefix=UPLOAD --dir /var/uploads --scope /upload`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := receiver.LoadConfig(envPrefix)
		if err != nil {
			return err
		}
		if serveDir != "" {
			config.WriteToPath = serveDir
		}
		h, err := receiver.NewHandler(serveScope, config, nil, logger)
		if err != nil {
			return err
		}

		if serveConfine {
			if err := h.Confine(); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		srv := &http.Server{
			Addr:              serveListen,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", serveListen), zap.String("scope", serveScope))
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveScope, "scope", "/", "path prefix of uploads")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "where to store uploads, instead of <prefix>_WRITE_TO_PATH")
	serveCmd.Flags().BoolVar(&serveConfine, "confine", false, "on OpenBSD, see nothing of the file system but the destination")
}
