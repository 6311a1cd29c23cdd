// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	oauth "blitznote.com/src/http.oauth"
	"blitznote.com/src/http.oauth/content"
	"blitznote.com/src/http.oauth/formdata"
)

// How often progress gets printed at most.
const progressInterval = 250 * time.Millisecond

var (
	uploadFields     []string
	uploadDetectType bool
	uploadQuiet      bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <url> [field=]file…",
	Short: "Upload files in one signed multipart/form-data request",
	Example: `  oauthsign upload --field status=hello https://uploads.example.com/upload/ media=a.png notes.txt`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil {
			return errors.Wrap(err, "url")
		}
		form, err := buildForm(uploadFields, args[1:], uploadDetectType)
		if err != nil {
			return err
		}
		auth, err := authorizer()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		progress := make(chan content.Progress)
		done := make(chan struct{})
		r := &oauth.Request{URL: u, Body: form, Auth: auth, Logger: logger}
		req, err := r.HTTPRequest(ctx, content.ReporterFunc(func(p content.Progress) {
			select {
			case progress <- p:
			case <-done:
			}
		}))
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(done)
			resp, err := http.DefaultClient.Do(req.WithContext(ctx))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
				return errors.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
			}
			_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
			return err
		})
		g.Go(func() error {
			printProgress(cmd.ErrOrStderr(), progress, done)
			return nil
		})
		return g.Wait()
	},
}

func init() {
	uploadCmd.Flags().StringArrayVar(&uploadFields, "field", nil, "key=value, sent as text field")
	uploadCmd.Flags().BoolVar(&uploadDetectType, "detect-type", true, "derive the Content-Type of files from their contents")
	uploadCmd.Flags().BoolVarP(&uploadQuiet, "quiet", "q", false, "don't print any progress")
	addSigningFlags(uploadCmd)
}

// buildForm puts the fields first, then the files.
// Files without a field name are sent as "file".
func buildForm(fields, files []string, detectType bool) (*formdata.Form, error) {
	params, err := parsePairs(fields)
	if err != nil {
		return nil, err
	}
	items := make([]formdata.Item, 0, len(params)+len(files))
	for _, p := range params {
		item, err := formdata.Text(p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	var opts []formdata.Option
	if detectType {
		opts = append(opts, formdata.WithDetectedContentType())
	}
	for _, f := range files {
		name, path, ok := strings.Cut(f, "=")
		if !ok {
			name, path = formdata.DefaultFileName, f
		}
		item, err := formdata.File(name, path, opts...)
		if err != nil {
			return nil, err
		}
		logger.Debug("adding file", zap.String("field", name), zap.String("path", path),
			zap.String("type", item.ContentType()))
		items = append(items, item)
	}
	return formdata.NewForm(items, formdata.WithLogger(logger))
}

// printProgress writes a line every progressInterval at most, and a final one.
func printProgress(w io.Writer, progress <-chan content.Progress, done <-chan struct{}) {
	var (
		last content.Progress
		seen bool
	)
	s := rate.Sometimes{Interval: progressInterval}
	for {
		select {
		case p := <-progress:
			last, seen = p, true
			if !uploadQuiet {
				s.Do(func() { fmt.Fprintln(w, formatProgress(p)) })
			}
		case <-done:
			if seen && !uploadQuiet {
				fmt.Fprintln(w, formatProgress(last))
			}
			return
		}
	}
}

func formatProgress(p content.Progress) string {
	if !p.TotalKnown || p.Total == 0 {
		return fmt.Sprintf("%d bytes sent", p.Sent)
	}
	return fmt.Sprintf("%d of %d bytes sent (%.1f%%)", p.Sent, p.Total, float64(p.Sent)*100/float64(p.Total))
}
