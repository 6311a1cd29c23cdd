// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blitznote.com/src/http.oauth/content"
)

// Request is what is needed to compose a signed http.Request.
type Request struct {
	// Method defaults to GET, or POST if there is a Body.
	Method string
	URL    *url.URL
	Header http.Header

	Body content.Writer // optional
	Auth Authorizer     // optional

	Logger *zap.Logger
}

// HTTPRequest composes, but does not send, the request.
//
// The body gets written only once the transport starts reading it,
// and is streamed without being held in memory. progress (which can be nil)
// then learns how much of it has been written. Cancel ctx to abort writing.
//
// Headers "Content-Type" and "Authorization" from r.Header get replaced.
func (r *Request) HTTPRequest(ctx context.Context, progress content.Reporter) (*http.Request, error) {
	if r.URL == nil {
		return nil, ErrNilURL
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	method := r.Method
	switch {
	case method != "":
	case r.Body != nil:
		method = http.MethodPost
	default:
		method = http.MethodGet
	}

	var auth AuthorizationHeaderValue
	if r.Auth != nil {
		var info content.Info
		if r.Body != nil {
			info = r.Body
		}
		var err error
		if auth, err = r.Auth.AuthorizationHeader(method, r.URL, info); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "oauth: composing request")
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}
	if r.Auth != nil {
		req.Header.Set("Authorization", auth.String())
	}
	if r.Body == nil {
		return req, nil
	}

	req.Header.Set("Content-Type", content.FormatContentType(r.Body))
	n, known := r.Body.ContentLength()
	switch {
	case known && n == 0:
		req.Body = http.NoBody
		return req, nil
	case known:
		req.ContentLength = n
	default:
		req.ContentLength = -1 // chunked
	}
	req.Body = newPipeBody(ctx, r.Body, progress, log)
	return req, nil
}

// pipeBody starts writing the content once it is read for the first time.
type pipeBody struct {
	*io.PipeReader
	start func()
	once  sync.Once
}

func newPipeBody(ctx context.Context, c content.Writer, progress content.Reporter, log *zap.Logger) *pipeBody {
	pr, pw := io.Pipe()
	b := &pipeBody{PipeReader: pr}
	b.start = func() {
		log.Debug("Streaming request body", zap.String("content_type", c.ContentType()))
		done := content.Start(ctx, c, pw, progress)
		go func() {
			err := done.Wait()
			if err != nil {
				log.Debug("Request body aborted", zap.Error(err))
			}
			pw.CloseWithError(err) // EOF for nil
		}()
	}
	return b
}

func (b *pipeBody) Read(p []byte) (int, error) {
	b.once.Do(b.start)
	return b.PipeReader.Read(p)
}

// Close lets an unfinished write fail and stop.
func (b *pipeBody) Close() error {
	b.once.Do(func() {}) // never start after this
	return b.PipeReader.Close()
}
