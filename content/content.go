// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package content describes request bodies: how they announce type and length,
// and how they write themselves, either in one go or chunk by chunk
// with progress and cancellation.
//
// A body is single-use. It must not be written by two callers at the same time.
package content // import "blitznote.com/src/http.oauth/content"

import (
	"context"
	"io"
	"mime"
)

// ChunkSize is the size of the one buffer a streaming writer reuses.
const ChunkSize = 81920

// Parameter of a Content-Type, like "charset" or "boundary".
type Parameter struct {
	Key   string
	Value string
}

// Info is what is known about a body before it is written.
type Info interface {
	ContentType() string
	ContentTypeParameters() []Parameter

	// ContentLength reports false if the length cannot be known
	// without consuming the body.
	ContentLength() (int64, bool)
}

// Writer is a request body.
type Writer interface {
	Info

	// WriteTo writes the entire body to w before returning.
	io.WriterTo

	// WriteChunks writes the body as a sequence of w.Write calls, one per chunk.
	//
	// ctx is checked before every chunk. r, if not nil, is called after every chunk.
	WriteChunks(ctx context.Context, w io.Writer, r Reporter) error
}

// FormatContentType renders the value of a Content-Type header.
func FormatContentType(i Info) string {
	params := i.ContentTypeParameters()
	if len(params) == 0 {
		return i.ContentType()
	}
	m := make(map[string]string, len(params))
	for _, p := range params {
		m[p.Key] = p.Value
	}
	if s := mime.FormatMediaType(i.ContentType(), m); s != "" {
		return s
	}
	return i.ContentType()
}
