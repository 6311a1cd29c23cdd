// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package content

import (
	"context"
	"io"
)

// Progress of one body.
type Progress struct {
	Sent  int64
	Total int64 // valid only if TotalKnown

	TotalKnown bool
}

// Reporter receives aggregate progress of a body.
type Reporter interface {
	Report(Progress)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Progress)

// Report implements the Reporter interface.
func (f ReporterFunc) Report(p Progress) { f(p) }

// ItemReporter receives the cumulative number of bytes one writer has written.
type ItemReporter interface {
	BytesWritten(n int64)
}

// ItemReporterFunc adapts a function to the ItemReporter interface.
type ItemReporterFunc func(int64)

// BytesWritten implements the ItemReporter interface.
func (f ItemReporterFunc) BytesWritten(n int64) { f(n) }

// Counter accumulates the bytes that have passed through WriteChunk.
//
// Thread one Counter through all steps of a single write.
// It is not safe for concurrent use.
type Counter struct {
	n int64
	r ItemReporter
}

// NewCounter returns a Counter that notifies r after every chunk. r may be nil.
func NewCounter(r ItemReporter) *Counter {
	return &Counter{r: r}
}

// Written is the running total.
func (c *Counter) Written() int64 { return c.n }

// WriteChunk writes p to w as one chunk, unless ctx is done.
//
// Bytes that w accepted are counted even if it also returned an error.
func (c *Counter) WriteChunk(ctx context.Context, w io.Writer, p []byte) error {
	if err := ctx.Err(); err != nil {
		return Canceled(err)
	}
	n, err := w.Write(p)
	c.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return SinkFault(err)
	}
	if c.r != nil {
		c.r.BytesWritten(c.n)
	}
	return nil
}

// WriteSlices writes p in chunks of at most ChunkSize bytes.
func (c *Counter) WriteSlices(ctx context.Context, w io.Writer, p []byte) error {
	for len(p) > 0 {
		n := len(p)
		if n > ChunkSize {
			n = ChunkSize
		}
		if err := c.WriteChunk(ctx, w, p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
