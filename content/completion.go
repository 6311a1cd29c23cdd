// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package content

import (
	"context"
	"io"
	"sync"
)

// Completion is the outcome of a write that runs in the background.
type Completion struct {
	done chan struct{}
	once sync.Once
	err  error
}

// Start writes c to w in its own goroutine, and returns immediately.
//
// Cancel ctx to stop after the current chunk.
func Start(ctx context.Context, c Writer, w io.Writer, r Reporter) *Completion {
	f := &Completion{done: make(chan struct{})}
	go func() {
		f.finish(c.WriteChunks(ctx, w, r))
	}()
	return f
}

func (f *Completion) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the write has returned.
func (f *Completion) Done() <-chan struct{} { return f.done }

// Wait blocks until the write has returned, and yields its error.
func (f *Completion) Wait() error {
	<-f.done
	return f.err
}

// Err is nil until Done has been closed.
func (f *Completion) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
