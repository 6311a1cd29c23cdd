// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package content

import (
	"github.com/pkg/errors"
)

// canceledError means the caller chose to stop.
// Bytes written until then are not taken back.
type canceledError struct{ cause error }

func (e *canceledError) Error() string { return "content: write canceled: " + e.cause.Error() }
func (e *canceledError) Cause() error  { return e.cause }
func (e *canceledError) Unwrap() error { return e.cause }

// sourceError is a failure to read what is to be written, such as a file.
type sourceError struct{ cause error }

func (e *sourceError) Error() string { return "content: reading source: " + e.cause.Error() }
func (e *sourceError) Cause() error  { return e.cause }
func (e *sourceError) Unwrap() error { return e.cause }

// sinkError is a failure of the destination, usually the connection.
type sinkError struct{ cause error }

func (e *sinkError) Error() string { return "content: writing: " + e.cause.Error() }
func (e *sinkError) Cause() error  { return e.cause }
func (e *sinkError) Unwrap() error { return e.cause }

// Canceled marks err, usually ctx.Err(), as cancellation.
func Canceled(err error) error {
	if err == nil || IsCanceled(err) {
		return err
	}
	return &canceledError{cause: err}
}

// SourceFault marks err as failure to read the body's source.
func SourceFault(err error) error {
	if err == nil || IsSourceFault(err) {
		return err
	}
	return &sourceError{cause: err}
}

// SinkFault marks err as failure of the destination.
func SinkFault(err error) error {
	if err == nil || IsSinkFault(err) {
		return err
	}
	return &sinkError{cause: err}
}

// IsCanceled reports whether the write stopped because its context was done.
func IsCanceled(err error) bool {
	var e *canceledError
	return errors.As(err, &e)
}

// IsSourceFault reports whether the write stopped because a source could not be read.
func IsSourceFault(err error) bool {
	var e *sourceError
	return errors.As(err, &e)
}

// IsSinkFault reports whether the write stopped because the destination failed.
func IsSinkFault(err error) bool {
	var e *sinkError
	return errors.As(err, &e)
}
