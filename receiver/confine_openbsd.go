// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package receiver

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Errors returned by Confine.
const (
	errUnveilE2BIG  errorString = "unveil: per-process limit reached"
	errUnveilENOENT errorString = "unveil: path does not exist"
	errUnveilEPERM  errorString = "unveil: called after locking"
)

func translateUnveilError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.E2BIG):
		return errUnveilE2BIG
	case errors.Is(err, syscall.ENOENT):
		return errUnveilENOENT
	case errors.Is(err, syscall.EPERM):
		return errUnveilEPERM
	}
	return errors.Wrap(err, "unveil")
}

// Confine limits file system access of this process to the destination of h.
//
// Call this last, after anything else has been opened,
// because any paths not unveiled by now become inaccessible.
func (h *Handler) Confine() error {
	if err := unix.Unveil(h.writeToPath, "rwc"); err != nil {
		return translateUnveilError(err)
	}
	return translateUnveilError(unix.UnveilBlock())
}
