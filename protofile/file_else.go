// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package protofile

import (
	"os"
)

// reserve is a no-op here, for want of a call that reserves space
// without also growing the file.
func reserve(_ *os.File, _ int64) error {
	return nil
}
