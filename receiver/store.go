// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package receiver

import (
	"io"

	"blitznote.com/src/http.oauth/protofile"
)

// writeFileFromReader copies r into a new file, which emerges only if that succeeded.
//
// If 'anticipatedSize' is known, disk space is reserved before writing.
// Running out of it is then reported early, before anything has been read from r.
func writeFileFromReader(dir, name string, r io.Reader, anticipatedSize int64) (int64, error) {
	w, err := protofile.IntentNew(dir, name)
	if err != nil {
		return 0, err
	}
	defer w.Zap()

	if anticipatedSize > 0 {
		if err := w.SizeWillBe(anticipatedSize); err != nil {
			return 0, err
		}
	}

	n, err := io.Copy(w, r)
	if err != nil {
		return n, err
	}
	return n, w.Persist()
}
