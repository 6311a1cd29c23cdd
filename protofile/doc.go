// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package protofile implements files that don't appear in
// filesystem namespace until they are complete.
//
// On Linux the contents go into a nameless file opened with O_TMPFILE.
// Where that flag is unknown or the filesystem does not support it,
// and on any other system, they go into a dot-file
// in the destination directory which is renamed in the end.
//
// Unlike with traditional files with {Create, Write, Close},
// these have a lifecycle described by {IntentNew, Write, Persist or Zap}.
package protofile // import "blitznote.com/src/http.oauth/protofile"
