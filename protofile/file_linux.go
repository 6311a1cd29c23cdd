// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protofile

import (
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func init() {
	IntentNew = intentNewTmpfile
}

// Set once the kernel has been found to not know O_TMPFILE.
var tmpfileUnknown atomic.Bool

// tmpfileProtoFile is the variant that utilizes O_TMPFILE.
// Although it might seem that data is written to the parent directory itself,
// it actually goes into a nameless file.
type tmpfileProtoFile struct {
	*os.File

	persisted bool
	finalName string
}

func intentNewTmpfile(path, filename string) (ProtoFileBehaver, error) {
	if tmpfileUnknown.Load() {
		return intentNewUniversal(path, filename)
	}
	if err := os.MkdirAll(path, permBitsDir); err != nil {
		return nil, err
	}
	t, err := os.OpenFile(path, os.O_WRONLY|unix.O_TMPFILE, permBitsFile)
	switch {
	case err == nil:
	case errors.Is(err, unix.EISDIR), errors.Is(err, unix.ENOENT): // kernel does not know O_TMPFILE
		tmpfileUnknown.Store(true)
		return intentNewUniversal(path, filename)
	case errors.Is(err, unix.EOPNOTSUPP): // not on this filesystem
		return intentNewUniversal(path, filename)
	default:
		return nil, err
	}
	return &tmpfileProtoFile{File: t, finalName: filepath.Join(path, filename)}, nil
}

// Zap only closes the file, as unnamed files are discarded by the kernel.
func (p *tmpfileProtoFile) Zap() error {
	if p.persisted {
		return nil
	}
	return p.File.Close()
}

// Persist links the file descriptor to a name in the filesystem it has been opened on.
func (p *tmpfileProtoFile) Persist() error {
	if err := p.File.Sync(); err != nil {
		return err
	}

	oldpath := "/proc/self/fd/" + strconv.FormatUint(uint64(p.File.Fd()), 10)
	err := unix.Linkat(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, p.finalName, unix.AT_SYMLINK_FOLLOW)
	if errors.Is(err, unix.EEXIST) {
		// Overwrite, like Create would. Directories stay.
		if fi, statErr := os.Lstat(p.finalName); statErr == nil && !fi.IsDir() {
			os.Remove(p.finalName)
			err = unix.Linkat(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, p.finalName, unix.AT_SYMLINK_FOLLOW)
		}
	}
	if err != nil {
		return &os.LinkError{Op: "linkat", Old: oldpath, New: p.finalName, Err: err}
	}
	p.persisted = true
	return p.File.Close()
}

func (p *tmpfileProtoFile) SizeWillBe(numBytes int64) error {
	return reserve(p.File, numBytes)
}

// reserve allocates blocks past the end of the file, which is not extended.
func reserve(f *os.File, numBytes int64) error {
	if numBytes <= reserveFileSizeThreshold {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, numBytes)
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return nil
	}
	if err != nil {
		return &os.PathError{Op: "fallocate", Path: f.Name(), Err: err}
	}
	return nil
}
