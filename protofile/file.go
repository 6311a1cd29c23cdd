// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protofile

import (
	"io"
	"os"
	"path/filepath"
)

// ProtoFileBehaver is a file that has yet to be named.
type ProtoFileBehaver interface {
	io.Writer

	// Zap discards the file. It is a no-op once the file has been persisted.
	Zap() error

	// Persist makes the file appear under its final name, and closes it.
	// A file that had that name before is replaced.
	Persist() error

	// SizeWillBe asks the filesystem to reserve space for numBytes.
	// The file's apparent size is not changed.
	SizeWillBe(numBytes int64) error
}

// Reservations below this size are not worth the syscall.
const reserveFileSizeThreshold = 1 << 15

const (
	permBitsDir  = 0o750
	permBitsFile = 0o600
)

// IntentNew starts a file that will be found in directory 'path' under 'filename'
// once it has been persisted. Missing directories are created.
var IntentNew = intentNewUniversal

// generalizedProtoFile is a dot-file that gets renamed.
type generalizedProtoFile struct {
	*os.File

	persisted bool
	finalName string
}

func intentNewUniversal(path, filename string) (ProtoFileBehaver, error) {
	if err := os.MkdirAll(path, permBitsDir); err != nil {
		return nil, err
	}
	t, err := os.CreateTemp(path, "."+filename+".*")
	if err != nil {
		return nil, err
	}
	return &generalizedProtoFile{File: t, finalName: filepath.Join(path, filename)}, nil
}

func (p *generalizedProtoFile) Zap() error {
	if p.persisted {
		return nil
	}
	p.File.Close()
	return os.Remove(p.File.Name())
}

func (p *generalizedProtoFile) Persist() error {
	if err := p.File.Sync(); err != nil {
		return err
	}
	if err := p.File.Close(); err != nil {
		return err
	}
	if err := os.Rename(p.File.Name(), p.finalName); err != nil {
		return err
	}
	p.persisted = true
	return nil
}

func (p *generalizedProtoFile) SizeWillBe(numBytes int64) error {
	return reserve(p.File, numBytes)
}
