// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package formdata

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"blitznote.com/src/http.oauth/content"
)

// Defaults for anything that is not text.
const (
	DefaultContentType = "application/octet-stream"
	DefaultFileName    = "file"
)

// Kind tells the sources of items apart.
type Kind int

// Kinds of sources.
const (
	KindText     Kind = iota // a string, sent without content type or file name
	KindBuffer               // bytes in memory
	KindSequence             // bytes from an iterator, traversable once
	KindFile                 // a file that the item opens and closes for every write
	KindStream               // an open io.Reader, traversable once
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBuffer:
		return "buffer"
	case KindSequence:
		return "sequence"
	case KindFile:
		return "file"
	case KindStream:
		return "stream"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Errors of items.
const (
	ErrEmptyName errorString = "formdata: item name must not be empty"
	ErrConsumed  errorString = "formdata: source has already been read"
)

type errorString string

func (e errorString) Error() string { return string(e) }

// ByteSequence yields bytes one at a time.
//
// If it also has a method "Len() int" its length is considered known.
type ByteSequence interface {
	All() iter.Seq[byte]
}

// FileRef is the path to a file that an item shall send.
type FileRef string

// source is implemented by this package's variants only.
type source interface {
	kind() Kind
	length() (int64, bool)

	// write forwards everything through c, reusing buf for chunks if it needs one.
	write(ctx context.Context, w io.Writer, c *content.Counter, buf []byte) error
}

// Item is one part of a multipart/form-data body.
//
// Copies of an Item share its source.
type Item struct {
	name        string
	fileName    string
	contentType string
	src         source
}

// Option modifies an item during its construction.
type Option func(*Item) error

// WithFileName overrides the file name. It has no effect on text.
func WithFileName(name string) Option {
	return func(i *Item) error {
		if i.src.kind() != KindText {
			i.fileName = name
		}
		return nil
	}
}

// WithContentType overrides the content type. It has no effect on text.
func WithContentType(contentType string) Option {
	return func(i *Item) error {
		if i.src.kind() != KindText {
			i.contentType = contentType
		}
		return nil
	}
}

// WithDetectedContentType sniffs the content type of files and buffers.
// Other items keep theirs.
func WithDetectedContentType() Option {
	return func(i *Item) error {
		switch src := i.src.(type) {
		case *fileSource:
			m, err := mimetype.DetectFile(src.path)
			if err != nil {
				return errors.Wrapf(err, "formdata: detecting type of %q", src.path)
			}
			i.contentType = m.String()
		case bufferSource:
			i.contentType = mimetype.Detect(src).String()
		}
		return nil
	}
}

func newItem(name string, src source, opts []Option) (Item, error) {
	if name == "" {
		return Item{}, ErrEmptyName
	}
	i := Item{name: name, src: src}
	if src.kind() != KindText {
		i.fileName = DefaultFileName
		i.contentType = DefaultContentType
	}
	if f, ok := src.(*fileSource); ok {
		i.fileName = filepath.Base(f.path)
	}
	for _, opt := range opts {
		if err := opt(&i); err != nil {
			return Item{}, err
		}
	}
	return i, nil
}

// Text is a plain form field.
func Text(name, value string) (Item, error) {
	return newItem(name, textSource(value), nil)
}

// Buffer sends b, which must not be modified until the body has been written.
func Buffer(name string, b []byte, opts ...Option) (Item, error) {
	return newItem(name, bufferSource(b), opts)
}

// Sequence sends what seq yields. It can be written only once.
func Sequence(name string, seq ByteSequence, opts ...Option) (Item, error) {
	return newItem(name, &sequenceSource{seq: seq}, opts)
}

// File sends the file at path, using its base name as file name.
//
// Its size is taken now. The file gets opened on every write and closed before the write returns.
func File(name, path string, opts ...Option) (Item, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Item{}, errors.Wrap(err, "formdata")
	}
	if !fi.Mode().IsRegular() {
		return Item{}, errors.Errorf("formdata: not a regular file: %q", path)
	}
	return newItem(name, &fileSource{path: path, size: fi.Size()}, opts)
}

// Stream sends everything r yields. It can be written only once, and r is not closed.
//
// The length is known if r is an io.Seeker. In that case it is what remains
// from the current offset.
func Stream(name string, r io.Reader, opts ...Option) (Item, error) {
	src := &streamSource{r: r, size: -1}
	if s, ok := r.(io.Seeker); ok {
		src.size = remaining(s)
	}
	return newItem(name, src, opts)
}

// New picks the variant by the shape of v, in this order:
// io.Reader, []byte, ByteSequence, FileRef, and anything else as text by fmt.Sprint.
func New(name string, v any, opts ...Option) (Item, error) {
	switch x := v.(type) {
	case io.Reader:
		return Stream(name, x, opts...)
	case []byte:
		return Buffer(name, x, opts...)
	case ByteSequence:
		return Sequence(name, x, opts...)
	case FileRef:
		return File(name, string(x), opts...)
	}
	return newItem(name, textSource(fmt.Sprint(v)), opts)
}

// Name is the form field's name.
func (i Item) Name() string { return i.name }

// FileName is empty for text.
func (i Item) FileName() string { return i.fileName }

// ContentType is empty for text.
func (i Item) ContentType() string { return i.contentType }

// Kind of the source.
func (i Item) Kind() Kind { return i.src.kind() }

// ContentLength of the payload, without any multipart framing.
func (i Item) ContentLength() (int64, bool) { return i.src.length() }

// WriteTo writes the payload to w.
func (i Item) WriteTo(w io.Writer) (int64, error) {
	c := content.NewCounter(nil)
	err := i.src.write(context.Background(), w, c, nil)
	return c.Written(), err
}

// WriteChunks writes the payload to w, notifying r with the running total after every chunk.
func (i Item) WriteChunks(ctx context.Context, w io.Writer, r content.ItemReporter) error {
	return i.src.write(ctx, w, content.NewCounter(r), nil)
}

func chunkBuffer(buf []byte) []byte {
	if len(buf) == 0 {
		return make([]byte, content.ChunkSize)
	}
	return buf
}

func remaining(s io.Seeker) int64 {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err = s.Seek(cur, io.SeekStart); err != nil || end < cur {
		return -1
	}
	return end - cur
}

type textSource string

func (s textSource) kind() Kind            { return KindText }
func (s textSource) length() (int64, bool) { return int64(len(s)), true }
func (s textSource) write(ctx context.Context, w io.Writer, c *content.Counter, _ []byte) error {
	return c.WriteSlices(ctx, w, []byte(s))
}

type bufferSource []byte

func (s bufferSource) kind() Kind            { return KindBuffer }
func (s bufferSource) length() (int64, bool) { return int64(len(s)), true }
func (s bufferSource) write(ctx context.Context, w io.Writer, c *content.Counter, _ []byte) error {
	return c.WriteSlices(ctx, w, s)
}

type sequenceSource struct {
	seq  ByteSequence
	used atomic.Bool
}

func (s *sequenceSource) kind() Kind { return KindSequence }

func (s *sequenceSource) length() (int64, bool) {
	if l, ok := s.seq.(interface{ Len() int }); ok {
		return int64(l.Len()), true
	}
	return 0, false
}

func (s *sequenceSource) write(ctx context.Context, w io.Writer, c *content.Counter, buf []byte) error {
	if s.used.Swap(true) {
		return content.SourceFault(ErrConsumed)
	}
	buf = chunkBuffer(buf)
	var err error
	i := 0
	for b := range s.seq.All() {
		buf[i] = b
		i++
		if i == len(buf) {
			if err = c.WriteChunk(ctx, w, buf); err != nil {
				break
			}
			i = 0
		}
	}
	if err != nil || i == 0 {
		return err
	}
	return c.WriteChunk(ctx, w, buf[:i])
}

// openFile is replaced in tests to observe that every file gets closed.
var openFile = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

type fileSource struct {
	path string
	size int64
}

func (s *fileSource) kind() Kind            { return KindFile }
func (s *fileSource) length() (int64, bool) { return s.size, true }

func (s *fileSource) write(ctx context.Context, w io.Writer, c *content.Counter, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return content.Canceled(err)
	}
	f, err := openFile(s.path)
	if err != nil {
		return content.SourceFault(err)
	}
	defer f.Close()
	return copyChunks(ctx, w, f, c, buf)
}

type streamSource struct {
	r    io.Reader
	size int64 // -1 if unknown
	used atomic.Bool
}

func (s *streamSource) kind() Kind            { return KindStream }
func (s *streamSource) length() (int64, bool) { return s.size, s.size >= 0 }

func (s *streamSource) write(ctx context.Context, w io.Writer, c *content.Counter, buf []byte) error {
	if s.used.Swap(true) {
		return content.SourceFault(ErrConsumed)
	}
	return copyChunks(ctx, w, s.r, c, buf)
}

// copyChunks is io.CopyBuffer with a checkpoint before every chunk.
func copyChunks(ctx context.Context, w io.Writer, r io.Reader, c *content.Counter, buf []byte) error {
	buf = chunkBuffer(buf)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if err := c.WriteChunk(ctx, w, buf[:n]); err != nil {
				return err
			}
		}
		switch {
		case rerr == io.EOF:
			return nil
		case rerr != nil:
			return content.SourceFault(rerr)
		}
		if n == 0 {
			if err := ctx.Err(); err != nil {
				return content.Canceled(err)
			}
		}
	}
}
