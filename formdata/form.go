// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package formdata encodes multipart/form-data request bodies
// whose parts can be larger than what one would keep in memory.
package formdata // import "blitznote.com/src/http.oauth/formdata"

import (
	"context"
	"crypto/rand"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blitznote.com/src/http.oauth/content"
)

// ContentType of every Form.
const ContentType = "multipart/form-data"

var crlf = []byte("\r\n")

// Line breaks and double quotes would end the parameter or even the header.
// All three get replaced in one pass so that no replacement is escaped again.
var fileNameEscaper = strings.NewReplacer("\r", "%0D", "\n", "%0A", `"`, "%22")

// EscapeFileName is applied to the "filename" parameter of every part.
func EscapeFileName(name string) string {
	return fileNameEscaper.Replace(name)
}

// Form is a multipart/form-data body.
//
// Its framing is computed on construction. Like its items, a Form must not be
// written by more than one caller at a time.
type Form struct {
	boundary string
	items    []Item
	headers  [][]byte
	closing  []byte

	length      int64
	lengthKnown bool

	log *zap.Logger
}

// FormOption configures a Form.
type FormOption func(*formConfig)

type formConfig struct {
	entropy io.Reader
	log     *zap.Logger
}

// WithEntropy sets the source of the boundary's randomness.
func WithEntropy(r io.Reader) FormOption {
	return func(c *formConfig) { c.entropy = r }
}

// WithLogger gets a Form to log on level Debug.
func WithLogger(log *zap.Logger) FormOption {
	return func(c *formConfig) { c.log = log }
}

// NewForm frames items, in the given order.
func NewForm(items []Item, opts ...FormOption) (*Form, error) {
	cfg := formConfig{entropy: rand.Reader}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = zap.NewNop()
	}
	for _, i := range items {
		if i.name == "" || i.src == nil {
			return nil, ErrEmptyName
		}
	}

	id, err := uuid.NewRandomFromReader(cfg.entropy)
	if err != nil {
		return nil, errors.Wrap(err, "formdata: generating the boundary")
	}
	f := &Form{
		boundary: id.String(),
		items:    append([]Item(nil), items...),
		log:      cfg.log,
	}
	f.closing = []byte("--" + f.boundary + "--")
	f.headers = make([][]byte, len(f.items))
	for n, i := range f.items {
		f.headers[n] = f.header(i)
	}
	f.length, f.lengthKnown = f.computeLength()
	return f, nil
}

func (f *Form) header(i Item) []byte {
	var b strings.Builder
	b.WriteString("--")
	b.WriteString(f.boundary)
	b.WriteString("\r\n")
	if i.contentType != "" {
		b.WriteString("Content-Type: ")
		b.WriteString(i.contentType)
		b.WriteString("\r\n")
	}
	b.WriteString(`Content-Disposition: form-data; name="`)
	b.WriteString(i.name)
	b.WriteByte('"')
	if i.fileName != "" {
		b.WriteString(`; filename="`)
		b.WriteString(EscapeFileName(i.fileName))
		b.WriteByte('"')
	}
	b.WriteString("\r\n\r\n")
	return []byte(b.String())
}

func (f *Form) computeLength() (int64, bool) {
	var total int64
	for n, i := range f.items {
		l, known := i.ContentLength()
		if !known {
			return 0, false
		}
		total += l + int64(len(f.headers[n])) + int64(len(crlf))
	}
	return total + int64(len(f.closing)), true
}

// Boundary separates the parts.
func (f *Form) Boundary() string { return f.boundary }

// Items in the order they are written.
func (f *Form) Items() []Item { return append([]Item(nil), f.items...) }

// ContentType implements the content.Info interface.
func (f *Form) ContentType() string { return ContentType }

// ContentTypeParameters implements the content.Info interface.
func (f *Form) ContentTypeParameters() []content.Parameter {
	return []content.Parameter{{Key: "boundary", Value: f.boundary}}
}

// ContentLength is known if all items' lengths are.
func (f *Form) ContentLength() (int64, bool) { return f.length, f.lengthKnown }

// WriteTo implements the io.WriterTo interface.
func (f *Form) WriteTo(w io.Writer) (int64, error) {
	c := content.NewCounter(nil)
	err := f.write(context.Background(), w, c)
	return c.Written(), err
}

// WriteChunks implements the content.Writer interface.
//
// r learns the number of bytes written after every chunk, and is called once more on success.
// If the length had not been known, that last report has it.
func (f *Form) WriteChunks(ctx context.Context, w io.Writer, r content.Reporter) error {
	var ir content.ItemReporter
	if r != nil {
		ir = content.ItemReporterFunc(func(n int64) {
			r.Report(content.Progress{Sent: n, Total: f.length, TotalKnown: f.lengthKnown})
		})
	}
	c := content.NewCounter(ir)

	f.log.Debug("Writing multipart body",
		zap.String("boundary", f.boundary), zap.Int("items", len(f.items)))
	err := f.write(ctx, w, c)
	if err != nil {
		f.log.Debug("Multipart body aborted", zap.Int64("written", c.Written()), zap.Error(err))
		return err
	}
	f.log.Debug("Multipart body written", zap.Int64("written", c.Written()))

	if r != nil {
		total := f.length
		if !f.lengthKnown {
			total = c.Written()
		}
		r.Report(content.Progress{Sent: c.Written(), Total: total, TotalKnown: true})
	}
	return nil
}

// write threads one counter through all parts, so it sees the whole body.
func (f *Form) write(ctx context.Context, w io.Writer, c *content.Counter) error {
	var buf []byte
	for n, i := range f.items {
		if err := c.WriteChunk(ctx, w, f.headers[n]); err != nil {
			return err
		}
		switch i.src.kind() {
		case KindSequence, KindFile, KindStream:
			if buf == nil {
				buf = make([]byte, content.ChunkSize)
			}
		}
		if err := i.src.write(ctx, w, c, buf); err != nil {
			return errors.WithMessagef(err, "formdata: item %q", i.name)
		}
		if err := c.WriteChunk(ctx, w, crlf); err != nil {
			return err
		}
	}
	return c.WriteChunk(ctx, w, f.closing)
}
