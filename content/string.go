// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package content

import (
	"context"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"blitznote.com/src/http.oauth/signature.oauth1"
)

// Well-known content types of single-part bodies.
const (
	TypeText           = "text/plain"
	TypeJSON           = "application/json"
	TypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// StringContent is a body of UTF-8 text, held in memory.
type StringContent struct {
	contentType string
	s           string
}

// NewStringContent returns a body of type contentType consisting of s.
// An empty contentType becomes "text/plain".
func NewStringContent(contentType, s string) *StringContent {
	if contentType == "" {
		contentType = TypeText
	}
	return &StringContent{contentType: contentType, s: s}
}

// Text returns s as "text/plain".
func Text(s string) *StringContent {
	return NewStringContent(TypeText, s)
}

// JSON returns the JSON encoding of v.
func JSON(v any) (*StringContent, error) {
	buf, err := sonic.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "content: encoding JSON")
	}
	return NewStringContent(TypeJSON, string(buf)), nil
}

// FormURLEncoded renders params in their order as "k=v&k2=v2",
// both sides percent-encoded the way signatures expect.
func FormURLEncoded(params []Parameter) *StringContent {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(oauth1.Encode(p.Key))
		b.WriteByte('=')
		b.WriteString(oauth1.Encode(p.Value))
	}
	return NewStringContent(TypeFormURLEncoded, b.String())
}

// String is the body exactly as it will be sent.
func (c *StringContent) String() string { return c.s }

// ContentType implements the Info interface.
func (c *StringContent) ContentType() string { return c.contentType }

// ContentTypeParameters implements the Info interface.
func (c *StringContent) ContentTypeParameters() []Parameter {
	return []Parameter{{Key: "charset", Value: "utf-8"}}
}

// ContentLength is the length of the UTF-8 bytes and always known.
func (c *StringContent) ContentLength() (int64, bool) {
	return int64(len(c.s)), true
}

// IsForm reports whether this body is "application/x-www-form-urlencoded"
// and thus takes part in the OAuth 1.0a signature.
func (c *StringContent) IsForm() bool {
	return strings.EqualFold(c.contentType, TypeFormURLEncoded)
}

// WriteTo implements the io.WriterTo interface.
func (c *StringContent) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.s)
	return int64(n), err
}

// WriteChunks implements the Writer interface.
//
// The final report always is {len, len}, even for an empty body.
func (c *StringContent) WriteChunks(ctx context.Context, w io.Writer, r Reporter) error {
	total := int64(len(c.s))
	var ir ItemReporter
	if r != nil {
		ir = ItemReporterFunc(func(n int64) {
			r.Report(Progress{Sent: n, Total: total, TotalKnown: true})
		})
	}
	counter := NewCounter(ir)
	if err := counter.WriteSlices(ctx, w, []byte(c.s)); err != nil {
		return err
	}
	if total == 0 && r != nil {
		if err := ctx.Err(); err != nil {
			return Canceled(err)
		}
		r.Report(Progress{Sent: 0, Total: 0, TotalKnown: true})
	}
	return nil
}
