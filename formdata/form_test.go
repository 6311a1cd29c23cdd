// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package formdata

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"blitznote.com/src/http.oauth/content"
)

const zeroBoundary = "00000000-0000-4000-8000-000000000000"

func zeroEntropy() FormOption {
	return WithEntropy(bytes.NewReader(make([]byte, 16)))
}

func mustItem(i Item, err error) Item {
	if err != nil {
		panic(err)
	}
	return i
}

func TestFormFraming(t *testing.T) {
	Convey("A form of a text field and a file", t, func() {
		path := writeFile(t, "a.png", 1024)
		f, err := NewForm([]Item{
			mustItem(Text("status", "hello")),
			mustItem(File("media", path)),
		}, zeroEntropy())
		So(err, ShouldBeNil)

		header1 := "--" + zeroBoundary + "\r\n" +
			`Content-Disposition: form-data; name="status"` + "\r\n\r\n"
		header2 := "--" + zeroBoundary + "\r\n" +
			"Content-Type: application/octet-stream\r\n" +
			`Content-Disposition: form-data; name="media"; filename="a.png"` + "\r\n\r\n"
		closing := "--" + zeroBoundary + "--"

		Convey("has a deterministic boundary", func() {
			So(f.Boundary(), ShouldEqual, zeroBoundary)
			So(f.ContentType(), ShouldEqual, "multipart/form-data")
			So(content.FormatContentType(f), ShouldEqual, "multipart/form-data; boundary="+zeroBoundary)
		})

		Convey("knows its length in advance", func() {
			n, known := f.ContentLength()
			So(known, ShouldBeTrue)
			So(n, ShouldEqual, len(header1)+5+2+len(header2)+1024+2+len(closing))
			So(n, ShouldEqual, 1308)
		})

		Convey("writes exactly that", func() {
			var buf bytes.Buffer
			n, err := f.WriteTo(&buf)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1308)
			So(buf.String(), ShouldEqual, header1+"hello\r\n"+header2+strings.Repeat("x", 1024)+"\r\n"+closing)
		})
	})

	Convey("The length, when known, is what gets written", t, func() {
		path := writeFile(t, "data.bin", 3*content.ChunkSize+7)
		samples := [][]Item{
			nil,
			{mustItem(Text("a", ""))},
			{mustItem(Text("a", "Grüße")), mustItem(Buffer("b", []byte("\x00\x01"), WithFileName("x\"y\r\n")))},
			{mustItem(File("f", path)), mustItem(Sequence("s", sizedSeq{byteSeq("seq")}))},
			{mustItem(Stream("r", strings.NewReader(strings.Repeat("r", content.ChunkSize+1)), WithContentType("text/plain")))},
		}
		for _, items := range samples {
			f, err := NewForm(items)
			So(err, ShouldBeNil)
			n, known := f.ContentLength()
			So(known, ShouldBeTrue)
			written, err := f.WriteTo(io.Discard)
			So(err, ShouldBeNil)
			So(written, ShouldEqual, n)
		}
	})

	Convey("Any unknown length makes the form's unknown", t, func() {
		f, err := NewForm([]Item{
			mustItem(Text("a", "b")),
			mustItem(Sequence("s", byteSeq("abc"))),
		})
		So(err, ShouldBeNil)
		_, known := f.ContentLength()
		So(known, ShouldBeFalse)
	})

	Convey("Items without a name are refused", t, func() {
		_, err := NewForm([]Item{{}})
		So(err, ShouldEqual, ErrEmptyName)
	})

	Convey("File names are escaped in one pass", t, FailureContinues, func() {
		samples := []struct{ input, expected string }{
			{"a.png", "a.png"},
			{"a\r\nb", "a%0D%0Ab"},
			{`say "cheese".jpg`, "say %22cheese%22.jpg"},
			{"\"\n", "%22%0A"},
			{"100%0A.txt", "100%0A.txt"},
		}
		for _, row := range samples {
			So(EscapeFileName(row.input), ShouldEqual, row.expected)
		}
	})
}

func TestFormWireFormat(t *testing.T) {
	Convey("A written form can be read by mime/multipart", t, func() {
		path := writeFile(t, "report.txt", 100)
		f, err := NewForm([]Item{
			mustItem(Text("status", "hello")),
			mustItem(Buffer("blob", []byte("\x00\x01\x02"), WithContentType("application/x-blob"))),
			mustItem(Sequence("seq", byteSeq("sequence"), WithFileName(`we"ird`))),
			mustItem(File("doc", path)),
			mustItem(Stream("stream", io.MultiReader(strings.NewReader("streamed")))),
		})
		So(err, ShouldBeNil)

		var buf bytes.Buffer
		So(f.WriteChunks(context.Background(), &buf, nil), ShouldBeNil)

		mediaType, params, err := mime.ParseMediaType(content.FormatContentType(f))
		So(err, ShouldBeNil)
		So(mediaType, ShouldEqual, "multipart/form-data")

		type part struct{ name, fileName, contentType, body string }
		var got []part
		r := multipart.NewReader(&buf, params["boundary"])
		for {
			p, err := r.NextPart()
			if err == io.EOF {
				break
			}
			So(err, ShouldBeNil)
			body, err := io.ReadAll(p)
			So(err, ShouldBeNil)
			got = append(got, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(body)})
		}

		So(got, ShouldResemble, []part{
			{"status", "", "", "hello"},
			{"blob", "file", "application/x-blob", "\x00\x01\x02"},
			{"seq", "we%22ird", DefaultContentType, "sequence"},
			{"doc", "report.txt", DefaultContentType, strings.Repeat("x", 100)},
			{"stream", "file", DefaultContentType, "streamed"},
		})
	})
}

// countingReader produces size bytes on demand and remembers the largest request.
type countingReader struct {
	size, read int64
	largest    int
}

func (r *countingReader) Read(p []byte) (int, error) {
	if r.read >= r.size {
		return 0, io.EOF
	}
	if len(p) > r.largest {
		r.largest = len(p)
	}
	n := int64(len(p))
	if left := r.size - r.read; n > left {
		n = left
	}
	for i := range p[:n] {
		p[i] = 'z'
	}
	r.read += n
	return int(n), nil
}

// sizeWriter discards, but keeps track of what it has been given.
type sizeWriter struct {
	total   int64
	largest int
	calls   int
}

func (w *sizeWriter) Write(p []byte) (int, error) {
	w.total += int64(len(p))
	w.calls++
	if len(p) > w.largest {
		w.largest = len(p)
	}
	return len(p), nil
}

func TestFormStreaming(t *testing.T) {
	Convey("A 10 MB stream passes in bounded chunks", t, func() {
		const size = 10 << 20
		src := &countingReader{size: size}
		f, err := NewForm([]Item{mustItem(Stream("big", src))})
		So(err, ShouldBeNil)
		_, known := f.ContentLength()
		So(known, ShouldBeFalse)

		var reports []content.Progress
		sink := &sizeWriter{}
		err = f.WriteChunks(context.Background(), sink, content.ReporterFunc(func(p content.Progress) {
			reports = append(reports, p)
		}))
		So(err, ShouldBeNil)
		So(src.read, ShouldEqual, size)
		So(src.largest, ShouldBeLessThanOrEqualTo, content.ChunkSize)
		So(sink.largest, ShouldBeLessThanOrEqualTo, content.ChunkSize)
		So(sink.calls, ShouldBeGreaterThan, size/content.ChunkSize)

		Convey("and reports aggregate progress", func() {
			for i := 1; i < len(reports); i++ {
				So(reports[i].Sent, ShouldBeGreaterThanOrEqualTo, reports[i-1].Sent)
			}
			So(reports[0].TotalKnown, ShouldBeFalse)
			last := reports[len(reports)-1]
			So(last, ShouldResemble, content.Progress{Sent: sink.total, Total: sink.total, TotalKnown: true})
		})
	})

	Convey("With a known length progress ends on it", t, func() {
		f, err := NewForm([]Item{mustItem(Text("a", "b")), mustItem(Buffer("c", []byte("d")))})
		So(err, ShouldBeNil)
		n, _ := f.ContentLength()

		var reports []content.Progress
		So(f.WriteChunks(context.Background(), io.Discard, content.ReporterFunc(func(p content.Progress) {
			reports = append(reports, p)
		})), ShouldBeNil)
		// header, payload, CRLF for each item, then the closing delimiter, and the terminal report
		So(len(reports), ShouldEqual, 2*3+1+1)
		for _, p := range reports {
			So(p.TotalKnown, ShouldBeTrue)
			So(p.Total, ShouldEqual, n)
		}
		So(reports[len(reports)-1].Sent, ShouldEqual, n)
	})
}

// closeCounter stands in for a file so that closing can be observed.
type closeCounter struct {
	io.Reader
	closed *atomic.Int32
}

func (c closeCounter) Close() error {
	c.closed.Add(1)
	return nil
}

func TestFormCancellation(t *testing.T) {
	var opened, closed atomic.Int32
	realOpen := openFile
	openFile = func(path string) (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		opened.Add(1)
		return closeCounter{Reader: f, closed: &closed}, nil
	}
	defer func() { openFile = realOpen }()

	Convey("Given a text field followed by a file", t, func() {
		opened.Store(0)
		closed.Store(0)
		path := writeFile(t, "big.bin", 4*content.ChunkSize)
		f, err := NewForm([]Item{mustItem(Text("status", "hello")), mustItem(File("media", path))})
		So(err, ShouldBeNil)
		headerLen := int64(len(f.headers[0]))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("canceling after the text does not touch the file", func() {
			var buf bytes.Buffer
			err := f.WriteChunks(ctx, &buf, content.ReporterFunc(func(p content.Progress) {
				if p.Sent == headerLen+5 {
					cancel()
				}
			}))
			So(content.IsCanceled(err), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(buf.Len(), ShouldEqual, headerLen+5)
			So(opened.Load(), ShouldEqual, 0)
			So(closed.Load(), ShouldEqual, 0)
		})

		Convey("canceling amid the file closes it exactly once", func() {
			fileStart := headerLen + 5 + 2 + int64(len(f.headers[1]))
			var buf bytes.Buffer
			err := f.WriteChunks(ctx, &buf, content.ReporterFunc(func(p content.Progress) {
				if p.Sent == fileStart+content.ChunkSize {
					cancel()
				}
			}))
			So(content.IsCanceled(err), ShouldBeTrue)
			So(content.IsSourceFault(err), ShouldBeFalse)
			So(err.Error(), ShouldContainSubstring, `item "media"`)
			So(buf.Len(), ShouldEqual, fileStart+content.ChunkSize)
			So(opened.Load(), ShouldEqual, 1)
			So(closed.Load(), ShouldEqual, 1)
		})

		Convey("a complete write closes the file too", func() {
			So(f.WriteChunks(ctx, io.Discard, nil), ShouldBeNil)
			So(opened.Load(), ShouldEqual, 1)
			So(closed.Load(), ShouldEqual, 1)
		})

		Convey("a failing sink closes the file", func() {
			err := f.WriteChunks(ctx, &limitedWriter{left: 4}, nil)
			So(content.IsSinkFault(err), ShouldBeTrue)
			So(opened.Load(), ShouldEqual, 1)
			So(closed.Load(), ShouldEqual, 1)
		})
	})
}

// limitedWriter accepts that many writes, then fails.
type limitedWriter struct{ left int }

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.left == 0 {
		return 0, io.ErrClosedPipe
	}
	w.left--
	return len(p), nil
}
