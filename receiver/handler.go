// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package receiver

import (
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"blitznote.com/src/http.oauth/signature.oauth1"
)

// Errors used in functions that resemble the core logic of this package.
const (
	errCannotReadMIMEMultipart errorString = "Error reading MIME multipart payload"
	errFileNameConflict        errorString = "Name-Name Conflict"
	errInvalidFileName         errorString = "Invalid filename and/or path"
	errUnacceptableFileName    errorString = "Unacceptable filename"
	errFileTooLarge            errorString = "File exceeds the size limit"
	errUnsupportedContentType  errorString = "Unsupported Content-Type"
)

type errorString string

func (e errorString) Error() string { return string(e) }

// Fields of a form are read into memory, but only up to this size.
const maxFieldSize = 1 << 16

// timestampNow is a variable so that tests can travel in time.
var timestampNow = func() uint64 { return uint64(time.Now().Unix()) }

// Receipt is what a client gets back after a successful multipart upload.
type Receipt struct {
	Files  []StoredFile      `json:"files"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StoredFile is one file written to disk.
type StoredFile struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

// Handler stores files uploaded below Scope,
// from signed requests if any consumers are configured.
type Handler struct {
	Next  http.Handler
	Scope string

	Logger *zap.Logger

	writeToPath       string
	maxFilesize       int64
	tolerance         uint64
	origin            *url.URL
	policy            FileNamePolicy
	silenceAuthErrors bool

	// guards secrets, which can be amended at runtime
	secretsLock sync.RWMutex
	secrets     oauth1.Secrets
}

// NewHandler creates a new instance of this plugin's upload handler,
// meant to be used in Go's own http server.
//
// 'scope' is the path prefix. 'next' gets everything outside of it,
// as well as anything that is neither POST nor PUT.
func NewHandler(scope string, config Config, next http.Handler, logger *zap.Logger) (*Handler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	origin, err := config.origin()
	if err != nil {
		return nil, err
	}
	policy, err := config.fileNamePolicy()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if next == nil {
		next = http.NotFoundHandler()
	}

	h := &Handler{
		Next:              next,
		Scope:             scope,
		Logger:            logger.Named("receiver"),
		writeToPath:       config.WriteToPath,
		maxFilesize:       config.MaxFilesize,
		tolerance:         config.TimestampTolerance,
		origin:            origin,
		policy:            policy,
		silenceAuthErrors: config.SilenceAuthErrors,
		secrets:           oauth1.Secrets{Consumers: oauth1.SecretStore{}, Tokens: oauth1.SecretStore{}},
	}
	if err := h.AddSecrets(config.ConsumerSecrets, config.TokenSecrets); err != nil {
		return nil, err
	}
	return h, nil
}

// AddSecrets adds or replaces consumer and token secrets, given as "key=secret".
func (h *Handler) AddSecrets(consumers, tokens []string) error {
	h.secretsLock.Lock()
	defer h.secretsLock.Unlock()
	if err := h.secrets.Consumers.Insert(consumers); err != nil {
		return errors.Errorf("receiver: not a consumer key and secret: %q", err.Error())
	}
	if err := h.secrets.Tokens.Insert(tokens); err != nil {
		return errors.Errorf("receiver: not a token and secret: %q", err.Error())
	}
	return nil
}

// ServeHTTP catches methods meant for file manipulation.
// Anything else is delegated to Next.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpCode, err := h.serveHTTP(w, r)
	switch {
	case httpCode == 0:
		h.Next.ServeHTTP(w, r)
	case httpCode >= 400:
		h.Logger.Info("rejected", zap.String("method", r.Method),
			zap.String("path", r.URL.Path), zap.Int("status", httpCode), zap.Error(err))
		http.Error(w, err.Error(), httpCode)
	}
}

// serveHTTP returns 0 for requests it does not handle.
// For any status code 400 and up it returns an error, which ServeHTTP sends as body.
func (h *Handler) serveHTTP(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return 0, nil
	}
	if !h.inScope(r.URL.Path) {
		return 0, nil
	}

	if authErr := h.authenticate(r); authErr != nil {
		if h.silenceAuthErrors {
			h.Logger.Debug("passing on unauthenticated request", zap.Error(authErr))
			return 0, nil
		}
		return authErr.SuggestedResponseCode(), authErr
	}

	if r.Method == http.MethodPost {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch {
		case mediaType == "multipart/form-data":
			return h.serveMultipartUpload(w, r)
		case mediaType != "":
			return http.StatusUnsupportedMediaType, errUnsupportedContentType
		}
	}

	// PUT, or a POST with an unlabeled body.
	dir, name, httpCode, err := h.splitInDirectoryAndFilename(r.URL.Path, "")
	if err != nil {
		return httpCode, err
	}
	n, httpCode, err := h.writeOneHTTPBlob(dir, name, r.ContentLength, r.Body)
	if err != nil {
		return httpCode, err
	}
	h.Logger.Info("stored", zap.String("name", name), zap.Int64("size", n))
	w.WriteHeader(httpCode)
	return httpCode, nil
}

func (h *Handler) inScope(path string) bool {
	if h.Scope == "" || h.Scope == "/" {
		return true
	}
	scope := strings.TrimSuffix(h.Scope, "/")
	return path == scope || strings.HasPrefix(path, scope+"/")
}

// authenticate is a no-op if no consumers are known.
func (h *Handler) authenticate(r *http.Request) oauth1.AuthError {
	secrets := h.currentSecrets()
	if len(secrets.Consumers) == 0 {
		return nil
	}
	_, err := oauth1.Verify(r, h.origin, secrets, timestampNow(), h.tolerance)
	return err
}

// currentSecrets is a copy, so the lock is not held while Verify reads the body.
func (h *Handler) currentSecrets() oauth1.Secrets {
	h.secretsLock.RLock()
	defer h.secretsLock.RUnlock()
	return oauth1.Secrets{
		Consumers: maps.Clone(h.secrets.Consumers),
		Tokens:    maps.Clone(h.secrets.Tokens),
	}
}

// serveMultipartUpload is used on HTTP POST to explode a MIME Multipart envelope
// into one or more supplied files.
//
// Parts without a file name are fields, and go into the receipt.
func (h *Handler) serveMultipartUpload(w http.ResponseWriter, r *http.Request) (int, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return http.StatusUnsupportedMediaType, err
	}
	dir, _, httpCode, err := h.splitInDirectoryAndFilename(r.URL.Path, ".")
	if err != nil {
		return httpCode, err
	}

	receipt := Receipt{Files: []StoredFile{}}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return http.StatusBadRequest, errCannotReadMIMEMultipart
		}

		fileName := part.FileName()
		if fileName == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if err != nil {
				return http.StatusBadRequest, errCannotReadMIMEMultipart
			}
			if receipt.Fields == nil {
				receipt.Fields = make(map[string]string)
			}
			receipt.Fields[part.FormName()] = string(value)
			continue
		}

		n, httpCode, err := h.writeOneHTTPBlob(dir, fileName, -1, part)
		if err != nil {
			return httpCode, err
		}
		h.Logger.Info("stored", zap.String("field", part.FormName()),
			zap.String("name", fileName), zap.Int64("size", n))
		receipt.Files = append(receipt.Files, StoredFile{Field: part.FormName(), Name: fileName, Size: n})
	}

	body, err := sonic.Marshal(receipt)
	if err != nil {
		return http.StatusInternalServerError, errors.Wrap(err, "receiver: receipt")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	return http.StatusOK, nil
}

// splitInDirectoryAndFilename maps the part of urlPath below Scope to a location within WriteToPath.
//
// With a non-empty 'fileName' urlPath is taken to name a directory.
// Anything that would end up outside of WriteToPath results in 422.
func (h *Handler) splitInDirectoryAndFilename(urlPath, fileName string) (string, string, int, error) {
	rel := strings.TrimPrefix(urlPath, strings.TrimSuffix(h.Scope, "/"))
	if fileName != "" {
		rel += "/" + fileName
	}
	root := filepath.Clean(h.writeToPath)
	candidate := filepath.Join(root, filepath.FromSlash(rel))
	if candidate != root && !strings.HasPrefix(candidate, root+string(filepath.Separator)) {
		return "", "", http.StatusUnprocessableEntity, errInvalidFileName
	}
	if fileName == "." {
		return candidate, "", 0, nil
	}
	if candidate == root {
		return "", "", http.StatusUnprocessableEntity, errInvalidFileName
	}
	return filepath.Dir(candidate), filepath.Base(candidate), 0, nil
}

// writeOneHTTPBlob handles HTTP PUT, and HTTP POST without envelopes,
// as well as every file from a multipart body.
//
// 'anticipatedSize' is negative if unknown.
func (h *Handler) writeOneHTTPBlob(dir, name string, anticipatedSize int64, r io.Reader) (int64, int, error) {
	// Multipart parts can carry a path in their file name.
	if strings.ContainsAny(name, `/\`) {
		return 0, http.StatusUnprocessableEntity, errInvalidFileName
	}
	if !h.policy.Accepts(name) {
		return 0, http.StatusUnprocessableEntity, errUnacceptableFileName
	}
	if h.maxFilesize > 0 {
		if anticipatedSize > h.maxFilesize {
			return 0, http.StatusRequestEntityTooLarge, errFileTooLarge
		}
		r = &limitedReader{R: r, N: h.maxFilesize}
	}

	bytesWritten, err := writeFileFromReader(dir, name, r, anticipatedSize)
	if err != nil {
		switch {
		case errors.Is(err, errFileTooLarge):
			return bytesWritten, http.StatusRequestEntityTooLarge, errFileTooLarge
		case os.IsExist(err):
			return bytesWritten, http.StatusConflict, errFileNameConflict
		case errors.Is(err, os.ErrPermission):
			return bytesWritten, http.StatusForbidden, errors.Wrap(err, "receiver")
		case bytesWritten > 0 && bytesWritten < anticipatedSize:
			// The client could've shortened us.
			return bytesWritten, http.StatusInsufficientStorage, errors.Wrap(err, "receiver")
		default:
			return bytesWritten, http.StatusInternalServerError, errors.Wrap(err, "receiver")
		}
	}
	if anticipatedSize >= 0 && bytesWritten < anticipatedSize {
		return bytesWritten, http.StatusAccepted, nil // accepted, but not completed
	}
	return bytesWritten, http.StatusOK, nil
}

// limitedReader is io.LimitedReader, but fails if there's more than N bytes.
type limitedReader struct {
	R io.Reader
	N int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.N < 0 {
		return 0, errFileTooLarge
	}
	if int64(len(p)) > l.N+1 {
		p = p[:l.N+1]
	}
	n, err := l.R.Read(p)
	l.N -= int64(n)
	if l.N < 0 {
		return n, errFileTooLarge
	}
	return n, err
}
