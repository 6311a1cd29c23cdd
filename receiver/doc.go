// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package receiver is an endpoint for uploads, signed or not.

Files sent by PUT, or by POST in a MIME multipart envelope, are written below
a configured directory. Until a file has been received completely it is kept
under a temporary name, so that readers never see partial files.

	config, err := receiver.LoadConfig("UPLOAD")
	…
	h, err := receiver.NewHandler("/upload", config, nil, logger)
	http.Handle("/upload/", h)

If any consumer secrets are configured, requests must carry an
"Authorization: OAuth …" header as produced by package oauth.
*/
package receiver // import "blitznote.com/src/http.oauth/receiver"
