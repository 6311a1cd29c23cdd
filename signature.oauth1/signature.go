// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"net/url"
	"sort"
	"strings"
)

// BaseURL renders u as "scheme://host[:port]/path" for the signature base string.
//
// Scheme and host are lower-cased, the default port of the scheme is dropped,
// and user info, query and fragment never appear.
func BaseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") { // IPv6 literal
		host = "[" + host + "]"
	}
	switch port := u.Port(); {
	case port == "":
	case scheme == "http" && port == "80":
	case scheme == "https" && port == "443":
	default:
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// normalize sorts a copy of params by key, then by value,
// and joins them as "k=v" with '&'.
//
// Keys and values are taken as they are.
func normalize(params Params) string {
	sorted := make(Params, len(params))
	copy(sorted, params)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})

	var b strings.Builder
	for i := range sorted {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(sorted[i].Key)
		b.WriteByte('=')
		b.WriteString(sorted[i].Value)
	}
	return b.String()
}

// BaseString assembles the signature base string.
func BaseString(method string, u *url.URL, params Params) string {
	return strings.ToUpper(method) + "&" + Encode(BaseURL(u)) + "&" + Encode(normalize(params))
}

// SigningKey joins both secrets. tokenSecret is empty before a token has been obtained.
func SigningKey(consumerSecret, tokenSecret string) []byte {
	return []byte(Encode(consumerSecret) + "&" + Encode(tokenSecret))
}

// Sign computes the HMAC-SHA1 over the signature base string.
func Sign(method string, u *url.URL, params Params, consumerSecret, tokenSecret string) []byte {
	mac := hmac.New(sha1.New, SigningKey(consumerSecret, tokenSecret))
	mac.Write([]byte(BaseString(method, u, params)))
	return mac.Sum(nil)
}

// SignBase64 is Sign, encoded for header values.
func SignBase64(method string, u *url.URL, params Params, consumerSecret, tokenSecret string) string {
	return base64.StdEncoding.EncodeToString(Sign(method, u, params, consumerSecret, tokenSecret))
}
