// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

const upperhex = "0123456789ABCDEF"

// Unreserved reports whether c passes Encode unchanged.
//
// This is RFC 3986 "unreserved", which is narrower than what
// net/url leaves alone: '!', '*', '\'', '(' and ')' get escaped here.
func Unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '~':
		return true
	}
	return false
}

// Encode percent-encodes the UTF-8 bytes of text
// for use in signature base strings and header values.
//
// Hexadecimal digits are upper case.
func Encode(text string) string {
	n := 0
	for i := 0; i < len(text); i++ {
		if !Unreserved(text[i]) {
			n++
		}
	}
	if n == 0 {
		return text
	}

	buf := make([]byte, 0, len(text)+2*n)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if Unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&0x0f])
	}
	return string(buf)
}
