// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package receiver

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

const (
	// AlwaysRejectRunes are not safe to use with network shares.
	//
	// '/' never reaches the check, because paths are split before.
	AlwaysRejectRunes = `"*:<>?|\`

	runeSpatium = '\u2009'
)

// Not all runes in unicode.PrintRanges are suitable for file names.
var excludedRunes = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2028, Hi: 0x202f, Stride: 1}, // line and paragraph separators, and the like
		{Lo: 0xfff0, Hi: 0xffff, Stride: 1}, // specials
	},
}

// FileNamePolicy decides which names uploaded files can have.
//
// Names are not transliterated, so that mirrors do not end up in loops.
type FileNamePolicy struct {
	// Ranges, if not empty, is what all runes must be in.
	Ranges []*unicode.RangeTable

	// Form, if set, is the normalization a name must already be in.
	// Most of the Internet is in NFC.
	Form *norm.Form
}

// Accepts reports whether name is printable, without any line breaks,
// and within Ranges and Form.
//
// U+0020 (space) and U+2009 (spatium) are the only spaces allowed.
func (p FileNamePolicy) Accepts(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if p.Form != nil && !p.Form.IsNormalString(name) {
		return false
	}

	for _, r := range name {
		if len(p.Ranges) > 0 && !unicode.In(r, p.Ranges...) {
			return false
		}
		if r <= unicode.MaxLatin1 && strings.ContainsRune(AlwaysRejectRunes, r) {
			return false
		}
		if r == runeSpatium {
			continue
		}
		if unicode.Is(excludedRunes, r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

const errStrUnexpectedRange = "unexpected Unicode range: "

// ParseRanges translates space-delimited Unicode ranges into a unicode.RangeTable.
//
// One range looks like this, with a 'stride' of 1 if left out,
// and the bounds in hexadecimal notation with an optional prefix "U+" or "x":
//  <low>-<high>[:<stride>]
//
// Overlaps are not detected.
func ParseRanges(str string) (*unicode.RangeTable, error) {
	fields := strings.Fields(str)
	ranges := make([][3]uint32, 0, len(fields))
	for _, f := range fields {
		bounds, strideStr, hasStride := strings.Cut(f, ":")
		lowStr, highStr, ok := strings.Cut(bounds, "-")
		if !ok {
			return nil, errors.New(errStrUnexpectedRange + f)
		}
		low, err1 := parseCodepoint(lowStr)
		high, err2 := parseCodepoint(highStr)
		if err1 != nil || err2 != nil || high < low {
			return nil, errors.New(errStrUnexpectedRange + f)
		}
		stride := uint64(1)
		if hasStride {
			var err error
			if stride, err = strconv.ParseUint(strideStr, 10, 32); err != nil || stride == 0 {
				return nil, errors.New(errStrUnexpectedRange + f)
			}
		}
		ranges = append(ranges, [3]uint32{low, high, uint32(stride)})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	rt := &unicode.RangeTable{}
	for _, r := range ranges {
		if r[1] > math.MaxUint16 {
			rt.R32 = append(rt.R32, unicode.Range32{Lo: r[0], Hi: r[1], Stride: r[2]})
			continue
		}
		if r[1] <= unicode.MaxLatin1 {
			rt.LatinOffset++
		}
		rt.R16 = append(rt.R16, unicode.Range16{Lo: uint16(r[0]), Hi: uint16(r[1]), Stride: uint16(r[2])})
	}
	return rt, nil
}

func parseCodepoint(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "u+"), "x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err == nil && v > unicode.MaxRune {
		err = errors.Errorf("beyond the last code point: %x", v)
	}
	return uint32(v), err
}
