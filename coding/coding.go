// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level multicolor QR coding details.
//
// A multicolor symbol with 2ᵏ palette colours carries k channels,
// each an independent QR data layer over the shared layout: its own
// codewords, Reed-Solomon blocks and mask.  A symbol with a single
// channel is a standard black and white QR code.
package coding // import "github.com/unixdj/cqr/coding"

import (
	"errors"
	"strconv"

	"github.com/unixdj/cqr/gf256"
)

var (
	ErrVersion         = errors.New("cqr: invalid version")
	ErrLevel           = errors.New("cqr: invalid level")
	ErrChannel         = errors.New("cqr: invalid channel count")
	ErrDataTooLong     = errors.New("cqr: data too long")
	ErrMode            = errors.New("cqr: unsupported segment mode")
	ErrTruncated       = errors.New("cqr: truncated segment")
	ErrFormat          = errors.New("cqr: format information damaged")
	ErrVersionInfo     = errors.New("cqr: version information damaged")
	ErrStructure       = errors.New("cqr: function patterns damaged")
	ErrMeta            = errors.New("cqr: channel metadata damaged")
	ErrChannelMismatch = errors.New("cqr: channel header mismatch")
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// A Version represents a QR version.
// A symbol with version v has 4v+17 modules on a side:
// the larger the version, the more information the symbol can store.
type Version int

const (
	MinVersion Version = 1  // Minimum version
	MaxVersion Version = 40 // Maximum version
)

// MaxChannels is the maximum number of channels in a symbol,
// giving a palette of up to 16 colours.
const MaxChannels = 4

// metaWords is the number of codewords reserved per channel for the
// channel metadata block of a symbol with more than one channel.
const metaWords = 5

func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// Size returns the number of modules on a side of a symbol with
// version v.
func (v Version) Size() int {
	return int(v)*4 + 17
}

// VersionForSize returns the version of a symbol with siz modules on
// a side.
func VersionForSize(siz int) (Version, error) {
	v := Version(siz-17) / 4
	if v < MinVersion || v > MaxVersion || v.Size() != siz {
		return 0, ErrVersion
	}
	return v, nil
}

// Version size classes.
const (
	Class0 = iota // versions 1 to 9
	Class1        // versions 10 to 26
	Class2        // versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// totalBytes returns the number of codewords per channel in a symbol
// with the given version and channel count.
func (v Version) totalBytes(channels int) int {
	n := vtab[v].bytes
	if channels > 1 {
		n -= metaWords
	}
	return n
}

// dataBytes returns the number of data bytes that can be stored per
// channel in a symbol with the given version, level and channel count.
func (v Version) dataBytes(l Level, channels int) int {
	lev := &vtab[v].level[l]
	return v.totalBytes(channels) - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be stored per
// channel in a symbol with the given version, level and channel count.
func (v Version) DataBits(l Level, channels int) int {
	return v.dataBytes(l, channels) * 8
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota
	M
	Q
	H
)

func (l Level) String() string {
	if L <= l && l <= H {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// A Code is a square module grid holding one channel of a symbol.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of modules on a side
	Stride int    // number of bytes per row
	Mask   int    // mask applied to the data modules
}

// NewCode returns an empty Code with siz modules on a side.
func NewCode(siz int) *Code {
	stride := (siz + 7) >> 3
	return &Code{
		Bitmap: make([]byte, siz*stride),
		Size:   siz,
		Stride: stride,
	}
}

func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// Set sets the module at (x, y) to black.
func (c *Code) Set(x, y int) {
	c.Bitmap[y*c.Stride+x>>3] |= 0x80 >> (x & 7)
}

// A version describes metadata associated with a version: the
// position and stride of alignment pattern centres (100 for none),
// the number of codewords, and the Reed-Solomon block count and
// check bytes per block for each level.
type version struct {
	apos    int
	astride int
	bytes   int
	level   [4]level
}

type level struct {
	nblock int
	check  int
}

// Version table.
var vtab = [41]version{
	1:  {100, 100, 26, [4]level{{1, 7}, {1, 10}, {1, 13}, {1, 17}}},
	2:  {16, 100, 44, [4]level{{1, 10}, {1, 16}, {1, 22}, {1, 28}}},
	3:  {20, 100, 70, [4]level{{1, 15}, {1, 26}, {2, 18}, {2, 22}}},
	4:  {24, 100, 100, [4]level{{1, 20}, {2, 18}, {2, 26}, {4, 16}}},
	5:  {28, 100, 134, [4]level{{1, 26}, {2, 24}, {4, 18}, {4, 22}}},
	6:  {32, 100, 172, [4]level{{2, 18}, {4, 16}, {4, 24}, {4, 28}}},
	7:  {20, 16, 196, [4]level{{2, 20}, {4, 18}, {6, 18}, {5, 26}}},
	8:  {22, 18, 242, [4]level{{2, 24}, {4, 22}, {6, 22}, {6, 26}}},
	9:  {24, 20, 292, [4]level{{2, 30}, {5, 22}, {8, 20}, {8, 24}}},
	10: {26, 22, 346, [4]level{{4, 18}, {5, 26}, {8, 24}, {8, 28}}},
	11: {28, 24, 404, [4]level{{4, 20}, {5, 30}, {8, 28}, {11, 24}}},
	12: {30, 26, 466, [4]level{{4, 24}, {8, 22}, {10, 26}, {11, 28}}},
	13: {32, 28, 532, [4]level{{4, 26}, {9, 22}, {12, 24}, {16, 22}}},
	14: {24, 20, 581, [4]level{{4, 30}, {9, 24}, {16, 20}, {16, 24}}},
	15: {24, 22, 655, [4]level{{6, 22}, {10, 24}, {12, 30}, {18, 24}}},
	16: {24, 24, 733, [4]level{{6, 24}, {10, 28}, {17, 24}, {16, 30}}},
	17: {28, 24, 815, [4]level{{6, 28}, {11, 28}, {16, 28}, {19, 28}}},
	18: {28, 26, 901, [4]level{{6, 30}, {13, 26}, {18, 28}, {21, 28}}},
	19: {28, 28, 991, [4]level{{7, 28}, {14, 26}, {21, 26}, {25, 26}}},
	20: {32, 28, 1085, [4]level{{8, 28}, {16, 26}, {20, 30}, {25, 28}}},
	21: {26, 22, 1156, [4]level{{8, 28}, {17, 26}, {23, 28}, {25, 30}}},
	22: {24, 24, 1258, [4]level{{9, 28}, {17, 26}, {23, 30}, {34, 24}}},
	23: {28, 24, 1364, [4]level{{9, 30}, {18, 28}, {25, 30}, {30, 30}}},
	24: {26, 26, 1474, [4]level{{10, 30}, {20, 28}, {25, 30}, {32, 30}}},
	25: {30, 26, 1588, [4]level{{12, 26}, {21, 28}, {29, 30}, {35, 30}}},
	26: {28, 28, 1706, [4]level{{12, 28}, {23, 28}, {34, 28}, {37, 30}}},
	27: {32, 28, 1828, [4]level{{12, 30}, {25, 28}, {34, 30}, {40, 30}}},
	28: {24, 24, 1921, [4]level{{13, 30}, {26, 28}, {35, 30}, {42, 30}}},
	29: {28, 24, 2051, [4]level{{14, 30}, {28, 28}, {38, 30}, {45, 30}}},
	30: {24, 26, 2185, [4]level{{15, 30}, {29, 28}, {40, 30}, {48, 30}}},
	31: {28, 26, 2323, [4]level{{16, 30}, {31, 28}, {43, 30}, {51, 30}}},
	32: {32, 26, 2465, [4]level{{17, 30}, {33, 28}, {45, 30}, {54, 30}}},
	33: {28, 28, 2611, [4]level{{18, 30}, {35, 28}, {48, 30}, {57, 30}}},
	34: {32, 28, 2761, [4]level{{19, 30}, {37, 28}, {51, 30}, {58, 30}}},
	35: {28, 24, 2876, [4]level{{19, 30}, {38, 28}, {53, 30}, {63, 30}}},
	36: {22, 26, 3034, [4]level{{20, 30}, {40, 28}, {56, 30}, {66, 30}}},
	37: {26, 26, 3196, [4]level{{21, 30}, {43, 28}, {59, 30}, {70, 30}}},
	38: {30, 26, 3362, [4]level{{22, 30}, {45, 28}, {62, 30}, {74, 30}}},
	39: {24, 28, 3532, [4]level{{24, 30}, {47, 28}, {65, 30}, {77, 30}}},
	40: {28, 28, 3706, [4]level{{25, 30}, {49, 28}, {68, 30}, {81, 30}}},
}
