// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "math/bits"

// calcFormat completes the 5 data bits in the high bits of fb with
// the 10 check bits of the BCH(15,5) code.
func calcFormat(fb uint16) uint16 {
	const formatPoly = 0x537
	rem := fb
	for i := 4; i >= 0; i-- {
		if rem&(1<<10<<i) != 0 {
			rem ^= formatPoly << i
		}
	}
	return fb | rem
}

// calcVersionInfo returns the 18 bit BCH(18,6) codeword for the 6
// data bits of v.  The same code protects the version information
// and the channel metadata words.
func calcVersionInfo(v uint32) uint32 {
	const versionPoly = 0x1f25
	rem := v << 12
	for i := 5; i >= 0; i-- {
		if rem&(1<<12<<i) != 0 {
			rem ^= versionPoly << i
		}
	}
	return v<<12 | rem
}

// Format bits per level and mask, as stored in the symbol.
var ftab [4][8]uint16

func init() {
	for l := range ftab {
		for m := range ftab[l] {
			fb := uint16(l^1)<<13 | uint16(m)<<10
			ftab[l][m] = calcFormat(fb) ^ 0x5412
		}
	}
}

// Positions of format information bits.  Bit i of the format word is
// stored at fmtPosA[i] around the top left finder and at fmtPosB[i]
// split between the other two finders.  Coordinates at or below -8
// count from the far edge.
var fmtPosA = [15][2]int8{
	{8, 0}, {8, 1}, {8, 2}, {8, 3}, {8, 4}, {8, 5}, {8, 7}, {8, 8},
	{7, 8}, {5, 8}, {4, 8}, {3, 8}, {2, 8}, {1, 8}, {0, 8},
}

var fmtPosB = [15][2]int8{
	{-1, 8}, {-2, 8}, {-3, 8}, {-4, 8}, {-5, 8}, {-6, 8}, {-7, 8},
	{-8, 8}, {8, -7}, {8, -6}, {8, -5}, {8, -4}, {8, -3}, {8, -2},
	{8, -1},
}

func (c *Code) pos(p [2]int8) (int, int) {
	x, y := int(p[0]), int(p[1])
	if x < 0 {
		x += c.Size
	}
	if y < 0 {
		y += c.Size
	}
	return x, y
}

func (c *Code) at(p [2]int8) bool {
	return c.Black(c.pos(p))
}

// setFmt sets the module for bit i of the format word in both copies.
func (c *Code) setFmt(i int) {
	var x, y int
	x, y = c.pos(fmtPosA[i])
	c.Set(x, y)
	x, y = c.pos(fmtPosB[i])
	c.Set(x, y)
}

// readFmt reads one copy of the format word.
func (c *Code) readFmt(pos *[15][2]int8) uint16 {
	var v uint16
	for i := range pos {
		if c.at(pos[i]) {
			v |= 1 << i
		}
	}
	return v
}

// ReadFormat decodes the format information of a symbol, returning
// the error correction level and the mask of channel 0.  Up to 3 bit
// errors per copy are tolerated.
func (c *Code) ReadFormat() (Level, int, error) {
	a := c.readFmt(&fmtPosA)
	b := c.readFmt(&fmtPosB)
	bestD := 4
	var lev Level
	var mask int
	for l := range ftab {
		for m, fb := range ftab[l] {
			d := min(bits.OnesCount16(a^fb),
				bits.OnesCount16(b^fb))
			if d < bestD {
				bestD, lev, mask = d, Level(l), m
			}
		}
	}
	if bestD > 3 {
		return 0, 0, ErrFormat
	}
	return lev, mask, nil
}

// versionInfoPos returns the positions of bit i of the version
// information word in its two copies.
func versionInfoPos(i, siz int) (ax, ay, bx, by int) {
	return siz - 11 + i%3, i / 3, i / 3, siz - 11 + i%3
}

// ReadVersionInfo decodes the version information of a symbol of
// version 7 or higher, tolerating up to 3 bit errors per copy.
func (c *Code) ReadVersionInfo() (Version, error) {
	var a, b uint32
	for i := 0; i < 18; i++ {
		ax, ay, bx, by := versionInfoPos(i, c.Size)
		if c.Black(ax, ay) {
			a |= 1 << i
		}
		if c.Black(bx, by) {
			b |= 1 << i
		}
	}
	bestD := 4
	var ver Version
	for v := 7; v <= int(MaxVersion); v++ {
		w := calcVersionInfo(uint32(v))
		d := min(bits.OnesCount32(a^w), bits.OnesCount32(b^w))
		if d < bestD {
			bestD, ver = d, Version(v)
		}
	}
	if bestD > 3 {
		return 0, ErrVersionInfo
	}
	return ver, nil
}

// The channel metadata block occupies 40 modules in columns 12 to 15
// next to the top left finder, an area free of function patterns in
// every version.  It holds two BCH(18,6) words and 4 light padding
// modules: word 0 carries the channel count minus one and the mask
// of channel 1, word 1 the masks of channels 2 and 3.  The block is
// present, and the dark module at (8, size-8) light, only in symbols
// with more than one channel.
const MetaModules = 40

// MetaPos returns the position of module i of the channel metadata
// block.  Modules run down columns 12 to 15 from row 9.
func MetaPos(i int) (x, y int) {
	if i < 36 {
		return 12 + i/12, 9 + i%12
	}
	return 15, 9 + i - 36
}

// MetaBits returns the contents of the channel metadata block, with
// module i of the block at bit i.
func MetaBits(channels int, masks [MaxChannels]int) uint64 {
	w0 := calcVersionInfo(uint32(channels-1)<<3 | uint32(masks[1]))
	w1 := calcVersionInfo(uint32(masks[2])<<3 | uint32(masks[3]))
	return uint64(w1)<<18 | uint64(w0)
}

// DarkModule reports whether the module signalling a monochrome
// symbol is dark.
func (c *Code) DarkModule() bool {
	return c.Black(8, c.Size-8)
}

// ReadMeta decodes the channel metadata block of a symbol with more
// than one channel, returning the channel count and per-channel
// masks 1 to 3.  Up to 3 bit errors per word are tolerated.
func (c *Code) ReadMeta() (int, [MaxChannels]int, error) {
	var masks [MaxChannels]int
	var w0, w1 uint32
	for i := 0; i < MetaModules; i++ {
		x, y := MetaPos(i)
		if c.Black(x, y) {
			if i < 18 {
				w0 |= 1 << i
			} else if i < 36 {
				w1 |= 1 << (i - 18)
			}
		}
	}
	d0, p0 := decodeBCH18(w0, 1<<3, MaxChannels<<3)
	if d0 > 3 {
		return 0, masks, ErrMeta
	}
	channels := int(p0>>3) + 1
	masks[1] = int(p0 & 7)
	if channels > 2 {
		d1, p1 := decodeBCH18(w1, 0, 1<<6)
		if d1 > 3 {
			return 0, masks, ErrMeta
		}
		masks[2] = int(p1 >> 3)
		masks[3] = int(p1 & 7)
	}
	return channels, masks, nil
}

// decodeBCH18 finds the payload in [lo, hi) whose BCH(18,6) codeword
// is nearest to w, returning the distance and the payload.
func decodeBCH18(w, lo, hi uint32) (int, uint32) {
	bestD, bestP := 19, uint32(0)
	for p := lo; p < hi; p++ {
		if d := bits.OnesCount32(w ^ calcVersionInfo(p)); d < bestD {
			bestD, bestP = d, p
		}
	}
	return bestD, bestP
}
