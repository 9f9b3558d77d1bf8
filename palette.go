// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"image/color"

	"github.com/unixdj/cqr/coding"
)

// A Palette is the ordered colour list of a symbol, one entry per
// palette index.  Index 0 is white and the last index is black, so
// that the function patterns of every symbol stay black and white.
type Palette []color.RGBA

// Canonical palettes.  One channel is plain black and white.  Two and
// three channels are subtractive: channel 0 removes red, channel 1
// green, channel 2 blue, except that the last index is always black.
// The fourth channel darkens, with orange standing in for the
// colour preceding black.
var palettes = [coding.MaxChannels + 1]Palette{
	1: {
		{0xff, 0xff, 0xff, 0xff}, // white
		{0x00, 0x00, 0x00, 0xff}, // black
	},
	2: {
		{0xff, 0xff, 0xff, 0xff}, // white
		{0x00, 0xff, 0xff, 0xff}, // cyan
		{0xff, 0x00, 0xff, 0xff}, // magenta
		{0x00, 0x00, 0x00, 0xff}, // black
	},
	3: {
		{0xff, 0xff, 0xff, 0xff}, // white
		{0x00, 0xff, 0xff, 0xff}, // cyan
		{0xff, 0x00, 0xff, 0xff}, // magenta
		{0x00, 0x00, 0xff, 0xff}, // blue
		{0xff, 0xff, 0x00, 0xff}, // yellow
		{0x00, 0xff, 0x00, 0xff}, // green
		{0xff, 0x00, 0x00, 0xff}, // red
		{0x00, 0x00, 0x00, 0xff}, // black
	},
	4: {
		{0xff, 0xff, 0xff, 0xff}, // white
		{0x00, 0xff, 0xff, 0xff}, // cyan
		{0xff, 0x00, 0xff, 0xff}, // magenta
		{0x00, 0x00, 0xff, 0xff}, // blue
		{0xff, 0xff, 0x00, 0xff}, // yellow
		{0x00, 0xff, 0x00, 0xff}, // green
		{0xff, 0x00, 0x00, 0xff}, // red
		{0xff, 0x80, 0x00, 0xff}, // orange
		{0x80, 0x80, 0x80, 0xff}, // grey
		{0x00, 0x80, 0x80, 0xff}, // teal
		{0x80, 0x00, 0x80, 0xff}, // purple
		{0x00, 0x00, 0x80, 0xff}, // navy
		{0x80, 0x80, 0x00, 0xff}, // olive
		{0x00, 0x80, 0x00, 0xff}, // dark green
		{0x80, 0x00, 0x00, 0xff}, // maroon
		{0x00, 0x00, 0x00, 0xff}, // black
	},
}

// PaletteFor returns the canonical palette for a symbol with the
// given channel count, or nil if the count is invalid.
func PaletteFor(channels int) Palette {
	if channels < 1 || channels > coding.MaxChannels {
		return nil
	}
	return palettes[channels]
}

// sqDist returns the squared distance between two colours in RGB
// space, with 8 bit components.
func sqDist(r, g, b int, p color.RGBA) uint32 {
	dr := r - int(p.R)
	dg := g - int(p.G)
	db := b - int(p.B)
	return uint32(dr*dr + dg*dg + db*db)
}

// A Classifier maps sampled colours to palette indices.
type Classifier struct {
	Palette Palette
	// Margin is the minimum difference between the squared
	// distances to the nearest and second nearest palette entries
	// for a classification to be accepted.
	Margin uint32
}

// Classify returns the palette index nearest to c.  If the second
// nearest entry is within the margin, it returns ErrAmbiguousColor.
func (cl *Classifier) Classify(c color.Color) (int, error) {
	cr, cg, cb, _ := c.RGBA()
	r, g, b := int(cr>>8), int(cg>>8), int(cb>>8)
	best, next := ^uint32(0), ^uint32(0)
	idx := 0
	for i, p := range cl.Palette {
		if d := sqDist(r, g, b, p); d < best {
			best, next, idx = d, best, i
		} else if d < next {
			next = d
		}
	}
	if next-best < cl.Margin {
		return idx, ErrAmbiguousColor
	}
	return idx, nil
}

// Dark reports whether c is dark by luma, for structural reads that
// precede colour classification.
func (cl *Classifier) Dark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	r, g, b = r>>8, g>>8, b>>8
	return (306*r+601*g+117*b)>>10 < 128
}
