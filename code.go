// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"image"
	"image/color"
	"math/bits"
	"strings"

	"github.com/unixdj/cqr/coding"
)

// A Code is a square module grid with one palette index per module.
type Code struct {
	Pix      []byte  // palette indices, row-major
	Size     int     // number of modules on a side
	Channels int     // number of channels
	Palette  Palette // colours; nil for the canonical palette
	Scale    int     // image pixels per module
	Border   int     // quiet zone width in modules
}

// NewCode returns an empty Code with siz modules on a side and the
// given channel count.
func NewCode(siz, channels int) *Code {
	return &Code{
		Pix:      make([]byte, siz*siz),
		Size:     siz,
		Channels: channels,
		Scale:    8,
		Border:   4,
	}
}

func (c *Code) isValid() bool {
	return c.Size > 0 && len(c.Pix) == c.Size*c.Size &&
		c.Channels >= 1 && c.Channels <= coding.MaxChannels &&
		c.Scale > 0 && c.Border >= 0
}

// palette returns the colours of c.
func (c *Code) palette() Palette {
	if c.Palette != nil {
		return c.Palette
	}
	return PaletteFor(c.Channels)
}

// Index returns the palette index of the module at (x, y),
// or 0 outside the symbol.
func (c *Code) Index(x, y int) int {
	if 0 <= x && x < c.Size && 0 <= y && y < c.Size {
		return int(c.Pix[y*c.Size+x])
	}
	return 0
}

// Black reports whether the module at (x, y) has the last palette
// index.  Function patterns are black and white in every symbol.
func (c *Code) Black(x, y int) bool {
	return c.Index(x, y) == 1<<c.Channels-1
}

// plane extracts channel ch of c as a bitmap.
func (c *Code) plane(ch int) *coding.Code {
	p := coding.NewCode(c.Size)
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			if c.Pix[y*c.Size+x]>>ch&1 != 0 {
				p.Set(x, y)
			}
		}
	}
	return p
}

// bw extracts the black modules of c as a bitmap for structural
// reads.  At reserved modules all channels agree, making bw equal to
// any plane there.  The black index is derived from the grid itself,
// as the channel count claimed by the caller may be wrong and the
// symbol's own count is not known until the metadata block is read.
func (c *Code) bw() *coding.Code {
	p := coding.NewCode(c.Size)
	var m byte
	for _, v := range c.Pix {
		m |= v
	}
	dark := byte(1)<<bits.Len8(m) - 1
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			if c.Pix[y*c.Size+x] == dark {
				p.Set(x, y)
			}
		}
	}
	return p
}

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	return &codeImage{c, c.palette()}
}

// codeImage implements image.Image.
type codeImage struct {
	*Code
	pal Palette
}

func (c *codeImage) Bounds() image.Rectangle {
	d := (c.Size + 2*c.Border) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	return c.pal[c.Index(x/c.Scale-c.Border, y/c.Scale-c.Border)]
}

func (c *codeImage) ColorModel() color.Model {
	return color.RGBAModel
}

// String renders c for a terminal: half blocks for black and white
// symbols, space pairs on 24 bit colour backgrounds otherwise.
func (c *Code) String() string {
	var b strings.Builder
	if c.Channels == 1 {
		c.stringBW(&b)
		return b.String()
	}
	pal := c.palette()
	for y := -c.Border; y < c.Size+c.Border; y++ {
		for x := -c.Border; x < c.Size+c.Border; x++ {
			p := pal[c.Index(x, y)]
			b.WriteString("\x1b[48;2;")
			writeDec(&b, p.R)
			b.WriteByte(';')
			writeDec(&b, p.G)
			b.WriteByte(';')
			writeDec(&b, p.B)
			b.WriteString("m  ")
		}
		b.WriteString("\x1b[0m\n")
	}
	return b.String()
}

// stringBW renders two rows per line, upper module in the lower half
// block so that the code reads black on a light background.
func (c *Code) stringBW(b *strings.Builder) {
	for y := -c.Border; y < c.Size+c.Border; y += 2 {
		for x := -c.Border; x < c.Size+c.Border; x++ {
			n := c.Index(x, y) | c.Index(x, y+1)<<1
			b.WriteRune([]rune(" ▀▄█")[3-n])
		}
		b.WriteByte('\n')
	}
}

func writeDec(b *strings.Builder, v uint8) {
	if v >= 100 {
		b.WriteByte('0' + v/100)
	}
	if v >= 10 {
		b.WriteByte('0' + v/10%10)
	}
	b.WriteByte('0' + v%10)
}
