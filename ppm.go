// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"bufio"
	"io"
	"strconv"
)

// EncodePPM writes a Portable Pix Map image displaying the code to w,
// for use with netpbm.
func (c *Code) EncodePPM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	pal := c.palette()
	length := c.Scale * (c.Size + 2*c.Border)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P6\n" + ls + " " + ls + "\n255\n"); err != nil {
		return err
	}
	row := make([]byte, length*3)
	for y := -c.Border; y < c.Size+c.Border; y++ {
		j := 0
		for x := -c.Border; x < c.Size+c.Border; x++ {
			p := pal[c.Index(x, y)]
			for i := 0; i < c.Scale; i++ {
				row[j], row[j+1], row[j+2] = p.R, p.G, p.B
				j += 3
			}
		}
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// EncodePBM writes a Portable Bit Map image displaying the code to w.
// Only black and white symbols can be written as PBM.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() || c.Channels != 1 {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	length := c.Scale * (c.Size + 2*c.Border)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)/8)
	for y := -c.Border; y < c.Size+c.Border; y++ {
		n := 0
		var z byte
		j := 0
		for x := -c.Border; x < c.Size+c.Border; x++ {
			bit := byte(c.Index(x, y))
			for i := 0; i < c.Scale; i++ {
				z = z<<1 | bit
				if n++; n&7 == 0 {
					row[j] = z
					j++
				}
			}
		}
		if n&7 != 0 {
			row[j] = z << (8 - n&7)
		}
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}
