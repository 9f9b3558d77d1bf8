// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "fmt"

// Encoder encodes one channel of a symbol.
type Encoder struct {
	p *Plan
	b *Bits
}

func newEncoder(p *Plan) *Encoder {
	return &Encoder{p: p, b: NewBits(p.Version, p.Level, p.Channels)}
}

// NewEncoder returns an Encoder for the given version, level and
// channel count.  For multi-channel symbols each channel has its own
// Encoder, and WriteChannelHeader must be called before any segments
// are written.
func NewEncoder(version Version, level Level, channels int) (*Encoder, error) {
	p, err := makePlan(version, level, channels)
	if err != nil {
		return nil, err
	}
	return newEncoder(p), nil
}

// WriteChannelHeader adds the channel header to e.  It does nothing
// for single-channel symbols.
func (e *Encoder) WriteChannelHeader(index, length int) {
	if e.p.Channels > 1 {
		ChannelHeader(e.b, e.p.Channels, index, length)
	}
}

// Write adds text to e.
func (e *Encoder) Write(text ...Segment) error {
	class := e.p.Version.SizeClass()
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

// xor xors a and b into dst.  a and b may not be shorter than dst.
// dst and a or b should not overlap unless they are the same slice.
func xor(dst, a, b []byte) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

func (e *Encoder) Reset() { e.b.Reset() }

// Code returns a channel bitmap containing data written to e.
// The mask with the smallest penalty is applied and recorded
// in the returned Code.
func (e *Encoder) Code() (*Code, error) {
	if e.b.Bits() > e.p.DataBits {
		return nil, fmt.Errorf("%w: %d bits into %d-bit channel",
			ErrDataTooLong, e.b.Bits(), e.p.DataBits)
	}
	e.b.AddCheckBytes(e.p.Version, e.p.Level, e.p.Channels)
	bits := e.b.Permute(e.p.Version, e.p.Level, e.p.Channels)
	// Now we have the checksum bytes and the data bytes.
	// Construct the bitmap consisting of data and checksum bits.
	siz, stride := e.p.Size, (e.p.Size+7)>>3
	data := make([]byte, siz*stride)
	e.p.Serialise(bits, data)

	// Apply masks to the bitmap to construct the actual codes.
	// Choose the code with the smallest penalty.
	c := &Code{Size: siz, Stride: stride, Bitmap: make([]byte, len(data))}
	best := make([]byte, len(data)) // best bitmap so far
	pen := 1 << 30                  // largest penalty is < 1<<20
	for mask, v := range e.p.Pattern {
		// set bitmap to data bits xor plan bits
		xor(c.Bitmap, data, v)
		if p := c.Penalty(); p < pen {
			best, pen, c.Bitmap = c.Bitmap, p, best
			c.Mask = mask
		}
	}
	c.Bitmap = best
	return c, nil
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

func (p *Plan) Encode(text ...Segment) (*Code, error) {
	return newEncoder(p).Encode(text...)
}

// Encode encodes text as a classic single-channel code
// with the given version and level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level, 1)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}
