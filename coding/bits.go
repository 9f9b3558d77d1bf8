// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "github.com/unixdj/cqr/gf256"

// Bits is a bit buffer for building one channel of a symbol.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for one channel of a
// symbol with the given version, level and channel count.
func NewBits(v Version, l Level, channels int) *Bits {
	n := v.totalBytes(channels)
	if 1 < vtab[v].level[l].nblock {
		n <<= 1
	}
	return &Bits{b: make([]byte, 0, n)}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

func (b *Bits) Bits() int {
	return b.nbit
}

func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("cqr: fractional byte")
	}
	return b.b
}

func (b *Bits) growTo(n int) {
	for cap(b.b) < n {
		b.b = append(b.b[:cap(b.b)], 0)[:len(b.b)]
	}
}

func (b *Bits) Grow(n int) { b.growTo(len(b.b) + n) }

// Add adds n bytes to b and returns the added slice.
func (b *Bits) Add(n int) []byte {
	if b.nbit%8 != 0 {
		panic("cqr: fractional byte")
	}
	b.Grow(n)
	start := len(b.b)
	b.b = b.b[:start+n]
	b.nbit = 8 * len(b.b)
	return b.b[start:]
}

func (b *Bits) Write(v uint32, nbit int) {
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

func (b *Bits) padTo(t, n int) {
	b.nbit = min(b.nbit+t, n)
	for len(b.b)*8 < b.nbit {
		b.b = append(b.b, 0)
	}
	if len(b.b) < n>>3 {
		buf := b.b[len(b.b) : n>>3]
		b.b = b.b[:n>>3]
		for len(buf) >= 2 {
			buf[0], buf[1] = 0xec, 0x11
			buf = buf[2:]
		}
		if len(buf) > 0 {
			buf[0] = 0xec
		}
	}
	b.nbit = len(b.b) * 8
}

// PadTo adds up to t terminator bits to b and pads it to n bits.
func (b *Bits) PadTo(t, n int) {
	b.growTo(n >> 3)
	b.padTo(t, n)
}

// AddCheckBytes adds terminator, padding and checksum to b for one
// channel of a symbol with the given version, level and channel count.
func (b *Bits) AddCheckBytes(v Version, l Level, channels int) {
	nb := v.DataBits(l, channels)
	if b.nbit > nb {
		panic("cqr: too much data")
	}
	total := v.totalBytes(channels)
	b.growTo(total)
	b.padTo(4, nb)
	nd := nb >> 3

	dat := b.Bytes()
	lev := &vtab[v].level[l]
	db := nd / lev.nblock
	normal := (db+1)*lev.nblock - nd
	rs := gf256.NewRSEncoder(Field, lev.check)
	for i := 0; i < lev.nblock; i++ {
		if i == normal {
			db++
		}
		rs.ECC(dat[:db], b.Add(lev.check))
		dat = dat[db:]
	}

	if len(b.Bytes()) != total {
		panic("cqr: internal error")
	}
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	dst = dst[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= normal {
			extra[i-normal] = src[0]
			src = src[1:]
		}
	}
}

// deinterleave is the inverse of interleave.
func deinterleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := src[db*nblock:]
	src = src[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j := 0; j < db; j++ {
			dst[j] = src[j*nblock+i]
		}
		dst = dst[db:]
		if i >= normal {
			dst[0] = extra[i-normal]
			dst = dst[1:]
		}
	}
}

// Permute returns a BitStream reading data and checksum bits in b
// with blocks interleaved for a symbol with the given version, level
// and channel count.  The BitStream may use the same underlying
// buffer.
func (b *Bits) Permute(v Version, l Level, channels int) BitStream {
	total := v.totalBytes(channels)
	src := b.Bytes()
	if len(src) != total {
		panic("cqr: wrong data length")
	}
	dst := src
	if nblock := vtab[v].level[l].nblock; nblock != 1 {
		if cap(src) < len(src)*2 {
			dst = make([]byte, total)
		} else {
			dst = src[len(src) : len(src)*2]
		}
		nd := v.dataBytes(l, channels)
		interleave(dst[:nd], src[:nd], nblock)
		interleave(dst[nd:], src[nd:], nblock)
	}
	return NewBitStream(dst)
}

// Unpermute reverses Permute, turning interleaved codewords read
// from a symbol back into consecutive blocks.
func Unpermute(src []byte, v Version, l Level, channels int) []byte {
	total := v.totalBytes(channels)
	if len(src) != total {
		panic("cqr: wrong data length")
	}
	nblock := vtab[v].level[l].nblock
	if nblock == 1 {
		return src
	}
	dst := make([]byte, total)
	nd := v.dataBytes(l, channels)
	deinterleave(dst[:nd], src[:nd], nblock)
	deinterleave(dst[nd:], src[nd:], nblock)
	return dst
}

// BitStream reads bits from the underlying buffer.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Bytes returns the data underlying s.
func (s *BitStream) Bytes() []byte { return s.b }

// Next returns the next bit from s as 0 or 1.
// Past end of buffer Next returns 0.
func (s *BitStream) Next() byte {
	var b byte
	if i := s.pos >> 3; i < len(s.b) {
		b = s.b[i] >> (7 &^ s.pos) & 1
		s.pos++
	}
	return b
}

// A BitReader reads bit fields from a byte buffer, most significant
// bit first.
type BitReader struct {
	b   []byte
	pos int
}

// NewBitReader returns a BitReader reading from b.
func NewBitReader(b []byte) *BitReader { return &BitReader{b: b} }

// Bits returns the number of bits left in r.
func (r *BitReader) Bits() int {
	return len(r.b)*8 - r.pos
}

// Read reads the next nbit bits from r.  nbit may not exceed 32.
func (r *BitReader) Read(nbit int) (uint32, error) {
	if r.Bits() < nbit {
		return 0, ErrTruncated
	}
	var v uint32
	for n := nbit; n > 0; {
		rem := 8 - r.pos&7
		take := min(rem, n)
		v = v<<take |
			uint32(r.b[r.pos>>3])>>(rem-take)&(1<<take-1)
		r.pos += take
		n -= take
	}
	return v, nil
}

// ReadBytes reads the next n bytes from r.
func (r *BitReader) ReadBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		v, err := r.Read(8)
		if err != nil {
			return nil, err
		}
		b[i] = byte(v)
	}
	return b, nil
}
