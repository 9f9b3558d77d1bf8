// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "sync"

// A Plan describes how to construct one channel of a symbol with a
// specific version, level and channel count.
type Plan struct {
	Version  Version // version
	Level    Level   // error correction level
	Channels int     // number of channels in the symbol

	DataBits int // number of data bits per channel
	Size     int // number of modules on a side

	Map     []byte    // module map: 0 is data or checksum, 1 is other
	Pattern [8][]byte // function patterns, format and mask per mask id
}

// NewPlan returns a Plan for a symbol with the given version, level
// and channel count.
func NewPlan(version Version, level Level, channels int) (*Plan, error) {
	pp, err := makePlan(version, level, channels)
	if err != nil {
		return nil, err
	}
	p := *pp
	siz := len(pp.Map)
	bitmap := make([]byte, cap(pp.Map))
	copy(bitmap, pp.Map[:cap(pp.Map)])
	p.Map, bitmap = bitmap[:siz], bitmap[siz:]
	for i := range p.Pattern {
		p.Pattern[i], bitmap = bitmap[:siz], bitmap[siz:]
	}
	return &p, nil
}

// Pre-allocated Plans.  A Plan is created the first time a
// combination of version, level and channel count class is used.
var plans [MaxVersion + 1][H + 1][2]struct {
	once sync.Once
	p    *Plan
}

// makePlan returns the cached plan for the given parameters,
// creating it if needed.
func makePlan(version Version, level Level, channels int) (*Plan, error) {
	if version < MinVersion || version > MaxVersion {
		return nil, ErrVersion
	}
	if level < L || level > H {
		return nil, ErrLevel
	}
	if channels < 1 || channels > MaxChannels {
		return nil, ErrChannel
	}
	multi := 0
	if channels > 1 {
		multi = 1
	}
	p := &plans[version][level][multi]
	p.once.Do(func() {
		pp := vplan(version, level, channels)
		for mask, v := range ftab[level] {
			fplan(v, mask, pp)
			mplan(mask, pp)
		}
		p.p = pp
	})
	pp := *p.p
	if channels > 1 {
		pp.Channels = channels
	}
	return &pp, nil
}

func set16(b []byte, bits uint16) {
	_ = b[1]
	b[0] |= byte(bits >> 8)
	b[1] |= byte(bits)
}

// vplan creates a Plan for the given version with the function
// patterns of mask 0 drawn and no format information.
func vplan(v Version, l Level, channels int) *Plan {
	info := &vtab[v]
	siz := v.Size()
	stride := (siz + 7) >> 3
	p := &Plan{
		Version:  v,
		Level:    l,
		Channels: channels,
		DataBits: v.DataBits(l, channels),
		Size:     siz,
	}
	bitmap := make([]byte, stride*siz*9)
	p.Map, bitmap = bitmap[:stride*siz], bitmap[stride*siz:]
	p.Pattern[0] = bitmap

	// Timing markers (overwritten by boxes).
	// Vertical.  Mask ends of rows.
	mpat := uint16(0xffff) >> (siz & 7) & 0xff02
	for n := stride - 1; n+1 < len(p.Map); n += stride {
		set16(p.Map[n:], mpat)
		n += stride
		set16(p.Map[n:], mpat)
		bitmap[n+1] = 0x02
	}
	p.Map[len(p.Map)-1] = byte(mpat >> 8)
	// Horizontal.
	for n := stride*6 + 1; n < stride*7-1; n++ {
		p.Map[n] = 0xff
		bitmap[n] = 0xaa
	}

	// Position boxes.
	// Mask 9x9 modules on top left, 8x9 on top right, 9x8 on bottom left.
	off := stride - 2
	shift := 6 &^ siz
	lpat := uint64(0xfe82bababa82fe)
	mpat = 0x1fe << shift
	for i, s, e := 0, 0, len(p.Map)-stride; ; i++ {
		set16(p.Map[s:], 0xff80)   // top left
		set16(p.Map[s+off:], mpat) // top right
		if i == 8 {
			break
		}
		set16(p.Map[e:], 0xff80) // bottom left
		bitmap[e] = byte(lpat)
		set16(bitmap[s+off:], uint16(lpat&0xff)<<shift)
		e -= stride
		bitmap[s] = byte(lpat)
		lpat >>= 8
		s += stride
	}

	// Alignment boxes.
	for x := info.apos; ; x += info.astride {
		for y := info.apos; y < siz; y += info.astride {
			alignBox(p, x, y)
		}
		if x >= siz-12 {
			break
		}
		alignBox(p, x, 4)
		alignBox(p, 4, x)
	}

	// Version information.
	if v >= 7 {
		vi := calcVersionInfo(uint32(v))
		for i := 0; i < 18; i++ {
			ax, ay, bx, by := versionInfoPos(i, siz)
			p.Map[ay*stride+ax>>3] |= 0x80 >> (ax & 7)
			p.Map[by*stride+bx>>3] |= 0x80 >> (bx & 7)
			if vi>>i&1 != 0 {
				bitmap[ay*stride+ax>>3] |= 0x80 >> (ax & 7)
				bitmap[by*stride+bx>>3] |= 0x80 >> (bx & 7)
			}
		}
	}

	// One lonely black module.
	bitmap[(siz-8)*stride+1] = 0x80

	// Channel metadata block: reserved, light in every pattern.
	if channels > 1 {
		for i := 0; i < MetaModules; i++ {
			x, y := MetaPos(i)
			p.Map[y*stride+x>>3] |= 0x80 >> (x & 7)
		}
	}

	sz := len(p.Map)
	for n := sz; n < len(bitmap); {
		n += copy(bitmap[n:], bitmap[:n])
	}
	for i := range p.Pattern {
		p.Pattern[i], bitmap = bitmap[:sz], bitmap[sz:]
	}
	return p
}

// fplan sets the format bits.
func fplan(fb uint16, mask int, p *Plan) {
	c := Code{
		Bitmap: p.Pattern[mask],
		Size:   p.Size,
		Stride: (p.Size + 7) >> 3,
	}
	for i := 0; i < 15; i++ {
		if fb>>i&1 != 0 {
			c.setFmt(i)
		}
	}
}

// Mask patterns:
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
//	   ███   ███         ▄▄▄▄▄ ▄▄▄▄▄        ▄▄▄   ▄▄▄     ▄█▄▀ ▀▄█▄▀ ▀
//	      ███   ███      █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	   ███   ███         ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
var maskPat = [8][]uint16{
	{05252, 02525},
	{07777, 00000},
	{04444},
	{04444, 01111, 02222},
	{07070, 07070, 00707, 00707},
	{07777, 04040, 04444, 05252, 04444, 04040},
	{07777, 07070, 06666, 05252, 05555, 04343},
	{05252, 00707, 04343, 02525, 07070, 03434},
}

// mplan edits a version+level-only Plan to add the mask.
func mplan(mask int, p *Plan) {
	stride := (p.Size + 7) >> 3
	var mpbuf [(int(MaxVersion)*4 + 17 + 7) / 8 * 6]byte
	b := p.Pattern[mask]
	m := p.Map[:len(b)]
	mpx := maskPat[mask] // mask patterns
	// create a pattern of 1-6 rows of 3-23 bytes
	for i, v := range mpx {
		pr := mpbuf[i*stride:]
		_ = pr[2]
		pr[0], pr[1], pr[2] = byte(v>>4), byte(v>>2), byte(v)
		pr = pr[:stride]
		for n := 3; n < len(pr); n += copy(pr[n:], pr[:n]) {
		}
	}
	mp := mpbuf[:len(mpx)*stride] // mask pattern
	// apply mask pattern
	for len(b) != 0 {
		ml := min(len(b), len(mp))
		bb, mm := b[:ml], m[:ml]
		b, m = b[ml:], m[ml:]
		for i, v := range mp[:ml] {
			bb[i] |= v &^ mm[i]
		}
	}
}

// alignBox draws an alignment (small) box at upper left x, y.
func alignBox(p *Plan, x, y int) {
	stride := (p.Size + 7) >> 3
	mpat := uint32(0xf800) >> (x & 7)
	bpat := uint32(0xf8a8f800) >> (x & 7)
	for off := y*stride + x>>3; bpat > mpat; off += stride {
		set16(p.Map[off:], uint16(mpat))
		set16(p.Pattern[0][off:], uint16(bpat&mpat))
		bpat >>= 4
	}
}

// Serialise writes bits from s to the bitmap in zigzag scan order.
func (p *Plan) Serialise(s BitStream, bitmap []byte) {
	siz := p.Size
	stride := (siz + 7) >> 3
	pmap := p.Map
	for x := siz - 2; x >= 0; {
		lx, lb := x>>3, byte(0x80)>>(x&7)
		rxOff, rb := int(lb&1), byte(0x80)>>((x+1)&7)
		for off := (siz-1)*stride + lx; off >= 0; off -= stride {
			if pmap[off+rxOff]&rb == 0 && s.Next() != 0 {
				bitmap[off+rxOff] ^= rb
			}
			if pmap[off]&lb == 0 && s.Next() != 0 {
				bitmap[off] ^= lb
			}
		}
		x -= 2
		if x < 0 {
			return
		} else if x == 5 { // vertical timing strip
			x--
		}
		lx, lb = x>>3, byte(0x80)>>(x&7)
		rxOff, rb = int(lb&1), byte(0x80)>>((x+1)&7)
		for off := lx; off < len(pmap); off += stride {
			if pmap[off+rxOff]&rb == 0 && s.Next() != 0 {
				bitmap[off+rxOff] ^= rb
			}
			if pmap[off]&lb == 0 && s.Next() != 0 {
				bitmap[off] ^= lb
			}
		}
		x -= 2
	}
}

// Deserialise reads data module bits from the bitmap in zigzag scan
// order, reversing Serialise.  The trailing remainder bits are
// returned along with the codewords and ignored by callers.
func (p *Plan) Deserialise(bitmap []byte) []byte {
	siz := p.Size
	stride := (siz + 7) >> 3
	pmap := p.Map
	out := make([]byte, 0, p.Version.totalBytes(p.Channels)+1)
	var acc byte
	n := 0
	put := func(bit byte) {
		acc = acc<<1 | bit
		if n++; n&7 == 0 {
			out = append(out, acc)
		}
	}
	for x := siz - 2; x >= 0; {
		lx, lb := x>>3, byte(0x80)>>(x&7)
		rxOff, rb := int(lb&1), byte(0x80)>>((x+1)&7)
		for off := (siz-1)*stride + lx; off >= 0; off -= stride {
			if pmap[off+rxOff]&rb == 0 {
				put(bitmap[off+rxOff] & rb / rb)
			}
			if pmap[off]&lb == 0 {
				put(bitmap[off] & lb / lb)
			}
		}
		x -= 2
		if x < 0 {
			break
		} else if x == 5 {
			x--
		}
		lx, lb = x>>3, byte(0x80)>>(x&7)
		rxOff, rb = int(lb&1), byte(0x80)>>((x+1)&7)
		for off := lx; off < len(pmap); off += stride {
			if pmap[off+rxOff]&rb == 0 {
				put(bitmap[off+rxOff] & rb / rb)
			}
			if pmap[off]&lb == 0 {
				put(bitmap[off] & lb / lb)
			}
		}
		x -= 2
	}
	if n&7 != 0 {
		out = append(out, acc<<(8-n&7))
	}
	return out
}
