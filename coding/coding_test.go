// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestFormatTable(t *testing.T) {
	// ISO/IEC 18004, annex C
	if ftab[L][0] != 0x77c4 {
		t.Errorf("ftab[L][0] = %#x, want 0x77c4", ftab[L][0])
	}
	if ftab[M][5] != 0x40ce {
		t.Errorf("ftab[M][5] = %#x, want 0x40ce", ftab[M][5])
	}
}

func TestVersionInfoTable(t *testing.T) {
	// ISO/IEC 18004, annex D
	for _, tc := range []struct {
		v    uint32
		want uint32
	}{
		{7, 0x07c94},
		{21, 0x15683},
		{40, 0x28c69},
	} {
		if got := calcVersionInfo(tc.v); got != tc.want {
			t.Errorf("calcVersionInfo(%d) = %#x, want %#x",
				tc.v, got, tc.want)
		}
	}
}

// remainder returns the number of leftover modules after the last
// codeword of a version.
func remainder(v Version) int {
	switch {
	case v == 1:
		return 0
	case v <= 6:
		return 7
	case v <= 13:
		return 0
	case v <= 20:
		return 3
	case v <= 27:
		return 4
	case v <= 34:
		return 3
	}
	return 0
}

func TestPlanCapacity(t *testing.T) {
	for v := MinVersion; v <= MaxVersion; v++ {
		for _, channels := range []int{1, 2} {
			p, err := NewPlan(v, L, channels)
			if err != nil {
				t.Fatalf("NewPlan(%d, L, %d): %v",
					v, channels, err)
			}
			if p.Size != int(v)*4+17 {
				t.Fatalf("version %d: size %d", v, p.Size)
			}
			zero := 0
			for _, b := range p.Map {
				for m := byte(0x80); m != 0; m >>= 1 {
					if b&m == 0 {
						zero++
					}
				}
			}
			want := v.totalBytes(channels)*8 + remainder(v)
			if zero != want {
				t.Errorf("version %d, %d channels: "+
					"%d data modules, want %d",
					v, channels, zero, want)
			}
		}
		for l := L; l <= H; l++ {
			if v.DataBits(l, MaxChannels) <= 0 {
				t.Errorf("version %d-%s: no capacity", v, l)
			}
		}
	}
}

func TestBitReader(t *testing.T) {
	var b Bits
	b.Write(0x5, 3)
	b.Write(0x1234, 16)
	b.Write(0x0, 2)
	b.Write(0x7ffff, 19)
	b.PadTo(4, 64)
	r := NewBitReader(b.Bytes())
	for _, tc := range []struct {
		nbit int
		want uint32
	}{
		{3, 0x5}, {16, 0x1234}, {2, 0}, {19, 0x7ffff}, {24, 0x00ec11},
	} {
		v, err := r.Read(tc.nbit)
		if err != nil {
			t.Fatalf("Read(%d): %v", tc.nbit, err)
		}
		if v != tc.want {
			t.Errorf("Read(%d) = %#x, want %#x",
				tc.nbit, v, tc.want)
		}
	}
	if _, err := r.Read(32); !errors.Is(err, ErrTruncated) {
		t.Errorf("Read past end: %v", err)
	}
}

func testBuf(v Version, l Level, channels int, rnd *rand.Rand) (*Bits, []byte) {
	b := NewBits(v, l, channels)
	data := b.Add(v.totalBytes(channels))
	for i := range data {
		data[i] = byte(rnd.Intn(256))
	}
	return b, append([]byte{}, data...)
}

func TestPermute(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for _, tc := range []struct {
		v Version
		l Level
	}{
		{1, L}, {3, Q}, {5, H}, {13, M}, {14, H}, {40, L},
	} {
		for _, channels := range []int{1, 3} {
			b, orig := testBuf(tc.v, tc.l, channels, rnd)
			s := b.Permute(tc.v, tc.l, channels)
			got := Unpermute(s.Bytes(), tc.v, tc.l, channels)
			if !bytes.Equal(got, orig) {
				t.Errorf("%d-%s/%d: Unpermute != Permute⁻¹",
					tc.v, tc.l, channels)
			}
		}
	}
}

func TestSerialise(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	for _, tc := range []struct {
		v        Version
		l        Level
		channels int
	}{
		{1, L, 1}, {2, H, 1}, {2, H, 2}, {7, M, 4}, {24, Q, 2}, {40, H, 1},
	} {
		p, err := NewPlan(tc.v, tc.l, tc.channels)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := testBuf(tc.v, tc.l, tc.channels, rnd)
		s := b.Permute(tc.v, tc.l, tc.channels)
		bitmap := make([]byte, len(p.Map))
		p.Serialise(s, bitmap)
		total := tc.v.totalBytes(tc.channels)
		out := p.Deserialise(bitmap)[:total]
		if !bytes.Equal(out, s.Bytes()[:total]) {
			t.Errorf("%d-%s/%d: Deserialise != Serialise⁻¹",
				tc.v, tc.l, tc.channels)
		}
	}
}

func TestSegment(t *testing.T) {
	if _, err := (Segment{"héllo", Latin1}).Transform(); err != nil {
		t.Errorf("latin-1 transform: %v", err)
	}
	if _, err := (Segment{"こんにちは", Latin1}).Transform(); err == nil {
		t.Errorf("latin-1 transform of non-latin text succeeded")
	}

	text := "multichannel"
	var b Bits
	ChannelHeader(&b, 3, 1, len(text))
	if err := (Segment{text, Byte}).Encode(&b, Class1); err != nil {
		t.Fatal(err)
	}
	b.PadTo(4, (b.Bits()+15)&^7)
	got, err := ParsePayload(b.Bytes(), Class1, 3, 1)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if string(got) != text {
		t.Errorf("ParsePayload = %q, want %q", got, text)
	}
	if _, err = ParsePayload(b.Bytes(), Class1, 3, 2); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("ParsePayload with wrong index: %v", err)
	}
	if _, err = ParsePayload(b.Bytes(), Class1, 4, 1); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("ParsePayload with wrong channel count: %v", err)
	}
}

// fill returns text occupying most of one channel.
func fill(v Version, l Level, channels int) string {
	const s = "pack my box with five dozen liquor jugs. "
	n := (v.DataBits(l, channels) - HeaderLength(channels) - 24) / 8
	return strings.Repeat(s, n/len(s)+1)[:n]
}

func TestEncodeDecode(t *testing.T) {
	for _, tc := range []struct {
		v Version
		l Level
	}{
		{1, L}, {2, H}, {5, Q}, {7, M}, {11, L}, {27, Q}, {40, H},
	} {
		text := fill(tc.v, tc.l, 1)
		c, err := Encode(tc.v, tc.l, Segment{text, Byte})
		if err != nil {
			t.Fatalf("%d-%s: Encode: %v", tc.v, tc.l, err)
		}
		if err = c.CheckStructure(); err != nil {
			t.Fatalf("%d-%s: CheckStructure: %v", tc.v, tc.l, err)
		}
		if !c.DarkModule() {
			t.Errorf("%d-%s: dark module not set", tc.v, tc.l)
		}
		lev, mask, err := c.ReadFormat()
		if err != nil {
			t.Fatalf("%d-%s: ReadFormat: %v", tc.v, tc.l, err)
		}
		if lev != tc.l || mask != c.Mask {
			t.Fatalf("%d-%s: ReadFormat = %s, %d, want %s, %d",
				tc.v, tc.l, lev, mask, tc.l, c.Mask)
		}
		if tc.v >= 7 {
			ver, err := c.ReadVersionInfo()
			if err != nil || ver != tc.v {
				t.Fatalf("%d-%s: ReadVersionInfo = %s, %v",
					tc.v, tc.l, ver, err)
			}
		}
		p, err := NewPlan(tc.v, tc.l, 1)
		if err != nil {
			t.Fatal(err)
		}
		data, n, err := p.DecodeChannel(c, mask)
		if err != nil || n != 0 {
			t.Fatalf("%d-%s: DecodeChannel = %d, %v",
				tc.v, tc.l, n, err)
		}
		got, err := ParsePayload(data, tc.v.SizeClass(), 1, 0)
		if err != nil {
			t.Fatalf("%d-%s: ParsePayload: %v", tc.v, tc.l, err)
		}
		if string(got) != text {
			t.Errorf("%d-%s: decoded text differs", tc.v, tc.l)
		}
	}
}

func TestEncodeDecodeChannel(t *testing.T) {
	const v, l, channels, index = 6, Q, 4, 2
	text := fill(v, l, channels)
	e, err := NewEncoder(v, l, channels)
	if err != nil {
		t.Fatal(err)
	}
	e.WriteChannelHeader(index, len(text))
	if err = e.Write(Segment{text, Byte}); err != nil {
		t.Fatal(err)
	}
	c, err := e.Code()
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPlan(v, l, channels)
	if err != nil {
		t.Fatal(err)
	}
	data, _, err := p.DecodeChannel(c, c.Mask)
	if err != nil {
		t.Fatalf("DecodeChannel: %v", err)
	}
	got, err := ParsePayload(data, Version(v).SizeClass(), channels, index)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if string(got) != text {
		t.Errorf("decoded text differs")
	}
}

func TestEncodeTooLong(t *testing.T) {
	e, err := NewEncoder(1, H, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err = e.Write(Segment{strings.Repeat("x", 100), Byte}); err != nil {
		t.Fatal(err)
	}
	if _, err = e.Code(); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("Code: %v", err)
	}
}

// flip toggles the module at x, y.
func (c *Code) flip(x, y int) {
	c.Bitmap[y*c.Stride+x>>3] ^= 0x80 >> (x & 7)
}

func TestDecodeDamaged(t *testing.T) {
	const v, l = 3, H // 2 blocks of 22 check bytes
	text := fill(v, l, 1)
	c, err := Encode(v, l, Segment{text, Byte})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPlan(v, l, 1)
	if err != nil {
		t.Fatal(err)
	}
	// flip every 97th data module, damaging 8 codewords at most
	flipped, i := 0, 0
	for y := 0; y < c.Size && flipped < 8; y++ {
		for x := 0; x < c.Size && flipped < 8; x++ {
			if p.Map[y*c.Stride+x>>3]&(0x80>>(x&7)) != 0 {
				continue
			}
			if i++; i%97 == 0 {
				c.flip(x, y)
				flipped++
			}
		}
	}
	data, n, err := p.DecodeChannel(c, c.Mask)
	if err != nil {
		t.Fatalf("DecodeChannel: %v", err)
	}
	if n == 0 || n > flipped {
		t.Errorf("DecodeChannel corrected %d of %d damaged modules",
			n, flipped)
	}
	got, err := ParsePayload(data, Version(v).SizeClass(), 1, 0)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if string(got) != text {
		t.Errorf("decoded text differs")
	}
}

func TestReadFormatDamaged(t *testing.T) {
	c, err := Encode(2, M, Segment{"format", Byte})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		c.flip(c.pos(fmtPosB[i*4]))
	}
	lev, mask, err := c.ReadFormat()
	if err != nil || lev != M || mask != c.Mask {
		t.Errorf("ReadFormat = %s, %d, %v", lev, mask, err)
	}
}

func TestReadVersionInfoDamaged(t *testing.T) {
	c, err := Encode(8, L, Segment{"version", Byte})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		ax, ay, _, _ := versionInfoPos(i*5, c.Size)
		c.flip(ax, ay)
	}
	ver, err := c.ReadVersionInfo()
	if err != nil || ver != 8 {
		t.Errorf("ReadVersionInfo = %s, %v", ver, err)
	}
}

func TestMeta(t *testing.T) {
	masks := [MaxChannels]int{6, 5, 2, 7}
	for channels := 2; channels <= MaxChannels; channels++ {
		c := NewCode(25)
		mb := MetaBits(channels, masks)
		for i := 0; i < MetaModules; i++ {
			if mb>>i&1 != 0 {
				c.Set(MetaPos(i))
			}
		}
		for i := 0; i < 3; i++ {
			c.flip(MetaPos(i*7 + 1))
		}
		ch, got, err := c.ReadMeta()
		if err != nil {
			t.Fatalf("%d channels: ReadMeta: %v", channels, err)
		}
		if ch != channels {
			t.Errorf("%d channels: ReadMeta count = %d",
				channels, ch)
		}
		for i := 1; i < channels; i++ {
			if got[i] != masks[i] {
				t.Errorf("%d channels: mask %d = %d, want %d",
					channels, i, got[i], masks[i])
			}
		}
	}
	// a blank block is beyond repair, not a mismatched header
	if _, _, err := NewCode(25).ReadMeta(); !errors.Is(err, ErrMeta) {
		t.Errorf("ReadMeta of blank block: %v", err)
	}
}

func TestCheckStructure(t *testing.T) {
	c := NewCode(21)
	if err := c.CheckStructure(); !errors.Is(err, ErrStructure) {
		t.Errorf("CheckStructure of empty grid: %v", err)
	}
	var err error
	if c, err = Encode(1, M, Segment{"ok", Byte}); err != nil {
		t.Fatal(err)
	}
	for i := range c.Bitmap {
		c.Bitmap[i] ^= 0xff
	}
	if err := c.CheckStructure(); !errors.Is(err, ErrStructure) {
		t.Errorf("CheckStructure of inverted code: %v", err)
	}
}
