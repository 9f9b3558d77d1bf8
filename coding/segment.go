// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Predefined encoding modes.
const (
	Byte   Mode = iota // byte mode, any data
	Latin1             // byte mode, UTF-8 text encoded as ISO 8859-1
)

// A Mode is a segment encoder.  Multicolor symbols carry arbitrary
// byte payloads, so only byte mode and its Latin-1 text transform are
// supported.
type Mode int

// byteIndicator is the mode indicator of a byte mode segment.
const byteIndicator = 4

// countLength lists lengths of the character count field of a byte
// mode segment in the three version size classes.
var countLength = [3]byte{8, 16, 16}

type modeEncoder struct {
	name string
	// transform returns the string transformed for encoding.
	transform func(string) (string, bool)
}

var modes = [...]modeEncoder{
	Byte: {name: "byte"},
	Latin1: {
		name: "latin-1",
		transform: func(s string) (string, bool) {
			t, err := charmap.ISO8859_1.NewEncoder().String(s)
			return t, err == nil
		},
	},
}

func (mode Mode) String() string {
	if mode >= 0 && int(mode) < len(modes) {
		return modes[mode].name
	}
	return fmt.Sprintf("%d", int(mode))
}

// A Segment describes a data segment of one channel.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	return fmt.Sprintf("cqr: non-%s string %#q", e.Mode, e.Text)
}

// Transform transforms seg into a byte mode segment.
func (seg Segment) Transform() (Segment, error) {
	if seg.Mode < 0 || int(seg.Mode) >= len(modes) {
		return Segment{}, ErrMode
	}
	if f := modes[seg.Mode].transform; f != nil {
		t, ok := f(seg.Text)
		if !ok {
			return Segment{}, SegmentError(seg)
		}
		seg = Segment{t, Byte}
	}
	return seg, nil
}

// EncodedLength returns the encoded length in bits of a byte mode
// segment of n bytes in the given version size class, including the
// header.
func EncodedLength(n, class int) int {
	return 4 + int(countLength[class]) + n*8
}

// Encode writes seg encoded for the given version size class to b.
func (seg Segment) Encode(b *Bits, class int) error {
	ts, err := seg.Transform()
	if err != nil {
		return err
	}
	s := ts.Text
	b.Write(byteIndicator, 4)
	b.Write(uint32(len(s)), int(countLength[class]))
	if b.nbit&7 != 0 {
		for ; len(s) >= 4; s = s[4:] {
			v := uint32(s[0])<<24 | uint32(s[1])<<16 |
				uint32(s[2])<<8 | uint32(s[3])
			b.Write(v, 32)
		}
		for i := 0; i < len(s); i++ {
			b.Write(uint32(s[i]), 8)
		}
	} else {
		b.b = append(b.b, s...)
		b.nbit += len(s) * 8
	}
	return nil
}

// ChannelHeader writes the channel multiplexing header to b: the
// total channel count, this channel's index and its payload length
// in bytes.  Symbols with a single channel carry no header.
func ChannelHeader(b *Bits, channels, index, length int) {
	b.Write(uint32(channels), 4)
	b.Write(uint32(index), 4)
	b.Write(uint32(length), 16)
}

// HeaderLength returns the encoded length in bits of the channel
// multiplexing header.
func HeaderLength(channels int) int {
	if channels > 1 {
		return 24
	}
	return 0
}

// ParsePayload extracts the payload of channel index from the
// corrected data codewords of one channel.
func ParsePayload(data []byte, class, channels, index int) ([]byte, error) {
	r := NewBitReader(data)
	length := -1
	if channels > 1 {
		v, err := r.Read(24)
		if err != nil {
			return nil, err
		}
		if int(v>>20) != channels || int(v>>16&0xf) != index {
			return nil, ErrChannelMismatch
		}
		length = int(v & 0xffff)
	}
	mode, err := r.Read(4)
	if err != nil {
		return nil, err
	}
	if mode == 0 { // terminator: empty channel
		if length > 0 {
			return nil, ErrChannelMismatch
		}
		return []byte{}, nil
	}
	if mode != byteIndicator {
		return nil, ErrMode
	}
	count, err := r.Read(int(countLength[class]))
	if err != nil {
		return nil, err
	}
	if length >= 0 && int(count) != length {
		return nil, ErrChannelMismatch
	}
	return r.ReadBytes(int(count))
}
