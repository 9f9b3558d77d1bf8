// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"sync"

	"github.com/unixdj/cqr/coding"
)

// splitPayload splits data between channels byte by byte:
// channel i gets bytes i, i+channels, i+2×channels and so on.
func splitPayload(data []byte, channels int) [][]byte {
	parts := make([][]byte, channels)
	share := (len(data) + channels - 1) / channels
	for i := range parts {
		parts[i] = make([]byte, 0, share)
	}
	for i, v := range data {
		parts[i%channels] = append(parts[i%channels], v)
	}
	return parts
}

// Encode encodes data as a symbol with the given error correction
// level and channel count, choosing the smallest version that fits.
func Encode(data []byte, level Level, channels int) (*Code, error) {
	return EncodeVersion(data, level, channels, coding.MinVersion)
}

// EncodeVersion is Encode with a minimum version.
func EncodeVersion(data []byte, level Level, channels int, min coding.Version) (*Code, error) {
	l := coding.Level(level)
	if level < L || level > H || channels < 1 ||
		channels > coding.MaxChannels ||
		min < coding.MinVersion || min > coding.MaxVersion {
		return nil, ErrArgs
	}

	// Channel 0 carries the largest share.
	share := (len(data) + channels - 1) / channels
	v := min
	for {
		need := coding.HeaderLength(channels) +
			coding.EncodedLength(share, v.SizeClass())
		if need <= v.DataBits(l, channels) {
			break
		}
		if v++; v > coding.MaxVersion {
			return nil, ErrPayloadTooLarge
		}
	}

	// Encode the channel planes.
	parts := splitPayload(data, channels)
	planes := make([]*coding.Code, channels)
	errs := make([]error, channels)
	var wg sync.WaitGroup
	for i := 0; i < channels; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := coding.NewEncoder(v, l, channels)
			if err != nil {
				errs[i] = err
				return
			}
			e.WriteChannelHeader(i, len(parts[i]))
			if err = e.Write(coding.Segment{
				Text: string(parts[i]),
				Mode: coding.Byte,
			}); err != nil {
				errs[i] = err
				return
			}
			planes[i], errs[i] = e.Code()
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return compose(v, l, planes)
}

// compose merges channel planes into a symbol.  Modules reserved for
// function patterns take the black and white bits of plane 0 in all
// channels; for symbols with more than one channel the dark module is
// cleared and the channel metadata block written over it.
func compose(v coding.Version, l coding.Level, planes []*coding.Code) (*Code, error) {
	channels := len(planes)
	p, err := coding.NewPlan(v, l, channels)
	if err != nil {
		return nil, err
	}
	siz := p.Size
	c := NewCode(siz, channels)
	dark := byte(1<<channels - 1)
	stride := (siz + 7) >> 3
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			var idx byte
			if p.Map[y*stride+x>>3]&(0x80>>(x&7)) != 0 {
				if planes[0].Black(x, y) {
					idx = dark
				}
			} else {
				for ch, pl := range planes {
					if pl.Black(x, y) {
						idx |= 1 << ch
					}
				}
			}
			c.Pix[y*siz+x] = idx
		}
	}
	if channels > 1 {
		c.Pix[(siz-8)*siz+8] = 0 // light signals multicolor
		var masks [coding.MaxChannels]int
		for i, pl := range planes {
			masks[i] = pl.Mask
		}
		mb := coding.MetaBits(channels, masks)
		for i := 0; i < coding.MetaModules; i++ {
			if mb>>i&1 != 0 {
				x, y := coding.MetaPos(i)
				c.Pix[y*siz+x] = dark
			}
		}
	}
	return c, nil
}
