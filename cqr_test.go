// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"bytes"
	"fmt"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/cqr/coding"
)

func payload(n int, seed int64) []byte {
	rnd := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rnd.Intn(256))
	}
	return b
}

func TestSplitJoin(t *testing.T) {
	for n := 0; n < 30; n++ {
		data := payload(n, int64(n))
		for k := 1; k <= coding.MaxChannels; k++ {
			parts := splitPayload(data, k)
			require.Len(t, parts, k)
			got, err := joinPayload(parts)
			require.NoError(t, err)
			assert.Equal(t, data, got, "n=%d k=%d", n, k)
		}
	}
	// shares violating the round robin order
	_, err := joinPayload([][]byte{{1}, {2, 3}})
	assert.ErrorIs(t, err, coding.ErrChannelMismatch)
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 25, 100, 500} {
		data := payload(n, int64(n))
		for k := 1; k <= coding.MaxChannels; k++ {
			for _, lev := range []Level{L, M, Q, H} {
				c, err := Encode(data, lev, k)
				require.NoError(t, err, "n=%d k=%d %v",
					n, k, lev)
				require.Equal(t, k, c.Channels)
				got, err := Decode(c)
				require.NoError(t, err, "n=%d k=%d %v",
					n, k, lev)
				assert.Equal(t, data, got, "n=%d k=%d %v",
					n, k, lev)
			}
		}
	}
}

func TestMonochromeCompat(t *testing.T) {
	c, err := Encode([]byte("standard symbol"), M, 1)
	require.NoError(t, err)
	// dark module dark
	assert.True(t, c.Black(8, c.Size-8))
	// the composed grid is the channel plane
	bw := c.bw()
	assert.Equal(t, bw.Bitmap, c.plane(0).Bitmap)
	// and identical to a classic single-channel encoding
	v, err := coding.VersionForSize(c.Size)
	require.NoError(t, err)
	ref, err := coding.Encode(v, coding.M,
		coding.Segment{Text: "standard symbol", Mode: coding.Byte})
	require.NoError(t, err)
	assert.Equal(t, ref.Bitmap, bw.Bitmap)
}

func TestMulticolorSignal(t *testing.T) {
	c, err := Encode([]byte("two channels"), Q, 2)
	require.NoError(t, err)
	assert.False(t, c.Black(8, c.Size-8))
	ch, _, err := c.bw().ReadMeta()
	require.NoError(t, err)
	assert.Equal(t, 2, ch)
}

func TestEncodeVersion(t *testing.T) {
	c, err := EncodeVersion([]byte("big"), L, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, coding.Version(10).Size(), c.Size)
}

func TestPayloadTooLarge(t *testing.T) {
	_, err := Encode(payload(20000, 1), H, 1)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	// four channels carry what one cannot
	c, err := Encode(payload(4000, 1), L, 4)
	require.NoError(t, err)
	got, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, payload(4000, 1), got)
}

func TestDecodeDamaged(t *testing.T) {
	data := payload(50, 5)
	c, err := Encode(data, H, 3)
	require.NoError(t, err)
	v, err := coding.VersionForSize(c.Size)
	require.NoError(t, err)
	p, err := coding.NewPlan(v, coding.H, 3)
	require.NoError(t, err)
	// recolour every 101st data module
	stride := (c.Size + 7) >> 3
	n := 0
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			if p.Map[y*stride+x>>3]&(0x80>>(x&7)) != 0 {
				continue
			}
			if n++; n%101 == 0 {
				c.Pix[y*c.Size+x] ^= 5
			}
		}
	}
	got, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeChannelsMismatch(t *testing.T) {
	c, err := Encode([]byte("mismatch"), L, 2)
	require.NoError(t, err)
	c.Channels = 3
	_, err = Decode(c)
	assert.ErrorIs(t, err, coding.ErrChannelMismatch)
	c, err = Encode([]byte("mismatch"), L, 1)
	require.NoError(t, err)
	c.Channels = 2
	_, err = Decode(c)
	assert.ErrorIs(t, err, coding.ErrChannelMismatch)
	// a zero claim accepts any symbol
	c.Channels = 0
	got, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, []byte("mismatch"), got)
}

func TestClassifier(t *testing.T) {
	for k := 1; k <= coding.MaxChannels; k++ {
		pal := PaletteFor(k)
		require.Len(t, pal, 1<<k)
		cl := Classifier{Palette: pal, Margin: 1000}
		for i, p := range pal {
			got, err := cl.Classify(p)
			require.NoError(t, err, "palette %d colour %d", k, i)
			assert.Equal(t, i, got)
		}
	}
	cl := Classifier{Palette: PaletteFor(4), Margin: 1000}
	_, err := cl.Classify(color.RGBA{0x00, 0xc0, 0xc0, 0xff})
	assert.ErrorIs(t, err, ErrAmbiguousColor)
	assert.True(t, cl.Dark(color.RGBA{0x00, 0x00, 0x80, 0xff}))
	assert.False(t, cl.Dark(color.RGBA{0xff, 0xff, 0x00, 0xff}))
}

func TestImage(t *testing.T) {
	c, err := Encode([]byte("image"), M, 2)
	require.NoError(t, err)
	c.Scale, c.Border = 2, 3
	img := c.Image()
	d := (c.Size + 6) * 2
	assert.Equal(t, d, img.Bounds().Dx())
	// quiet zone is white
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.At(0, 0))
	// top left module of the finder is black
	assert.Equal(t, color.RGBA{0x00, 0x00, 0x00, 0xff},
		img.At(6, 6))
}

func TestEncodePPM(t *testing.T) {
	c, err := Encode([]byte("netpbm"), L, 2)
	require.NoError(t, err)
	c.Scale, c.Border = 1, 2
	var b bytes.Buffer
	require.NoError(t, c.EncodePPM(&b))
	length := c.Size + 4
	head := fmt.Sprintf("P6\n%d %d\n255\n", length, length)
	require.True(t, bytes.HasPrefix(b.Bytes(), []byte(head)))
	assert.Equal(t, len(head)+length*length*3, b.Len())
	assert.Error(t, c.EncodePBM(&b))
}

func TestEncodePBM(t *testing.T) {
	c, err := Encode([]byte("netpbm"), L, 1)
	require.NoError(t, err)
	c.Scale, c.Border = 1, 0
	var b bytes.Buffer
	require.NoError(t, c.EncodePBM(&b))
	head := fmt.Sprintf("P4\n%d %d\n", c.Size, c.Size)
	require.True(t, bytes.HasPrefix(b.Bytes(), []byte(head)))
	assert.Equal(t, len(head)+(c.Size+7)/8*c.Size, b.Len())
}
