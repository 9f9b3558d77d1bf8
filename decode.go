// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cqr

import (
	"sync"

	"github.com/unixdj/cqr/coding"
)

// joinPayload reverses splitPayload, validating the round robin
// invariant: parts may shrink by at most one byte, in order.
func joinPayload(parts [][]byte) ([]byte, error) {
	channels := len(parts)
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, n)
	for i, p := range parts {
		if len(p) != (n-i+channels-1)/channels {
			return nil, coding.ErrChannelMismatch
		}
		for j, v := range p {
			out[i+j*channels] = v
		}
	}
	return out, nil
}

// Decode decodes the payload of a sampled symbol.  If c.Channels is
// nonzero it must match the channel count read from the symbol.
func Decode(c *Code) ([]byte, error) {
	v, err := coding.VersionForSize(c.Size)
	if err != nil {
		return nil, err
	}
	bw := c.bw()
	if err = bw.CheckStructure(); err != nil {
		return nil, err
	}
	level, mask0, err := bw.ReadFormat()
	if err != nil {
		return nil, err
	}
	if v >= 7 {
		vv, err := bw.ReadVersionInfo()
		if err != nil {
			return nil, err
		}
		if vv != v {
			return nil, coding.ErrVersionInfo
		}
	}
	channels := 1
	var masks [coding.MaxChannels]int
	masks[0] = mask0
	if !bw.DarkModule() {
		var err error
		if channels, masks, err = bw.ReadMeta(); err != nil {
			return nil, err
		}
		masks[0] = mask0
	}
	if c.Channels != 0 && c.Channels != channels {
		return nil, coding.ErrChannelMismatch
	}

	p, err := coding.NewPlan(v, level, channels)
	if err != nil {
		return nil, err
	}
	class := v.SizeClass()
	parts := make([][]byte, channels)
	errs := make([]error, channels)
	var wg sync.WaitGroup
	for i := 0; i < channels; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, _, err := p.DecodeChannel(c.plane(i), masks[i])
			if err != nil {
				errs[i] = err
				return
			}
			parts[i], errs[i] = coding.ParsePayload(
				data, class, channels, i)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return joinPayload(parts)
}
