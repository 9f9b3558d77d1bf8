// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package cqr encodes and decodes multicolor QR symbols.

A symbol with a palette of 2ᵏ colours carries k channels.  Each
channel is an independent QR data layer over the shared geometry,
with its own codewords, Reed-Solomon blocks and mask; the colour of a
module is the palette entry indexed by the k channel bits.  A symbol
with one channel is a standard black and white QR code.  Payloads are
split between channels byte by byte, round robin.
*/
package cqr // import "github.com/unixdj/cqr"

import (
	"errors"

	"github.com/unixdj/cqr/coding"
)

var (
	ErrArgs            = errors.New("cqr: invalid arguments")
	ErrAmbiguousColor  = errors.New("cqr: ambiguous module colour")
	ErrPayloadTooLarge = coding.ErrDataTooLong
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 20% redundant
	M              // 38% redundant
	Q              // 55% redundant
	H              // 65% redundant
)
