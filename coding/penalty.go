// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Penalty returns the penalty value for one channel of a symbol.
// The value is used for choosing the mask.
func (c *Code) Penalty() int {
	siz, stride := c.Size, c.Stride
	bm := c.Bitmap

	// Total penalty is the sum of penalties for runs and boxes
	// of same-colour modules, finder patterns and colour balance.
	//
	//   - RunP: for non-overlapping runs of n modules, n>=5 -> n-2
	//   - BoxP: for possibly overlapping 2x2 boxes -> 3
	//   - FindP: for possibly overlapping finder patterns -> 40
	//     The pattern is 010111010 with 000 on either side,
	//     or inverted; may extend into the quiet zone
	//   - BalP: for n% of black modules -> 10*(ceiling(abs(n-50)/5)-1)
	//
	// https://www.nayuki.io/page/creating-a-qr-code-step-by-step
	const (
		MinRun    = 5             // RunP:  minimum run length
		RunPDelta = -2            // RunP:  add to run length
		BoxPP     = 3             // BoxP:  points per box
		FindPP    = 40            // FindP: points per pattern
		BalPP     = 10            // BalP:  10 points
		BalPMul   = 20            //        for every 5% (1/20),
		BalPMax   = BalPMul/2 - 1 //        up to 9 times

		// last modules are stored in a uint16, and when matching
		// against 12 bit finder patterns are shifted left 4 bits.
		pShift = 16 - 12
		// finder patterns:
		FindB = uint16(0b0000_1011101_0 << pShift) // quiet zone before
		FindA = uint16(0b0_1011101_0000 << pShift) // quiet zone after
		LoseB = ^FindB &^ (1<<pShift - 1)          // inverted FindB
		LoseA = ^FindA &^ (1<<pShift - 1)          // inverted FindA
	)

	p := 0   // total penalty
	bal := 0 // black modules (shifted left 4)
	// horizontal runs: RunP, FindP, BoxP and count black modules for BalP
	var line, prev []byte
	for len(bm) >= stride {
		prev, line, bm = line, bm[:stride], bm[stride:]
		r := 1                      // current run length for RunP
		pat := uint16(line[0] >> 3) // last 12 modules for FindP, BoxP
		var pp uint16               // previous line modules for BoxP
		if len(prev) != 0 {
			pp = uint16(prev[0] >> 3)
		}
		bal += int(pat) & (1 << pShift)
		// Scan rows from x=1.  BoxP is detected at the bottom right
		// module, RunP and FindP require even larger x.
		for x := 1; x < siz; x++ {
			pat = pat<<1 | uint16(line[x>>3])>>(7&^x)<<pShift
			if xx := x >> 3; xx < len(prev) {
				pp = pp<<1 | uint16(prev[xx])>>(7&^x)<<pShift
			}
			bal += int(pat) & (1 << pShift) // BalP count
			switch pat {
			case FindB, FindA, LoseB, LoseA:
				p += FindPP // FindP
			}
			if (pat-1<<pShift)&(2<<pShift) == 0 { // colour change
				if r >= MinRun {
					p += r + RunPDelta // RunP
				}
				r = 0
			} else if len(prev) != 0 && (pat^pp)&(3<<pShift) == 0 {
				p += BoxPP // BoxP
			}
			r++
		}
		// handle last run
		if r >= MinRun {
			p += r + RunPDelta // RunP
		}
		// handle FindB with 1 module in the right quiet zone;
		// also includes FindA with 4 modules in the quiet zone
		if pat <<= 1; pat == FindB {
			p += 2 * FindPP // 2×FindP
		} else {
			// handle FindA with 1-4 modules in quiet zone
			switch FindA {
			case pat, pat << 1, pat << 2, pat << 3:
				p += FindPP // FindP
			}
		}
	}

	// calculate BalP
	bal >>= pShift
	// Exact percentages get less penalty.  E.g., 40% and 60% get
	// 10 points like 41%, not 20 like 39%.  To round away from 50%,
	// fold bal into 0 <= n < c.Size²/2 and divide rounding down.
	// No need to handle 50% as c.Size is always odd.
	sq := c.Size * c.Size
	if bal > sq/2 {
		bal = sq - bal
	}
	p += (BalPMax - bal*BalPMul/sq) * BalPP

	// vertical runs: RunP, FindP
	bm = c.Bitmap
	for x := 0; x < siz; x++ {
		r := 1
		off, shift := x>>3, 7&^x
		pat := uint16(bm[off]) >> shift & 1 << pShift
		for off += stride; off < len(bm); off += stride {
			pat = pat<<1 | uint16(bm[off])>>shift&1<<pShift
			switch pat {
			case FindB, FindA, LoseB, LoseA:
				p += FindPP // FindP
			}
			if (pat-1<<pShift)&(2<<pShift) == 0 {
				if r >= MinRun {
					p += r + RunPDelta // RunP
				}
				r = 0
			}
			r++
		}
		if r >= MinRun {
			p += r + RunPDelta // RunP
		}
		if pat <<= 1; pat == FindB {
			p += 2 * FindPP // 2×FindP
		} else {
			switch FindA {
			case pat, pat << 1, pat << 2, pat << 3:
				p += FindPP // FindP
			}
		}
	}
	return p
}
