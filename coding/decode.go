// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// finderRow holds the rows of a position box, one module per bit
// starting at bit 7.
var finderRow = [7]byte{0xfe, 0x82, 0xba, 0xba, 0xba, 0x82, 0xfe}

// CheckStructure verifies the position boxes and timing strips of c.
// Damage to less than 30% of the checked modules is tolerated, as the
// modules carry no data and a misaligned or inverted bitmap has to be
// rejected before format information is trusted.
func (c *Code) CheckStructure() error {
	siz := c.Size
	var bad, n int
	box := func(ox, oy int) {
		for dy := 0; dy < 7; dy++ {
			for dx := 0; dx < 7; dx++ {
				want := finderRow[dy]>>(7-dx)&1 != 0
				if c.Black(ox+dx, oy+dy) != want {
					bad++
				}
			}
		}
		n += 49
	}
	box(0, 0)
	box(siz-7, 0)
	box(0, siz-7)
	// timing strips alternate starting and ending with black
	for i := 8; i < siz-8; i++ {
		if c.Black(i, 6) != (i&1 == 0) {
			bad++
		}
		if c.Black(6, i) != (i&1 == 0) {
			bad++
		}
		n += 2
	}
	if bad*10 >= n*3 {
		return ErrStructure
	}
	return nil
}

// DecodeChannel extracts the codewords of one channel from c using
// the given mask, corrects errors block by block and returns the data
// codewords along with the number of corrected bytes.
func (p *Plan) DecodeChannel(c *Code, mask int) ([]byte, int, error) {
	if mask < 0 || mask >= len(p.Pattern) {
		return nil, 0, ErrFormat
	}
	tmp := make([]byte, len(c.Bitmap))
	xor(tmp, c.Bitmap, p.Pattern[mask])
	total := p.Version.totalBytes(p.Channels)
	raw := p.Deserialise(tmp)[:total]
	raw = Unpermute(raw, p.Version, p.Level, p.Channels)

	lev := &vtab[p.Version].level[p.Level]
	nd := p.Version.dataBytes(p.Level, p.Channels)
	db := nd / lev.nblock
	normal := (db+1)*lev.nblock - nd
	dat, ecc := raw[:nd], raw[nd:]
	data := make([]byte, 0, nd)
	w := make([]byte, 0, db+1+lev.check)
	fixed := 0
	for i := 0; i < lev.nblock; i++ {
		if i == normal {
			db++
		}
		w = append(append(w[:0], dat[:db]...), ecc[:lev.check]...)
		dat, ecc = dat[db:], ecc[lev.check:]
		n, err := Field.Correct(w, lev.check)
		if err != nil {
			return nil, fixed, err
		}
		fixed += n
		data = append(data, w[:db]...)
	}
	return data, fixed, nil
}
