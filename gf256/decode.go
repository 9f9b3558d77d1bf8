// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import "errors"

// ErrUnrecoverable is returned by Correct when a codeword has more
// errors than its error correcting code can repair.
var ErrUnrecoverable = errors.New("gf256: too many errors to correct")

// Correct corrects up to c/2 byte errors in the codeword w, whose
// last c bytes are error correcting code, modifying it in place.
// It returns the number of bytes corrected.
func (f *Field) Correct(w []byte, c int) (int, error) {
	if c <= 0 || len(w) <= c {
		panic("gf256: invalid codeword length")
	}

	// Syndromes.  w[0] holds the most significant term, so the
	// codeword as a polynomial is evaluated at αⁱ by Horner's
	// method left to right.
	syn := make([]byte, c)
	zero := true
	for i := range syn {
		x := f.Exp(i)
		var v byte
		for _, b := range w {
			v = f.Mul(v, x) ^ b
		}
		syn[i] = v
		zero = zero && v == 0
	}
	if zero {
		return 0, nil
	}

	sigma, omega, err := f.euclid(syn, c)
	if err != nil {
		return 0, err
	}

	// Chien search: the roots of sigma are the inverses of the
	// error locators.
	var loc []byte // error locators Xⱼ
	var pos []int  // byte positions in w
	for i := 1; i < 256; i++ {
		if f.polyEval(sigma, byte(i)) == 0 {
			x := f.Inv(byte(i))
			p := len(w) - 1 - f.Log(x)
			if p < 0 {
				return 0, ErrUnrecoverable
			}
			loc = append(loc, x)
			pos = append(pos, p)
		}
	}
	if len(loc) == 0 || len(loc) != polyDeg(sigma) {
		return 0, ErrUnrecoverable
	}

	// Forney: error magnitude at Xⱼ is
	// omega(Xⱼ⁻¹) / ∏ (1 + Xₖ·Xⱼ⁻¹) over k ≠ j.
	for j, x := range loc {
		xinv := f.Inv(x)
		denom := byte(1)
		for k, y := range loc {
			if k != j {
				denom = f.Mul(denom, f.Mul(y, xinv)^1)
			}
		}
		if denom == 0 {
			return 0, ErrUnrecoverable
		}
		w[pos[j]] ^= f.Mul(f.polyEval(omega, xinv), f.Inv(denom))
	}

	// Recheck the syndromes; a codeword beyond the correction
	// capacity may survive the algorithm with bogus corrections.
	for i := 0; i < c; i++ {
		x := f.Exp(i)
		var v byte
		for _, b := range w {
			v = f.Mul(v, x) ^ b
		}
		if v != 0 {
			return 0, ErrUnrecoverable
		}
	}
	return len(loc), nil
}

// euclid runs the extended Euclidean algorithm on x^c and the
// syndrome polynomial, returning the error locator polynomial sigma
// and the error evaluator polynomial omega.  Polynomials are slices
// of coefficients with the term of degree i at index i.
func (f *Field) euclid(syn []byte, c int) (sigma, omega []byte, err error) {
	r0 := make([]byte, c+1)
	r0[c] = 1
	r1 := polyTrim(syn)
	t0 := []byte{}
	t1 := []byte{1}
	if polyDeg(r0) < polyDeg(r1) {
		r0, r1 = r1, r0
		t0, t1 = t1, t0
	}
	for polyDeg(r1) >= c/2 {
		q, rem := f.polyDiv(r0, r1)
		r0, r1 = r1, rem
		t0, t1 = t1, f.polyAdd(t0, f.polyMul(q, t1))
	}
	if len(r1) == 0 || len(t1) == 0 || t1[0] == 0 {
		return nil, nil, ErrUnrecoverable
	}
	// Normalise so that sigma(0) == 1.
	inv := f.Inv(t1[0])
	return f.polyScale(t1, inv), f.polyScale(r1, inv), nil
}

// polyTrim returns p without leading zero coefficients.
func polyTrim(p []byte) []byte {
	n := len(p)
	for n > 0 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

// polyDeg returns the degree of p; the degree of 0 is 0.
func polyDeg(p []byte) int {
	return max(len(p)-1, 0)
}

func (f *Field) polyEval(p []byte, x byte) byte {
	var v byte
	for i := len(p) - 1; i >= 0; i-- {
		v = f.Mul(v, x) ^ p[i]
	}
	return v
}

func (f *Field) polyScale(p []byte, c byte) []byte {
	q := make([]byte, len(p))
	for i, v := range p {
		q[i] = f.Mul(v, c)
	}
	return q
}

func (f *Field) polyAdd(p, q []byte) []byte {
	if len(p) < len(q) {
		p, q = q, p
	}
	r := make([]byte, len(p))
	copy(r, p)
	for i, v := range q {
		r[i] ^= v
	}
	return polyTrim(r)
}

func (f *Field) polyMul(p, q []byte) []byte {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	r := make([]byte, len(p)+len(q)-1)
	for i, v := range p {
		if v == 0 {
			continue
		}
		for j, w := range q {
			r[i+j] ^= f.Mul(v, w)
		}
	}
	return polyTrim(r)
}

// polyDiv divides p by q, returning the quotient and remainder.
func (f *Field) polyDiv(p, q []byte) (quot, rem []byte) {
	q = polyTrim(q)
	if len(q) == 0 {
		panic("gf256: polynomial division by zero")
	}
	r := make([]byte, len(p))
	copy(r, p)
	if len(r) < len(q) {
		return nil, polyTrim(r)
	}
	qq := make([]byte, len(r)-len(q)+1)
	lead := f.Inv(q[len(q)-1])
	for i := len(r) - 1; i >= len(q)-1; i-- {
		if r[i] == 0 {
			continue
		}
		c := f.Mul(r[i], lead)
		qq[i-len(q)+1] = c
		for j, v := range q {
			r[i-len(q)+1+j] ^= f.Mul(c, v)
		}
	}
	return polyTrim(qq), polyTrim(rem0(r, len(q)-1))
}

func rem0(r []byte, n int) []byte {
	if len(r) > n {
		r = r[:n]
	}
	return r
}
