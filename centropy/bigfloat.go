// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package centropy

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// Extended-precision evaluation path. All arithmetic runs on big.Float
// with the configured mantissa width and the results are narrowed to
// float64 on return. The zero-mass convention is identical to the
// Double path.

func (e *Evaluator) big(v float64) *big.Float {
	return big.NewFloat(v).SetPrec(e.mant)
}

func (e *Evaluator) bigColSum(q []float64, blk []int) *big.Float {
	s := e.big(0)
	for _, i := range blk {
		s.Add(s, e.big(q[i]))
	}
	return s
}

func (e *Evaluator) bigValue(q []float64) float64 {
	f := e.big(0)
	r := new(big.Float).SetPrec(e.mant)
	for _, blk := range e.sys.Blocks {
		s := e.bigColSum(q, blk)
		if s.Sign() <= 0 {
			continue
		}
		for _, i := range blk {
			if q[i] > 0 {
				p := e.big(q[i])
				r.Quo(p, s)
				f.Add(f, p.Mul(p, bigfloat.Log(r)))
			}
		}
	}
	v, _ := f.Float64()
	return v
}

func (e *Evaluator) bigGradient(q, g []float64) {
	for i := range g {
		g[i] = 0
	}
	r := new(big.Float).SetPrec(e.mant)
	for _, blk := range e.sys.Blocks {
		s := e.bigColSum(q, blk)
		if s.Sign() <= 0 {
			continue
		}
		for _, i := range blk {
			if q[i] > 0 {
				r.Quo(e.big(q[i]), s)
				g[i], _ = bigfloat.Log(r).Float64()
			}
		}
	}
}

func (e *Evaluator) bigHessValues(q []float64, sigma float64, vals []float64) {
	sg := e.big(sigma)
	t := new(big.Float).SetPrec(e.mant)
	u := new(big.Float).SetPrec(e.mant)
	k := 0
	for _, blk := range e.sys.Blocks {
		s := e.bigColSum(q, blk)
		off := 0.0
		if s.Sign() > 0 {
			t.Quo(sg, u.Add(s, s))
			off, _ = t.Float64()
			off = -off
		}
		for ai, a := range blk {
			diag := 0.0
			if q[a] > 0 && s.Sign() > 0 {
				p := e.big(q[a])
				t.Sub(s, p)        // S - 𝐏
				t.Mul(t, sg)       // σ(S - 𝐏)
				u.Mul(s, p)        // S·𝐏
				diag, _ = t.Quo(t, u).Float64()
			}
			vals[k] = diag
			k++
			for range blk[ai+1:] {
				vals[k] = off
				k++
			}
		}
	}
}
