// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package centropy evaluates the negated conditional-entropy objective,
// its derivatives and the linear constraint callbacks over the variable
// layout produced by package joint.
package centropy

import (
	"math"

	"github.com/curioloop/infodecomp/joint"
)

// Precision selects the arithmetic carrier for evaluation.
type Precision int

const (
	// Double evaluates in plain float64 arithmetic.
	Double Precision = iota
	// Extended evaluates in big.Float with a configurable mantissa to
	// counter catastrophic cancellation near 𝐏 → 0, then narrows the
	// result back to float64.
	Extended
)

// DefaultMantissa is the mantissa width (bits) of the Extended mode
// when none is configured.
const DefaultMantissa = 128

// Evaluator computes the objective
//
//	𝒇(𝐪) = ∑ᵧᵤ ∑ₓ 𝐏[x,yz]·log(𝐏[x,yz]/S)   S = ∑ₓ 𝐏[x,yz]
//
// over the n-vector of un-normalized joint probabilities, read as a
// |X| × |YZ| column-major matrix with one column per realized (y,z).
// 𝒇 is the negation of a conditional-entropy functional, so minimizing
// 𝒇 maximizes H(X|Y,Z).
//
// Entries with 𝐏[x,yz] ≤ 0 contribute 0 to the value and the gradient,
// not -∞. This is a deliberate convention, not a numerical accident.
type Evaluator struct {
	sys  *joint.System
	prec Precision
	mant uint

	// half-triangle Hessian coordinates, fixed per system
	hr, hc []int
}

// New creates an evaluator over sys. mantBits configures the Extended
// mantissa width and is ignored in Double mode; 0 selects the default.
func New(sys *joint.System, prec Precision, mantBits uint) *Evaluator {
	if mantBits == 0 {
		mantBits = DefaultMantissa
	}
	e := &Evaluator{sys: sys, prec: prec, mant: mantBits}

	// The Hessian decomposes into independent (y,z) blocks: cross-block
	// entries are exactly zero and never stored. Within a block only one
	// triangle is populated, diagonal first, then the strict lower pairs.
	for _, blk := range sys.Blocks {
		for ai, a := range blk {
			e.hr = append(e.hr, a)
			e.hc = append(e.hc, a)
			for _, b := range blk[ai+1:] {
				e.hr = append(e.hr, b)
				e.hc = append(e.hc, a)
			}
		}
	}
	return e
}

// System reports the constraint system the evaluator is bound to.
func (e *Evaluator) System() *joint.System { return e.sys }

// Value evaluates 𝒇(𝐪).
func (e *Evaluator) Value(q []float64) float64 {
	if len(q) != e.sys.N {
		panic("bound check error")
	}
	if e.prec == Extended {
		return e.bigValue(q)
	}
	f := 0.0
	for _, blk := range e.sys.Blocks {
		s := 0.0
		for _, i := range blk {
			s += q[i]
		}
		if s <= 0 {
			continue
		}
		for _, i := range blk {
			if p := q[i]; p > 0 {
				f += p * math.Log(p/s)
			}
		}
	}
	return f
}

// Gradient evaluates 𝜵𝒇(𝐪) into g:
//
//	∂𝒇/∂𝐏[x,yz] = log(𝐏[x,yz]/S) when 𝐏[x,yz] > 0, else 0.
func (e *Evaluator) Gradient(q, g []float64) {
	if len(q) != e.sys.N || len(g) != e.sys.N {
		panic("bound check error")
	}
	if e.prec == Extended {
		e.bigGradient(q, g)
		return
	}
	for i := range g {
		g[i] = 0
	}
	for _, blk := range e.sys.Blocks {
		s := 0.0
		for _, i := range blk {
			s += q[i]
		}
		if s <= 0 {
			continue
		}
		for _, i := range blk {
			if p := q[i]; p > 0 {
				g[i] = math.Log(p / s)
			}
		}
	}
}

// HessStructure reports the fixed coordinate lists of the Lagrangian
// Hessian. Only one triangle is populated per symmetric pair: a slot
// (b,a) with b > a stands for both (a,b) and (b,a), which is why the
// off-diagonal values carry a factor ½. Solver adapters consuming the
// structure must keep this half-filled convention.
func (e *Evaluator) HessStructure() (rows, cols []int) { return e.hr, e.hc }

// HessValues evaluates the Hessian entries of σ·𝒇 at q into vals,
// aligned with HessStructure:
//
//	(x,x) : σ·(S - 𝐏[x,yz]) / (S·𝐏[x,yz]) when 𝐏[x,yz] > 0, else 0
//	(x,u) : -σ/(2·S) for x ≠ u in the same (y,z) block
func (e *Evaluator) HessValues(q []float64, sigma float64, vals []float64) {
	if len(q) != e.sys.N || len(vals) != len(e.hr) {
		panic("bound check error")
	}
	if e.prec == Extended {
		e.bigHessValues(q, sigma, vals)
		return
	}
	k := 0
	for _, blk := range e.sys.Blocks {
		s := 0.0
		for _, i := range blk {
			s += q[i]
		}
		off := 0.0
		if s > 0 {
			off = -sigma / (2 * s)
		}
		for ai, a := range blk {
			diag := 0.0
			if p := q[a]; s > 0 && p > 0 {
				diag = sigma * (s - p) / (s * p)
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
