// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package centropy

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedFeature reports a solver adapter requesting a callback
// this evaluator cannot provide. The request is a fatal configuration
// error at initialization time, never a runtime fallback.
var ErrUnsupportedFeature = errors.New("centropy: unsupported feature")

// Feature flags the derivative callbacks a generic solver may request.
type Feature uint

const (
	// FeatGradient requests the objective gradient callback.
	FeatGradient Feature = 1 << iota
	// FeatJacobian requests constraint Jacobian sparsity and values.
	FeatJacobian
	// FeatJacProd requests Jacobian-vector and transpose products.
	FeatJacProd
	// FeatHessian requests Lagrangian-Hessian sparsity and values.
	FeatHessian

	featAll = FeatGradient | FeatJacobian | FeatJacProd | FeatHessian
)

// Constraint residual and Jacobian callbacks share the evaluator since
// they share its variable layout. The constraints are linear, so the
// Jacobian structure and values are constant across iterations.

// ConsValue evaluates the constraint residual 𝐜 = 𝐪·𝐆ᵀ - rhs into c.
func (e *Evaluator) ConsValue(q, c []float64) { e.sys.Residual(q, c) }

// JacStructure reports the nonzero coordinates of the constraint
// Jacobian as the stored (row,column) pairs of 𝐆ᵀ, i.e. with row and
// column roles swapped relative to the untransposed matrix 𝐆.
func (e *Evaluator) JacStructure() (rows, cols []int) {
	return e.sys.Rows, e.sys.Cols
}

// JacValues fills the Jacobian values aligned with JacStructure.
// Every coefficient is exactly 1.
func (e *Evaluator) JacValues(vals []float64) {
	if len(vals) != len(e.sys.Rows) {
		panic("bound check error")
	}
	for i := range vals {
		vals[i] = 1
	}
}

// JacProd computes the Jacobian-vector product out = 𝐆·v.
func (e *Evaluator) JacProd(v, out []float64) {
	if len(v) != e.sys.N || len(out) != e.sys.M {
		panic("bound check error")
	}
	for i := range out {
		out[i] = 0
	}
	for k, r := range e.sys.Rows {
		out[e.sys.Cols[k]] += v[r]
	}
}

// JacTransProd computes the transpose product out = 𝐆ᵀ·v.
func (e *Evaluator) JacTransProd(v, out []float64) {
	if len(v) != e.sys.M || len(out) != e.sys.N {
		panic("bound check error")
	}
	for i := range out {
		out[i] = 0
	}
	for k, r := range e.sys.Rows {
		out[r] += v[e.sys.Cols[k]]
	}
}

// Program adapts the evaluator to the callback contract of a generic
// nonlinear-programming solver: dimensions, bound vectors and the
// feature-negotiated derivative callbacks. Dimensions, bounds, the
// objective value and the constraint residual are always available;
// every derivative callback must be negotiated through Init first.
type Program struct {
	eval *Evaluator
	req  Feature
}

// Program wraps the evaluator for consumption by a solver framework.
func (e *Evaluator) Program() *Program { return &Program{eval: e} }

// Init declares the features the solver will request. Requesting any
// feature outside the supported set fails with ErrUnsupportedFeature.
func (p *Program) Init(req Feature) error {
	if bad := req &^ featAll; bad != 0 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedFeature, uint(bad))
	}
	p.req = req
	return nil
}

// Invoking a derivative callback that was never negotiated is a
// contract violation of the adapter, not a recoverable condition.
func (p *Program) need(f Feature) {
	if p.req&f == 0 {
		panic("centropy: callback invoked without negotiated feature")
	}
}

// NumVar reports the variable count n.
func (p *Program) NumVar() int { return p.eval.sys.N }

// NumCons reports the constraint count m.
func (p *Program) NumCons() int { return p.eval.sys.M }

// VarBounds reports the variable bounds: every variable is bounded
// below by 0 and unbounded above.
func (p *Program) VarBounds() (lo, hi []float64) {
	n := p.eval.sys.N
	lo, hi = make([]float64, n), make([]float64, n)
	for i := range hi {
		hi[i] = math.Inf(1)
	}
	return
}

// ConsBounds reports the constraint bounds: every marginal equation is
// an equality, lower and upper bound both at the rhs value.
func (p *Program) ConsBounds() (lo, hi []float64) {
	rhs := p.eval.sys.Rhs
	lo, hi = make([]float64, len(rhs)), make([]float64, len(rhs))
	copy(lo, rhs)
	copy(hi, rhs)
	return
}

// Value delegates to the evaluator.
func (p *Program) Value(q []float64) float64 { return p.eval.Value(q) }

// Gradient delegates to the evaluator; requires FeatGradient.
func (p *Program) Gradient(q, g []float64) {
	p.need(FeatGradient)
	p.eval.Gradient(q, g)
}

// ConsValue delegates to the evaluator.
func (p *Program) ConsValue(q, c []float64) { p.eval.ConsValue(q, c) }

// JacStructure delegates to the evaluator; requires FeatJacobian.
func (p *Program) JacStructure() ([]int, []int) {
	p.need(FeatJacobian)
	return p.eval.JacStructure()
}

// JacValues delegates to the evaluator; requires FeatJacobian.
func (p *Program) JacValues(vals []float64) {
	p.need(FeatJacobian)
	p.eval.JacValues(vals)
}

// JacProd delegates to the evaluator; requires FeatJacProd.
func (p *Program) JacProd(v, out []float64) {
	p.need(FeatJacProd)
	p.eval.JacProd(v, out)
}

// JacTransProd delegates to the evaluator; requires FeatJacProd.
func (p *Program) JacTransProd(v, out []float64) {
	p.need(FeatJacProd)
	p.eval.JacTransProd(v, out)
}

// HessStructure delegates to the evaluator; requires FeatHessian.
func (p *Program) HessStructure() ([]int, []int) {
	p.need(FeatHessian)
	return p.eval.HessStructure()
}

// HessValues delegates to the evaluator; requires FeatHessian.
func (p *Program) HessValues(q []float64, sigma float64, vals []float64) {
	p.need(FeatHessian)
	p.eval.HessValues(q, sigma, vals)
}
