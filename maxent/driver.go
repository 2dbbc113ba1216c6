// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maxent

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ascDriver is the main driver of the projected gradient ascent,
// responsible for the per-iteration protocol and best-iterate tracking.
type ascDriver struct {
	optimizer *Optimizer
	workspace *Workspace
}

// mainLoop iterates
//
//	𝐪 ← 𝐪 - 𝚜𝚝𝚎𝚙𝚏𝚊𝚌𝚝𝚘𝚛 · 𝚖𝚒𝚗(1, 𝛈ₘₐₓ) · P·𝜵𝒇(𝐪)
//
// where P restricts the gradient to the constraint tangent space and
// 𝛈ₘₐₓ is the largest step keeping 𝐪 ≥ 0. Feasibility of the marginal
// equations is preserved invariantly by the projector, never repaired
// by re-projection.
//
// The update is a fixed-dampened ascent, not a line search, so
// intermediate iterates can transiently worsen the objective; the best
// iterate seen is recorded separately and returned instead of the
// final one.
func (d *ascDriver) mainLoop() (task ascTask) {

	spec := &d.optimizer.ascSpec
	ctx := &d.workspace.ascCtx
	log := spec.logger

	if len(ctx.q) != spec.n || len(ctx.g) != spec.n || len(ctx.pg) != spec.n {
		panic("bound check error")
	}

	gv := mat.NewVecDense(spec.n, ctx.g)
	pgv := mat.NewVecDense(spec.n, ctx.pg)

	if log.enable(LogLast) {
		log.log("RUNNING THE MAXENT ASCENT CODE\n")
		log.log("N = %d    M = %d\n", spec.n, spec.m)
	}

	task = iterLoop
	for task == iterLoop {

		if ctx.iter++; ctx.iter > spec.stop.MaxIterations {
			ctx.iter--
			task = OverIterLimit
			break
		}

		// Pure ascent direction: gradient at reference scaling σ = 1.
		spec.eval.Gradient(ctx.q, ctx.g)

		// 𝚙𝚛𝚘𝚓 𝜵 = P·𝜵𝒇
		pgv.MulVec(spec.proj, gv)
		gradNorm := floats.Norm(ctx.pg, 2)

		// Maximal feasibility-preserving step length: coordinates moving
		// toward zero bound the step at qᵢ/𝚙𝚛𝚘𝚓 𝜵ᵢ, the rest at +∞.
		maxStep := maxFeasibleStep(ctx.q, ctx.pg)

		f := spec.eval.Value(ctx.q)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(gradNorm) {
			// Non-finite evaluation means an invariant was violated
			// upstream (e.g. a negative iterate entry).
			panic("maxent: non-finite evaluation")
		}

		// Track the best objective at the current iterate before the
		// convergence tests; ties favor the later iterate.
		if best := &ctx.best; !best.found || f <= best.f {
			best.found = true
			best.f = f
			copy(best.x, ctx.q)
			best.gradNorm = gradNorm
			best.maxStep = maxStep
			best.iter = ctx.iter
		}

		if log.enable(LogEval) && ctx.iter%int(log.Level) == 0 {
			log.log("At iterate %5d    f= %12.5e    |proj g|= %12.5e    max step= %12.5e\n",
				ctx.iter, f, gradNorm, maxStep)
		}

		switch {
		case gradNorm <= spec.stop.EpsGrad:
			task = ConvGradNorm
		case maxStep <= spec.stop.EpsStep:
			task = ConvStepLength
		default:
			// min(1, 𝛈ₘₐₓ) prevents overshoot when the feasibility bound
			// already exceeds unit length.
			floats.AddScaled(ctx.q, -spec.step*math.Min(one, maxStep), ctx.pg)
		}
	}

	if log.enable(LogLast) {
		var msg string
		switch task {
		case ConvGradNorm:
			msg = "CONVERGENCE: NORM_OF_PROJECTED_GRADIENT_<=_EPSGRAD"
		case ConvStepLength:
			msg = "CONVERGENCE: MAX_FEASIBLE_STEP_<=_EPSSTEP"
		case OverIterLimit:
			msg = "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
		}
		log.log("\n%s\n", msg)
		log.log("Best f = %.9e at iterate %d of %d\n", ctx.best.f, ctx.best.iter, ctx.iter)
	}

	return
}

// maxFeasibleStep computes the largest η with 𝐪 - η·𝚙𝚛𝚘𝚓 𝜵 ≥ 0.
func maxFeasibleStep(q, pg []float64) float64 {
	if len(q) != len(pg) {
		panic("bound check error")
	}
	eta := math.Inf(1)
	for i, d := range pg {
		if d > zero {
			if t := q[i] / d; t < eta {
				eta = t
			}
		}
	}
	return eta
}
