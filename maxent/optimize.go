// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maxent

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/infodecomp/centropy"
	"github.com/curioloop/infodecomp/joint"
)

const (
	// DefaultEpsGrad is the projected-gradient norm below which the
	// driver stops in ConvGradNorm.
	DefaultEpsGrad = 1e-9
	// DefaultEpsStep is the maximal feasible step length below which
	// the driver stops in ConvStepLength.
	DefaultEpsStep = 1e-12
	// DefaultStepFactor dampens every update below the feasibility
	// boundary.
	DefaultStepFactor = 0.1
)

// Termination specifies the stopping criteria for the driver.
type Termination struct {
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int
	// The iteration will stop when ‖ 𝚙𝚛𝚘𝚓 𝜵𝒇 ‖₂ ≤ 𝚎𝚙𝚜_𝚐𝚛𝚊𝚍
	// NaN selects DefaultEpsGrad.
	EpsGrad float64
	// The iteration will stop when 𝚖𝚊𝚡 𝛈 ≤ 𝚎𝚙𝚜_𝚜𝚝𝚎𝚙𝚕𝚎𝚗𝚐𝚝𝚑
	// NaN selects DefaultEpsStep.
	EpsStep float64
}

// Problem specifies the maximum-conditional-entropy problem:
//
// maximize H(X|Y,Z) over 𝐪 ≥ 0 subject to 𝐪·𝐆ᵀ = rhs
//
// where the constraint system comes from an indexed joint support.
type Problem struct {
	// Sys is the marginal constraint system.
	Sys *joint.System
	// Precision selects the evaluation arithmetic.
	Precision centropy.Precision
	// MantissaBits configures the Extended mantissa width (0 = default).
	MantissaBits uint
	// Stop condition.
	Stop Termination
	// StepFactor ∈ (0,1] dampens the ascent step (0 = default 0.1).
	StepFactor float64
	// RankEps is the singular-value threshold of the tangent projector
	// (≤ 0 = default 1e-10).
	RankEps float64
}

// New validates the problem, builds the evaluator and computes the
// tangent projector. The projector SVD runs once here, not per
// iteration, since the constraints are fixed.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}

	stop, step := p.Stop, p.StepFactor
	if math.IsNaN(stop.EpsGrad) {
		stop.EpsGrad = DefaultEpsGrad
	}
	if math.IsNaN(stop.EpsStep) {
		stop.EpsStep = DefaultEpsStep
	}
	if step == zero {
		step = DefaultStepFactor
	}

	switch {
	case p.Sys == nil:
		err = errors.New("constraint system is required")
	case p.Sys.N <= 0:
		err = errors.New("problem dimension must greater than 0")
	case stop.MaxIterations <= 0:
		err = errors.New("max iteration must greater than 1")
	case stop.EpsGrad < zero:
		err = errors.New("gradient tolerance must not less than 0")
	case stop.EpsStep < zero:
		err = errors.New("step length tolerance must not less than 0")
	case step < zero || step > one:
		err = errors.New("step factor must lie in (0,1]")
	}
	if err != nil {
		return
	}

	// 𝐁 = 𝐆ᵀ as a dense n×m matrix.
	b := mat.NewDense(p.Sys.N, p.Sys.M, nil)
	for k, r := range p.Sys.Rows {
		b.Set(r, p.Sys.Cols[k], one)
	}

	var watch stopWatch
	watch.reset()
	proj, err := Project(b, p.RankEps)
	if err != nil {
		return nil, err
	}
	if logger.enable(LogLast) {
		logger.log("Tangent projector ready: n = %d, m = %d, svd time = %v\n",
			p.Sys.N, p.Sys.M, watch.elapsed())
	}

	optimizer = &Optimizer{
		ascSpec{
			n: p.Sys.N, m: p.Sys.M,
			stop:   stop,
			step:   step,
			sys:    p.Sys,
			eval:   centropy.New(p.Sys, p.Precision, p.MantissaBits),
			proj:   proj,
			logger: *logger,
		},
	}
	return
}

type ascSpec struct {
	n, m   int
	stop   Termination
	step   float64
	sys    *joint.System
	eval   *centropy.Evaluator
	proj   *mat.Dense
	logger Logger
}

// Optimizer implements the projected gradient ascent driver.
type Optimizer struct {
	ascSpec
}

// Evaluator exposes the bound objective evaluator, e.g. to wrap it in
// a solver-adapter Program.
func (o *Optimizer) Evaluator() *centropy.Evaluator { return o.eval }

type ascBest struct {
	found    bool
	f        float64
	x        []float64
	gradNorm float64
	maxStep  float64
	iter     int
}

type ascCtx struct {
	iter int
	q    []float64
	g    []float64
	pg   []float64
	best ascBest
}

// Workspace contains the state of one optimization run. Each run owns
// its iterate, gradient buffer and best record exclusively; multiple
// workspaces may share one optimizer across goroutines.
type Workspace struct {
	n int
	ascCtx
}

// Init allocates the workspace for the driver.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n = o.n
	w.q = make([]float64, o.n)
	w.g = make([]float64, o.n)
	w.pg = make([]float64, o.n)
	w.best.x = make([]float64, o.n)
	return w
}

// Result contains the terminal record of an optimization run: the best
// iterate seen, not necessarily the final one. Immutable after return.
type Result struct {
	OK       bool      // Whether the optimization converged.
	F        float64   // Best objective value 𝒇 = -H(X|Y,Z) found.
	X        []float64 // Probability vector achieving F.
	GradNorm float64   // Projected-gradient norm at the best iterate.
	MaxStep  float64   // Maximal feasible step length at the best iterate.
	Summary            // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status   ascTask       // Final task status after optimization.
	BestIter int           // Iteration at which the best iterate was found.
	NumIter  int           // Number of iterations performed.
	Runtime  time.Duration // Elapsed wall-clock time of the loop.
}

// Fit runs the optimization from the analytic interior start point q₀
// using workspace w.
func (o *Optimizer) Fit(w *Workspace) *Result {

	if w.n != o.n {
		panic("workspace dimension not match spec")
	}

	copy(w.q, o.sys.Start())
	w.iter = 0
	w.best = ascBest{x: w.best.x}

	driver := ascDriver{optimizer: o, workspace: w}

	var watch stopWatch
	watch.reset()
	task := driver.mainLoop()
	elapsed := watch.elapsed()

	best := &w.best
	x := make([]float64, o.n)
	copy(x, best.x)
	return &Result{
		OK:       task == ConvGradNorm || task == ConvStepLength,
		F:        best.f,
		X:        x,
		GradNorm: best.gradNorm,
		MaxStep:  best.maxStep,
		Summary: Summary{
			Status:   task,
			BestIter: best.iter,
			NumIter:  w.iter,
			Runtime:  elapsed,
		},
	}
}
