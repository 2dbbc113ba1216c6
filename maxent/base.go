// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package maxent maximizes the conditional entropy H(X|Y,Z) over the
// probability simplex intersected with the marginal-consistency affine
// subspace, using a projected gradient ascent tailored to that exact
// constraint structure.
package maxent

import (
	"fmt"
	"io"
	"time"
)

const (
	zero = 0.0
	one  = 1.0
)

type ascTask int

const (
	// iterLoop keeps the driver running.
	iterLoop ascTask = iota
	// ConvGradNorm the projected gradient norm vanished: the iterate is
	// a stationary point of the constrained problem.
	ConvGradNorm
	// ConvStepLength the maximal feasibility-preserving step vanished:
	// the iterate sits on the non-negativity boundary.
	ConvStepLength
	// OverIterLimit the iteration budget was exhausted before either
	// convergence criterion triggered.
	OverIterLimit
)

// LogLevel controls the frequency of logger output.
type LogLevel int

const (
	// LogNoop no output is generated.
	LogNoop LogLevel = -1
	// LogLast print only the run summary.
	LogLast LogLevel = 0
	// LogEval print f, |proj g| and max step every `level` iterations.
	LogEval LogLevel = 1
)

// Logger handles logging output for the optimizer.
// The writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Msg != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

type stopWatch struct {
	start time.Time
}

func (s *stopWatch) reset() { s.start = time.Now() }

func (s *stopWatch) elapsed() time.Duration { return time.Since(s.start) }
