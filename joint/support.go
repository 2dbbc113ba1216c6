// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package joint turns a sparse three-variable joint distribution into the
// compact variable indexing and marginal constraint system consumed by the
// conditional-entropy optimizer.
package joint

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Absent is returned by variable lookups for triples that carry no
// positive mass and therefore own no optimization variable.
const Absent = -1

// ErrDegenerateSupport reports a distribution that is degenerate in at
// least one dimension: after discarding entries with non-positive mass,
// every domain must keep at least two distinct values.
var ErrDegenerateSupport = errors.New("joint: degenerate support")

// Outcome is one realization (x,y,z) of the three random variables.
type Outcome[T cmp.Ordered] struct {
	X, Y, Z T
}

// Dist is a sparse joint distribution 𝐏(X,Y,Z).
// Entries with mass ≤ 0 are treated as absent everywhere:
// they receive no variable index and never reach a marginal sum.
type Dist[T cmp.Ordered] map[Outcome[T]]float64

// Support holds the sorted domains of an indexed distribution together
// with the bijection between positive-mass triples and the dense
// variable range [0,n).
//
// Variables are assigned by enumerating (y,z,x) in nested sorted order
// with x varying fastest, so the n-vector of variables reads as a
// column-major |X| × |YZ| matrix with one column per realized (y,z).
type Support[T cmp.Ordered] struct {
	Xs, Ys, Zs []T

	dist  Dist[T]
	index map[Outcome[T]]int
	vars  []Outcome[T]
}

// Index filters and indexes the distribution d.
// The domain ordering is deterministic (sorted ascending), so repeated
// calls on the same input yield identical variable assignments.
func Index[T cmp.Ordered](d Dist[T]) (*Support[T], error) {

	var xs, ys, zs []T
	seenX := make(map[T]bool)
	seenY := make(map[T]bool)
	seenZ := make(map[T]bool)

	for o, mass := range d {
		if mass <= 0 {
			continue
		}
		if !seenX[o.X] {
			seenX[o.X] = true
			xs = append(xs, o.X)
		}
		if !seenY[o.Y] {
			seenY[o.Y] = true
			ys = append(ys, o.Y)
		}
		if !seenZ[o.Z] {
			seenZ[o.Z] = true
			zs = append(zs, o.Z)
		}
	}

	switch {
	case len(xs) < 2:
		return nil, fmt.Errorf("%w: |X| = %d", ErrDegenerateSupport, len(xs))
	case len(ys) < 2:
		return nil, fmt.Errorf("%w: |Y| = %d", ErrDegenerateSupport, len(ys))
	case len(zs) < 2:
		return nil, fmt.Errorf("%w: |Z| = %d", ErrDegenerateSupport, len(zs))
	}

	slices.Sort(xs)
	slices.Sort(ys)
	slices.Sort(zs)

	s := &Support[T]{
		Xs: xs, Ys: ys, Zs: zs,
		dist:  d,
		index: make(map[Outcome[T]]int),
	}

	for _, y := range ys {
		for _, z := range zs {
			for _, x := range xs {
				o := Outcome[T]{X: x, Y: y, Z: z}
				if d[o] > 0 {
					s.index[o] = len(s.vars)
					s.vars = append(s.vars, o)
				}
			}
		}
	}

	return s, nil
}

// Len reports the number of optimization variables n.
func (s *Support[T]) Len() int { return len(s.vars) }

// VarOf reports the variable index of o, or Absent when o carries no
// positive mass.
func (s *Support[T]) VarOf(o Outcome[T]) int {
	if i, ok := s.index[o]; ok {
		return i
	}
	return Absent
}

// Outcome reports the triple owning variable i.
func (s *Support[T]) Outcome(i int) Outcome[T] { return s.vars[i] }
