// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maxent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/infodecomp/joint"
)

func testSystem(t *testing.T, d joint.Dist[int]) *joint.System {
	t.Helper()
	s, err := joint.Index(d)
	require.NoError(t, err)
	return s.System()
}

func skewed(t *testing.T) *joint.System {
	return testSystem(t, joint.Dist[int]{
		{X: 0, Y: 0, Z: 0}: 0.30,
		{X: 0, Y: 0, Z: 1}: 0.10,
		{X: 0, Y: 1, Z: 0}: 0.10,
		{X: 0, Y: 1, Z: 1}: 0.05,
		{X: 1, Y: 0, Z: 0}: 0.05,
		{X: 1, Y: 0, Z: 1}: 0.10,
		{X: 1, Y: 1, Z: 0}: 0.10,
		{X: 1, Y: 1, Z: 1}: 0.20,
	})
}

func constraintMatrix(sys *joint.System) *mat.Dense {
	b := mat.NewDense(sys.N, sys.M, nil)
	for k, r := range sys.Rows {
		b.Set(r, sys.Cols[k], 1)
	}
	return b
}

func TestProjectorInvariants(t *testing.T) {

	sys := skewed(t)
	p, err := Project(constraintMatrix(sys), 0)
	require.NoError(t, err)

	n, _ := p.Dims()
	require.Equal(t, sys.N, n)

	// Symmetric and idempotent on arbitrary vectors: P(Pv) = Pv.
	v := make([]float64, n)
	for i := range v {
		v[i] = math.Sin(float64(3*i + 1))
	}
	pv := mat.NewVecDense(n, nil)
	ppv := mat.NewVecDense(n, nil)
	pv.MulVec(p, mat.NewVecDense(n, v))
	ppv.MulVec(p, pv)
	for i := 0; i < n; i++ {
		require.InDelta(t, pv.AtVec(i), ppv.AtVec(i), 1e-10, "idempotence %d", i)
		for j := 0; j < n; j++ {
			require.InDelta(t, p.At(i, j), p.At(j, i), 1e-12, "symmetry (%d,%d)", i, j)
		}
	}

	// Projected directions are constraint-neutral: moving q along Pv
	// leaves every marginal equation untouched.
	q := sys.Start()
	moved := make([]float64, n)
	for i := range moved {
		moved[i] = q[i] + 0.01*pv.AtVec(i)
	}
	c := make([]float64, sys.M)
	sys.Residual(moved, c)
	for j, r := range c {
		require.InDelta(t, 0, r, 1e-10, "equation %d", j)
	}
}

func TestProjectShapeRejected(t *testing.T) {

	// rows < columns is not a valid 𝐆ᵀ shape.
	b := mat.NewDense(2, 5, nil)
	b.Set(0, 0, 1)
	b.Set(1, 1, 1)
	_, err := Project(b, 0)
	require.ErrorIs(t, err, ErrIllConditioned)
}

func TestProjectRankThreshold(t *testing.T) {

	// A rank-1 matrix padded with noise below the threshold: the noisy
	// directions must not enter the range basis.
	b := mat.NewDense(4, 2, nil)
	for i := 0; i < 4; i++ {
		b.Set(i, 0, 1)
		b.Set(i, 1, 1+1e-14)
	}
	p, err := Project(b, 1e-10)
	require.NoError(t, err)

	// Null space of the (numerically rank-1) range is 3-dimensional:
	// trace(P) = n - rank.
	trace := 0.0
	for i := 0; i < 4; i++ {
		trace += p.At(i, i)
	}
	require.InDelta(t, 3, trace, 1e-8)
}
