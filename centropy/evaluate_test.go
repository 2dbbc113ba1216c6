// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package centropy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

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

func TestValueUniform(t *testing.T) {

	sys := testSystem(t, joint.Dist[int]{
		{X: 0, Y: 0, Z: 0}: 0.125,
		{X: 0, Y: 0, Z: 1}: 0.125,
		{X: 0, Y: 1, Z: 0}: 0.125,
		{X: 0, Y: 1, Z: 1}: 0.125,
		{X: 1, Y: 0, Z: 0}: 0.125,
		{X: 1, Y: 0, Z: 1}: 0.125,
		{X: 1, Y: 1, Z: 0}: 0.125,
		{X: 1, Y: 1, Z: 1}: 0.125,
	})

	e := New(sys, Double, 0)

	// Independent uniform: every column sum is ¼ and every entry ⅛,
	// so 𝒇 = ∑ ⅛·log(½) = -log 2 = -H(X|Y,Z).
	q := sys.Start()
	require.InDelta(t, -math.Log(2), e.Value(q), 1e-12)

	g := make([]float64, sys.N)
	e.Gradient(q, g)
	for i, v := range g {
		require.InDelta(t, -math.Log(2), v, 1e-12, "gradient %d", i)
	}
}

func TestZeroMassConvention(t *testing.T) {

	sys := skewed(t)
	e := New(sys, Double, 0)

	// Entries ≤ 0 contribute 0 to value and gradient, not -∞.
	q := sys.Start()
	q[0] = 0
	q[3] = -1e-18

	f := e.Value(q)
	require.False(t, math.IsNaN(f) || math.IsInf(f, 0))

	g := make([]float64, sys.N)
	e.Gradient(q, g)
	require.Zero(t, g[0])
	require.Zero(t, g[3])
	for i, v := range g {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "gradient %d", i)
	}
}

// centralDiff probes ∂f/∂xᵢ with the central difference used by the
// scipy-style numdiff scheme: h = ∛𝛆·max(1,|xᵢ|).
func centralDiff(f func([]float64) float64, x []float64, df []float64) {
	eps := math.Cbrt(math.Nextafter(1, 2) - 1)
	for i, v := range x {
		h := eps * math.Max(1, math.Abs(v))
		x[i] = v - h
		f1 := f(x)
		x[i] = v + h
		f2 := f(x)
		x[i] = v
		df[i] = (f2 - f1) / (2 * h)
	}
}

func TestGradientMatchesCentralDiff(t *testing.T) {

	sys := skewed(t)
	e := New(sys, Double, 0)

	q := sys.Start()
	g := make([]float64, sys.N)
	fd := make([]float64, sys.N)

	e.Gradient(q, g)
	centralDiff(e.Value, q, fd)

	for i := range g {
		require.InDelta(t, fd[i], g[i], 1e-6, "gradient %d", i)
	}
}

func TestHessianContract(t *testing.T) {

	sys := skewed(t)
	e := New(sys, Double, 0)

	rows, cols := e.HessStructure()
	require.Len(t, rows, len(cols))

	// Per 2-member block {a,b}: (a,a), (b,a), (b,b) — one triangle only.
	require.Len(t, rows, 3*len(sys.Blocks))
	k := 0
	for _, blk := range sys.Blocks {
		a, b := blk[0], blk[1]
		require.Equal(t, [2]int{a, a}, [2]int{rows[k], cols[k]})
		require.Equal(t, [2]int{b, a}, [2]int{rows[k+1], cols[k+1]})
		require.Equal(t, [2]int{b, b}, [2]int{rows[k+2], cols[k+2]})
		k += 3
	}

	const sigma = 2.5
	q := sys.Start()
	vals := make([]float64, len(rows))
	e.HessValues(q, sigma, vals)

	k = 0
	for _, blk := range sys.Blocks {
		a, b := blk[0], blk[1]
		s := q[a] + q[b]
		require.InDelta(t, sigma*(s-q[a])/(s*q[a]), vals[k], 1e-12)
		// The ½ factor compensates the half-filled symmetric storage.
		require.InDelta(t, -sigma/(2*s), vals[k+1], 1e-12)
		require.InDelta(t, sigma*(s-q[b])/(s*q[b]), vals[k+2], 1e-12)
		k += 3
	}

	// Stored entries against finite differences of the gradient:
	// diagonal slots carry the full second derivative, off-diagonal
	// slots half of it.
	grad := func(i int) func([]float64) float64 {
		return func(x []float64) float64 {
			g := make([]float64, len(x))
			e.Gradient(x, g)
			return sigma * g[i]
		}
	}
	fd := make([]float64, sys.N)
	k = 0
	for _, blk := range sys.Blocks {
		a, b := blk[0], blk[1]
		centralDiff(grad(a), q, fd)
		require.InDelta(t, fd[a], vals[k], 1e-5)
		require.InDelta(t, fd[b]/2, vals[k+1], 1e-5)
		centralDiff(grad(b), q, fd)
		require.InDelta(t, fd[b], vals[k+2], 1e-5)
		k += 3
	}
}

func TestExtendedMatchesDouble(t *testing.T) {

	sys := skewed(t)
	ed := New(sys, Double, 0)
	ee := New(sys, Extended, 192)

	q := sys.Start()
	require.InDelta(t, ed.Value(q), ee.Value(q), 1e-12)

	gd := make([]float64, sys.N)
	ge := make([]float64, sys.N)
	ed.Gradient(q, gd)
	ee.Gradient(q, ge)
	for i := range gd {
		require.InDelta(t, gd[i], ge[i], 1e-12, "gradient %d", i)
	}

	rows, _ := ed.HessStructure()
	hd := make([]float64, len(rows))
	he := make([]float64, len(rows))
	ed.HessValues(q, 1.5, hd)
	ee.HessValues(q, 1.5, he)
	for i := range hd {
		require.InDelta(t, hd[i], he[i], 1e-9, "hessian %d", i)
	}

	// Extended keeps the zero-mass convention.
	q[0] = 0
	require.False(t, math.IsNaN(ee.Value(q)))
	ee.Gradient(q, ge)
	require.Zero(t, ge[0])
}
