// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package joint

// System is the numeric view of an indexed support: the sparse linear
// constraint matrix 𝐆ᵀ, its right-hand side, and the block structure
// shared by every downstream consumer.
//
// 𝐆ᵀ has n rows (one per variable) and m = |X||Y| + |X||Z| columns
// (one per marginal equation). The first |X||Y| equations pin the XY
// marginal, the remaining |X||Z| pin the XZ marginal. All coefficients
// are exactly 1. The coordinate lists store (row,column) pairs of 𝐆ᵀ,
// so row and column roles are swapped relative to the untransposed
// constraint matrix 𝐆.
type System struct {
	// N is the variable count, M the equation count.
	N, M int
	// NX, NY, NZ are the domain cardinalities.
	NX, NY, NZ int

	// Rows, Cols are the nonzero coordinates of 𝐆ᵀ: variable Rows[k]
	// participates in equation Cols[k]. Every variable owns exactly two
	// entries, one XY equation and one XZ equation.
	Rows, Cols []int

	// Rhs[j] is the observed marginal mass of equation j, accumulated
	// by direct summation over the input entries.
	Rhs []float64

	// Blocks groups variable indices by realized (y,z) column, in the
	// same (y outer, z inner) order used for indexing. Members within a
	// block are consecutive and ascend with x.
	Blocks [][]int

	start []float64
}

// System derives the constraint system of s.
func (s *Support[T]) System() *System {

	nx, ny, nz := len(s.Xs), len(s.Ys), len(s.Zs)
	n := len(s.vars)
	m := nx*ny + nx*nz

	xi := make(map[T]int, nx)
	yi := make(map[T]int, ny)
	zi := make(map[T]int, nz)
	for i, x := range s.Xs {
		xi[x] = i
	}
	for i, y := range s.Ys {
		yi[y] = i
	}
	for i, z := range s.Zs {
		zi[z] = i
	}

	sys := &System{
		N: n, M: m,
		NX: nx, NY: ny, NZ: nz,
		Rows: make([]int, 0, 2*n),
		Cols: make([]int, 0, 2*n),
		Rhs:  make([]float64, m),
	}

	margX := make([]float64, nx)
	block := -1
	blockY, blockZ := -1, -1

	for i, o := range s.vars {
		x, y, z := xi[o.X], yi[o.Y], zi[o.Z]

		xy := x*ny + y         // XY equation of (x,y)
		xz := nx*ny + x*nz + z // XZ equation of (x,z)

		sys.Rows = append(sys.Rows, i, i)
		sys.Cols = append(sys.Cols, xy, xz)

		mass := s.dist[o]
		sys.Rhs[xy] += mass
		sys.Rhs[xz] += mass
		margX[x] += mass

		if y != blockY || z != blockZ {
			blockY, blockZ = y, z
			sys.Blocks = append(sys.Blocks, nil)
			block++
		}
		sys.Blocks[block] = append(sys.Blocks[block], i)
	}

	// Analytic interior start point
	//   q₀(x,y,z) = 𝐏(x,y)·𝐏(x,z) / 𝐏(x)
	// an independence-style factorization that satisfies both marginal
	// blocks exactly whenever the support is a product set.
	sys.start = make([]float64, n)
	for i, o := range s.vars {
		x, y, z := xi[o.X], yi[o.Y], zi[o.Z]
		sys.start[i] = sys.Rhs[x*ny+y] * sys.Rhs[nx*ny+x*nz+z] / margX[x]
	}

	return sys
}

// Start returns a copy of the analytic interior start point q₀.
// All entries are strictly positive.
func (sys *System) Start() []float64 {
	q := make([]float64, len(sys.start))
	copy(q, sys.start)
	return q
}

// Residual computes c = q·𝐆ᵀ - rhs into c, the violation of every
// marginal equation at iterate q.
func (sys *System) Residual(q, c []float64) {
	if len(q) != sys.N || len(c) != sys.M {
		panic("bound check error")
	}
	copy(c, sys.Rhs)
	for i := range c {
		c[i] = -c[i]
	}
	for k, r := range sys.Rows {
		c[sys.Cols[k]] += q[r]
	}
}
