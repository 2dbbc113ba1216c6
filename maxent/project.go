// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maxent

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrIllConditioned reports a tangent projector that failed its
// idempotence or symmetry self-check beyond tolerance. The run is
// aborted rather than continued with a corrupted projector.
var ErrIllConditioned = errors.New("maxent: ill-conditioned constraints")

// DefaultRankEps is the singular-value threshold used for the
// numerical rank of the constraint matrix.
const DefaultRankEps = 1e-10

// projCheckTol bounds the entrywise violation of P·P ≈ P and Pᵀ ≈ P.
const projCheckTol = 1e-8

// Project computes the orthogonal projector onto the tangent space of
// the feasible affine subspace, the null space of 𝐁ᵀ for the n×m
// matrix 𝐁 = 𝐆ᵀ (rows ≥ columns required):
//
//	P = 𝐈 - U_r·U_rᵀ
//
// where U_r spans the column space of 𝐁 restricted to singular
// directions whose singular value exceeds eps (≤ 0 selects
// DefaultRankEps). The full SVD is the dominant one-time cost of a
// run, cubic in m; the projector itself is fixed because the
// constraints are linear.
//
// The returned matrix is verified to be idempotent and symmetric
// within floating tolerance; violation fails with ErrIllConditioned.
func Project(b *mat.Dense, eps float64) (*mat.Dense, error) {

	n, m := b.Dims()
	if n < m {
		return nil, fmt.Errorf("%w: %d×%d matrix needs rows ≥ columns", ErrIllConditioned, n, m)
	}
	if eps <= zero {
		eps = DefaultRankEps
	}

	var svd mat.SVD
	if !svd.Factorize(b, mat.SVDFull) {
		return nil, fmt.Errorf("%w: SVD failed to converge", ErrIllConditioned)
	}

	var u mat.Dense
	svd.UTo(&u)

	rank := 0
	for _, sv := range svd.Values(nil) {
		if sv > eps {
			rank++
		}
	}

	// P = 𝐈 - U_r·U_rᵀ
	p := mat.NewDense(n, n, nil)
	if rank > 0 {
		ur := u.Slice(0, n, 0, rank)
		p.Mul(ur, ur.T())
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := zero
			if i == j {
				d = one
			}
			p.Set(i, j, d-p.At(i, j))
		}
	}

	// Verify P·P ≈ P and Pᵀ ≈ P instead of assuming them.
	var pp mat.Dense
	pp.Mul(p, p)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(pp.At(i, j)-p.At(i, j)) > projCheckTol {
				return nil, fmt.Errorf("%w: projector not idempotent at (%d,%d)", ErrIllConditioned, i, j)
			}
			if math.Abs(p.At(i, j)-p.At(j, i)) > projCheckTol {
				return nil, fmt.Errorf("%w: projector not symmetric at (%d,%d)", ErrIllConditioned, i, j)
			}
		}
	}

	return p, nil
}
