// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// BlockJacobian presents a bordered Jacobian as two pieces, J_L (M×L) and
// J_R (M×R), the shape SchurHessian needs to form the block Hessian
// [A B; Bᵀ D] without ever materializing the full N×N matrix. JL and JR are
// typically *sparse.CSC (see NewSparseBlockJacobian) but any mat.Matrix
// works, which keeps SchurHessian usable in tests with small dense blocks.
type BlockJacobian struct {
	JL mat.Matrix // M x L
	JR mat.Matrix // M x R
}

// NewSparseBlockJacobian wraps a pair of sparse CSC Jacobian blocks. This is
// the entry point bundle-adjustment-style callers use: the left block (e.g.
// camera parameters) and right block (e.g. point parameters) of a bordered
// least-squares Jacobian.
func NewSparseBlockJacobian(jl, jr *sparse.CSC) *BlockJacobian {
	return &BlockJacobian{JL: jl, JR: jr}
}

// SchurHessian implements Hessian for the bordered block form
//
//	H = [ A  B  ]      A ∈ ℝᴸˣᴸ,  D ∈ ℝᴿˣᴿ,  L+R = N
//	    [ Bᵀ D  ]
//
// formed from a BlockJacobian as A = J_Lᵀ J_L, B = J_Lᵀ J_R, D = J_Rᵀ J_R.
// Solving H p = g is done by Schur complement elimination on D, keeping two
// independent factorizations (one for A, one for the Schur complement D')
// so that A's factorization — typically the expensive one, since L is
// usually much larger than R in bundle-adjustment problems — is reused
// across the RHS-dependent steps of a single solve.
//
// Per the design notes, symbolic structure is NOT locked across
// InitializeSolver calls: the sparse multiply forming M = A⁻¹B can change
// the effective nonzero pattern between iterations if stored explicit zeros
// are elided, and until the backend guarantees a zero-preserving multiply,
// each InitializeSolver call refactorizes A and D' from scratch.
type SchurHessian struct {
	l, r int

	// a, b, d are the dense materializations of the three blocks. They
	// are formed from sparse CSC Jacobian blocks (ComputeHessian), but
	// kept dense here because gonum/mat only ships a dense Cholesky with
	// lockable symbolic structure; see DESIGN.md for the tradeoff this
	// implies for very large L.
	a *mat.SymDense // L x L
	b *mat.Dense    // L x R
	d *mat.SymDense // R x R

	aChol mat.Cholesky
	dChol mat.Cholesky

	m           *mat.Dense    // A⁻¹B, the fill-producing step; L x R
	dPrime      *mat.SymDense // D - Bᵀ M; R x R
	solverReady bool

	// scratch, reused across Solve calls to avoid allocation churn.
	y       *mat.VecDense // A⁻¹ b1; length L
	b2prime *mat.VecDense // b2 - Bᵀ y; length R
	x2      *mat.VecDense // length R
	rhsL    *mat.VecDense // b1 - B x2; length L
}

// NewSchurHessian allocates a SchurHessian for an L+R parameter problem.
func NewSchurHessian(l, r int) *SchurHessian {
	return &SchurHessian{
		l: l, r: r,
		a:       mat.NewSymDense(l, nil),
		b:       mat.NewDense(l, r, nil),
		d:       mat.NewSymDense(r, nil),
		m:       mat.NewDense(l, r, nil),
		dPrime:  mat.NewSymDense(r, nil),
		y:       mat.NewVecDense(l, nil),
		b2prime: mat.NewVecDense(r, nil),
		x2:      mat.NewVecDense(r, nil),
		rhsL:    mat.NewVecDense(l, nil),
	}
}

// NewSchurHessianFromBlocks builds a SchurHessian directly from already
// assembled blocks, for the general-minimization mode where H
// is supplied by the user rather than formed as JᵀJ from a Jacobian.
func NewSchurHessianFromBlocks(a *mat.SymDense, b *mat.Dense, d *mat.SymDense) *SchurHessian {
	l := a.SymmetricDim()
	r := d.SymmetricDim()
	s := NewSchurHessian(l, r)
	s.a.CopySym(a)
	s.b.Copy(b)
	s.d.CopySym(d)
	return s
}

func (s *SchurHessian) Dim() int { return s.l + s.r }

// ComputeHessian forms A, B, D from a BlockJacobian. A and D are formed via
// a lower-triangular inner product and symmetry expansion (SymOuterK),
// avoiding computing and discarding the upper triangle twice.
func (s *SchurHessian) ComputeHessian(jacobian interface{}) {
	bj, ok := jacobian.(*BlockJacobian)
	if !ok {
		panic("trustregion: SchurHessian.ComputeHessian requires a BlockJacobian")
	}
	s.a.SymOuterK(1, bj.JL.T())
	s.d.SymOuterK(1, bj.JR.T())
	s.b.Mul(bj.JL.T(), bj.JR)
	s.solverReady = false
}

// ComputeGradient forms g = [J_Lᵀr; J_Rᵀr] into dst.
func (s *SchurHessian) ComputeGradient(jacobian interface{}, residuals []float64, dst []float64) {
	bj, ok := jacobian.(*BlockJacobian)
	if !ok {
		panic("trustregion: SchurHessian.ComputeGradient requires a BlockJacobian")
	}
	r := mat.NewVecDense(len(residuals), residuals)
	gL := mat.NewVecDense(s.l, dst[:s.l])
	gR := mat.NewVecDense(s.r, dst[s.l:])
	gL.MulVec(bj.JL.T(), r)
	gR.MulVec(bj.JR.T(), r)
}

func (s *SchurHessian) ExtractDiagonals(dst []float64) {
	ops := DenseMathOps{}
	ops.ExtractDiagonal(dst[:s.l], s.a)
	ops.ExtractDiagonal(dst[s.l:], s.d)
}

func (s *SchurHessian) SetDiagonals(diag []float64) {
	for i := 0; i < s.l; i++ {
		s.a.SetSym(i, i, diag[i])
	}
	for i := 0; i < s.r; i++ {
		s.d.SetSym(i, i, diag[s.l+i])
	}
	s.solverReady = false
}

// DivideRowsCols scales each block in place: A ← diag(1/sL)·A·diag(1/sL), D
// similarly with sR, and B ← diag(1/sL)·B·diag(1/sR), with s partitioned at
// index L.
func (s *SchurHessian) DivideRowsCols(scale []float64) {
	sL, sR := scale[:s.l], scale[s.l:]
	DenseMathOps{}.DivideRowsCols(s.a, sL)
	DenseMathOps{}.DivideRowsCols(s.d, sR)
	for i := 0; i < s.l; i++ {
		for j := 0; j < s.r; j++ {
			s.b.Set(i, j, s.b.At(i, j)/(sL[i]*sR[j]))
		}
	}
	s.solverReady = false
}

// InnerVectorHessian returns vᵀ H v = v_Lᵀ A v_L + 2 v_Lᵀ B v_R + v_Rᵀ D v_R.
func (s *SchurHessian) InnerVectorHessian(v []float64) float64 {
	vL, vR := v[:s.l], v[s.l:]
	ops := DenseMathOps{}
	term1 := ops.InnerProduct(s.a, vL)
	term3 := ops.InnerProduct(s.d, vR)

	vLvec := mat.NewVecDense(s.l, vL)
	vRvec := mat.NewVecDense(s.r, vR)
	var bvR mat.VecDense
	bvR.MulVec(s.b, vRvec)
	term2 := mat.Dot(vLvec, &bvR)

	return term1 + 2*term2 + term3
}

// InitializeSolver factorizes A, computes the fill-producing M = A⁻¹B, forms
// the Schur complement D' = D − BᵀM and factorizes it. These four steps are
// independent of any right-hand side, so they are done once here and reused
// by every subsequent Solve call until the next InitializeSolver.
func (s *SchurHessian) InitializeSolver() bool {
	s.solverReady = false
	if !s.aChol.Factorize(s.a) {
		return false
	}

	if err := s.aChol.SolveTo(s.m, s.b); err != nil {
		return false
	}

	var btm mat.Dense
	btm.Mul(s.b.T(), s.m)
	s.dPrime.CopySym(s.d)
	r, _ := btm.Dims()
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.dPrime.SetSym(i, j, s.dPrime.At(i, j)-btm.At(i, j))
		}
	}

	if !s.dChol.Factorize(s.dPrime) {
		return false
	}
	s.solverReady = true
	return true
}

// Solve completes the six-step Schur-complement solve, reusing the A and D'
// factorizations from InitializeSolver; steps 3 and 4 (M = A⁻¹B and
// D' = D − BᵀM) do not depend on g and are done there.
func (s *SchurHessian) Solve(g []float64, p []float64) bool {
	if !s.solverReady {
		return false
	}
	b1 := mat.NewVecDense(s.l, append([]float64(nil), g[:s.l]...))
	b2 := mat.NewVecDense(s.r, g[s.l:])

	// 1. y = A⁻¹ b1
	if err := s.aChol.SolveVecTo(s.y, b1); err != nil {
		return false
	}
	// 2. b2' = b2 - Bᵀy
	var bty mat.VecDense
	bty.MulVec(s.b.T(), s.y)
	s.b2prime.SubVec(b2, &bty)

	// 5. solve D' x2 = b2'
	if err := s.dChol.SolveVecTo(s.x2, s.b2prime); err != nil {
		return false
	}

	// 6. A x1 = b1 - B x2
	var bx2 mat.VecDense
	bx2.MulVec(s.b, s.x2)
	s.rhsL.SubVec(b1, &bx2)
	x1 := mat.NewVecDense(s.l, p[:s.l])
	if err := s.aChol.SolveVecTo(x1, s.rhsL); err != nil {
		return false
	}
	copy(p[s.l:], s.x2.RawVector().Data)
	return true
}
