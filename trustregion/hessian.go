// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"gonum.org/v1/gonum/mat"
)

// Hessian is the abstraction the driver and the ParameterUpdate strategies
// program against. It owns the current Hessian approximation H and knows
// how to form it from a Jacobian, report its diagonal, apply diagonal
// scaling, and solve H p = g. Two implementations are provided: DenseHessian
// (JᵀJ as a dense symmetric matrix) and SchurHessian (the bordered 2x2
// block case, solved via a Schur complement over dense blocks formed from
// sparse CSC Jacobian blocks).
//
// H is never modified by a ParameterUpdate; only the driver, through
// ComputeHessian/DivideRowsCols/SetDiagonals, mutates it.
type Hessian interface {
	// Dim returns N, the number of parameters.
	Dim() int

	// ComputeHessian forms H from the current Jacobian (JᵀJ in
	// least-squares mode). The Jacobian is backend-specific: a
	// *mat.Dense for DenseHessian, a *BlockJacobian holding the two
	// Jacobian blocks for SchurHessian (see SchurHessian.ComputeHessian).
	ComputeHessian(jacobian interface{})

	// ComputeGradient forms g = Jᵀr into dst.
	ComputeGradient(jacobian interface{}, residuals []float64, dst []float64)

	// ExtractDiagonals copies diag(H) into dst.
	ExtractDiagonals(dst []float64)

	// SetDiagonals overwrites diag(H) with d. ExtractDiagonals followed
	// by SetDiagonals must be the identity on H.
	SetDiagonals(d []float64)

	// DivideRowsCols scales H in place: H ← diag(1/s)·H·diag(1/s).
	DivideRowsCols(s []float64)

	// InnerVectorHessian returns vᵀ H v.
	InnerVectorHessian(v []float64) float64

	// InitializeSolver factorizes H (or its blocks). It returns false if
	// H is singular or too ill-conditioned to factor; the caller treats
	// that as ErrSolverFailure, a fatal condition, not a rejected step.
	InitializeSolver() bool

	// Solve solves H p = g, storing the result in p. It returns false if
	// the factorization from InitializeSolver is unusable (should not
	// normally happen once InitializeSolver has returned true).
	Solve(g []float64, p []float64) bool
}

// DenseHessian is the small-problem Hessian backend: H is a full N×N
// symmetric matrix, factored with a dense Cholesky decomposition.
type DenseHessian struct {
	n int
	h *mat.SymDense

	chol     mat.Cholesky
	factored bool
}

// NewDenseHessian allocates a DenseHessian for an N-parameter problem.
func NewDenseHessian(n int) *DenseHessian {
	return &DenseHessian{
		n: n,
		h: mat.NewSymDense(n, nil),
	}
}

func (d *DenseHessian) Dim() int { return d.n }

// ComputeHessian accepts either a *mat.Dense Jacobian (forms JᵀJ) or a
// *mat.SymDense user-supplied Hessian (copied directly), matching the two
// least-squares/general-minimization modes.
func (d *DenseHessian) ComputeHessian(jacobian interface{}) {
	d.factored = false
	switch j := jacobian.(type) {
	case *mat.Dense:
		d.h.SymOuterK(1, j.T())
	case *mat.SymDense:
		d.h.CopySym(j)
	default:
		panic("trustregion: DenseHessian.ComputeHessian requires *mat.Dense or *mat.SymDense")
	}
}

func (d *DenseHessian) ComputeGradient(jacobian interface{}, residuals []float64, dst []float64) {
	j, ok := jacobian.(*mat.Dense)
	if !ok {
		panic("trustregion: DenseHessian.ComputeGradient requires *mat.Dense")
	}
	g := mat.NewVecDense(d.n, dst)
	r := mat.NewVecDense(len(residuals), residuals)
	g.MulVec(j.T(), r)
}

func (d *DenseHessian) ExtractDiagonals(dst []float64) {
	DenseMathOps{}.ExtractDiagonal(dst, d.h)
}

func (d *DenseHessian) SetDiagonals(diag []float64) {
	for i, v := range diag {
		d.h.SetSym(i, i, v)
	}
	d.factored = false
}

func (d *DenseHessian) DivideRowsCols(s []float64) {
	DenseMathOps{}.DivideRowsCols(d.h, s)
	d.factored = false
}

func (d *DenseHessian) InnerVectorHessian(v []float64) float64 {
	return DenseMathOps{}.InnerProduct(d.h, v)
}

func (d *DenseHessian) InitializeSolver() bool {
	d.factored = d.chol.Factorize(d.h)
	return d.factored
}

func (d *DenseHessian) Solve(g []float64, p []float64) bool {
	if !d.factored {
		return false
	}
	pv := mat.NewVecDense(d.n, p)
	gv := mat.NewVecDense(d.n, g)
	if err := d.chol.SolveVecTo(pv, gv); err != nil {
		return false
	}
	return true
}

// Sym returns the underlying symmetric matrix. Exposed so a user-supplied
// GeneralProblem.GradientHessian callback can reuse the same backing storage across
// iterations, the way gonum's optimize.Problem.Hess is documented to.
func (d *DenseHessian) Sym() *mat.SymDense { return d.h }
