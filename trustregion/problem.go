// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// CoupledJacobian is the least-squares-mode user callback.
// Implementations own their residual and Jacobian storage; ComputeJacobian
// must not modify the residuals returned by ComputeResiduals or any other
// shared state.
type CoupledJacobian interface {
	// NumInputs returns N, the number of parameters.
	NumInputs() int
	// NumOutputs returns M, the number of residuals.
	NumOutputs() int
	// SetInput records x as the point subsequent calls evaluate at.
	SetInput(x []float64)
	// ComputeResiduals fills r (length M) with the residuals at the most
	// recently set input.
	ComputeResiduals(r []float64)
	// ComputeJacobian fills J (backend-specific: *mat.Dense or a
	// BlockJacobian) with the Jacobian at the most recently set input.
	ComputeJacobian(jacobian interface{})
}

// GeneralProblem is the general-minimization-mode user callback from
// a cost function together with its gradient and Hessian.
type GeneralProblem interface {
	// Cost returns the objective value at x.
	Cost(x []float64) float64

	// GradientHessian fills g and h with the gradient and Hessian at x.
	// sameStateAsCost is true when x is the same point as the most
	// recent Cost call, letting the callback reuse cached intermediates.
	GradientHessian(x []float64, sameStateAsCost bool, g []float64, h Hessian)
}

// ResidualFunc fills r (length M) with the residuals at parameters x
// (length N).
type ResidualFunc func(r, x []float64)

// DenseJacobianFunc fills the M×N Jacobian dst at parameters x.
type DenseJacobianFunc func(dst *mat.Dense, x []float64)

// DenseCoupledJacobian adapts a plain residual/Jacobian function pair into a
// CoupledJacobian backed by a *mat.Dense Jacobian, the shape
// NewDenseLeastSquaresDriver expects. It exists so a caller with a residual
// and an analytic dense Jacobian can plug straight into the driver without
// declaring a dedicated struct and method set of their own.
type DenseCoupledJacobian struct {
	N, M     int
	Residual ResidualFunc
	Jacobian DenseJacobianFunc

	x []float64
}

// NewDenseCoupledJacobian allocates a DenseCoupledJacobian for an
// n-parameter, m-residual problem.
func NewDenseCoupledJacobian(n, m int, residual ResidualFunc, jacobian DenseJacobianFunc) *DenseCoupledJacobian {
	return &DenseCoupledJacobian{N: n, M: m, Residual: residual, Jacobian: jacobian, x: make([]float64, n)}
}

func (d *DenseCoupledJacobian) NumInputs() int  { return d.N }
func (d *DenseCoupledJacobian) NumOutputs() int { return d.M }

func (d *DenseCoupledJacobian) SetInput(x []float64) { copy(d.x, x) }

func (d *DenseCoupledJacobian) ComputeResiduals(r []float64) { d.Residual(r, d.x) }

func (d *DenseCoupledJacobian) ComputeJacobian(jacobian interface{}) {
	dst, ok := jacobian.(*mat.Dense)
	if !ok {
		panic("trustregion: DenseCoupledJacobian.ComputeJacobian requires *mat.Dense")
	}
	d.Jacobian(dst, d.x)
}

// SparseJacobianFunc returns the left (M×L) and right (M×R) block Jacobians
// at parameters x, split at column L to match SchurHessian's partition.
type SparseJacobianFunc func(x []float64) (jl, jr *sparse.CSC)

// SparseCoupledJacobian adapts a plain residual/block-Jacobian function pair
// into a CoupledJacobian backed by a BlockJacobian of *sparse.CSC blocks,
// the shape NewSchurLeastSquaresDriver expects. Like DenseCoupledJacobian,
// it exists so a caller can plug a bordered, sparse-Jacobian problem into
// the driver without writing their own MathOps or BlockJacobian plumbing.
type SparseCoupledJacobian struct {
	L, R, M  int
	Residual ResidualFunc
	Jacobian SparseJacobianFunc

	x []float64
}

// NewSparseCoupledJacobian allocates a SparseCoupledJacobian for an
// (l+r)-parameter, m-residual bordered problem.
func NewSparseCoupledJacobian(l, r, m int, residual ResidualFunc, jacobian SparseJacobianFunc) *SparseCoupledJacobian {
	return &SparseCoupledJacobian{L: l, R: r, M: m, Residual: residual, Jacobian: jacobian, x: make([]float64, l+r)}
}

func (s *SparseCoupledJacobian) NumInputs() int  { return s.L + s.R }
func (s *SparseCoupledJacobian) NumOutputs() int { return s.M }

func (s *SparseCoupledJacobian) SetInput(x []float64) { copy(s.x, x) }

func (s *SparseCoupledJacobian) ComputeResiduals(r []float64) { s.Residual(r, s.x) }

func (s *SparseCoupledJacobian) ComputeJacobian(jacobian interface{}) {
	bj, ok := jacobian.(*BlockJacobian)
	if !ok {
		panic("trustregion: SparseCoupledJacobian.ComputeJacobian requires a BlockJacobian")
	}
	bj.JL, bj.JR = s.Jacobian(s.x)
}
