// Copyright ©2019 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// ResidualProblem is the subset of CoupledJacobian needed to evaluate
// residuals but not their Jacobian: a user who only wants to provide
// ComputeResiduals can wrap themselves in a ForwardDiffJacobian to get a
// full CoupledJacobian for free.
type ResidualProblem interface {
	NumInputs() int
	NumOutputs() int
	SetInput(x []float64)
	ComputeResiduals(r []float64)
}

// ForwardDiffJacobian adapts a ResidualProblem into a CoupledJacobian by
// estimating the Jacobian with fd.Jacobian, the same finite-difference
// machinery gonum's own NumJac hands off to for nonlinear least-squares
// problems that don't supply an analytic Jacobian.
type ForwardDiffJacobian struct {
	Residual ResidualProblem

	x []float64
}

// NewForwardDiffJacobian allocates scratch buffers sized to res.
func NewForwardDiffJacobian(res ResidualProblem) *ForwardDiffJacobian {
	return &ForwardDiffJacobian{
		Residual: res,
		x:        make([]float64, res.NumInputs()),
	}
}

func (f *ForwardDiffJacobian) NumInputs() int  { return f.Residual.NumInputs() }
func (f *ForwardDiffJacobian) NumOutputs() int { return f.Residual.NumOutputs() }

func (f *ForwardDiffJacobian) SetInput(x []float64) {
	copy(f.x, x)
	f.Residual.SetInput(x)
}

func (f *ForwardDiffJacobian) ComputeResiduals(r []float64) {
	f.Residual.ComputeResiduals(r)
}

// ComputeJacobian requires jacobian to be a *mat.Dense of shape M×N.
func (f *ForwardDiffJacobian) ComputeJacobian(jacobian interface{}) {
	dst, ok := jacobian.(*mat.Dense)
	if !ok {
		panic("trustregion: ForwardDiffJacobian.ComputeJacobian requires *mat.Dense")
	}

	eval := func(y, x []float64) {
		f.Residual.SetInput(x)
		f.Residual.ComputeResiduals(y)
	}
	fd.Jacobian(dst, eval, f.x, &fd.JacobianSettings{
		Formula:    fd.Forward,
		Concurrent: false,
	})

	f.Residual.SetInput(f.x)
}
