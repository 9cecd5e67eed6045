// Copyright ©2019 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// UpdateStrategy selects the ParameterUpdate a convenience constructor
// wires up.
type UpdateStrategy int

const (
	// Dogleg blends the Cauchy and Gauss-Newton steps.
	Dogleg UpdateStrategy = iota
	// Cauchy uses the steepest-descent-only Cauchy point.
	Cauchy
)

func newUpdateForStrategy(strategy UpdateStrategy, n int) (ParameterUpdate, error) {
	switch strategy {
	case Dogleg:
		return NewDoglegUpdate(n), nil
	case Cauchy:
		return NewCauchyUpdate(n), nil
	default:
		return nil, fmt.Errorf("trustregion: unknown UpdateStrategy %d", strategy)
	}
}

// lsModel implements Model for a least-squares CoupledJacobian problem:
// cost F(x) = ½rᵀr, gradient g = Jᵀr, Hessian H = JᵀJ (the Gauss-Newton
// approximation), and the canonical relative-reduction F-test. It factors
// the residual/Jacobian bookkeeping a bespoke Levenberg-Marquardt loop would
// otherwise inline out into something that plugs into the general
// TrustRegionDriver instead.
type lsModel struct {
	problem  CoupledJacobian
	jacobian interface{}
	r        []float64
}

func (l *lsModel) EvaluateAt(x, g []float64, h Hessian) {
	l.problem.SetInput(x)
	l.problem.ComputeResiduals(l.r)
	l.problem.ComputeJacobian(l.jacobian)
	h.ComputeHessian(l.jacobian)
	h.ComputeGradient(l.jacobian, l.r, g)
}

func (l *lsModel) Cost(x []float64) float64 {
	l.problem.SetInput(x)
	l.problem.ComputeResiduals(l.r)
	return 0.5 * floats.Dot(l.r, l.r)
}

func (l *lsModel) FConverged(fxPrev, fxCand, ftol float64) bool {
	return DefaultFConverged(fxPrev, fxCand, ftol)
}

// NewDenseLeastSquaresDriver wires a CoupledJacobian problem whose
// ComputeJacobian fills a *mat.Dense into a TrustRegionDriver backed by a
// dense Gauss-Newton Hessian. This is the path for small-to-medium
// problems without block structure.
func NewDenseLeastSquaresDriver(cfg ConfigTrustRegion, problem CoupledJacobian, strategy UpdateStrategy) (*TrustRegionDriver, error) {
	n, m := problem.NumInputs(), problem.NumOutputs()
	if n <= 0 || m <= 0 {
		return nil, ErrBadDimension
	}
	h := NewDenseHessian(n)
	upd, err := newUpdateForStrategy(strategy, n)
	if err != nil {
		return nil, err
	}
	model := &lsModel{
		problem:  problem,
		jacobian: mat.NewDense(m, n, nil),
		r:        make([]float64, m),
	}
	return NewDriver(cfg, model, h, upd)
}

// NewSchurLeastSquaresDriver wires a CoupledJacobian problem whose
// ComputeJacobian fills a BlockJacobian into a TrustRegionDriver backed by
// SchurHessian, for bordered bundle-adjustment-style problems with L
// "left" and R "right" parameters.
func NewSchurLeastSquaresDriver(cfg ConfigTrustRegion, problem CoupledJacobian, l, r int, strategy UpdateStrategy) (*TrustRegionDriver, error) {
	n, m := problem.NumInputs(), problem.NumOutputs()
	if n != l+r {
		return nil, fmt.Errorf("trustregion: NumInputs() = %d, want L+R = %d", n, l+r)
	}
	if n <= 0 || m <= 0 {
		return nil, ErrBadDimension
	}
	h := NewSchurHessian(l, r)
	upd, err := newUpdateForStrategy(strategy, n)
	if err != nil {
		return nil, err
	}
	model := &lsModel{
		problem:  problem,
		jacobian: &BlockJacobian{},
		r:        make([]float64, m),
	}
	return NewDriver(cfg, model, h, upd)
}
