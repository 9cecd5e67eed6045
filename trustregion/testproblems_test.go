// Copyright ©2019 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// The test problems below follow a common convention for nonlinear
// least-squares test functions: a small struct holding the current input,
// with ComputeResiduals/ComputeJacobian methods. Helical Valley and Powell
// Singular have no analytic Jacobian here and instead go through
// ForwardDiffJacobian.

// linear2Param is the "Linear 2-param residual" scenario:
// r0(x) = x0 - 2, r1(x) = x1 - 0.1.
type linear2Param struct {
	x [2]float64
}

func (p *linear2Param) NumInputs() int  { return 2 }
func (p *linear2Param) NumOutputs() int { return 2 }
func (p *linear2Param) SetInput(x []float64) { p.x[0], p.x[1] = x[0], x[1] }
func (p *linear2Param) ComputeResiduals(r []float64) {
	r[0] = p.x[0] - 2
	r[1] = p.x[1] - 0.1
}
func (p *linear2Param) ComputeJacobian(jacobian interface{}) {
	dst := jacobian.(*mat.Dense)
	dst.Set(0, 0, 1)
	dst.Set(0, 1, 0)
	dst.Set(1, 0, 0)
	dst.Set(1, 1, 1)
}

// distanceFromMean is the "distance from the mean" RANSAC-style model: a
// single parameter x0 predicts every data point, residual_i = data_i - x0.
type distanceFromMean struct {
	data []float64
	x    [1]float64
}

func (p *distanceFromMean) NumInputs() int  { return 1 }
func (p *distanceFromMean) NumOutputs() int { return len(p.data) }
func (p *distanceFromMean) SetInput(x []float64) { p.x[0] = x[0] }
func (p *distanceFromMean) ComputeResiduals(r []float64) {
	for i, d := range p.data {
		r[i] = d - p.x[0]
	}
}
func (p *distanceFromMean) ComputeJacobian(jacobian interface{}) {
	dst := jacobian.(*mat.Dense)
	for i := range p.data {
		dst.Set(i, 0, -1)
	}
}

// helicalValley is More-Garbow-Hillstrom test function #7 ("Testing
// unconstrained optimization software", ACM TOMS 7 (1981), 17-41). It has no
// analytic Jacobian here; ForwardDiffJacobian supplies one.
type helicalValley struct {
	x [3]float64
}

func (p *helicalValley) NumInputs() int  { return 3 }
func (p *helicalValley) NumOutputs() int { return 3 }
func (p *helicalValley) SetInput(x []float64) { p.x[0], p.x[1], p.x[2] = x[0], x[1], x[2] }
func (p *helicalValley) ComputeResiduals(r []float64) {
	x1, x2, x3 := p.x[0], p.x[1], p.x[2]
	var theta float64
	switch {
	case x1 > 0:
		theta = math.Atan(x2/x1) / (2 * math.Pi)
	case x1 < 0:
		theta = math.Atan(x2/x1)/(2*math.Pi) + 0.5
	default:
		theta = 0.25 * sign(x2)
	}
	r[0] = 10 * (x3 - 10*theta)
	r[1] = 10 * (math.Hypot(x1, x2) - 1)
	r[2] = x3
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// powellSingular is MGH test function #13.
type powellSingular struct {
	x [4]float64
}

func (p *powellSingular) NumInputs() int  { return 4 }
func (p *powellSingular) NumOutputs() int { return 4 }
func (p *powellSingular) SetInput(x []float64) {
	p.x[0], p.x[1], p.x[2], p.x[3] = x[0], x[1], x[2], x[3]
}
func (p *powellSingular) ComputeResiduals(r []float64) {
	x1, x2, x3, x4 := p.x[0], p.x[1], p.x[2], p.x[3]
	r[0] = x1 + 10*x2
	r[1] = math.Sqrt(5) * (x3 - x4)
	r[2] = (x2 - 2*x3) * (x2 - 2*x3)
	r[3] = math.Sqrt(10) * (x1 - x4) * (x1 - x4)
}

// rosenbrock is the classic 2-parameter Rosenbrock residual form.
type rosenbrock struct {
	x [2]float64
}

func (p *rosenbrock) NumInputs() int  { return 2 }
func (p *rosenbrock) NumOutputs() int { return 2 }
func (p *rosenbrock) SetInput(x []float64) { p.x[0], p.x[1] = x[0], x[1] }
func (p *rosenbrock) ComputeResiduals(r []float64) {
	r[0] = 10 * (p.x[1] - p.x[0]*p.x[0])
	r[1] = 1 - p.x[0]
}
func (p *rosenbrock) ComputeJacobian(jacobian interface{}) {
	dst := jacobian.(*mat.Dense)
	dst.Set(0, 0, -20*p.x[0])
	dst.Set(0, 1, 10)
	dst.Set(1, 0, -1)
	dst.Set(1, 1, 0)
}
