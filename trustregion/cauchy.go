// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CauchyUpdate computes the Cauchy point: the minimizer of the quadratic
// model along the steepest-descent direction, inside the trust region. It
// ignores curvature off the gradient direction entirely, so it is cheap and
// robust but converges slowly compared to DoglegUpdate near a well-posed
// minimum.
type CauchyUpdate struct {
	n int
	g []float64
	h Hessian

	gNorm float64
	ghat  []float64 // g / ‖g‖
	c     float64   // ĝᵀ H ĝ
}

// NewCauchyUpdate allocates a CauchyUpdate for an n-parameter problem.
func NewCauchyUpdate(n int) *CauchyUpdate {
	return &CauchyUpdate{
		n:    n,
		ghat: make([]float64, n),
	}
}

func (c *CauchyUpdate) InitializeUpdate(g []float64, h Hessian) error {
	c.g = g
	c.h = h
	c.gNorm = floats.Norm(g, 2)
	if c.gNorm == 0 {
		floats.Fill(0, c.ghat)
		c.c = 0
		return nil
	}
	copy(c.ghat, g)
	floats.Scale(1/c.gNorm, c.ghat)
	c.c = h.InnerVectorHessian(c.ghat)
	return nil
}

func (c *CauchyUpdate) ComputeUpdate(delta float64) Update {
	p := make([]float64, c.n)
	if c.gNorm == 0 {
		return Update{Step: p, PredictedReduction: 0, StepLength: 0}
	}

	var tau float64
	if c.c <= 0 {
		// Model is non-convex along the gradient direction: go all the
		// way to the region boundary.
		tau = delta
	} else {
		tau = math.Min(delta, c.gNorm/c.c)
	}

	copy(p, c.ghat)
	floats.Scale(-tau, p)

	predicted := tau * (c.gNorm - tau*c.c/2)
	return Update{Step: p, PredictedReduction: predicted, StepLength: tau}
}
