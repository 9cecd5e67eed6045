// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DoglegUpdate computes a two-segment approximation to the exact
// trust-region path between the Cauchy point and the Gauss-Newton point.
// When the Hessian is not positive definite along the current gradient it
// falls back to a truncated steepest-descent step.
type DoglegUpdate struct {
	n int
	g []float64
	h Hessian

	pgn []float64 // Gauss-Newton step, -H⁻¹g
	pu  []float64 // unconstrained Cauchy step
	d   []float64 // pgn - pu, scratch for the dogleg segment

	gnOK     bool // Hessian.Solve succeeded
	gHg      float64
	posDef   bool
	gNorm    float64
	pgnNorm  float64
	puNorm   float64
}

// NewDoglegUpdate allocates a DoglegUpdate for an n-parameter problem.
func NewDoglegUpdate(n int) *DoglegUpdate {
	return &DoglegUpdate{
		n:   n,
		pgn: make([]float64, n),
		pu:  make([]float64, n),
		d:   make([]float64, n),
	}
}

func (u *DoglegUpdate) InitializeUpdate(g []float64, h Hessian) error {
	u.g = g
	u.h = h
	u.gNorm = floats.Norm(g, 2)

	u.gnOK = h.Solve(g, u.pgn)
	if u.gnOK {
		floats.Scale(-1, u.pgn)
		u.pgnNorm = floats.Norm(u.pgn, 2)
	}

	u.gHg = h.InnerVectorHessian(g)
	u.posDef = u.gnOK && u.gHg > 0

	if u.gNorm > 0 && u.gHg > 0 {
		scale := (u.gNorm * u.gNorm) / u.gHg
		copy(u.pu, g)
		floats.Scale(-scale, u.pu)
	} else {
		floats.Fill(0, u.pu)
	}
	u.puNorm = floats.Norm(u.pu, 2)
	return nil
}

func (u *DoglegUpdate) ComputeUpdate(delta float64) Update {
	p := make([]float64, u.n)

	switch {
	case u.posDef && u.pgnNorm <= delta:
		copy(p, u.pgn)
	case u.posDef && u.puNorm >= delta:
		if u.puNorm > 0 {
			copy(p, u.pu)
			floats.Scale(delta/u.puNorm, p)
		}
	case u.posDef:
		tau := u.dogleg(delta)
		copy(u.d, u.pgn)
		floats.Sub(u.d, u.pu)
		copy(p, u.pu)
		floats.AddScaled(p, tau-1, u.d)
	default:
		if u.gNorm > 0 {
			copy(p, u.g)
			floats.Scale(-delta/u.gNorm, p)
		}
	}

	stepLength := floats.Norm(p, 2)
	predicted := -floats.Dot(u.g, p) - 0.5*u.h.InnerVectorHessian(p)
	return Update{Step: p, PredictedReduction: predicted, StepLength: stepLength}
}

// dogleg solves for τ ∈ [1, 2] such that
// ‖p_u + (τ-1)(p_gn - p_u)‖ = delta, returning τ. Writing s = τ-1 ∈ [0, 1]
// and d = p_gn - p_u gives the quadratic (d·d)s² + 2(p_u·d)s + (p_u·p_u -
// delta²) = 0; the positive root in [0, 1] is the one on the dogleg path.
func (u *DoglegUpdate) dogleg(delta float64) float64 {
	copy(u.d, u.pgn)
	floats.Sub(u.d, u.pu)

	dd := floats.Dot(u.d, u.d)
	pud := floats.Dot(u.pu, u.d)
	puu := floats.Dot(u.pu, u.pu)

	a := dd
	b := 2 * pud
	c := puu - delta*delta

	if a == 0 {
		return 1
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		disc = 0
	}
	sqrtDisc := math.Sqrt(disc)
	s := (-b + sqrtDisc) / (2 * a)
	s = math.Max(0, math.Min(1, s))
	return 1 + s
}
