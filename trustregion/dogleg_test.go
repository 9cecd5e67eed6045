// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// TestDoglegReducesToGaussNewton checks that with delta
// effectively infinite, the dogleg step equals the Gauss-Newton step.
func TestDoglegReducesToGaussNewton(t *testing.T) {
	h := &diagHessian{diag: []float64{4, 9}}
	g := []float64{2, 3}
	du := NewDoglegUpdate(2)
	if err := du.InitializeUpdate(g, h); err != nil {
		t.Fatalf("InitializeUpdate: %v", err)
	}

	u := du.ComputeUpdate(maxFiniteRadius)
	wantGN := []float64{-g[0] / 4, -g[1] / 9}
	if !floats.EqualApprox(u.Step, wantGN, 1e-9) {
		t.Errorf("Step = %v, want Gauss-Newton step %v", u.Step, wantGN)
	}
}

// TestDoglegReducesToTruncatedGradient checks that as delta
// shrinks toward 0, the dogleg step approaches the truncated steepest
// descent direction (the Cauchy direction), i.e. its unit direction matches
// -g/‖g‖.
func TestDoglegReducesToTruncatedGradient(t *testing.T) {
	h := &diagHessian{diag: []float64{4, 9}}
	g := []float64{2, 3}
	du := NewDoglegUpdate(2)
	if err := du.InitializeUpdate(g, h); err != nil {
		t.Fatalf("InitializeUpdate: %v", err)
	}

	const delta = 1e-6
	u := du.ComputeUpdate(delta)
	if math.Abs(u.StepLength-delta) > 1e-9*delta {
		t.Errorf("StepLength = %v, want ~%v", u.StepLength, delta)
	}

	gNorm := floats.Norm(g, 2)
	wantDir := make([]float64, 2)
	copy(wantDir, g)
	floats.Scale(-1/gNorm, wantDir)

	stepDir := make([]float64, 2)
	copy(stepDir, u.Step)
	floats.Scale(1/u.StepLength, stepDir)

	if !floats.EqualApprox(stepDir, wantDir, 1e-6) {
		t.Errorf("unit step direction = %v, want truncated-gradient direction %v", stepDir, wantDir)
	}
}

// TestDoglegNonPosDefFallsBackToGradient checks that a non-positive-definite
// Hessian (Solve fails or curvature is non-positive) forces the truncated
// steepest-descent fallback branch.
func TestDoglegNonPosDefFallsBackToGradient(t *testing.T) {
	h := &diagHessian{diag: []float64{-1, -1}}
	g := []float64{1, 0}
	du := NewDoglegUpdate(2)
	if err := du.InitializeUpdate(g, h); err != nil {
		t.Fatalf("InitializeUpdate: %v", err)
	}

	const delta = 0.5
	u := du.ComputeUpdate(delta)
	want := []float64{-delta, 0}
	if !floats.EqualApprox(u.Step, want, 1e-12) {
		t.Errorf("Step = %v, want %v (truncated gradient fallback)", u.Step, want)
	}
}

// TestDoglegSegmentBoundaryLength checks that the dogleg-segment branch
// (Cauchy point inside the region, Gauss-Newton point outside) produces a
// step exactly on the trust region boundary.
func TestDoglegSegmentBoundaryLength(t *testing.T) {
	h := &diagHessian{diag: []float64{1, 100}}
	g := []float64{1, 1}
	du := NewDoglegUpdate(2)
	if err := du.InitializeUpdate(g, h); err != nil {
		t.Fatalf("InitializeUpdate: %v", err)
	}

	const delta = 0.5
	u := du.ComputeUpdate(delta)
	if math.Abs(u.StepLength-delta) > 1e-9 {
		t.Errorf("StepLength = %v, want %v (on trust region boundary)", u.StepLength, delta)
	}
}
