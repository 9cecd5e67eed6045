// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

// Update is the result of a ParameterUpdate.ComputeUpdate call: a candidate
// step p, the reduction the quadratic model predicts it achieves, and its
// length (in whatever metric — scaled or not — the Hessian/gradient were
// computed in).
type Update struct {
	Step               []float64
	PredictedReduction float64
	StepLength         float64
}

// ParameterUpdate computes a trust-region step given the current gradient
// and Hessian. Implementations are stateless aside from scratch buffers
// filled in by InitializeUpdate; they never mutate the Hessian. Two
// variants are provided: CauchyUpdate (steepest-descent-only) and
// DoglegUpdate (Gauss-Newton/Cauchy blend).
type ParameterUpdate interface {
	// InitializeUpdate is called once per FULL_STEP (after a new gradient
	// and Hessian are available) before any ComputeUpdate calls against
	// that gradient/Hessian pair.
	InitializeUpdate(g []float64, h Hessian) error

	// ComputeUpdate returns the step for trust region radius delta. It
	// may be called multiple times (once per RETRY) with a shrinking
	// delta, reusing the state from the last InitializeUpdate.
	ComputeUpdate(delta float64) Update
}
