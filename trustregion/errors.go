// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import "errors"

// Sentinel errors for the three failure categories described in the package
// design notes: configuration errors, numerical errors, and solver failures.
// Configuration errors are detected by ConfigTrustRegion.Validate and fail
// fast before a run starts. Numerical and solver errors abort an in-progress
// run; a stuck-but-still-converging run is not an error at all, it is simply
// an iterate call that keeps returning false.
var (
	// ErrBadRegionInitial is returned when RegionInitial is neither a
	// positive number nor one of the Unconstrained/Cauchy sentinel modes.
	ErrBadRegionInitial = errors.New("trustregion: RegionInitial must be >0, -1 (unconstrained) or -2 (cauchy)")

	// ErrBadRegionMaximum is returned when RegionMaximum is not positive.
	ErrBadRegionMaximum = errors.New("trustregion: RegionMaximum must be positive")

	// ErrBadScaling names an invalid scaling clamp. Validate does not
	// return it for inverted bounds: ScalingMaximum <= ScalingMinimum
	// turns scaling off instead.
	ErrBadScaling = errors.New("trustregion: ScalingMaximum must be >= ScalingMinimum")

	// ErrBadDimension is returned when a problem reports a non-positive
	// number of parameters or residuals, and by Initialize when x0 does
	// not have the driver's N entries.
	ErrBadDimension = errors.New("trustregion: dimension must be positive")

	// ErrUncountable reports a non-finite gradient norm; per the design,
	// this is always fatal and is never downgraded to a rejected step.
	ErrUncountable = errors.New("trustregion: gradient norm is not finite")

	// ErrSolverFailure reports that a Hessian's initializeSolver call
	// failed (the matrix is singular or too ill-conditioned to factor).
	// This surfaces to the caller; it is not treated as a rejected step.
	ErrSolverFailure = errors.New("trustregion: Hessian solver failed to factorize")
)
