// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DriverState is the state of the TrustRegionDriver state machine.
type DriverState int

const (
	// FullStep: a new gradient/Hessian was just computed at the current
	// x and a fresh step is being proposed.
	FullStep DriverState = iota
	// Retry: the previous step was rejected; the same gradient/Hessian
	// is reused with a smaller trust region.
	Retry
	// Converged: terminal. Iterate is a no-op that returns true.
	Converged
)

func (s DriverState) String() string {
	switch s {
	case FullStep:
		return "FullStep"
	case Retry:
		return "Retry"
	case Converged:
		return "Converged"
	default:
		return "Unknown"
	}
}

// Model evaluates the objective the driver is minimizing and supplies the
// F-test hook the concrete problem mode implements
// (least-squares vs. general minimization). It is the capability-trait
// analogue of the source's TrustRegionBase<S> subclassing.
type Model interface {
	// EvaluateAt fills g and h with the gradient and Hessian at x.
	EvaluateAt(x []float64, g []float64, h Hessian)
	// Cost returns the objective value at x, with no gradient/Hessian
	// side effects.
	Cost(x []float64) float64
	// FConverged implements the F-test: true if the relative reduction
	// from fxPrev to fxCand satisfies this mode's tolerance.
	FConverged(fxPrev, fxCand, ftol float64) bool
}

// DefaultFConverged implements the canonical relative-reduction F-test from
// the canonical rule: converged iff (fxPrev - fxCand) <= ftol * max(fxPrev, |fxCand|).
func DefaultFConverged(fxPrev, fxCand, ftol float64) bool {
	denom := math.Max(fxPrev, math.Abs(fxCand))
	if denom == 0 {
		return fxPrev-fxCand <= ftol
	}
	return fxPrev-fxCand <= ftol*denom
}

// Stats holds the observable iteration counters.
type Stats struct {
	TotalFullSteps int
	TotalRetries   int
}

// TrustRegionDriver is the state machine driving a trust-region minimization: it
// computes cost/gradient/Hessian, delegates to a ParameterUpdate strategy,
// applies ratio-based step acceptance, adjusts the trust region radius, and
// tests convergence. It is single-threaded and synchronous: Iterate is the
// only suspension point, and a caller aborts a run simply by not calling it
// again.
type TrustRegionDriver struct {
	cfg   ConfigTrustRegion
	model Model
	h     Hessian
	upd   ParameterUpdate

	n int

	x     []float64
	xNext []float64
	p     []float64

	g     []float64
	scale []float64

	fx     float64
	fxNext float64

	delta          float64
	radiusResolved bool

	state DriverState

	stats Stats
}

// NewDriver constructs a TrustRegionDriver. h and upd must agree on
// dimension n; upd is typically a *CauchyUpdate or *DoglegUpdate wrapping h.
func NewDriver(cfg ConfigTrustRegion, model Model, h Hessian, upd ParameterUpdate) (*TrustRegionDriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := h.Dim()
	return &TrustRegionDriver{
		cfg:   cfg,
		model: model,
		h:     h,
		upd:   upd,
		n:     n,
		x:     make([]float64, n),
		xNext: make([]float64, n),
		p:     make([]float64, n),
		g:     make([]float64, n),
		scale: make([]float64, n),
	}, nil
}

// Initialize sets the starting point, evaluates the initial cost, and
// arms the trust region radius. If fx <= fMin the driver transitions
// directly to Converged.
func (d *TrustRegionDriver) Initialize(x0 []float64, fMin float64) error {
	if len(x0) != d.n {
		return ErrBadDimension
	}
	copy(d.x, x0)
	floats.Fill(1, d.scale)
	d.fx = d.model.Cost(d.x)
	d.radiusResolved = false

	mode, explicit := d.cfg.regionInitialMode()
	if mode == RegionExplicit {
		d.delta = explicit
		d.radiusResolved = true
	}

	d.stats = Stats{}
	if d.fx <= fMin {
		d.state = Converged
		return nil
	}
	d.state = FullStep
	return nil
}

// X returns the current (best known) parameter vector.
func (d *TrustRegionDriver) X() []float64 { return d.x }

// Fx returns the cost at the current parameter vector.
func (d *TrustRegionDriver) Fx() float64 { return d.fx }

// Stats returns the observable iteration counters.
func (d *TrustRegionDriver) Stats() Stats { return d.stats }

// State returns the current driver state.
func (d *TrustRegionDriver) State() DriverState { return d.state }

// SetVerbose toggles the per-iteration log line.
func (d *TrustRegionDriver) SetVerbose(v bool) { d.cfg.Verbose = v }

// Iterate runs one transition of the state machine and returns true iff the
// driver has converged.
func (d *TrustRegionDriver) Iterate() (bool, error) {
	switch d.state {
	case Converged:
		return true, nil
	case FullStep:
		d.stats.TotalFullSteps++
		return d.enterFullStep()
	case Retry:
		d.stats.TotalRetries++
		return d.computeAndConsider()
	default:
		panic("trustregion: unreachable driver state")
	}
}

func (d *TrustRegionDriver) enterFullStep() (bool, error) {
	d.model.EvaluateAt(d.x, d.g, d.h)

	if d.cfg.scalingActive() {
		d.applyScaling()
	}

	gNormInf := floats.Norm(d.g, math.Inf(1))
	if math.IsNaN(gNormInf) || math.IsInf(gNormInf, 0) {
		d.state = Converged
		return true, fmt.Errorf("trustregion: %w", ErrUncountable)
	}
	if gNormInf <= d.cfg.GTol {
		d.state = Converged
		return true, nil
	}

	if !d.h.InitializeSolver() {
		d.state = Converged
		return true, fmt.Errorf("trustregion: %w", ErrSolverFailure)
	}

	if err := d.upd.InitializeUpdate(d.g, d.h); err != nil {
		d.state = Converged
		return true, err
	}

	return d.computeAndConsider()
}

// applyScaling extracts diag(H), clamps it into s, and rescales g and H in
// place.
func (d *TrustRegionDriver) applyScaling() {
	diag := make([]float64, d.n)
	d.h.ExtractDiagonals(diag)
	for i, v := range diag {
		d.scale[i] = clamp(math.Sqrt(math.Abs(v)), d.cfg.ScalingMinimum, d.cfg.ScalingMaximum)
	}
	for i := range d.g {
		d.g[i] /= d.scale[i]
	}
	d.h.DivideRowsCols(d.scale)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolveInitialRadius picks the starting trust region radius. It runs at most once, on
// the very first compute-and-consider call of the run.
func (d *TrustRegionDriver) resolveInitialRadius() {
	if d.radiusResolved {
		return
	}
	d.radiusResolved = true

	mode, _ := d.cfg.regionInitialMode()
	switch mode {
	case RegionUnconstrained:
		probe := d.upd.ComputeUpdate(maxFiniteRadius)
		if !math.IsInf(probe.StepLength, 0) && !math.IsNaN(probe.StepLength) {
			d.delta = probe.StepLength
			return
		}
		d.cfg.logger().Warn("trustregion: unconstrained probe step length not finite, falling back to Cauchy radius")
		fallthrough
	case RegionCauchy:
		gNorm := floats.Norm(d.g, 2)
		gHg := d.h.InnerVectorHessian(d.g)
		var tauCauchy float64
		if gHg > 0 {
			tauCauchy = gNorm * gNorm / gHg
		}
		d.delta = 10 * tauCauchy
	}
}

// computeAndConsider is the shared body of FullStep and Retry: it asks the
// ParameterUpdate for a step, evaluates the candidate point, and runs the
// ratio test.
func (d *TrustRegionDriver) computeAndConsider() (bool, error) {
	d.resolveInitialRadius()

	u := d.upd.ComputeUpdate(d.delta)
	copy(d.p, u.Step)

	nonFinite := false
	for _, v := range d.p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite = true
			break
		}
	}

	if nonFinite {
		// A non-finite step typically means delta is larger than
		// numerically reasonable for the current Hessian conditioning;
		// this is a rejection, not a fatal error.
		d.delta /= 2
		d.state = Retry
		d.logIteration()
		return false, nil
	}

	if d.cfg.scalingActive() {
		for i := range d.p {
			d.p[i] /= d.scale[i]
		}
	}

	for i := range d.x {
		d.xNext[i] = d.x[i] + d.p[i]
	}
	d.fxNext = d.model.Cost(d.xNext)

	if math.IsNaN(d.fxNext) {
		d.delta /= 2
		d.state = Retry
		d.logIteration()
		return false, nil
	}

	decision, ratio := ratioTest(d.fx, d.fxNext, u.PredictedReduction, u.StepLength, &d.delta, d.cfg.RegionMaximum)
	d.logIterationRatio(ratio)

	if decision == accept {
		converged := d.model.FConverged(d.fx, d.fxNext, d.cfg.FTol)
		d.x, d.xNext = d.xNext, d.x
		d.fx = d.fxNext
		if converged {
			d.state = Converged
			return true, nil
		}
		d.state = FullStep
		return false, nil
	}

	d.state = Retry
	return false, nil
}

type ratioDecision int

const (
	accept ratioDecision = iota
	reject
)

// ratioTest is the trust-region ratio test: it mutates delta in place and returns
// the accept/reject decision (and, for logging, the ratio ν).
func ratioTest(fxPrev, fxCand, predicted, stepLen float64, delta *float64, deltaMax float64) (ratioDecision, float64) {
	actual := fxPrev - fxCand

	if actual == 0 || predicted == 0 {
		return accept, math.NaN()
	}

	nu := actual / predicted

	switch {
	case fxCand > fxPrev || nu < 0.25:
		*delta /= 2
	case nu > 0.75:
		grown := math.Max(3*stepLen, *delta)
		*delta = math.Min(grown, deltaMax)
	}

	if fxCand < fxPrev && nu > 0 {
		return accept, nu
	}
	return reject, nu
}

func (d *TrustRegionDriver) logIterationRatio(ratio float64) {
	if !d.cfg.Verbose {
		return
	}
	d.cfg.logger().Info("trustregion iteration",
		"fx_candidate", d.fxNext,
		"ratio", ratio,
		"delta", d.delta,
		"state", d.state.String())
}

func (d *TrustRegionDriver) logIteration() {
	d.logIterationRatio(math.NaN())
}
