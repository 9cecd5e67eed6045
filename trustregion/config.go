// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

// RegionInitialMode selects how the driver resolves the starting trust
// region radius on the first iteration. It replaces the raw numeric
// sentinels (-1, -2) used at the configuration boundary with a sum type, per
// the package design notes; ConfigTrustRegion.RegionInitial still accepts
// the numeric encoding so configuration can be expressed as a single float.
type RegionInitialMode int

const (
	// RegionExplicit uses RegionInitial literally as the starting Δ.
	RegionExplicit RegionInitialMode = iota
	// RegionUnconstrained probes computeUpdate with an effectively
	// infinite Δ and uses the resulting step length, falling back to
	// RegionCauchy if that step is not finite.
	RegionUnconstrained
	// RegionCauchy sets Δ to 10 times the unconstrained Cauchy step
	// length ‖g‖²/(gᵀHg).
	RegionCauchy
)

// regionInitialUnconstrained and regionInitialCauchy are the numeric
// sentinel encodings accepted at the configuration boundary: -1 selects
// RegionUnconstrained, -2 selects RegionCauchy.
const (
	regionInitialUnconstrained = -1.0
	regionInitialCauchy        = -2.0
)

// maxFiniteRadius stands in for +∞ when probing computeUpdate for the
// Unconstrained initial-radius mode; it must be finite so downstream
// arithmetic (e.g. τ·c in CauchyUpdate's predicted reduction when c is 0)
// never produces NaN from Inf·0.
const maxFiniteRadius = math.MaxFloat64 / 1024

// ConfigTrustRegion holds the tuning knobs for a TrustRegionDriver run. The
// zero value is not valid; use DefaultConfig and override fields, or build
// one directly and call Validate before use. NewDriver calls Validate
// automatically.
type ConfigTrustRegion struct {
	// RegionInitial sets the starting trust region radius. A positive
	// value is used literally. The sentinels -1 and -2 select
	// RegionUnconstrained and RegionCauchy respectively; any other
	// non-positive value is a configuration error.
	RegionInitial float64

	// RegionMaximum caps the trust region radius. Must be positive.
	RegionMaximum float64

	// GTol is the infinity-norm tolerance on the (scaled) gradient used
	// by the G-test.
	GTol float64

	// FTol is the relative cost-change tolerance used by the F-test.
	FTol float64

	// ScalingMinimum and ScalingMaximum clamp the diagonal scaling
	// vector. Scaling is active iff ScalingMaximum > ScalingMinimum.
	ScalingMinimum float64
	ScalingMaximum float64

	// Logger receives one record per iteration when Verbose is true. If
	// nil and Verbose is true, a tint-backed logger writing to os.Stderr
	// is used.
	Logger *slog.Logger

	// Verbose enables the per-iteration log line (fx_candidate, ratio, Δ).
	Verbose bool
}

// DefaultConfig returns the configuration used when none is supplied,
// matching the package-level defaults.
func DefaultConfig() ConfigTrustRegion {
	return ConfigTrustRegion{
		RegionInitial:  1.0,
		RegionMaximum:  1e16,
		GTol:           1e-8,
		FTol:           1e-12,
		ScalingMinimum: 0,
		ScalingMaximum: 0, // off: ScalingMaximum <= ScalingMinimum
	}
}

// regionInitialMode classifies RegionInitial into its sum-type mode and
// (for RegionExplicit) the literal radius to use.
func (c ConfigTrustRegion) regionInitialMode() (mode RegionInitialMode, explicit float64) {
	switch {
	case c.RegionInitial > 0:
		return RegionExplicit, c.RegionInitial
	case c.RegionInitial == regionInitialUnconstrained:
		return RegionUnconstrained, 0
	case c.RegionInitial == regionInitialCauchy:
		return RegionCauchy, 0
	default:
		return RegionExplicit, c.RegionInitial
	}
}

// scalingActive reports whether diagonal scaling should be applied.
func (c ConfigTrustRegion) scalingActive() bool {
	return c.ScalingMaximum > c.ScalingMinimum
}

// Validate fails fast on configuration errors, the first of the three error
// categories. It never reports numerical or solver errors;
// those can only be discovered once a run is underway.
func (c ConfigTrustRegion) Validate() error {
	mode, _ := c.regionInitialMode()
	if mode == RegionExplicit && c.RegionInitial <= 0 {
		return ErrBadRegionInitial
	}
	if c.RegionMaximum <= 0 {
		return ErrBadRegionMaximum
	}
	if c.scalingActive() && c.ScalingMaximum < c.ScalingMinimum {
		return ErrBadScaling
	}
	return nil
}

// defaultLogger is a tint-backed *slog.Logger writing colorized,
// human-readable records to os.Stderr, following the pack's precedent for
// how a Go service logs (alexshd-lawbench's slog.SetDefault(slog.New(
// tint.NewHandler(...)))). Built lazily and once, since every
// ConfigTrustRegion with Verbose set and no injected Logger shares it.
var defaultLogger = sync.OnceValue(func() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
	}))
})

func (c ConfigTrustRegion) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger()
}
