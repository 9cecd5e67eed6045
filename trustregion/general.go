// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

// gpModel implements Model for a GeneralProblem: cost, gradient and Hessian
// all come directly from the user callback rather than being derived from
// residuals, so — unlike lsModel — there is no Gauss-Newton approximation
// and the F-test is the same relative-reduction test DefaultFConverged implements.
type gpModel struct {
	problem  GeneralProblem
	lastCost []float64
	haveCost bool
}

func (g *gpModel) EvaluateAt(x, grad []float64, h Hessian) {
	same := g.haveCost && floatsEqual(g.lastCost, x)
	g.problem.GradientHessian(x, same, grad, h)
}

func (g *gpModel) Cost(x []float64) float64 {
	fx := g.problem.Cost(x)
	copy(g.lastCost, x)
	g.haveCost = true
	return fx
}

func (g *gpModel) FConverged(fxPrev, fxCand, ftol float64) bool {
	return DefaultFConverged(fxPrev, fxCand, ftol)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NewDenseGeneralDriver wires a GeneralProblem (direct cost/gradient/Hessian
// callbacks, the general-minimization mode) into a
// TrustRegionDriver backed by a dense Hessian.
func NewDenseGeneralDriver(cfg ConfigTrustRegion, problem GeneralProblem, n int, strategy UpdateStrategy) (*TrustRegionDriver, error) {
	if n <= 0 {
		return nil, ErrBadDimension
	}
	h := NewDenseHessian(n)
	upd, err := newUpdateForStrategy(strategy, n)
	if err != nil {
		return nil, err
	}
	model := &gpModel{problem: problem, lastCost: make([]float64, n)}
	return NewDriver(cfg, model, h, upd)
}

// NewSchurGeneralDriver wires a GeneralProblem into a TrustRegionDriver
// backed by SchurHessian, for bordered-structure general-minimization
// problems with L "left" and R "right" parameters.
func NewSchurGeneralDriver(cfg ConfigTrustRegion, problem GeneralProblem, l, r int, strategy UpdateStrategy) (*TrustRegionDriver, error) {
	n := l + r
	if l <= 0 || r <= 0 {
		return nil, ErrBadDimension
	}
	h := NewSchurHessian(l, r)
	upd, err := newUpdateForStrategy(strategy, n)
	if err != nil {
		return nil, err
	}
	model := &gpModel{problem: problem, lastCost: make([]float64, n)}
	return NewDriver(cfg, model, h, upd)
}
