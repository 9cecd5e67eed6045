// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trustregion implements a trust-region driver for nonlinear
// least-squares and unconstrained minimization problems.
//
// The driver repeatedly forms a quadratic model of the objective at the
// current point, asks a ParameterUpdate strategy (Cauchy point or Dogleg)
// for the best step inside a ball of radius Δ, and accepts or rejects that
// step based on how well the model's predicted reduction matched the
// observed one. Two Hessian backends are provided: a dense Gauss-Newton
// Hessian for small problems, and a 2x2 block Hessian, formed from sparse
// Jacobian blocks and solved via a Schur complement, for the bordered
// systems that arise in bundle-adjustment style problems.
package trustregion
