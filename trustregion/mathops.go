// Copyright ©2015 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustregion

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// MathOps adapts the handful of matrix operations the Hessian layer needs
// to a concrete linear-algebra backend. DenseMathOps (gonum/mat, used
// throughout DenseHessian and SchurHessian's dense block arithmetic) is its
// implementation. SparseMathOps (james-bowman/sparse CSC, for pre-scaling a
// raw sparse Jacobian block before it is squared into a Hessian block) is a
// separate helper with its own methods and does not implement MathOps.
// Callers pre-size dst.
type MathOps interface {
	// ExtractDiagonal copies the diagonal of m into dst.
	ExtractDiagonal(dst []float64, m mat.Symmetric)

	// DivideRowsCols computes diag(1/s) * m * diag(1/s) in place.
	DivideRowsCols(m mat.Symmetric, s []float64)

	// InnerProduct returns vᵀ m v.
	InnerProduct(m mat.Symmetric, v []float64) float64
}

// DenseMathOps implements MathOps over dense gonum/mat.Symmetric matrices.
type DenseMathOps struct{}

func (DenseMathOps) ExtractDiagonal(dst []float64, m mat.Symmetric) {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		dst[i] = m.At(i, i)
	}
}

// DivideRowsCols scales m in place by diag(1/s) on both sides. m must be a
// concrete *mat.SymDense so individual entries can be overwritten; this
// mirrors the contract of Hessian.DivideRowsCols.
func (DenseMathOps) DivideRowsCols(m mat.Symmetric, s []float64) {
	sym, ok := m.(*mat.SymDense)
	if !ok {
		panic("trustregion: DenseMathOps.DivideRowsCols requires a *mat.SymDense")
	}
	n := sym.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, sym.At(i, j)/(s[i]*s[j]))
		}
	}
}

func (DenseMathOps) InnerProduct(m mat.Symmetric, v []float64) float64 {
	n := m.SymmetricDim()
	vec := mat.NewVecDense(n, v)
	var tmp mat.VecDense
	tmp.MulVec(m, vec)
	return mat.Dot(vec, &tmp)
}

// SparseMathOps provides the same diagonal-scaling primitive DenseMathOps
// does, but directly over a sparse CSC Jacobian column block, so a caller
// assembling a BlockJacobian can equivalently scale J_L/J_R by column before
// squaring rather than scaling A/B/D afterwards. The two are mathematically
// identical; this exists so james-bowman/sparse is exercised at the
// Jacobian boundary in addition to through SchurHessian's own block math.
type SparseMathOps struct{}

// ScaleColumns returns a new CSC equal to j with column i divided by s[i].
// It does not allocate a dense intermediate: it reads each column through
// ColView, copies the nonzero entries into a COO and converts that to CSC,
// so the result keeps CSC's compressed layout.
func (SparseMathOps) ScaleColumns(j *sparse.CSC, s []float64) *sparse.CSC {
	rows, cols := j.Dims()
	coo := sparse.NewCOO(rows, cols, nil, nil, nil)
	for c := 0; c < cols; c++ {
		col := j.ColView(c)
		n := col.Len()
		for i := 0; i < n; i++ {
			v := col.AtVec(i)
			if v == 0 {
				continue
			}
			coo.Set(i, c, v/s[c])
		}
	}
	return coo.ToCSC()
}

// Diagonal extracts the diagonal of a square sparse CSC matrix.
func (SparseMathOps) Diagonal(dst []float64, m *sparse.CSC) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		dst[i] = m.At(i, i)
	}
}
