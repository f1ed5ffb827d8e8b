package csvd

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// gonum's mat.CDense carries no arithmetic methods, so complex matrix
// products go through cblas128.Gemm on the raw representation.

// Mul stores the product a * b in dst, allocating fresh backing storage.
func Mul(dst, a, b *mat.CDense) { gemm(dst, blas.NoTrans, a, blas.NoTrans, b) }

// MulAH stores the product a^H * b in dst.
func MulAH(dst, a, b *mat.CDense) { gemm(dst, blas.ConjTrans, a, blas.NoTrans, b) }

// MulBH stores the product a * b^H in dst.
func MulBH(dst, a, b *mat.CDense) { gemm(dst, blas.NoTrans, a, blas.ConjTrans, b) }

func gemm(dst *mat.CDense, tA blas.Transpose, a *mat.CDense, tB blas.Transpose, b *mat.CDense) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if tA == blas.ConjTrans {
		ar, ac = ac, ar
	}
	if tB == blas.ConjTrans {
		br, bc = bc, br
	}
	if ac != br {
		panic(mat.ErrShape)
	}
	out := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(tA, tB, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	dst.SetRawCMatrix(out.RawCMatrix())
}
