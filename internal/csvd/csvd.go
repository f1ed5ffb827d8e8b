// Package csvd computes singular value decompositions of complex matrices.
//
// gonum's mat.SVD only factorizes real matrices, so the complex paths here
// reduce the problem to a Hermitian eigendecomposition of the Gram matrix,
// solved by a cyclic Jacobi iteration. Purely real input is detected and
// routed through gonum's SVD directly.
package csvd

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var ErrEmptyMatrix = errors.New("empty matrix")

// Config holds tuning parameters for the randomized algorithm.
type Config struct {
	// Seed drives the Gaussian sketch. Identical inputs and seeds yield
	// identical results.
	Seed uint64
	// Oversample is the number of extra sketch columns beyond the requested
	// rank.
	Oversample int
	// PowerIters is the number of power iterations applied to the sketch.
	PowerIters int
}

// small singular values below this fraction of the largest are treated as
// numerically zero when forming right singular vectors.
const rankTol = 1e-12

// Exact computes the thin SVD of a, returning the singular values in
// descending order and the k x n matrix of conjugated right singular vectors
// (the rows of Vh), where k = min(m, n).
func Exact(a *mat.CDense) ([]float64, *mat.CDense, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, nil, ErrEmptyMatrix
	}
	if isReal(a) {
		return exactReal(a)
	}
	if m >= n {
		// Eigendecomposition of the n x n Gram matrix A^H A. Its
		// eigenvectors are the right singular vectors of A.
		var g mat.CDense
		MulAH(&g, a, a)
		w, vecs, err := eigh(&g)
		if err != nil {
			return nil, nil, err
		}
		s := make([]float64, n)
		for i, lambda := range w {
			s[i] = math.Sqrt(math.Max(lambda, 0))
		}
		vh := mat.NewCDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				vh.Set(i, j, cmplx.Conj(vecs.At(j, i)))
			}
		}
		return s, vh, nil
	}
	// Wide matrix: factor the m x m Gram matrix A A^H instead, giving the
	// left singular vectors, and recover Vh = S^-1 U^H A.
	var g mat.CDense
	MulBH(&g, a, a)
	w, u, err := eigh(&g)
	if err != nil {
		return nil, nil, err
	}
	s := make([]float64, m)
	for i, lambda := range w {
		s[i] = math.Sqrt(math.Max(lambda, 0))
	}
	var uha mat.CDense
	MulAH(&uha, u, a)
	vh := rowsScaledByInvS(&uha, s, m)
	return s, vh, nil
}

// Randomized computes an approximate rank-k SVD of a using a seeded Gaussian
// sketch with power iterations (Halko/Martinsson/Tropp). It returns exactly k
// singular values and the k x n matrix of conjugated right singular vectors.
// k must satisfy 0 < k <= min(m, n).
func Randomized(a *mat.CDense, k int, cfg Config) ([]float64, *mat.CDense, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, nil, ErrEmptyMatrix
	}
	if k <= 0 || k > min(m, n) {
		return nil, nil, fmt.Errorf("rank %d out of range for %dx%d matrix", k, m, n)
	}
	l := k + cfg.Oversample
	if l > m {
		l = m
	}
	if l > n {
		l = n
	}

	rng := rand.New(rand.NewSource(int64(cfg.Seed)))
	omega := gaussian(rng, n, l)

	var y mat.CDense
	Mul(&y, a, omega) // m x l sketch of the range of a

	var z mat.CDense
	for range cfg.PowerIters {
		orthonormalize(&y)
		MulAH(&z, a, &y)
		orthonormalize(&z)
		Mul(&y, a, &z)
	}
	orthonormalize(&y)

	var b mat.CDense
	MulAH(&b, &y, a) // l x n, small projected problem

	var g mat.CDense
	MulBH(&g, &b, &b)
	w, u, err := eigh(&g)
	if err != nil {
		return nil, nil, err
	}
	s := make([]float64, l)
	for i, lambda := range w {
		s[i] = math.Sqrt(math.Max(lambda, 0))
	}

	var uhb mat.CDense
	MulAH(&uhb, u, &b)
	vh := rowsScaledByInvS(&uhb, s, k)
	return s[:k], vh, nil
}

// exactReal runs gonum's real SVD and widens the result to complex.
func exactReal(a *mat.CDense) ([]float64, *mat.CDense, error) {
	m, n := a.Dims()
	d := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, real(a.At(i, j)))
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(d, mat.SVDThin); !ok {
		return nil, nil, errors.New("svd factorization failed")
	}
	s := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)
	k := min(m, n)
	vh := mat.NewCDense(k, n, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < n; j++ {
			vh.Set(i, j, complex(v.At(j, i), 0))
		}
	}
	return s, vh, nil
}

// rowsScaledByInvS forms the first k rows of Vh from the rows of w (each row
// i being u_i^H A) by dividing out the singular value. Rows whose singular
// value is numerically zero are completed to an orthonormal set instead.
func rowsScaledByInvS(w *mat.CDense, s []float64, k int) *mat.CDense {
	_, n := w.Dims()
	vh := mat.NewCDense(k, n, nil)
	cutoff := rankTol
	if len(s) > 0 {
		cutoff = rankTol * math.Max(s[0], 1)
	}
	var deficient []int
	for i := 0; i < k; i++ {
		if s[i] <= cutoff {
			deficient = append(deficient, i)
			continue
		}
		inv := complex(1/s[i], 0)
		for j := 0; j < n; j++ {
			vh.Set(i, j, w.At(i, j)*inv)
		}
	}
	if len(deficient) > 0 {
		completeRows(vh, deficient)
	}
	return vh
}

// completeRows fills the listed rows of vh with vectors orthonormal to every
// other row, drawn deterministically from the canonical basis.
func completeRows(vh *mat.CDense, rows []int) {
	k, n := vh.Dims()
	next := 0
	for _, ri := range rows {
		for ; next < n; next++ {
			cand := make([]complex128, n)
			cand[next] = 1
			// Project out every already-populated row.
			for i := 0; i < k; i++ {
				if i == ri {
					continue
				}
				var dot complex128
				for j := 0; j < n; j++ {
					dot += cmplx.Conj(vh.At(i, j)) * cand[j]
				}
				for j := 0; j < n; j++ {
					cand[j] -= dot * vh.At(i, j)
				}
			}
			var norm float64
			for j := 0; j < n; j++ {
				norm += real(cand[j])*real(cand[j]) + imag(cand[j])*imag(cand[j])
			}
			norm = math.Sqrt(norm)
			if norm < 0.5 {
				continue // candidate nearly in the span, try the next one
			}
			inv := complex(1/norm, 0)
			for j := 0; j < n; j++ {
				vh.Set(ri, j, cand[j]*inv)
			}
			next++
			break
		}
	}
}

// gaussian returns an r x c matrix of standard complex Gaussian entries.
func gaussian(rng *rand.Rand, r, c int) *mat.CDense {
	data := make([]complex128, r*c)
	const invSqrt2 = 1 / math.Sqrt2
	for i := range data {
		data[i] = complex(rng.NormFloat64()*invSqrt2, rng.NormFloat64()*invSqrt2)
	}
	return mat.NewCDense(r, c, data)
}

func isReal(a *mat.CDense) bool {
	m, n := a.Dims()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if imag(a.At(i, j)) != 0 {
				return false
			}
		}
	}
	return true
}
