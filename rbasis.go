// Package rbasis fits and applies reduced-order bases for collections of
// numerical signals. A truncated singular value decomposition of a training
// matrix yields an orthonormal basis; projecting signals onto it compresses
// them to a small coefficient vector, and the adjoint map reconstructs an
// approximation of the original signal.
//
// Matrices are complex valued throughout. Real training data is accepted and
// is widened to complex, so callers must not assume results are real.
package rbasis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/yanyuechuixue/rbasis/internal/csvd"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnsupportedMethod is returned by ParseMethod for algorithm names
	// other than "random" and "exact".
	ErrUnsupportedMethod = errors.New("unsupported SVD method")
	// ErrNoTrainingData is returned when a fit is requested on a nil or
	// empty matrix.
	ErrNoTrainingData = errors.New("no training data")
	// ErrInvalidComponents is returned when a negative component count is
	// requested.
	ErrInvalidComponents = errors.New("invalid number of components")
	// ErrDimensionMismatch is returned when data does not conform to the
	// basis dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Basis is a fitted reduced-order basis. It is immutable after construction:
// the conjugate transpose and the component count are derived from V exactly
// once, so they can never drift from it.
type Basis struct {
	v  *mat.CDense // features x n, orthonormal columns
	vh *mat.CDense // n x features, conjugate transpose of v
	s  []float64   // singular values, descending
	n  int
}

// NewBasis constructs a Basis from the matrix of basis vectors v
// (features x n, orthonormal columns) and the matching singular values.
// s may be nil when the spectrum is unknown, e.g. for a basis restored from
// storage that carried only V.
func NewBasis(v *mat.CDense, s []float64) (*Basis, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil basis matrix", ErrDimensionMismatch)
	}
	features, n := v.Dims()
	if features == 0 || n == 0 {
		return nil, fmt.Errorf("%w: empty basis matrix", ErrDimensionMismatch)
	}
	vh := mat.NewCDense(n, features, nil)
	for i := 0; i < features; i++ {
		for j := 0; j < n; j++ {
			vh.Set(j, i, cmplx.Conj(v.At(i, j)))
		}
	}
	var sc []float64
	if s != nil {
		sc = make([]float64, len(s))
		copy(sc, s)
	}
	return &Basis{v: v, vh: vh, s: sc, n: n}, nil
}

// N returns the number of retained basis components.
func (b *Basis) N() int { return b.n }

// Features returns the dimensionality of the signals the basis was fitted on.
func (b *Basis) Features() int {
	f, _ := b.v.Dims()
	return f
}

// SingularValues returns a copy of the retained singular values, or nil if
// the basis was restored without its spectrum.
func (b *Basis) SingularValues() []float64 {
	if b.s == nil {
		return nil
	}
	s := make([]float64, len(b.s))
	copy(s, b.s)
	return s
}

// V returns the features x n basis matrix. The caller must not modify it.
func (b *Basis) V() *mat.CDense { return b.v }

// Vh returns the n x features conjugate transpose of V. The caller must not
// modify it.
func (b *Basis) Vh() *mat.CDense { return b.vh }

// Compress projects data (rows x features) onto the basis, returning the
// coefficient matrix (rows x n).
func (b *Basis) Compress(data *mat.CDense) (*mat.CDense, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil data", ErrDimensionMismatch)
	}
	_, c := data.Dims()
	if f := b.Features(); c != f {
		return nil, fmt.Errorf("%w: data has %d features, basis expects %d", ErrDimensionMismatch, c, f)
	}
	var out mat.CDense
	csvd.Mul(&out, data, b.v)
	return &out, nil
}

// Decompress reconstructs signals (rows x features) from basis coefficients
// (rows x n).
func (b *Basis) Decompress(coefficients *mat.CDense) (*mat.CDense, error) {
	if coefficients == nil {
		return nil, fmt.Errorf("%w: nil coefficients", ErrDimensionMismatch)
	}
	_, c := coefficients.Dims()
	if c != b.n {
		return nil, fmt.Errorf("%w: coefficients have %d components, basis holds %d", ErrDimensionMismatch, c, b.n)
	}
	var out mat.CDense
	csvd.Mul(&out, coefficients, b.vh)
	return &out, nil
}
