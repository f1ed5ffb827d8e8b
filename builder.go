package rbasis

import (
	"fmt"

	"github.com/yanyuechuixue/rbasis/internal/csvd"
	"gonum.org/v1/gonum/mat"
)

// Fit computes a reduced-order basis from training data with the specified
// options. This is a convenience function that creates a Builder and calls
// its Fit method.
func Fit(training *mat.CDense, n int, method FitMethod, opts ...Option) (*Basis, error) {
	b, err := NewBuilder(opts...)
	if err != nil {
		return nil, err
	}
	return b.Fit(training, n, method)
}

// Builder fits reduced-order bases from training matrices. The randomized
// sketch parameters and the logger can be optionally specified; for default
// values, refer to the init method.
type Builder struct {
	oversampling    int
	powerIterations int
	logger          *Logger
}

// NewBuilder initializes a Builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := new(Builder)
	if err := b.init(opts...); err != nil {
		return nil, err
	}
	return b, nil
}

// Fit computes the basis of the leading n components of training
// (samples x features). n == 0 retains all components. The returned Basis
// holds V, its conjugate transpose and the singular values; training is not
// retained.
//
// With the Randomized method the result is deterministic for a fixed seed
// and exactly n components are returned (clamped to min(samples, features)).
// With the Exact method the full decomposition is computed and truncated;
// n larger than the available component count keeps everything.
func (b *Builder) Fit(training *mat.CDense, n int, method FitMethod) (*Basis, error) {
	if training == nil {
		return nil, ErrNoTrainingData
	}
	samples, features := training.Dims()
	if samples == 0 || features == 0 {
		return nil, ErrNoTrainingData
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidComponents, n)
	}

	var (
		s   []float64
		vh  *mat.CDense
		err error
	)
	switch m := method.(type) {
	case Randomized:
		k := n
		if maxk := min(samples, features); k == 0 || k > maxk {
			k = maxk
		}
		s, vh, err = csvd.Randomized(training, k, csvd.Config{
			Seed:       m.Seed,
			Oversample: b.oversampling,
			PowerIters: b.powerIterations,
		})
	case Exact:
		s, vh, err = csvd.Exact(training)
		if err == nil {
			if k, _ := vh.Dims(); n > 0 && n < k {
				vh = cSliceRows(vh, n)
				s = s[:n]
			}
		}
	default:
		// Unreachable for variants built through ParseMethod; guards
		// against foreign FitMethod implementations.
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMethod, method)
	}
	if err != nil {
		return nil, fmt.Errorf("fit with method %q: %w", method, err)
	}

	basis, err := NewBasis(conjTranspose(vh), s)
	if err != nil {
		return nil, err
	}
	b.logger.Info("basis fitted",
		"method", method.String(),
		"components", basis.N(),
		"samples", samples,
		"features", features,
	)
	return basis, nil
}

func (b *Builder) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return err
		}
	}
	if b.oversampling == 0 {
		b.oversampling = 10
	}
	if b.powerIterations == 0 {
		b.powerIterations = 4
	}
	if b.logger == nil {
		b.logger = NoopLogger()
	}
	return nil
}

// conjTranspose materializes the conjugate transpose of a.
func conjTranspose(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(j, i, complex(real(a.At(i, j)), -imag(a.At(i, j))))
		}
	}
	return out
}

// cSliceRows copies the first n rows of a into a new matrix.
func cSliceRows(a *mat.CDense, n int) *mat.CDense {
	_, c := a.Dims()
	out := mat.NewCDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}
