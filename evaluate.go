package rbasis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"sort"

	"github.com/yanyuechuixue/rbasis/internal/csvd"
	"github.com/yanyuechuixue/rbasis/store"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Evaluate measures basis fidelity against held-out data with the specified
// options. This is a convenience function that creates a Builder and calls
// its Evaluate method.
func Evaluate(basis *Basis, testData *mat.CDense, levels []int, opts ...Option) (*Statistics, error) {
	b, err := NewBuilder(opts...)
	if err != nil {
		return nil, err
	}
	return b.Evaluate(basis, testData, levels)
}

// Statistics holds the result of evaluating a basis against held-out data:
// the singular spectrum of the basis plus, per requested truncation level,
// the raw per-sample mismatches and maximum deviations.
type Statistics struct {
	SingularValues []float64         `json:"singular_values,omitempty"`
	Levels         []LevelStatistics `json:"levels"`
}

// LevelStatistics records reconstruction fidelity at one truncation level.
type LevelStatistics struct {
	N             int       `json:"n"`
	Mismatches    []float64 `json:"mismatches"`
	MaxDeviations []float64 `json:"max_deviations"`
}

// Evaluate reconstructs every row of testData at each requested truncation
// level and records the mismatch (one minus the normalized inner product of
// original and reconstruction) and the maximum elementwise deviation.
//
// Levels exceeding the fitted component count are silently skipped, so a
// broad candidate list can be passed without pre-filtering. Levels smaller
// than one are skipped for the same reason.
func (b *Builder) Evaluate(basis *Basis, testData *mat.CDense, levels []int) (*Statistics, error) {
	if basis == nil {
		return nil, fmt.Errorf("%w: nil basis", ErrDimensionMismatch)
	}
	if testData == nil {
		return nil, fmt.Errorf("%w: nil test data", ErrDimensionMismatch)
	}
	rows, features := testData.Dims()
	if rows == 0 || features == 0 {
		return nil, fmt.Errorf("%w: empty test data", ErrDimensionMismatch)
	}
	if f := basis.Features(); features != f {
		return nil, fmt.Errorf("%w: test data has %d features, basis expects %d", ErrDimensionMismatch, features, f)
	}

	stats := &Statistics{SingularValues: basis.SingularValues()}
	for _, n := range levels {
		if n < 1 || n > basis.N() {
			continue
		}
		v := basis.v.Slice(0, features, 0, n).(*mat.CDense)
		vh := basis.vh.Slice(0, n, 0, features).(*mat.CDense)

		mismatches := make([]float64, rows)
		maxDeviations := make([]float64, rows)
		for r := 0; r < rows; r++ {
			row := make([]complex128, features)
			for c := 0; c < features; c++ {
				row[c] = testData.At(r, c)
			}
			h := mat.NewCDense(1, features, row)

			var coeff, rec mat.CDense
			csvd.Mul(&coeff, h, v)
			csvd.Mul(&rec, &coeff, vh)

			var inner, norm1, norm2, maxDev float64
			for c := 0; c < features; c++ {
				hc := row[c]
				rc := rec.At(0, c)
				inner += real(cmplx.Conj(hc) * rc)
				norm1 += real(hc)*real(hc) + imag(hc)*imag(hc)
				norm2 += real(rc)*real(rc) + imag(rc)*imag(rc)
				if d := cmplx.Abs(hc - rc); d > maxDev {
					maxDev = d
				}
			}
			nf := float64(features)
			match := (inner / nf) / math.Sqrt((norm1/nf)*(norm2/nf))
			mismatches[r] = 1 - match
			maxDeviations[r] = maxDev
		}

		ls := LevelStatistics{N: n, Mismatches: mismatches, MaxDeviations: maxDeviations}
		stats.Levels = append(stats.Levels, ls)
		b.logger.Info("basis evaluated",
			"level", n,
			"samples", rows,
			"mean_mismatch", ls.MeanMismatch(),
			"max_mismatch", ls.MaxMismatch(),
		)
	}
	return stats, nil
}

// MeanMismatch returns the mean of the mismatch distribution.
func (l *LevelStatistics) MeanMismatch() float64 {
	return stat.Mean(l.Mismatches, nil)
}

// StdDevMismatch returns the population standard deviation of the mismatch
// distribution.
func (l *LevelStatistics) StdDevMismatch() float64 {
	return stat.PopStdDev(l.Mismatches, nil)
}

// MaxMismatch returns the largest mismatch.
func (l *LevelStatistics) MaxMismatch() float64 {
	max := math.Inf(-1)
	for _, m := range l.Mismatches {
		if m > max {
			max = m
		}
	}
	return max
}

// MedianMismatch returns the median mismatch.
func (l *LevelStatistics) MedianMismatch() float64 {
	return l.MismatchQuantile(0.5)
}

// MismatchQuantile returns the empirical quantile p (in [0, 1]) of the
// mismatch distribution.
func (l *LevelStatistics) MismatchQuantile(p float64) float64 {
	sorted := make([]float64, len(l.Mismatches))
	copy(sorted, l.Mismatches)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// WriteReport writes a human-readable fidelity report for every evaluated
// level.
func (s *Statistics) WriteReport(w io.Writer) error {
	for i := range s.Levels {
		l := &s.Levels[i]
		_, err := fmt.Fprintf(w,
			"n = %d\n"+
				"  Mean mismatch = %v\n"+
				"  Standard deviation = %v\n"+
				"  Max mismatch = %v\n"+
				"  Median mismatch = %v\n"+
				"  Percentiles:\n"+
				"    99    -> %v\n"+
				"    99.9  -> %v\n"+
				"    99.99 -> %v\n",
			l.N,
			l.MeanMismatch(),
			l.StdDevMismatch(),
			l.MaxMismatch(),
			l.MedianMismatch(),
			l.MismatchQuantile(0.99),
			l.MismatchQuantile(0.999),
			l.MismatchQuantile(0.9999),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Save writes the statistics as JSON to the given store under name.
func (s *Statistics) Save(ctx context.Context, st store.Store, name string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return st.Put(ctx, name, data)
}

// LoadStatistics reads statistics previously written with Save.
func LoadStatistics(ctx context.Context, st store.Store, name string) (*Statistics, error) {
	data, err := st.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var s Statistics
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
