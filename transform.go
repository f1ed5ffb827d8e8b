package rbasis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transform binds a fitted basis to a transform direction and applies the
// resulting linear map uniformly over a keyed collection of signals. It is
// stateless beyond that binding.
type Transform struct {
	basis   *Basis
	inverse bool
}

// NewTransform creates a transform operator. With inverse false the operator
// compresses (signal to coefficients); with inverse true it decompresses
// (coefficients to signal).
func NewTransform(basis *Basis, inverse bool) *Transform {
	return &Transform{basis: basis, inverse: inverse}
}

// Apply transforms every entry of signals independently and returns a new
// mapping with identical keys. Either all entries transform or the call
// fails: the first shape mismatch aborts with no partial result.
func (t *Transform) Apply(signals map[string]*mat.CDense) (map[string]*mat.CDense, error) {
	out := make(map[string]*mat.CDense, len(signals))
	for name, data := range signals {
		var (
			res *mat.CDense
			err error
		)
		if t.inverse {
			res, err = t.basis.Decompress(data)
		} else {
			res, err = t.basis.Compress(data)
		}
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", name, err)
		}
		out[name] = res
	}
	return out, nil
}
