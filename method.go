package rbasis

import "fmt"

// FitMethod selects the SVD algorithm used by Fit. It is a closed set:
// Randomized and Exact are the only implementations.
type FitMethod interface {
	fmt.Stringer
	isFitMethod()
}

// Randomized selects the seeded randomized SVD. It is sub-cubic and suited
// to large training matrices where only a few leading components are needed.
// The zero value (seed 0) reproduces the library default; any fixed seed
// gives bit-identical bases for identical inputs.
type Randomized struct {
	Seed uint64
}

func (Randomized) String() string { return "random" }
func (Randomized) isFitMethod()   {}

// Exact selects the full SVD followed by truncation. Cubic in the matrix
// dimensions; intended as the reference path, not for large-scale fitting.
type Exact struct{}

func (Exact) String() string { return "exact" }
func (Exact) isFitMethod()   {}

// ParseMethod converts an external algorithm name into a FitMethod.
// It is the only place ErrUnsupportedMethod can arise: once parsed, the
// variant is handled exhaustively.
func ParseMethod(name string) (FitMethod, error) {
	switch name {
	case "random":
		return Randomized{}, nil
	case "exact":
		return Exact{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
	}
}
