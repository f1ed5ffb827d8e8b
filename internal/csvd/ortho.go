package csvd

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// orthonormalize applies modified Gram-Schmidt to the columns of a, in place.
// A second projection pass keeps the result orthonormal to working precision.
// Columns that fall inside the span of their predecessors are zeroed.
func orthonormalize(a *mat.CDense) {
	m, n := a.Dims()
	for j := 0; j < n; j++ {
		for pass := 0; pass < 2; pass++ {
			for i := 0; i < j; i++ {
				var dot complex128
				for r := 0; r < m; r++ {
					dot += cmplx.Conj(a.At(r, i)) * a.At(r, j)
				}
				if dot == 0 {
					continue
				}
				for r := 0; r < m; r++ {
					a.Set(r, j, a.At(r, j)-dot*a.At(r, i))
				}
			}
		}
		var norm float64
		for r := 0; r < m; r++ {
			re, im := real(a.At(r, j)), imag(a.At(r, j))
			norm += re*re + im*im
		}
		norm = math.Sqrt(norm)
		if norm <= 1e-300 {
			for r := 0; r < m; r++ {
				a.Set(r, j, 0)
			}
			continue
		}
		inv := complex(1/norm, 0)
		for r := 0; r < m; r++ {
			a.Set(r, j, a.At(r, j)*inv)
		}
	}
}
