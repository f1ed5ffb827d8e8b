package rbasis_test

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	rbasis "github.com/yanyuechuixue/rbasis"
)

func Example() {
	// Build a rank-4 training matrix of 50 signals with 32 features each.
	rng := rand.New(rand.NewSource(1))
	left := mat.NewCDense(50, 4, nil)
	right := mat.NewCDense(4, 32, nil)
	for i := 0; i < 50; i++ {
		for j := 0; j < 4; j++ {
			left.Set(i, j, complex(rng.NormFloat64(), 0))
		}
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 32; j++ {
			right.Set(i, j, complex(rng.NormFloat64(), 0))
		}
	}
	training := mat.NewCDense(50, 32, nil)
	for i := 0; i < 50; i++ {
		for j := 0; j < 32; j++ {
			var sum complex128
			for k := 0; k < 4; k++ {
				sum += left.At(i, k) * right.At(k, j)
			}
			training.Set(i, j, sum)
		}
	}

	// Fit a 4-component basis with the randomized method.
	method, err := rbasis.ParseMethod("random")
	if err != nil {
		fmt.Println(err)
		return
	}
	basis, err := rbasis.Fit(training, 4, method)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Compress the training set and reconstruct it from the coefficients.
	coefficients, err := basis.Compress(training)
	if err != nil {
		fmt.Println(err)
		return
	}
	restored, err := basis.Decompress(coefficients)
	if err != nil {
		fmt.Println(err)
		return
	}

	var maxDev float64
	for i := 0; i < 50; i++ {
		for j := 0; j < 32; j++ {
			re := real(training.At(i, j) - restored.At(i, j))
			im := imag(training.At(i, j) - restored.At(i, j))
			if d := math.Hypot(re, im); d > maxDev {
				maxDev = d
			}
		}
	}

	_, components := coefficients.Dims()
	fmt.Println("components:", components)
	fmt.Println("reconstruction exact:", maxDev < 1e-9)

	// Output:
	// components: 4
	// reconstruction exact: true
}
