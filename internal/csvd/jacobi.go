package csvd

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

const (
	jacobiMaxSweeps = 100
	jacobiTol       = 1e-13
)

var errJacobiConvergence = errors.New("jacobi iteration did not converge")

// eigh computes the eigendecomposition of the Hermitian matrix h by cyclic
// Jacobi rotations. It returns the eigenvalues in descending order and the
// matching eigenvectors as the columns of the returned matrix. h is not
// modified.
func eigh(h *mat.CDense) ([]float64, *mat.CDense, error) {
	n, c := h.Dims()
	if n != c {
		return nil, nil, errors.New("eigh: matrix is not square")
	}

	a := make([][]complex128, n)
	v := make([][]complex128, n)
	for i := 0; i < n; i++ {
		a[i] = make([]complex128, n)
		v[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			a[i][j] = h.At(i, j)
		}
		v[i][i] = 1
	}

	frob := frobNorm(a)
	converged := n < 2 || frob == 0
	for sweep := 0; !converged && sweep < jacobiMaxSweeps; sweep++ {
		if offNorm(a) <= jacobiTol*frob {
			converged = true
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				rotate(a, v, p, q, n)
			}
		}
	}
	if !converged && offNorm(a) > jacobiTol*frob {
		return nil, nil, errJacobiConvergence
	}

	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = real(a[i][i])
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Descending by eigenvalue; stable insertion keeps ties deterministic.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && w[order[j]] > w[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	sorted := make([]float64, n)
	vecs := mat.NewCDense(n, n, nil)
	for dst, src := range order {
		sorted[dst] = w[src]
		for i := 0; i < n; i++ {
			vecs.Set(i, dst, v[i][src])
		}
	}
	return sorted, vecs, nil
}

// rotate zeroes the (p, q) entry of a with a unitary similarity transform and
// accumulates the rotation into the eigenvector columns of v.
func rotate(a, v [][]complex128, p, q, n int) {
	apq := a[p][q]
	r := cmplx.Abs(apq)
	if r == 0 {
		return
	}
	phase := apq / complex(r, 0)
	alpha := real(a[p][p])
	gamma := real(a[q][q])
	tau := (alpha - gamma) / (2 * r)
	var t float64
	if tau >= 0 {
		t = 1 / (tau + math.Hypot(1, tau))
	} else {
		t = -1 / (-tau + math.Hypot(1, tau))
	}
	cth := 1 / math.Sqrt(1+t*t)
	sigma := complex(t*cth, 0) * phase

	// a <- G^H a G with G = [[c, -sigma], [conj(sigma), c]] acting on the
	// (p, q) plane; columns first, then rows.
	for i := 0; i < n; i++ {
		aip, aiq := a[i][p], a[i][q]
		a[i][p] = complex(cth, 0)*aip + cmplx.Conj(sigma)*aiq
		a[i][q] = -sigma*aip + complex(cth, 0)*aiq
	}
	for j := 0; j < n; j++ {
		apj, aqj := a[p][j], a[q][j]
		a[p][j] = complex(cth, 0)*apj + sigma*aqj
		a[q][j] = -cmplx.Conj(sigma)*apj + complex(cth, 0)*aqj
	}
	a[p][q] = 0
	a[q][p] = 0
	a[p][p] = complex(real(a[p][p]), 0)
	a[q][q] = complex(real(a[q][q]), 0)

	for i := 0; i < n; i++ {
		vip, viq := v[i][p], v[i][q]
		v[i][p] = complex(cth, 0)*vip + cmplx.Conj(sigma)*viq
		v[i][q] = -sigma*vip + complex(cth, 0)*viq
	}
}

func frobNorm(a [][]complex128) float64 {
	var sum float64
	for i := range a {
		for j := range a[i] {
			re, im := real(a[i][j]), imag(a[i][j])
			sum += re*re + im*im
		}
	}
	return math.Sqrt(sum)
}

func offNorm(a [][]complex128) float64 {
	var sum float64
	for i := range a {
		for j := range a[i] {
			if i == j {
				continue
			}
			re, im := real(a[i][j]), imag(a[i][j])
			sum += re*re + im*im
		}
	}
	return math.Sqrt(sum)
}
