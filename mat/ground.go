package mat

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/pkg/errors"
)

// Gerschgorin returns a lower bound for the eigenvalues of a Hermitian
// matrix.
//
// Theorem A3, Bounds for the eigenvalues of a matrix, Kenneth R. Garren.
func Gerschgorin(m *COO) float64 {
	bound := math.MaxFloat64
	curRow := -1
	var curCenter float64
	var curRadius float64
	flush := func() {
		if curRow >= 0 {
			bound = math.Min(bound, curCenter-curRadius)
		}
	}
	for _, v := range m.Data {
		if v.Row != curRow {
			flush()
			curRow = v.Row
			curCenter = 0
			curRadius = 0
		}

		if v.Row == v.Col {
			curCenter = real(v.V)
		} else {
			curRadius += cmplx.Abs(v.V)
		}
	}
	flush()
	return bound
}

func gerschgorinUpper(m *COO) float64 {
	bound := -math.MaxFloat64
	curRow := -1
	var curCenter float64
	var curRadius float64
	flush := func() {
		if curRow >= 0 {
			bound = math.Max(bound, curCenter+curRadius)
		}
	}
	for _, v := range m.Data {
		if v.Row != curRow {
			flush()
			curRow = v.Row
			curCenter = 0
			curRadius = 0
		}

		if v.Row == v.Col {
			curCenter = real(v.V)
		} else {
			curRadius += cmplx.Abs(v.V)
		}
	}
	flush()
	return bound
}

// Ground estimates the smallest eigenpair of a Hermitian matrix by power
// iteration on the shifted matrix sigma*I - m, where sigma is the upper
// Gerschgorin bound. Intended for matrices too large for a dense solve.
func Ground(m *COO, iters int) (float64, []complex128, error) {
	if m.rows != m.cols {
		return 0, nil, errors.Errorf("not square %d %d", m.rows, m.cols)
	}
	if len(m.Data) == 0 {
		return 0, make([]complex128, m.rows), nil
	}
	sigma := gerschgorinUpper(m)

	byRow := make(map[int][]Triplet)
	for _, v := range m.Data {
		byRow[v.Row] = append(byRow[v.Row], v)
	}

	vec := make([]complex128, m.rows)
	for i := range vec {
		vec[i] = complex(rand.Float64(), rand.Float64())
	}
	normalizeVec(vec)

	next := make([]complex128, m.rows)
	var lambda float64
	for it := 0; it < iters; it++ {
		// next = (sigma*I - m) vec
		for i := range next {
			next[i] = complex(sigma, 0) * vec[i]
			for _, t := range byRow[i] {
				next[i] -= t.V * vec[t.Col]
			}
		}

		// Rayleigh quotient of m itself.
		var rq complex128
		for i := range vec {
			rq += cmplx.Conj(vec[i]) * (complex(sigma, 0)*vec[i] - next[i])
		}
		lambda = real(rq)

		normalizeVec(next)
		vec, next = next, vec
	}

	// Make the first significant entry real.
	var c complex128 = complex(1, 0)
	for _, v := range vec {
		if cmplx.Abs(v) > 1e-6 {
			c = v
			break
		}
	}
	for i := range vec {
		vec[i] /= c
	}
	normalizeVec(vec)

	return lambda, vec, nil
}

func normalizeVec(vec []complex128) {
	var norm float64
	for _, v := range vec {
		norm += real(v)*real(v) + imag(v)*imag(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= complex(norm, 0)
	}
}
