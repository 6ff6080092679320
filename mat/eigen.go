package mat

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"
)

// Eig is one eigenpair of a Hermitian matrix.
type Eig struct {
	Val float64
	Vec []complex128
}

// Eigh diagonalizes a Hermitian matrix and returns its eigenpairs sorted by
// ascending eigenvalue. Eigenvector entries with magnitude below tol are
// truncated so that the resulting basis transform stays sparse.
//
// Real symmetric matrices are factorized directly. A genuinely complex
// Hermitian matrix A is factorized through its real symmetric embedding
// [[Re(A), -Im(A)], [Im(A), Re(A)]], whose eigenpairs come in duplicates
// (u, v) and (-v, u) per eigenvalue, yielding the complex vector u+iv.
func Eigh(m *COO, tol float64) ([]Eig, error) {
	if m.rows != m.cols {
		return nil, errors.Errorf("not square %d %d", m.rows, m.cols)
	}
	if !m.IsHermitian(1e-12) {
		return nil, errors.Errorf("not hermitian")
	}

	isReal := true
	for _, v := range m.Data {
		if imag(v.V) != 0 {
			isReal = false
			break
		}
	}

	var eigs []Eig
	var err error
	if isReal {
		eigs, err = eighReal(m)
	} else {
		eigs, err = eighComplex(m)
	}
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	truncate(eigs, tol)
	return eigs, nil
}

// EigenTransform returns the eigenvalues and the eigenvector matrix whose
// columns are the eigenvectors, for use as a basis transform.
func EigenTransform(m *COO, tol float64) ([]float64, *COO, error) {
	eigs, err := Eigh(m, tol)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}

	vals := make([]float64, 0, len(eigs))
	vecs := Zeros(m.rows, len(eigs))
	for j, e := range eigs {
		vals = append(vals, e.Val)
		for i, v := range e.Vec {
			if v == 0 {
				continue
			}
			vecs.Data = append(vecs.Data, Triplet{V: v, Row: i, Col: j})
		}
	}
	vecs.Compress()
	return vals, vecs, nil
}

func eighReal(m *COO) ([]Eig, error) {
	n := m.rows
	sym := gmat.NewSymDense(n, nil)
	for _, v := range m.Data {
		if v.Row <= v.Col {
			sym.SetSym(v.Row, v.Col, real(v.V))
		}
	}

	var eig gmat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, errors.Errorf("factorization failed")
	}
	vals := eig.Values(nil)
	var vecs gmat.Dense
	eig.VectorsTo(&vecs)

	eigs := make([]Eig, 0, n)
	for j, val := range vals {
		vec := make([]complex128, n)
		for i := 0; i < n; i++ {
			vec[i] = complex(vecs.At(i, j), 0)
		}
		eigs = append(eigs, Eig{Val: val, Vec: vec})
	}
	sortEigs(eigs)
	return eigs, nil
}

func eighComplex(m *COO) ([]Eig, error) {
	n := m.rows
	sym := gmat.NewSymDense(2*n, nil)
	set := func(i, j int, v float64) {
		if i <= j {
			sym.SetSym(i, j, v)
		}
	}
	for _, t := range m.Data {
		i, j := t.Row, t.Col
		set(i, j, real(t.V))
		set(i+n, j+n, real(t.V))
		set(i+n, j, imag(t.V))
		set(i, j+n, -imag(t.V))
	}

	var eig gmat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, errors.Errorf("factorization failed")
	}
	vals := eig.Values(nil)
	var vecs gmat.Dense
	eig.VectorsTo(&vecs)

	type cand struct {
		val float64
		vec []complex128
	}
	cands := make([]cand, 0, 2*n)
	for j, val := range vals {
		vec := make([]complex128, n)
		for i := 0; i < n; i++ {
			vec[i] = complex(vecs.At(i, j), vecs.At(i+n, j))
		}
		cands = append(cands, cand{val: val, vec: vec})
	}

	// Each eigenvalue is duplicated in the embedding. Keep candidates that
	// stay independent after projecting out already accepted vectors of the
	// same eigenvalue.
	const degenTol = 1e-9
	eigs := make([]Eig, 0, n)
	for _, c := range cands {
		if len(eigs) == n {
			break
		}
		vec := c.vec
		for k := len(eigs) - 1; k >= 0; k-- {
			if math.Abs(eigs[k].Val-c.val) > degenTol {
				break
			}
			var overlap complex128
			for i := range vec {
				overlap += cmplx.Conj(eigs[k].Vec[i]) * vec[i]
			}
			for i := range vec {
				vec[i] -= overlap * eigs[k].Vec[i]
			}
		}

		var norm float64
		for _, v := range vec {
			norm += real(v)*real(v) + imag(v)*imag(v)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-8 {
			continue
		}
		for i := range vec {
			vec[i] /= complex(norm, 0)
		}
		eigs = append(eigs, Eig{Val: c.val, Vec: vec})
	}
	if len(eigs) != n {
		return nil, errors.Errorf("%d %d", len(eigs), n)
	}
	sortEigs(eigs)
	return eigs, nil
}

func sortEigs(eigs []Eig) {
	for i := 1; i < len(eigs); i++ {
		for j := i; j > 0 && eigs[j].Val < eigs[j-1].Val; j-- {
			eigs[j], eigs[j-1] = eigs[j-1], eigs[j]
		}
	}
}

func truncate(eigs []Eig, tol float64) {
	if tol <= 0 {
		return
	}
	for _, e := range eigs {
		for i, v := range e.Vec {
			if cmplx.Abs(v) < tol {
				e.Vec[i] = 0
			}
		}
	}
}
