// Package mat implements sparse complex matrices in coordinate (COO) format.
//
// Matrices are accumulated as triplet lists and compressed once, which fits
// the build-then-transform pattern of Hamiltonian assembly: append entries in
// any order, then Compress before algebra.
package mat

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"strings"
)

// Triplet is a single sparse entry.
type Triplet struct {
	V   complex128
	Row int
	Col int
}

// COO is a sparse matrix stored as a row-major sorted triplet list.
// After Compress, Data contains no duplicates and no zeros.
type COO struct {
	rows int
	cols int
	Data []Triplet

	m map[[2]int]complex128
}

func M(dense [][]complex128) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]Triplet, 0), m: make(map[[2]int]complex128)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, Triplet{V: v, Row: i, Col: j})
		}
	}
	return m
}

func Zeros(rows, cols int) *COO {
	m := M([][]complex128{{0}})
	m.Reset(rows, cols)
	return m
}

func Identity(n int) *COO {
	m := Zeros(n, n)
	for i := 0; i < n; i++ {
		m.Data = append(m.Data, Triplet{V: 1, Row: i, Col: i})
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

// Reset empties the matrix and sets its shape.
func (m *COO) Reset(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.Data = m.Data[:0]
}

// Append adds a triplet without compressing.
func (m *COO) Append(row, col int, v complex128) {
	m.Data = append(m.Data, Triplet{V: v, Row: row, Col: col})
}

// Compress sorts the triplets row-major, sums duplicates and drops zeros.
func (m *COO) Compress() {
	slices.SortFunc(m.Data, rowMajor)
	compressed := m.Data[:0]
	for _, t := range m.Data {
		last := len(compressed) - 1
		if last >= 0 && compressed[last].Row == t.Row && compressed[last].Col == t.Col {
			compressed[last].V += t.V
			continue
		}
		compressed = append(compressed, t)
	}
	m.Data = slices.DeleteFunc(compressed, func(t Triplet) bool {
		return t.V == 0
	})
}

// At returns the entry at (i, j). The matrix must be compressed.
func (m *COO) At(i, j int) complex128 {
	k, ok := slices.BinarySearchFunc(m.Data, Triplet{Row: i, Col: j}, rowMajor)
	if !ok {
		return 0
	}
	return m.Data[k].V
}

func (m *COO) NumNonZero() int { return len(m.Data) }

func (m *COO) Clone() *COO {
	c := &COO{rows: m.rows, cols: m.cols, Data: slices.Clone(m.Data), m: make(map[[2]int]complex128)}
	return c
}

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		bv := b.Data[i]
		if av != bv {
			return false
		}
	}
	return true
}

// Add computes a += c*b for matrices of the same shape.
// Both operands must be compressed; the result stays compressed.
func (a *COO) Add(c complex128, b *COO) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	for _, bv := range b.Data {
		a.Data = append(a.Data, Triplet{V: c * bv.V, Row: bv.Row, Col: bv.Col})
	}
	a.Compress()
}

func (a *COO) Scale(c complex128) {
	for i := range a.Data {
		a.Data[i].V *= c
	}
	if c == 0 {
		a.Data = a.Data[:0]
	}
}

// Mul returns the matrix product a*b.
func (a *COO) Mul(b *COO) *COO {
	if a.cols != b.rows {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}

	byRow := make(map[int][]Triplet)
	for _, bv := range b.Data {
		byRow[bv.Row] = append(byRow[bv.Row], bv)
	}

	p := Zeros(a.rows, b.cols)
	for _, av := range a.Data {
		for _, bv := range byRow[av.Col] {
			p.Data = append(p.Data, Triplet{V: av.V * bv.V, Row: av.Row, Col: bv.Col})
		}
	}
	p.Compress()
	return p
}

// Adjoint returns the conjugate transpose.
func (a *COO) Adjoint() *COO {
	h := Zeros(a.cols, a.rows)
	for _, v := range a.Data {
		h.Data = append(h.Data, Triplet{V: cmplx.Conj(v.V), Row: v.Col, Col: v.Row})
	}
	slices.SortFunc(h.Data, rowMajor)
	return h
}

// SelfAdjointLower completes a lower-triangular matrix to its Hermitian form,
// mirroring sub-diagonal entries as conjugates above the diagonal.
func (a *COO) SelfAdjointLower() *COO {
	h := Zeros(a.rows, a.cols)
	for _, v := range a.Data {
		if v.Row < v.Col {
			continue
		}
		h.Data = append(h.Data, v)
		if v.Row > v.Col {
			h.Data = append(h.Data, Triplet{V: cmplx.Conj(v.V), Row: v.Col, Col: v.Row})
		}
	}
	h.Compress()
	return h
}

// Transform changes op into the basis spanned by the columns of basis,
// i.e. basis† op basis.
func Transform(basis, op *COO) *COO {
	return basis.Adjoint().Mul(op).Mul(basis)
}

// Kron replaces a with the Kronecker product of a and b.
func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	a.rows, a.cols = rows, cols

	prevElemNum := len(a.Data)
	for i := prevElemNum - 1; i >= 0; i-- {
		av := a.Data[i]
		a.Data[i].V = 0
		for _, bv := range b.Data {
			ky := av.Row*b.rows + bv.Row
			kx := av.Col*b.cols + bv.Col
			a.Data = append(a.Data, Triplet{V: av.V * bv.V, Row: ky, Col: kx})
		}
	}

	a.Data = slices.DeleteFunc(a.Data, func(t Triplet) bool {
		return t.V == 0
	})
	slices.SortFunc(a.Data, rowMajor)
}

func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := &COO{rows: yBound[1] - yBound[0], cols: xBound[1] - xBound[0], Data: make([]Triplet, 0), m: make(map[[2]int]complex128)}
	for _, v := range m.Data {
		if v.Row < yBound[0] {
			continue
		}
		if v.Row >= yBound[1] {
			break
		}
		if v.Col < xBound[0] || v.Col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, Triplet{V: v.V, Row: v.Row - yBound[0], Col: v.Col - xBound[0]})
	}
	return s
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func (m *COO) IsHermitian(tol float64) bool {
	if m.rows != m.cols {
		return false
	}
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.Row, v.Col}] = v.V
	}
	defer clear(m.m)
	for _, v := range m.Data {
		w := m.m[[2]int{v.Col, v.Row}]
		if cmplx.Abs(v.V-cmplx.Conj(w)) > tol {
			return false
		}
	}
	return true
}

// Norm returns the largest entry magnitude.
func (m *COO) Norm() float64 {
	var n float64
	for _, v := range m.Data {
		n = math.Max(n, cmplx.Abs(v.V))
	}
	return n
}

func (m *COO) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
	}

	for _, v := range m.Data {
		dense[v.Row][v.Col] = v.V
	}

	return dense
}

func (m *COO) String() string {
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.Row, v.Col}] = v.V
	}

	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.m[[2]int{i, j}]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}

	clear(m.m)
	return strings.Join(lines, "\n")
}

func rowMajor(a, b Triplet) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
