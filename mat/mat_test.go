package mat

import (
	"fmt"
	"testing"
)

func TestSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m *COO
		y [2]int
		x [2]int
		s *COO
	}{
		{
			m: M([][]complex128{
				{0, 1, 2, 3, 4},
				{5, 6, 7, 8, 9},
				{10, 11, 12, 13, 14},
				{15, 16, 17, 18, 19},
				{20, 21, 22, 23, 24},
				{25, 26, 27, 28, 29},
			}),
			y: [2]int{-5, -2},
			x: [2]int{1, 3},
			s: M([][]complex128{
				{6, 7},
				{11, 12},
				{16, 17},
			}),
		},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%s", test.m), func(t *testing.T) {
			t.Parallel()
			s := test.m.Slice(test.y, test.x)
			if !s.Equal(test.s) {
				t.Fatalf("%s, expected %s", s, test.s)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a          *COO
		c          complex128
		b          *COO
		z          *COO
		numNonZero int
	}{
		{
			a: M([][]complex128{
				{1, 0},
				{0, 2i},
			}),
			c: 1i,
			b: M([][]complex128{
				{0, 3},
				{2i, 0},
			}),
			z: M([][]complex128{
				{1, 3i},
				{-2, 2i},
			}),
			numNonZero: 4,
		},
		{
			a: M([][]complex128{
				{1, 5},
				{0, 2i},
			}),
			c: -1,
			b: M([][]complex128{
				{0, 5},
				{0, 2i},
			}),
			z: M([][]complex128{
				{1, 0},
				{0, 0},
			}),
			numNonZero: 1,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Add(test.c, test.b)
			if !test.a.Equal(test.z) {
				t.Fatalf("%s, expected %s", test.a, test.z)
			}
			if test.a.NumNonZero() != test.numNonZero {
				t.Fatalf("%d, expected %d", test.a.NumNonZero(), test.numNonZero)
			}
		})
	}
}

func TestMul(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a *COO
		b *COO
		p *COO
	}{
		{
			a: M([][]complex128{
				{1, 2},
				{0, 1i},
			}),
			b: M([][]complex128{
				{1, 0, 1},
				{0, 2, 0},
			}),
			p: M([][]complex128{
				{1, 4, 1},
				{0, 2i, 0},
			}),
		},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			p := test.a.Mul(test.b)
			if !p.Equal(test.p) {
				t.Fatalf("%s, expected %s", p, test.p)
			}
		})
	}
}

func TestKron(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a *COO
		b *COO
		k *COO
	}{
		{
			a: M([][]complex128{
				{1, 2},
				{0, 1},
			}),
			b: M([][]complex128{
				{0, 1i},
				{1, 0},
			}),
			k: M([][]complex128{
				{0, 1i, 0, 2i},
				{1, 0, 2, 0},
				{0, 0, 0, 1i},
				{0, 0, 1, 0},
			}),
		},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Kron(test.b)
			if !test.a.Equal(test.k) {
				t.Fatalf("%s, expected %s", test.a, test.k)
			}
		})
	}
}

func TestAdjoint(t *testing.T) {
	t.Parallel()
	a := M([][]complex128{
		{1, 2 + 1i, 0},
		{0, 3i, 4},
	})
	expected := M([][]complex128{
		{1, 0},
		{2 - 1i, -3i},
		{0, 4},
	})
	h := a.Adjoint()
	if !h.Equal(expected) {
		t.Fatalf("%s, expected %s", h, expected)
	}
}

func TestSelfAdjointLower(t *testing.T) {
	t.Parallel()
	lower := M([][]complex128{
		{1, 0, 0},
		{2 - 1i, 3, 0},
		{0, 4i, 5},
	})
	expected := M([][]complex128{
		{1, 2 + 1i, 0},
		{2 - 1i, 3, -4i},
		{0, 4i, 5},
	})
	h := lower.SelfAdjointLower()
	if !h.Equal(expected) {
		t.Fatalf("%s, expected %s", h, expected)
	}
	if !h.IsHermitian(1e-12) {
		t.Fatalf("%s is not hermitian", h)
	}
}

func TestTransform(t *testing.T) {
	t.Parallel()
	// Transforming with a permutation reorders rows and columns.
	basis := M([][]complex128{
		{0, 1},
		{1, 0},
	})
	op := M([][]complex128{
		{1, 2},
		{3, 4},
	})
	expected := M([][]complex128{
		{4, 3},
		{2, 1},
	})
	tr := Transform(basis, op)
	if !tr.Equal(expected) {
		t.Fatalf("%s, expected %s", tr, expected)
	}
}

func TestCompress(t *testing.T) {
	t.Parallel()
	m := Zeros(2, 2)
	m.Append(0, 1, 2)
	m.Append(1, 0, 3)
	m.Append(0, 1, -2)
	m.Append(1, 1, 1i)
	m.Compress()

	expected := M([][]complex128{
		{0, 0},
		{3, 1i},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}
	if m.NumNonZero() != 2 {
		t.Fatalf("%d, expected 2", m.NumNonZero())
	}
	if m.At(1, 0) != 3 {
		t.Fatalf("%v, expected 3", m.At(1, 0))
	}
	if m.At(0, 0) != 0 {
		t.Fatalf("%v, expected 0", m.At(0, 0))
	}
}

func TestIsHermitian(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m         *COO
		hermitian bool
	}{
		{
			m: M([][]complex128{
				{1, 2 - 1i},
				{2 + 1i, 3},
			}),
			hermitian: true,
		},
		{
			m: M([][]complex128{
				{1, 2},
				{3, 4},
			}),
			hermitian: false,
		},
		{
			m: M([][]complex128{
				{1i, 0},
				{0, 1},
			}),
			hermitian: false,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%s", test.m), func(t *testing.T) {
			t.Parallel()
			if got := test.m.IsHermitian(1e-12); got != test.hermitian {
				t.Fatalf("%v, expected %v", got, test.hermitian)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()
	id := Identity(3)
	m := M([][]complex128{
		{1, 2, 0},
		{0, 3, 1i},
		{4, 0, 0},
	})
	if p := id.Mul(m); !p.Equal(m) {
		t.Fatalf("%s, expected %s", p, m)
	}
	if p := m.Mul(id); !p.Equal(m) {
		t.Fatalf("%s, expected %s", p, m)
	}
}
