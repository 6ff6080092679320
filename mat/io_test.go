package mat

import (
	"testing"
)

func TestWriteReadCOO(t *testing.T) {
	t.Parallel()
	tests := []*COO{
		M([][]complex128{
			{1, 0, 2i},
			{0, -3, 0},
			{4 + 5i, 0, 0},
		}),
		// Repeated rows exercise the blank-field compression.
		M([][]complex128{
			{1, 2, 3},
			{0, 0, 0},
			{0, 4, 4},
		}),
		Zeros(2, 5),
	}
	for _, m := range tests {
		m := m
		t.Run(m.String(), func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := m.WriteCOO(dir); err != nil {
				t.Fatalf("%+v", err)
			}
			read, err := ReadCOO(dir)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !read.Equal(m) {
				t.Fatalf("%s, expected %s", read, m)
			}
			if read.Hash() != m.Hash() {
				t.Fatalf("%d, expected %d", read.Hash(), m.Hash())
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Parallel()
	a := M([][]complex128{
		{1, 2},
		{3, 4},
	})
	b := M([][]complex128{
		{1, 2},
		{3, 5},
	})
	if a.Hash() == b.Hash() {
		t.Fatalf("distinct matrices share hash %d", a.Hash())
	}

	c := a.Clone()
	if a.Hash() != c.Hash() {
		t.Fatalf("%d, expected %d", c.Hash(), a.Hash())
	}
}

func TestCOOReader(t *testing.T) {
	t.Parallel()
	m := M([][]complex128{
		{0, 1i},
		{2, 0},
	})
	dir := t.TempDir()
	if err := m.WriteCOO(dir); err != nil {
		t.Fatalf("%+v", err)
	}

	r, err := NewCOOReader(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer r.Close()

	got := Zeros(2, 2)
	for i := 0; i < m.NumNonZero(); i++ {
		tr, err := r.Read()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		got.Append(tr.Row, tr.Col, tr.V)
	}
	got.Compress()
	if !got.Equal(m) {
		t.Fatalf("%s, expected %s", got, m)
	}
}
