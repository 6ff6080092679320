package wigner

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWigner3j(t *testing.T) {
	t.Parallel()
	tests := []struct {
		j1, j2, j3 float64
		m1, m2, m3 float64
		want       float64
	}{
		{1, 1, 0, 0, 0, 0, -1 / math.Sqrt(3)},
		{1, 1, 2, 0, 0, 0, math.Sqrt(2.0 / 15)},
		{1, 2, 3, 0, 0, 0, -math.Sqrt(3.0 / 35)},
		{1, 1, 2, 1, -1, 0, 1 / math.Sqrt(30)},
		{0.5, 0.5, 1, 0.5, -0.5, 0, 1 / math.Sqrt(6)},
		{0.5, 0.5, 0, 0.5, -0.5, 0, 1 / math.Sqrt(2)},
		// Triangle rule violated.
		{1, 1, 3, 0, 0, 0, 0},
		// m sum nonzero.
		{1, 1, 2, 1, 0, 0, 0},
		// |m| > j.
		{1, 1, 2, 2, -2, 0, 0},
	}
	for _, test := range tests {
		test := test
		name := fmt.Sprintf("(%v %v %v; %v %v %v)", test.j1, test.j2, test.j3, test.m1, test.m2, test.m3)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Wigner3j(test.j1, test.j2, test.j3, test.m1, test.m2, test.m3)
			assert.InDelta(t, test.want, got, 1e-12)
		})
	}
}

func TestWigner3jSymmetry(t *testing.T) {
	t.Parallel()
	// Even column permutations leave the symbol unchanged.
	a := Wigner3j(2, 1, 1, 1, 0, -1)
	b := Wigner3j(1, 1, 2, 0, -1, 1)
	assert.InDelta(t, a, b, 1e-12)

	// Negating all m picks up (-1)^(j1+j2+j3).
	c := Wigner3j(2, 1, 1, -1, 0, 1)
	assert.InDelta(t, a, c, 1e-12)
}

func TestWigner3jOrthogonality(t *testing.T) {
	t.Parallel()
	// sum_m1,m2 (2j3+1) (j1 j2 j3; m1 m2 m3)^2 = 1.
	j1, j2, j3, m3 := 2.0, 1.5, 1.5, 0.5
	var sum float64
	for m1 := -j1; m1 <= j1; m1++ {
		for m2 := -j2; m2 <= j2; m2++ {
			w := Wigner3j(j1, j2, j3, m1, m2, -m3)
			sum += (2*j3 + 1) * w * w
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestWigner6j(t *testing.T) {
	t.Parallel()
	tests := []struct {
		j1, j2, j3 float64
		j4, j5, j6 float64
		want       float64
	}{
		// {j1 j2 j3; 0 j3 j2} = (-1)^(j1+j2+j3) / sqrt((2j2+1)(2j3+1)).
		{1, 1, 1, 0, 1, 1, -1.0 / 3},
		{2, 1, 1, 0, 1, 1, 1.0 / 3},
		{1.5, 1, 0.5, 0, 0.5, 1, -1 / math.Sqrt(6)},
		{1, 1, 1, 1, 1, 1, 1.0 / 6},
		// Triangle rule violated.
		{1, 1, 3, 1, 1, 1, 0},
	}
	for _, test := range tests {
		test := test
		name := fmt.Sprintf("{%v %v %v; %v %v %v}", test.j1, test.j2, test.j3, test.j4, test.j5, test.j6)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Wigner6j(test.j1, test.j2, test.j3, test.j4, test.j5, test.j6)
			assert.InDelta(t, test.want, got, 1e-12)
		})
	}
}

func TestSmallD(t *testing.T) {
	t.Parallel()
	beta := 0.7
	tests := []struct {
		j, mp, m float64
		want     float64
	}{
		{0.5, 0.5, 0.5, math.Cos(beta / 2)},
		{0.5, 0.5, -0.5, -math.Sin(beta / 2)},
		{1, 0, 0, math.Cos(beta)},
		{1, 1, 0, -math.Sin(beta) / math.Sqrt(2)},
		{1, 1, 1, (1 + math.Cos(beta)) / 2},
		{1, -1, 1, (1 - math.Cos(beta)) / 2},
	}
	for _, test := range tests {
		test := test
		name := fmt.Sprintf("d^%v_{%v,%v}", test.j, test.mp, test.m)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, test.want, SmallD(test.j, test.mp, test.m, beta), 1e-12)
		})
	}
}

func TestSmallDUnitarity(t *testing.T) {
	t.Parallel()
	// Columns of d^j(beta) are unit vectors.
	for _, j := range []float64{0.5, 1, 1.5, 2} {
		for m := -j; m <= j; m++ {
			var sum float64
			for mp := -j; mp <= j; mp++ {
				d := SmallD(j, mp, m, 1.1)
				sum += d * d
			}
			require.InDelta(t, 1.0, sum, 1e-12, "j=%v m=%v", j, m)
		}
	}
}

func TestSmallDIdentity(t *testing.T) {
	t.Parallel()
	// At beta = 0 the rotation is the identity.
	assert.InDelta(t, 1.0, SmallD(1.5, 0.5, 0.5, 0), 1e-12)
	assert.InDelta(t, 0.0, SmallD(1.5, 1.5, 0.5, 0), 1e-12)
}

func TestD(t *testing.T) {
	t.Parallel()
	j, mp, m := 1.0, 1.0, 0.0
	alpha, beta, gamma := 0.3, 0.7, 1.2

	d := D(j, mp, m, alpha, beta, gamma)
	small := SmallD(j, mp, m, beta)
	assert.InDelta(t, math.Abs(small), cmplx.Abs(d), 1e-12)

	expected := cmplx.Exp(complex(0, -mp*alpha)) * complex(small, 0) * cmplx.Exp(complex(0, -m*gamma))
	assert.InDelta(t, 0, cmplx.Abs(d-expected), 1e-12)

	// A pure z rotation only adds a phase.
	dz := D(0.5, 0.5, 0.5, 1.0, 0, 0)
	assert.InDelta(t, 1.0, cmplx.Abs(dz), 1e-12)
}
