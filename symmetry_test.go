package pairinteraction

import (
	"slices"
	"testing"
)

func TestParity(t *testing.T) {
	t.Parallel()
	if Even.Sign() != 1 || Odd.Sign() != -1 || NA.Sign() != 1 {
		t.Fatalf("wrong parity signs")
	}
	if Even.String() != "even" || Odd.String() != "odd" || NA.String() != "na" {
		t.Fatalf("wrong parity strings")
	}
}

func TestRotation(t *testing.T) {
	t.Parallel()

	r := NewRotation(1.5, -0.5, 0.5, 0.5)
	if r.Arbitrary() {
		t.Fatalf("restricted set reported arbitrary")
	}
	if want := []float64{-0.5, 0.5, 1.5}; !slices.Equal(r.Momenta(), want) {
		t.Fatalf("%v, expected %v", r.Momenta(), want)
	}
	if !r.Contains(0.5) || r.Contains(-1.5) {
		t.Fatalf("wrong membership")
	}

	arb := RotationArb()
	if !arb.Arbitrary() || !arb.Contains(3.5) || arb.Momenta() != nil {
		t.Fatalf("arbitrary rotation restricts momenta")
	}

	var zero Rotation
	if !zero.Arbitrary() {
		t.Fatalf("zero value is not arbitrary")
	}
}

func TestRotationEqual(t *testing.T) {
	t.Parallel()
	if !NewRotation(0.5, 1.5).Equal(NewRotation(1.5, 0.5)) {
		t.Fatalf("order changed equality")
	}
	if NewRotation(0.5).Equal(NewRotation(1.5)) {
		t.Fatalf("different sets compared equal")
	}
	if NewRotation(0.5).Equal(RotationArb()) {
		t.Fatalf("restricted set compared equal to arbitrary")
	}
	if !RotationArb().Equal(RotationArb()) {
		t.Fatalf("arbitrary sets compared unequal")
	}
}

func TestRotationUnion(t *testing.T) {
	t.Parallel()
	u := NewRotation(0.5).Union(NewRotation(1.5, 0.5))
	if want := []float64{0.5, 1.5}; !slices.Equal(u.Momenta(), want) {
		t.Fatalf("%v, expected %v", u.Momenta(), want)
	}
	if !NewRotation(0.5).Union(RotationArb()).Arbitrary() {
		t.Fatalf("union with arbitrary is restricted")
	}
}

func TestRotationNegation(t *testing.T) {
	t.Parallel()
	if NewRotation(0.5).ClosedUnderNegation() {
		t.Fatalf("{0.5} reported closed under negation")
	}
	if !NewRotation(-0.5, 0.5).ClosedUnderNegation() || !NewRotation(0).ClosedUnderNegation() {
		t.Fatalf("closed set reported open")
	}
	if !RotationArb().ClosedUnderNegation() {
		t.Fatalf("arbitrary set reported open")
	}

	s := NewRotation(0.5, 1.5).SymmetrizedUnderNegation()
	if want := []float64{-1.5, -0.5, 0.5, 1.5}; !slices.Equal(s.Momenta(), want) {
		t.Fatalf("%v, expected %v", s.Momenta(), want)
	}
	if !s.ClosedUnderNegation() {
		t.Fatalf("symmetrized set is not closed under negation")
	}
	if !RotationArb().SymmetrizedUnderNegation().Arbitrary() {
		t.Fatalf("symmetrized arbitrary set is restricted")
	}
}
