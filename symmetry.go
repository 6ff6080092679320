package pairinteraction

import (
	"fmt"
	"math"
	"slices"
)

// Parity labels the conserved parity of a discrete symmetry.
type Parity int8

const (
	// NA means the symmetry is not imposed.
	NA Parity = iota
	Even
	Odd
)

func (p Parity) String() string {
	switch p {
	case Even:
		return "even"
	case Odd:
		return "odd"
	default:
		return "na"
	}
}

// Sign returns +1 for even parity and -1 for odd parity.
func (p Parity) Sign() float64 {
	if p == Odd {
		return -1
	}
	return 1
}

// Rotation is the set of magnetic quantum numbers conserved under rotation
// about the quantization axis. The zero value (or RotationArb) imposes no
// restriction.
type Rotation struct {
	arbitrary bool
	momenta   []float64
}

// RotationArb returns the unrestricted rotation symmetry.
func RotationArb() Rotation {
	return Rotation{arbitrary: true}
}

// NewRotation restricts the basis to the given conserved momenta.
func NewRotation(momenta ...float64) Rotation {
	ms := slices.Clone(momenta)
	slices.Sort(ms)
	ms = slices.Compact(ms)
	return Rotation{momenta: ms}
}

// Arbitrary reports whether any momentum is allowed.
func (r Rotation) Arbitrary() bool {
	return r.arbitrary || r.momenta == nil
}

// Contains reports whether m is an allowed momentum.
func (r Rotation) Contains(m float64) bool {
	if r.Arbitrary() {
		return true
	}
	_, ok := slices.BinarySearch(r.momenta, m)
	return ok
}

// Momenta returns the allowed momenta in ascending order, nil if arbitrary.
func (r Rotation) Momenta() []float64 {
	if r.Arbitrary() {
		return nil
	}
	return slices.Clone(r.momenta)
}

func (r Rotation) Equal(o Rotation) bool {
	if r.Arbitrary() || o.Arbitrary() {
		return r.Arbitrary() == o.Arbitrary()
	}
	return slices.Equal(r.momenta, o.momenta)
}

// ClosedUnderNegation reports whether every momentum has its negative in the
// set, which reflection symmetry requires.
func (r Rotation) ClosedUnderNegation() bool {
	if r.Arbitrary() {
		return true
	}
	for _, m := range r.momenta {
		if !r.Contains(-m) {
			return false
		}
	}
	return true
}

// SymmetrizedUnderNegation returns the set extended by the negative of
// every momentum. Reflection symmetry folds m and -m into one basis vector,
// so a requested momentum implies its partner.
func (r Rotation) SymmetrizedUnderNegation() Rotation {
	if r.Arbitrary() {
		return r
	}
	ms := slices.Clone(r.momenta)
	for _, m := range r.momenta {
		ms = append(ms, -m)
	}
	return NewRotation(ms...)
}

// Union merges two rotation symmetries: arbitrary absorbs everything, and
// explicit momentum sets are united.
func (r Rotation) Union(o Rotation) Rotation {
	if r.Arbitrary() || o.Arbitrary() {
		return RotationArb()
	}
	return NewRotation(append(slices.Clone(r.momenta), o.momenta...)...)
}

func (r Rotation) String() string {
	if r.Arbitrary() {
		return "arb"
	}
	return fmt.Sprintf("%v", r.momenta)
}

// halfRange returns the values from lo to hi inclusive in integer steps.
func halfRange(lo, hi float64) []float64 {
	var vs []float64
	for v := lo; v <= hi+1e-9; v++ {
		vs = append(vs, v)
	}
	return vs
}

// intRange returns the integers from lo to hi inclusive.
func intRange(lo, hi int) []int {
	var vs []int
	for v := lo; v <= hi; v++ {
		vs = append(vs, v)
	}
	return vs
}

// containsFloat reports membership with an exactness appropriate for
// half-integer quantum numbers.
func containsFloat(vs []float64, v float64) bool {
	for _, w := range vs {
		if math.Abs(w-v) < 1e-9 {
			return true
		}
	}
	return false
}
