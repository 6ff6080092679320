// Package state defines the immutable quantum state labels of single Rydberg
// atoms and atom pairs, together with the angular momentum selection rules
// that decide whether two states couple through a given tensor operator.
package state

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// One labels a single-atom state |species, n, l, j, m>.
//
// Artificial states are user-injected placeholders without physical quantum
// numbers; they bypass energy lookups and species checks.
type One struct {
	Species    string
	N          int
	L          int
	J          float64
	M          float64
	Artificial bool

	// Label names an artificial state.
	Label string
}

// NewOne returns a physical single-atom state.
func NewOne(species string, n, l int, j, m float64) One {
	return One{Species: species, N: n, L: l, J: j, M: m}
}

// NewArtificial returns a non-physical placeholder state.
func NewArtificial(label string) One {
	return One{Artificial: true, Label: label}
}

// S returns the spin derived from the species name. A trailing digit d marks
// a multiplicity-d species, s = (d-1)/2; otherwise the species is an alkali
// atom with s = 1/2.
func (s One) S() float64 {
	if s.Species == "" {
		return 0
	}
	last := s.Species[len(s.Species)-1]
	if last >= '0' && last <= '9' {
		return (float64(last-'0') - 1) / 2
	}
	return 0.5
}

// Validate checks the quantum number invariants of a physical state.
func (s One) Validate() error {
	if s.Artificial {
		return nil
	}
	spin := s.S()
	if s.L < 0 || s.L > s.N-1 {
		return errors.Errorf("l out of range: %s", s)
	}
	if s.J < math.Abs(float64(s.L)-spin)-1e-9 || s.J > float64(s.L)+spin+1e-9 {
		return errors.Errorf("j out of range: %s", s)
	}
	if math.Abs(s.M) > s.J+1e-9 {
		return errors.Errorf("m out of range: %s", s)
	}
	if !sameHalfInteger(s.J, s.M) {
		return errors.Errorf("j and m differ by a non-integer: %s", s)
	}
	return nil
}

// Reflected returns the state with m negated.
func (s One) Reflected() One {
	s.M = -s.M
	return s
}

// Compare defines a total order so that states can key ordered containers.
func (s One) Compare(o One) int {
	if s.Artificial != o.Artificial {
		if s.Artificial {
			return 1
		}
		return -1
	}
	if s.Artificial {
		switch {
		case s.Label < o.Label:
			return -1
		case s.Label > o.Label:
			return 1
		}
		return 0
	}
	switch {
	case s.Species < o.Species:
		return -1
	case s.Species > o.Species:
		return 1
	}
	if c := s.N - o.N; c != 0 {
		return c
	}
	if c := s.L - o.L; c != 0 {
		return c
	}
	if c := cmpFloat(s.J, o.J); c != 0 {
		return c
	}
	return cmpFloat(s.M, o.M)
}

func (s One) String() string {
	if s.Artificial {
		return fmt.Sprintf("|%s>", s.Label)
	}
	return fmt.Sprintf("|%s, %d %d %g %g>", s.Species, s.N, s.L, s.J, s.M)
}

// Two labels a two-atom product state.
type Two struct {
	First  One
	Second One
}

func NewTwo(first, second One) Two {
	return Two{First: first, Second: second}
}

// At returns the state of atom i (0 or 1).
func (t Two) At(i int) One {
	if i == 0 {
		return t.First
	}
	return t.Second
}

// M returns the total magnetic quantum number.
func (t Two) M() float64 {
	return t.First.M + t.Second.M
}

// Artificial reports whether either side is artificial.
func (t Two) Artificial() bool {
	return t.First.Artificial || t.Second.Artificial
}

// Permuted returns the state with the two atoms exchanged.
func (t Two) Permuted() Two {
	return Two{First: t.Second, Second: t.First}
}

// Reflected negates both magnetic quantum numbers.
func (t Two) Reflected() Two {
	return Two{First: t.First.Reflected(), Second: t.Second.Reflected()}
}

func (t Two) Validate() error {
	if err := t.First.Validate(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := t.Second.Validate(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (t Two) Compare(o Two) int {
	if c := t.First.Compare(o.First); c != 0 {
		return c
	}
	return t.Second.Compare(o.Second)
}

func (t Two) String() string {
	return fmt.Sprintf("%s%s", t.First, t.Second)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sameHalfInteger(a, b float64) bool {
	d := a - b
	return math.Abs(d-math.Round(d)) < 1e-9
}
