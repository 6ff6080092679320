package state

import (
	"testing"
)

func TestSpin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		species string
		s       float64
	}{
		{"Rb", 0.5},
		{"Cs", 0.5},
		{"Sr1", 0},
		{"Sr3", 1},
	}
	for _, test := range tests {
		test := test
		t.Run(test.species, func(t *testing.T) {
			t.Parallel()
			st := NewOne(test.species, 70, 0, 0, 0)
			if got := st.S(); got != test.s {
				t.Fatalf("%v, expected %v", got, test.s)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		st One
		ok bool
	}{
		{NewOne("Rb", 70, 0, 0.5, 0.5), true},
		{NewOne("Rb", 70, 69, 69.5, -69.5), true},
		// l out of range.
		{NewOne("Rb", 70, 70, 70.5, 0.5), false},
		// |m| > j.
		{NewOne("Rb", 70, 1, 1.5, 2.5), false},
		// j incompatible with l and s.
		{NewOne("Rb", 70, 2, 0.5, 0.5), false},
		// artificial states always pass
		{NewArtificial("v"), true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.st.String(), func(t *testing.T) {
			t.Parallel()
			err := test.st.Validate()
			if (err == nil) != test.ok {
				t.Fatalf("%+v, expected ok=%v", err, test.ok)
			}
		})
	}
}

func TestReflected(t *testing.T) {
	t.Parallel()
	st := NewOne("Rb", 70, 1, 1.5, 0.5)
	r := st.Reflected()
	if r.M != -0.5 {
		t.Fatalf("%v, expected -0.5", r.M)
	}
	if r.Reflected() != st {
		t.Fatalf("%s, expected %s", r.Reflected(), st)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b One
		cmp  int
	}{
		{NewOne("Rb", 70, 0, 0.5, 0.5), NewOne("Rb", 70, 0, 0.5, 0.5), 0},
		{NewOne("Rb", 70, 0, 0.5, -0.5), NewOne("Rb", 70, 0, 0.5, 0.5), -1},
		{NewOne("Rb", 70, 0, 0.5, 0.5), NewOne("Rb", 71, 0, 0.5, 0.5), -1},
		{NewOne("Rb", 70, 1, 0.5, 0.5), NewOne("Rb", 70, 0, 0.5, 0.5), 1},
		// Artificial states sort after physical ones.
		{NewOne("Rb", 70, 0, 0.5, 0.5), NewArtificial("v"), -1},
	}
	for _, test := range tests {
		test := test
		if got := test.a.Compare(test.b); got != test.cmp {
			t.Fatalf("%s vs %s: %d, expected %d", test.a, test.b, got, test.cmp)
		}
		if got := test.b.Compare(test.a); got != -test.cmp {
			t.Fatalf("%s vs %s: %d, expected %d", test.b, test.a, got, -test.cmp)
		}
	}
}

func TestTwo(t *testing.T) {
	t.Parallel()
	a := NewOne("Rb", 70, 0, 0.5, 0.5)
	b := NewOne("Rb", 70, 1, 1.5, -0.5)
	pair := NewTwo(a, b)

	if pair.At(0) != a || pair.At(1) != b {
		t.Fatalf("%s", pair)
	}
	if pair.M() != 0 {
		t.Fatalf("%v, expected 0", pair.M())
	}
	if pair.Artificial() {
		t.Fatalf("physical pair flagged artificial")
	}
	if p := pair.Permuted(); p.At(0) != b || p.At(1) != a {
		t.Fatalf("%s", p)
	}
	if r := pair.Reflected(); r.At(0).M != -0.5 || r.At(1).M != 0.5 {
		t.Fatalf("%s", r)
	}
	if err := pair.Validate(); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestSelectionRulesMultipole(t *testing.T) {
	t.Parallel()
	s := NewOne("Rb", 70, 0, 0.5, 0.5)
	p := NewOne("Rb", 70, 1, 1.5, 0.5)
	p2 := NewOne("Rb", 70, 1, 1.5, 1.5)
	d := NewOne("Rb", 70, 2, 2.5, 0.5)

	if !SelectionRulesMultipole(s, p, 1) {
		t.Fatalf("s-p dipole forbidden")
	}
	if SelectionRulesMultipole(s, d, 1) {
		t.Fatalf("s-d dipole allowed")
	}
	if !SelectionRulesMultipole(s, d, 2) {
		t.Fatalf("s-d quadrupole forbidden")
	}
	if !SelectionRulesMultipoleQ(p2, s, 1, 1) {
		t.Fatalf("q=1 dipole forbidden")
	}
	if SelectionRulesMultipoleQ(p2, s, 1, 0) {
		t.Fatalf("q=0 dipole allowed for dm=1")
	}
}

func TestSelectionRulesMomentum(t *testing.T) {
	t.Parallel()
	a := NewOne("Rb", 70, 1, 1.5, 0.5)
	b := NewOne("Rb", 70, 1, 0.5, 0.5)
	c := NewOne("Rb", 70, 2, 1.5, 0.5)

	if !SelectionRulesMomentum(a, b, 0) {
		t.Fatalf("dj=1 momentum coupling forbidden")
	}
	if SelectionRulesMomentum(a, c, 0) {
		t.Fatalf("momentum coupling across l allowed")
	}
	if SelectionRulesMomentum(a, b, 1) {
		t.Fatalf("q=1 coupling allowed for dm=0")
	}
}
