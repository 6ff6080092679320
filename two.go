package pairinteraction

import (
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/SimonHollerith/pairinteraction/cache"
	"github.com/SimonHollerith/pairinteraction/mat"
	"github.com/SimonHollerith/pairinteraction/state"
	"github.com/SimonHollerith/pairinteraction/wigner"
)

// SystemTwo is a pair of Rydberg atoms interacting through multipole
// moments along the interatomic axis, which coincides with the quantization
// axis until RotateBasis is called.
type SystemTwo struct {
	system[state.Two]

	// Subsystem snapshots taken at construction. The pair basis is built
	// from these, not from the live one-atom systems.
	states1, states2     []state.One
	index1, index2       map[state.One]int
	bv1, bv2             *mat.COO
	energies1, energies2 []float64

	distance float64
	ordermax int

	symPermutation Parity
	symRotation    Rotation

	interactionMultipole map[[2]int]*mat.COO
}

// NewSystemTwo combines two one-atom systems into a pair system. Both
// subsystems must carry identical fields and a diagonal Hamiltonian, either
// unperturbed or previously diagonalized.
func NewSystemTwo(s1, s2 *SystemOne, c *cache.Cache) (*SystemTwo, error) {
	if s1.efield != s2.efield {
		return nil, errors.Wrap(ErrParameterMismatch, "efield")
	}
	if s1.bfield != s2.bfield {
		return nil, errors.Wrap(ErrParameterMismatch, "bfield")
	}
	if s1.diamagnetism != s2.diamagnetism {
		return nil, errors.Wrap(ErrParameterMismatch, "diamagnetism")
	}

	s := &SystemTwo{
		system:   newSystem[state.Two](c),
		distance: math.Inf(1),
		ordermax: 3,

		symPermutation: NA,
		symRotation:    RotationArb(),
	}
	s.impl = s
	s.deleteInteraction()

	for i, sub := range []*SystemOne{s1, s2} {
		ham, err := sub.Hamiltonian()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		for _, t := range ham.Data {
			if t.Row != t.Col {
				return nil, errors.Wrapf(ErrNotDiagonal, "subsystem %d", i+1)
			}
		}

		states, err := sub.States()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		bv, err := sub.Basisvectors()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		energies := make([]float64, ham.Rows())
		for _, t := range ham.Data {
			energies[t.Row] = real(t.V)
		}

		index := make(map[state.One]int, len(states))
		for j, st := range states {
			index[st] = j
		}
		if i == 0 {
			s.states1, s.index1, s.bv1, s.energies1 = states, index, bv, energies
		} else {
			s.states2, s.index2, s.bv2, s.energies2 = states, index, bv, energies
		}
	}
	return s, nil
}

// SetDistance sets the interatomic distance.
func (s *SystemTwo) SetDistance(d float64) {
	s.onParameterChange()
	s.distance = d
}

// SetOrder sets the highest power-law order 1/R^o of the pair interaction.
// The dipole-dipole term is order 3.
func (s *SystemTwo) SetOrder(o int) error {
	if o < 3 {
		return errors.Errorf("interaction order %d is below the dipole-dipole order 3", o)
	}
	s.onParameterChange()
	s.ordermax = o
	return nil
}

// SetConservedParityUnderPermutation imposes even or odd symmetry under
// exchange of the two atoms. Requires identical subsystems.
func (s *SystemTwo) SetConservedParityUnderPermutation(p Parity) error {
	if p != NA && !statesEqual(s.states1, s.states2) {
		return errors.Wrap(ErrIncompatibleSymmetry, "permutation parity requires identical subsystems")
	}
	s.onBasisChange()
	s.symPermutation = p
	return nil
}

// SetConservedMomentaUnderRotation restricts the basis to pair vectors of
// the given total magnetic quantum numbers.
func (s *SystemTwo) SetConservedMomentaUnderRotation(r Rotation) {
	s.onBasisChange()
	s.symRotation = r
}

func statesEqual(a, b []state.One) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

////////////////////////////////////////////////////////////////////
// Basis construction
////////////////////////////////////////////////////////////////////

// columnsOf splits a sparse matrix into per-column triplet lists.
func columnsOf(m *mat.COO) [][]mat.Triplet {
	cols := make([][]mat.Triplet, m.Cols())
	for _, t := range m.Data {
		cols[t.Col] = append(cols[t.Col], t)
	}
	return cols
}

func (s *SystemTwo) initializeBasis() error {
	for _, st1 := range s.states1 {
		for _, st2 := range s.states2 {
			s.addState(state.NewTwo(st1, st2))
		}
	}
	n2 := len(s.states2)

	cols1 := columnsOf(s.bv1)
	cols2 := columnsOf(s.bv2)

	idx := 0
	var basisTriplets []mat.Triplet
	var hamiltonianTriplets []mat.Triplet

	for c1 := range cols1 {
		c2start := 0
		if s.symPermutation != NA {
			// The exchanged pair (c2, c1) is folded into (c1, c2).
			c2start = c1
		}
		for c2 := c2start; c2 < len(cols2); c2++ {
			energy := s.energies1[c1] + s.energies2[c2]
			if !s.checkIsEnergyValid(energy) {
				continue
			}

			entries := make(map[int]complex128)
			for _, t1 := range cols1[c1] {
				for _, t2 := range cols2[c2] {
					entries[t1.Row*n2+t2.Row] += t1.V * t2.V
				}
			}
			if s.symPermutation != NA {
				sign := complex(s.symPermutation.Sign(), 0)
				for _, t1 := range cols1[c2] {
					for _, t2 := range cols2[c1] {
						entries[t1.Row*n2+t2.Row] += sign * t1.V * t2.V
					}
				}
			}

			// Antisymmetric combinations of a pair with itself vanish.
			var sq float64
			for _, v := range entries {
				sq += real(v)*real(v) + imag(v)*imag(v)
			}
			norm := math.Sqrt(sq)
			if norm < 1e-12 {
				continue
			}

			m, mixed := s.columnMomentum(entries)
			if !s.symRotation.Arbitrary() {
				if mixed {
					return errors.Wrap(ErrIncompatibleSymmetry, "pair vector mixes total momenta")
				}
				if !s.symRotation.Contains(m) {
					continue
				}
			}

			for row, v := range entries {
				if cmplx.Abs(v) < 1e-16 {
					continue
				}
				basisTriplets = append(basisTriplets, mat.Triplet{V: v / complex(norm, 0), Row: row, Col: idx})
			}
			hamiltonianTriplets = append(hamiltonianTriplets, mat.Triplet{V: complex(energy, 0), Row: idx, Col: idx})
			idx++
		}
	}

	s.basisvectors = mat.Zeros(len(s.states), idx)
	s.basisvectors.Data = append(s.basisvectors.Data, basisTriplets...)
	s.basisvectors.Compress()

	s.unperturbed = mat.Zeros(idx, idx)
	s.unperturbed.Data = append(s.unperturbed.Data, hamiltonianTriplets...)
	s.unperturbed.Compress()
	return nil
}

// columnMomentum returns the total magnetic quantum number shared by the
// nonzero entries of a pair column, or mixed when the column spans several
// momenta or contains artificial states.
func (s *SystemTwo) columnMomentum(entries map[int]complex128) (float64, bool) {
	var m float64
	first := true
	for row, v := range entries {
		if cmplx.Abs(v) < 1e-16 {
			continue
		}
		pair := s.states[row]
		if pair.Artificial() {
			return 0, true
		}
		if first {
			m = pair.M()
			first = false
		} else if math.Abs(pair.M()-m) > 1e-9 {
			return 0, true
		}
	}
	return m, false
}

////////////////////////////////////////////////////////////////////
// Interaction construction
////////////////////////////////////////////////////////////////////

func (s *SystemTwo) initializeInteraction() error {
	if math.IsInf(s.distance, 1) {
		return nil
	}

	var orange [][2]int
	kappas := make(map[int]bool)
	for kappa1 := 1; kappa1 <= s.ordermax-2; kappa1++ {
		for kappa2 := 1; kappa1+kappa2+1 <= s.ordermax; kappa2++ {
			key := [2]int{kappa1, kappa2}
			if _, ok := s.interactionMultipole[key]; !ok {
				orange = append(orange, key)
				kappas[kappa1] = true
				kappas[kappa2] = true
			}
		}
	}
	if len(orange) == 0 {
		return nil
	}

	for kappa := range kappas {
		if err := s.cache.PrecalculateMultipole(s.states1, kappa); err != nil {
			return errors.Wrap(err, "")
		}
		if err := s.cache.PrecalculateMultipole(s.states2, kappa); err != nil {
			return errors.Wrap(err, "")
		}
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(s.states) {
		numWorkers = max(1, len(s.states))
	}
	chunk := (len(s.states) + numWorkers - 1) / max(1, numWorkers)
	locals := make([]map[[2]int][]mat.Triplet, numWorkers)
	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(s.states))
		locals[w] = make(map[[2]int][]mat.Triplet)
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = s.interactionColumns(locals[w], lo, hi, orange)
		}(w, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Wrap(err, "")
		}
	}

	merged := make(map[[2]int][]mat.Triplet)
	for _, l := range locals {
		for key, ts := range l {
			merged[key] = append(merged[key], ts...)
		}
	}

	for _, key := range orange {
		op := mat.Zeros(len(s.states), len(s.states))
		op.Data = append(op.Data, merged[key]...)
		op.Compress()
		s.interactionMultipole[key] = mat.Transform(s.basisvectors, op)
	}
	return nil
}

// interactionColumns runs the pair loop for the columns [lo, hi).
func (s *SystemTwo) interactionColumns(out map[[2]int][]mat.Triplet, lo, hi int, orange [][2]int) error {
	for cIdx := lo; cIdx < hi; cIdx++ {
		c := s.states[cIdx]
		if c.Artificial() {
			continue
		}
		for rIdx, r := range s.states {
			if r.Artificial() {
				continue
			}

			// The interaction conserves the total momentum along the
			// interatomic axis, so the two tensor components cancel.
			q := int(math.Round(r.First.M - c.First.M))
			if math.Abs((r.First.M-c.First.M)+(r.Second.M-c.Second.M)) > 1e-9 {
				continue
			}

			for _, key := range orange {
				kappa1, kappa2 := key[0], key[1]
				if q > min(kappa1, kappa2) || -q > min(kappa1, kappa2) {
					continue
				}
				if !state.SelectionRulesMultipoleQ(r.First, c.First, kappa1, q) ||
					!state.SelectionRulesMultipoleQ(r.Second, c.Second, kappa2, -q) {
					continue
				}

				v1, err := s.cache.ElectricMultipole(r.First, c.First, kappa1)
				if err != nil {
					return errors.Wrap(err, "")
				}
				v2, err := s.cache.ElectricMultipole(r.Second, c.Second, kappa2)
				if err != nil {
					return errors.Wrap(err, "")
				}
				v := coulombsConstant * multipoleCoefficient(kappa1, kappa2, q) * v1 * v2
				out[key] = append(out[key], mat.Triplet{V: complex(v, 0), Row: rIdx, Col: cIdx})
			}
		}
	}
	return nil
}

// multipoleCoefficient is the angular prefactor
// (-1)^kappa2 (kappa1+kappa2)! / sqrt((kappa1+q)!(kappa1-q)!(kappa2+q)!(kappa2-q)!)
// of the multipole expansion along the interatomic axis. It is symmetric in
// q, which keeps every (kappa1, kappa2) operator Hermitian on its own.
func multipoleCoefficient(kappa1, kappa2, q int) float64 {
	f := factorial(kappa1+kappa2) / math.Sqrt(factorial(kappa1+q)*factorial(kappa1-q)*factorial(kappa2+q)*factorial(kappa2-q))
	if kappa2%2 != 0 {
		return -f
	}
	return f
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

////////////////////////////////////////////////////////////////////
// Hamiltonian assembly
////////////////////////////////////////////////////////////////////

func (s *SystemTwo) addInteraction() error {
	if math.IsInf(s.distance, 1) {
		return nil
	}
	for key, op := range s.interactionMultipole {
		power := key[0] + key[1] + 1
		if power > s.ordermax {
			continue
		}
		powerlaw := 1 / math.Pow(s.distance, float64(power))
		if powerlaw > fieldTolerance {
			s.hamiltonian.Add(complex(powerlaw, 0), op)
		}
	}
	return nil
}

func (s *SystemTwo) transformInteraction(tr *mat.COO) {
	for key, op := range s.interactionMultipole {
		s.interactionMultipole[key] = mat.Transform(tr, op)
	}
}

func (s *SystemTwo) deleteInteraction() {
	s.interactionMultipole = make(map[[2]int]*mat.COO)
}

////////////////////////////////////////////////////////////////////
// Axis rotation
////////////////////////////////////////////////////////////////////

// RotateBasis reorients the interatomic axis by rotating every basis vector
// with the pair Wigner-D operator. Cached interaction operators refer to the
// old orientation and are invalidated.
func (s *SystemTwo) RotateBasis(alpha, beta, gamma float64) error {
	if err := s.buildBasis(); err != nil {
		return errors.Wrap(err, "")
	}

	rot1 := staterotator(s.states1, s.index1, alpha, beta, gamma)
	rot2 := staterotator(s.states2, s.index2, alpha, beta, gamma)
	pairRotator := rot1.Clone()
	pairRotator.Kron(rot2)

	s.basisvectors = pairRotator.Mul(s.basisvectors)
	s.deleteInteraction()
	s.hamiltonianDirty = true
	s.diagonalized = false
	return nil
}

// staterotator builds the sparse Wigner-D rotation operator over a
// single-atom basis. Artificial states rotate trivially.
func staterotator(states []state.One, index map[state.One]int, alpha, beta, gamma float64) *mat.COO {
	rotator := mat.Zeros(len(states), len(states))
	for col, st := range states {
		if st.Artificial {
			rotator.Append(col, col, 1)
			continue
		}
		for mp := -st.J; mp <= st.J+1e-9; mp++ {
			v := wigner.D(st.J, mp, st.M, alpha, beta, gamma)
			if cmplx.Abs(v) < 1e-16 {
				continue
			}
			if row, ok := index[state.NewOne(st.Species, st.N, st.L, st.J, mp)]; ok {
				rotator.Append(row, col, v)
			}
		}
	}
	rotator.Compress()
	return rotator
}
