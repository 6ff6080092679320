package pairinteraction

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"github.com/SimonHollerith/pairinteraction/cache"
	"github.com/SimonHollerith/pairinteraction/mat"
)

// BasisState is the state kind of a system: state.One or state.Two.
type BasisState interface {
	comparable
	fmt.Stringer
}

// builder is implemented by the concrete system kinds. The shared core
// drives the build pipeline through it.
type builder interface {
	// initializeBasis enumerates the basis, fills the states container and
	// the basisvectors/unperturbed matrices.
	initializeBasis() error
	// initializeInteraction builds the interaction operators that are needed
	// but not yet cached.
	initializeInteraction() error
	// addInteraction combines the cached operators into the Hamiltonian,
	// which has been reset to the unperturbed baseline.
	addInteraction() error
	// deleteInteraction drops all cached interaction operators.
	deleteInteraction()
	// transformInteraction rewrites cached operators under a basis change.
	transformInteraction(tr *mat.COO)
}

// system is the shared core of SystemOne and SystemTwo: restriction
// parameters, the states container, the sparse matrices and the
// change-tracking flags.
type system[S BasisState] struct {
	cache *cache.Cache
	impl  builder

	energyMin float64
	energyMax float64
	rangeN    []int
	rangeL    []int
	rangeJ    []float64
	rangeM    []float64

	statesToAdd []S

	// states is the canonical basis; index inverts it.
	states []S
	index  map[S]int

	// basisvectors maps canonical states (rows) to symmetrized basis
	// vectors (columns). unperturbed is the immutable diagonal baseline of
	// the Hamiltonian in the symmetrized basis; every assembly starts from a
	// copy of it.
	basisvectors *mat.COO
	unperturbed  *mat.COO
	hamiltonian  *mat.COO

	basisDirty       bool
	hamiltonianDirty bool
	diagonalized     bool
	eigenvalues      []float64
}

func newSystem[S BasisState](c *cache.Cache) system[S] {
	return system[S]{
		cache:            c,
		energyMin:        math.Inf(-1),
		energyMax:        math.Inf(1),
		basisDirty:       true,
		hamiltonianDirty: true,
	}
}

// RestrictEnergy restricts the basis to states with unperturbed energies in
// [min, max] (atomic units).
func (s *system[S]) RestrictEnergy(min, max float64) {
	s.onBasisChange()
	s.energyMin, s.energyMax = min, max
}

// RestrictN restricts the principal quantum number to [lo, hi].
func (s *system[S]) RestrictN(lo, hi int) {
	s.onBasisChange()
	s.rangeN = intRange(lo, hi)
}

// RestrictNSet restricts the principal quantum number to an explicit set.
func (s *system[S]) RestrictNSet(ns []int) {
	s.onBasisChange()
	s.rangeN = append([]int(nil), ns...)
}

// RestrictL restricts the orbital quantum number to [lo, hi].
func (s *system[S]) RestrictL(lo, hi int) {
	s.onBasisChange()
	s.rangeL = intRange(lo, hi)
}

func (s *system[S]) RestrictLSet(ls []int) {
	s.onBasisChange()
	s.rangeL = append([]int(nil), ls...)
}

// RestrictJ restricts the total angular momentum to [lo, hi] in integer
// steps from lo.
func (s *system[S]) RestrictJ(lo, hi float64) {
	s.onBasisChange()
	s.rangeJ = halfRange(lo, hi)
}

func (s *system[S]) RestrictJSet(js []float64) {
	s.onBasisChange()
	s.rangeJ = append([]float64(nil), js...)
}

// RestrictM restricts the magnetic quantum number to [lo, hi] in integer
// steps from lo.
func (s *system[S]) RestrictM(lo, hi float64) {
	s.onBasisChange()
	s.rangeM = halfRange(lo, hi)
}

func (s *system[S]) RestrictMSet(ms []float64) {
	s.onBasisChange()
	s.rangeM = append([]float64(nil), ms...)
}

// AddStates injects user-defined states into the basis, bypassing the
// quantum number enumeration. Artificial states additionally bypass energy
// and species checks.
func (s *system[S]) AddStates(states ...S) {
	s.onBasisChange()
	s.statesToAdd = append(s.statesToAdd, states...)
}

// onParameterChange marks the Hamiltonian stale while keeping the basis and
// the cached interaction operators.
func (s *system[S]) onParameterChange() {
	s.hamiltonianDirty = true
	s.diagonalized = false
}

// onBasisChange marks the basis stale, which invalidates all interaction
// operators since their dimensions and ordering depend on the basis.
func (s *system[S]) onBasisChange() {
	s.basisDirty = true
	s.hamiltonianDirty = true
	s.diagonalized = false
	if s.impl != nil {
		s.impl.deleteInteraction()
	}
}

// checkIsEnergyValid reports whether an unperturbed energy lies in the
// restriction window.
func (s *system[S]) checkIsEnergyValid(e float64) bool {
	return e >= s.energyMin && e <= s.energyMax
}

// addState returns the canonical row of the state, appending it if new.
func (s *system[S]) addState(st S) int {
	if row, ok := s.index[st]; ok {
		return row
	}
	row := len(s.states)
	s.states = append(s.states, st)
	s.index[st] = row
	return row
}

// buildBasis rebuilds the basis if a basis-defining parameter changed.
func (s *system[S]) buildBasis() error {
	if !s.basisDirty {
		return nil
	}
	s.states = nil
	s.index = make(map[S]int)
	s.eigenvalues = nil
	if err := s.impl.initializeBasis(); err != nil {
		return errors.Wrap(err, "")
	}
	s.basisDirty = false
	return nil
}

// rebuild inspects the dirty flags and performs exactly the necessary work:
// basis, missing interaction operators, Hamiltonian recombination.
func (s *system[S]) rebuild() error {
	if err := s.buildBasis(); err != nil {
		return errors.Wrap(err, "")
	}
	if err := s.impl.initializeInteraction(); err != nil {
		return errors.Wrap(err, "")
	}
	if s.hamiltonianDirty {
		s.hamiltonian = s.unperturbed.Clone()
		if err := s.impl.addInteraction(); err != nil {
			return errors.Wrap(err, "")
		}
		s.hamiltonianDirty = false
	}
	return nil
}

// States returns the canonical basis states.
func (s *system[S]) States() ([]S, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s.states, nil
}

// Basisvectors returns the sparse transform from canonical states (rows) to
// symmetrized basis vectors (columns).
func (s *system[S]) Basisvectors() (*mat.COO, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s.basisvectors, nil
}

// Hamiltonian assembles and returns the total Hamiltonian.
func (s *system[S]) Hamiltonian() (*mat.COO, error) {
	if err := s.rebuild(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s.hamiltonian, nil
}

// Diagonalize assembles the Hamiltonian, diagonalizes it and moves the
// system into its eigenbasis: the Hamiltonian becomes diagonal, and
// basisvectors and all cached operators are rewritten accordingly.
// Eigenvector entries below tol are truncated to keep the transform sparse.
func (s *system[S]) Diagonalize(tol float64) error {
	if err := s.rebuild(); err != nil {
		return errors.Wrap(err, "")
	}
	if s.diagonalized {
		return nil
	}

	vals, vecs, err := mat.EigenTransform(s.hamiltonian, tol)
	if err != nil {
		return errors.Wrap(err, "")
	}
	s.eigenvalues = vals

	diag := mat.Zeros(len(vals), len(vals))
	for i, v := range vals {
		diag.Append(i, i, complex(v, 0))
	}
	diag.Compress()
	s.hamiltonian = diag

	s.basisvectors = s.basisvectors.Mul(vecs)
	s.unperturbed = mat.Transform(vecs, s.unperturbed)
	s.impl.transformInteraction(vecs)
	s.diagonalized = true
	return nil
}

// Eigenvalues returns the eigenvalues of the last diagonalization, ascending.
func (s *system[S]) Eigenvalues() ([]float64, error) {
	if !s.diagonalized {
		return nil, errors.Errorf("system is not diagonalized")
	}
	return s.eigenvalues, nil
}

// Overlap returns, per basis vector, the probability overlap with the given
// canonical state. After Diagonalize the basis vectors are the eigenvectors.
func (s *system[S]) Overlap(st S) ([]float64, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	row, ok := s.index[st]
	if !ok {
		return nil, errors.Errorf("state %s is not in the basis", st)
	}
	return s.OverlapIndex(row)
}

// OverlapIndex is Overlap addressed by the canonical state index.
func (s *system[S]) OverlapIndex(row int) ([]float64, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if row < 0 || row >= len(s.states) {
		return nil, errors.Errorf("state index %d out of range", row)
	}

	overlaps := make([]float64, s.basisvectors.Cols())
	for _, t := range s.basisvectors.Data {
		if t.Row != row {
			continue
		}
		a := cmplx.Abs(t.V)
		overlaps[t.Col] = a * a
	}
	return overlaps, nil
}
