package pairinteraction

import "errors"

// Configuration errors are fatal and raised before any expensive work; the
// system is left unmodified. Callers match them with errors.Is.
var (
	// ErrBasisInfinite is returned when neither an n range nor a complete
	// energy window bounds the basis.
	ErrBasisInfinite = errors.New("pairinteraction: basis is infinite, restrict n or the energy window")

	// ErrIncompatibleSymmetry is returned when a requested symmetry cannot
	// be realized on the basis, e.g. permutation parity on differing
	// subsystems or a rotation restriction on pair vectors that mix total
	// momenta.
	ErrIncompatibleSymmetry = errors.New("pairinteraction: the requested symmetry cannot be realized on this basis")

	// ErrMissingPartner is returned when reflection symmetry requires an
	// m -> -m partner state that the restrictions exclude.
	ErrMissingPartner = errors.New("pairinteraction: state required by symmetries cannot be found")

	// ErrDuplicateState is returned when a user-supplied state is already
	// contained in the basis.
	ErrDuplicateState = errors.New("pairinteraction: state is already contained in the basis")

	// ErrWrongSpecies is returned when a user-supplied state does not match
	// the system species.
	ErrWrongSpecies = errors.New("pairinteraction: state is of the wrong species")

	// ErrComplexRequired is returned when a real-matrix system is given
	// parameters that produce complex matrix entries.
	ErrComplexRequired = errors.New("pairinteraction: a complex data type is needed for these parameters")

	// ErrParameterMismatch is returned by Incorporate when scalar parameters
	// of the two systems differ.
	ErrParameterMismatch = errors.New("pairinteraction: systems differ in a parameter that must match")

	// ErrNotDiagonal is returned when a two-atom system is built from
	// subsystems whose Hamiltonians are not diagonal.
	ErrNotDiagonal = errors.New("pairinteraction: subsystem Hamiltonian is not diagonal, diagonalize first")
)
