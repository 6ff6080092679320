// Package pairinteraction computes energy levels and long-range interactions
// of Rydberg atoms by building and diagonalizing sparse Hamiltonians in a
// truncated, symmetry-reduced basis.
//
// A SystemOne describes a single atom in external electric and magnetic
// fields; a SystemTwo combines two such systems into an atom pair coupled by
// multipole-multipole interactions. Systems track which parameters changed
// since the last build and recompute only the affected operators.
package pairinteraction

// All physical quantities are in Hartree atomic units.
const (
	// electronRestMass, elementaryCharge and coulombsConstant are unity in
	// atomic units; they are kept as named factors so that the interaction
	// formulas stay auditable against their textbook form.
	electronRestMass = 1.0
	elementaryCharge = 1.0
	coulombsConstant = 1.0

	// fieldTolerance separates numerically zero field components and term
	// coefficients from active ones.
	fieldTolerance = 1e-24
)
