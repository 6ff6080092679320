package pairinteraction

import (
	"log"
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

// SystemOne is a single Rydberg atom in external electric and magnetic
// fields, optionally perturbed by a nearby ion.
type SystemOne struct {
	system[state.One]

	species      string
	realMatrices bool

	efield          [3]float64
	bfield          [3]float64
	efieldSpherical map[int]complex128
	bfieldSpherical map[int]complex128
	// diamagnetismTerms are the six (k, q) tensor coefficients derived from
	// the spherical B-field components.
	diamagnetismTerms map[[2]int]complex128

	diamagnetism bool
	charge       int
	ordermax     int
	distance     float64

	symReflection Parity
	symRotation   Rotation

	interactionEfield       map[int]*mat.COO
	interactionBfield       map[int]*mat.COO
	interactionDiamagnetism map[[2]int]*mat.COO
	interactionMultipole    map[int]*mat.COO
}

// SystemOneOption configures a SystemOne at construction.
type SystemOneOption func(*SystemOne)

// WithRealMatrices restricts the system to parameters that keep all matrix
// entries real. Fields with a y component and reflection symmetrization of
// m != 0 states are rejected.
func WithRealMatrices() SystemOneOption {
	return func(s *SystemOne) { s.realMatrices = true }
}

// NewSystemOne returns a system for the given species drawing matrix
// elements from c.
func NewSystemOne(species string, c *cache.Cache, opts ...SystemOneOption) *SystemOne {
	s := &SystemOne{
		system:            newSystem[state.One](c),
		species:           species,
		diamagnetism:      true,
		distance:          math.Inf(1),
		symReflection:     NA,
		symRotation:       RotationArb(),
		efieldSpherical:   changeToSpherical([3]float64{}),
		bfieldSpherical:   changeToSpherical([3]float64{}),
		diamagnetismTerms: diamagnetismTerms(changeToSpherical([3]float64{})),
	}
	s.impl = s
	s.deleteInteraction()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SystemOne) Species() string { return s.species }

// SetEfield sets the electric field vector in atomic units.
func (s *SystemOne) SetEfield(field [3]float64) error {
	if s.realMatrices && field[1] != 0 {
		return errors.Wrap(ErrComplexRequired, "efield has a y component")
	}
	s.onParameterChange()
	s.efield = field
	s.efieldSpherical = changeToSpherical(field)
	return nil
}

// SetEfieldEuler sets the electric field given in a frame rotated by the
// Euler angles alpha, beta, gamma.
func (s *SystemOne) SetEfieldEuler(field [3]float64, alpha, beta, gamma float64) error {
	return s.SetEfield(rotateVector(field, buildRotatorEuler(alpha, beta, gamma)))
}

// SetEfieldAxes sets the electric field given in a frame whose z and y axes
// point along toZ and toY.
func (s *SystemOne) SetEfieldAxes(field, toZ, toY [3]float64) error {
	r, err := buildRotatorAxes(toZ, toY)
	if err != nil {
		return errors.Wrap(err, "")
	}
	return s.SetEfield(rotateVector(field, r))
}

// SetBfield sets the magnetic field vector in atomic units.
func (s *SystemOne) SetBfield(field [3]float64) error {
	if s.realMatrices && field[1] != 0 {
		return errors.Wrap(ErrComplexRequired, "bfield has a y component")
	}
	s.onParameterChange()
	s.bfield = field
	s.bfieldSpherical = changeToSpherical(field)
	s.diamagnetismTerms = diamagnetismTerms(s.bfieldSpherical)
	return nil
}

func (s *SystemOne) SetBfieldEuler(field [3]float64, alpha, beta, gamma float64) error {
	return s.SetBfield(rotateVector(field, buildRotatorEuler(alpha, beta, gamma)))
}

func (s *SystemOne) SetBfieldAxes(field, toZ, toY [3]float64) error {
	r, err := buildRotatorAxes(toZ, toY)
	if err != nil {
		return errors.Wrap(err, "")
	}
	return s.SetBfield(rotateVector(field, r))
}

// EnableDiamagnetism toggles the quadratic B-field term.
func (s *SystemOne) EnableDiamagnetism(enable bool) {
	s.onParameterChange()
	s.diamagnetism = enable
}

// SetIonCharge sets the charge of a perturbing ion.
func (s *SystemOne) SetIonCharge(c int) {
	s.onParameterChange()
	s.charge = c
}

// SetRydIonOrder sets the maximum multipole order of the ion interaction.
func (s *SystemOne) SetRydIonOrder(order int) {
	s.onParameterChange()
	s.ordermax = order
}

// SetRydIonDistance sets the atom-ion distance.
func (s *SystemOne) SetRydIonDistance(d float64) {
	s.onParameterChange()
	s.distance = d
}

// SetConservedParityUnderReflection imposes reflection symmetry through the
// xz plane. Infeasible symmetry combinations are reported at basis build.
func (s *SystemOne) SetConservedParityUnderReflection(p Parity) {
	s.onBasisChange()
	s.symReflection = p
}

// SetConservedMomentaUnderRotation restricts the basis to the given
// conserved magnetic quantum numbers. Under active reflection symmetry the
// set is treated as closed under negation, since m and -m states fold into
// one basis vector.
func (s *SystemOne) SetConservedMomentaUnderRotation(r Rotation) {
	s.onBasisChange()
	s.symRotation = r
}

// changeToSpherical decomposes a field vector into its spherical components
// q = +1, 0, -1.
func changeToSpherical(field [3]float64) map[int]complex128 {
	return map[int]complex128{
		+1: complex(-field[0]/math.Sqrt2, -field[1]/math.Sqrt2),
		-1: complex(field[0]/math.Sqrt2, -field[1]/math.Sqrt2),
		0:  complex(field[2], 0),
	}
}

func diamagnetismTerms(b map[int]complex128) map[[2]int]complex128 {
	return map[[2]int]complex128{
		{0, 0}:  b[0]*b[0] - 2*b[+1]*b[-1],
		{2, 0}:  b[0]*b[0] + b[+1]*b[-1],
		{2, 1}:  b[0] * b[-1],
		{2, -1}: b[0] * b[+1],
		{2, 2}:  b[-1] * b[-1],
		{2, -2}: b[+1] * b[+1],
	}
}

////////////////////////////////////////////////////////////////////
// Basis construction
////////////////////////////////////////////////////////////////////

func (s *SystemOne) initializeBasis() error {
	if len(s.rangeN) == 0 {
		// Deriving the n range from the energy window is not possible with a
		// quantum defect model that admits arbitrarily high n.
		return errors.Wrap(ErrBasisInfinite, "no n restriction")
	}

	spin := state.NewOne(s.species, 1, 0, 0, 0).S()

	symRotation := s.symRotation
	if s.symReflection != NA {
		symRotation = symRotation.SymmetrizedUnderNegation()
	}

	idx := 0
	var basisTriplets []mat.Triplet
	var hamiltonianTriplets []mat.Triplet

	for _, n := range s.rangeN {
		ls := s.rangeL
		if len(ls) == 0 {
			ls = intRange(0, n-1)
		}
		for _, l := range ls {
			if l > n-1 || l < 0 {
				continue
			}

			js := s.rangeJ
			if len(js) == 0 {
				js = halfRange(math.Abs(float64(l)-spin), float64(l)+spin)
			}
			for _, j := range js {
				if math.Abs(j-float64(l)) > spin || j < 0 {
					continue
				}

				energy, err := s.cache.Energy(state.NewOne(s.species, n, l, j, j))
				if err != nil {
					return errors.Wrap(err, "")
				}
				if !s.checkIsEnergyValid(energy) {
					continue
				}

				ms := s.rangeM
				if len(ms) == 0 {
					ms = halfRange(-j, j)
				}

				// Intersect with the rotation symmetry.
				var allowed []float64
				for _, m := range ms {
					if symRotation.Contains(m) {
						allowed = append(allowed, m)
					}
				}

				for _, m := range allowed {
					if math.Abs(m) > j {
						continue
					}

					st := state.NewOne(s.species, n, l, j, m)

					// Check whether reflection symmetry can be realized with
					// the states available.
					if s.symReflection != NA && m != 0 && !containsFloat(allowed, -m) {
						return errors.Wrapf(ErrMissingPartner, "momentum %g", -m)
					}
					if s.realMatrices && s.symReflection != NA && m != 0 {
						return errors.Wrap(ErrComplexRequired, "reflection symmetrization of m != 0 states")
					}

					s.addSymmetrizedBasisvectors(st, &idx, energy, &basisTriplets, &hamiltonianTriplets, s.symReflection)
				}
			}
		}
	}

	if err := s.addUserStates(&idx, &basisTriplets, &hamiltonianTriplets); err != nil {
		return errors.Wrap(err, "")
	}

	s.basisvectors = mat.Zeros(len(s.states), idx)
	s.basisvectors.Data = append(s.basisvectors.Data, basisTriplets...)
	s.basisvectors.Compress()

	s.unperturbed = mat.Zeros(idx, idx)
	s.unperturbed.Data = append(s.unperturbed.Data, hamiltonianTriplets...)
	s.unperturbed.Compress()
	return nil
}

func (s *SystemOne) addUserStates(idx *int, basisTriplets, hamiltonianTriplets *[]mat.Triplet) error {
	seen := make(map[state.One]bool, len(s.statesToAdd))
	for _, st := range s.statesToAdd {
		if _, ok := s.index[st]; ok {
			return errors.Wrapf(ErrDuplicateState, "%s", st)
		}
		if seen[st] {
			return errors.Wrapf(ErrDuplicateState, "%s", st)
		}
		seen[st] = true
		if !st.Artificial {
			if st.Species != s.species {
				return errors.Wrapf(ErrWrongSpecies, "%s", st)
			}
			if err := st.Validate(); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}

	for _, st := range s.statesToAdd {
		var energy float64
		if !st.Artificial {
			var err error
			energy, err = s.cache.Energy(st)
			if err != nil {
				return errors.Wrap(err, "")
			}
		}

		// Symmetries cannot act on artificial states.
		symReflection := s.symReflection
		symRotation := s.symRotation
		if st.Artificial {
			if symReflection != NA || !symRotation.Arbitrary() {
				log.Printf("WARNING: symmetries are ignored for artificial state %s", st)
			}
			symReflection = NA
			symRotation = RotationArb()
		}
		if symReflection != NA {
			symRotation = symRotation.SymmetrizedUnderNegation()
		}

		if !symRotation.Contains(st.M) {
			continue
		}

		if symReflection != NA && st.M != 0 {
			if !seen[st.Reflected()] {
				return errors.Wrapf(ErrMissingPartner, "%s", st.Reflected())
			}
			if s.realMatrices {
				return errors.Wrap(ErrComplexRequired, "reflection symmetrization of m != 0 states")
			}
		}

		s.addSymmetrizedBasisvectors(st, idx, energy, basisTriplets, hamiltonianTriplets, symReflection)
	}
	return nil
}

// addSymmetrizedBasisvectors appends the basis vector of st, folding in its
// reflected partner when reflection symmetry is active.
func (s *SystemOne) addSymmetrizedBasisvectors(st state.One, idx *int, energy float64, basisTriplets, hamiltonianTriplets *[]mat.Triplet, symReflection Parity) {
	// In case of reflection symmetry, skip half of the basis vectors; their
	// contribution is folded into the m > 0 partner.
	if symReflection != NA && st.M < 0 {
		return
	}

	*hamiltonianTriplets = append(*hamiltonianTriplets, mat.Triplet{V: complex(energy, 0), Row: *idx, Col: *idx})

	value := complex(1, 0)
	if symReflection != NA && st.M != 0 {
		value /= complex(math.Sqrt2, 0)
	}

	row := s.addState(st)
	*basisTriplets = append(*basisTriplets, mat.Triplet{V: value, Row: row, Col: *idx})

	if symReflection != NA && st.M != 0 {
		// S_y is invariant under reflection through the xz plane.
		value *= complex(0, phaseF(float64(st.L)+st.M-st.J))
		if symReflection == Odd {
			value = -value
		}
		row := s.addState(st.Reflected())
		*basisTriplets = append(*basisTriplets, mat.Triplet{V: value, Row: row, Col: *idx})
	}

	*idx++
}

////////////////////////////////////////////////////////////////////
// Interaction construction
////////////////////////////////////////////////////////////////////

// oneTriplets collects the per-channel triplet lists of one worker.
type oneTriplets struct {
	efield       map[int][]mat.Triplet
	bfield       map[int][]mat.Triplet
	diamagnetism map[[2]int][]mat.Triplet
	multipole    map[int][]mat.Triplet
}

func newOneTriplets() *oneTriplets {
	return &oneTriplets{
		efield:       make(map[int][]mat.Triplet),
		bfield:       make(map[int][]mat.Triplet),
		diamagnetism: make(map[[2]int][]mat.Triplet),
		multipole:    make(map[int][]mat.Triplet),
	}
}

func (s *SystemOne) initializeInteraction() error {
	// Determine which tensor components became active and are not yet
	// cached.
	var erange, brange []int
	var drange [][2]int
	var orange []int
	for q := 0; q <= 1; q++ {
		if _, ok := s.interactionEfield[q]; !ok && cmplx.Abs(s.efieldSpherical[q]) > fieldTolerance {
			erange = append(erange, q)
		}
		if _, ok := s.interactionBfield[q]; !ok && cmplx.Abs(s.bfieldSpherical[q]) > fieldTolerance {
			brange = append(brange, q)
		}
	}
	for key, coeff := range s.diamagnetismTerms {
		if key[1] < 0 {
			continue
		}
		if _, ok := s.interactionDiamagnetism[key]; !ok && s.diamagnetism && cmplx.Abs(coeff) > fieldTolerance {
			drange = append(drange, key)
		}
	}
	if s.charge != 0 {
		for order := 1; order <= s.ordermax; order++ {
			if _, ok := s.interactionMultipole[order]; !ok {
				orange = append(orange, order)
			}
		}
	}
	if len(erange) == 0 && len(brange) == 0 && len(drange) == 0 && len(orange) == 0 {
		return nil
	}

	// Precalculate matrix elements. This fills the cache completely before
	// the parallel pair loop starts reading it.
	for _, q := range erange {
		if err := s.cache.PrecalculateElectricMomentum(s.states, q); err != nil {
			return errors.Wrap(err, "")
		}
		if q != 0 {
			if err := s.cache.PrecalculateElectricMomentum(s.states, -q); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	for _, q := range brange {
		if err := s.cache.PrecalculateMagneticMomentum(s.states, q); err != nil {
			return errors.Wrap(err, "")
		}
		if q != 0 {
			if err := s.cache.PrecalculateMagneticMomentum(s.states, -q); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	for _, kq := range drange {
		if err := s.cache.PrecalculateDiamagnetism(s.states, kq[0], kq[1]); err != nil {
			return errors.Wrap(err, "")
		}
		if kq[1] != 0 {
			if err := s.cache.PrecalculateDiamagnetism(s.states, kq[0], -kq[1]); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	for _, order := range orange {
		if err := s.cache.PrecalculateMultipole(s.states, order); err != nil {
			return errors.Wrap(err, "")
		}
	}

	// Calculate the interaction in the canonical basis. The pair loop is
	// parallel over columns; workers append to local triplet lists that are
	// merged in chunk order.
	numWorkers := runtime.NumCPU()
	if numWorkers > len(s.states) {
		numWorkers = max(1, len(s.states))
	}
	chunk := (len(s.states) + numWorkers - 1) / max(1, numWorkers)
	locals := make([]*oneTriplets, numWorkers)
	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(s.states))
		locals[w] = newOneTriplets()
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = s.interactionColumns(locals[w], lo, hi, erange, brange, drange, orange)
		}(w, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Wrap(err, "")
		}
	}

	merged := newOneTriplets()
	for _, l := range locals {
		for q, ts := range l.efield {
			merged.efield[q] = append(merged.efield[q], ts...)
		}
		for q, ts := range l.bfield {
			merged.bfield[q] = append(merged.bfield[q], ts...)
		}
		for kq, ts := range l.diamagnetism {
			merged.diamagnetism[kq] = append(merged.diamagnetism[kq], ts...)
		}
		for o, ts := range l.multipole {
			merged.multipole[o] = append(merged.multipole[o], ts...)
		}
	}

	// Build and transform the operators into the symmetrized basis.
	for _, q := range erange {
		op := s.buildOperator(merged.efield[q], q == 0)
		s.interactionEfield[q] = op
		if q != 0 {
			s.interactionEfield[-q] = adjointComponent(op, q)
		}
	}
	for _, q := range brange {
		op := s.buildOperator(merged.bfield[q], q == 0)
		s.interactionBfield[q] = op
		if q != 0 {
			s.interactionBfield[-q] = adjointComponent(op, q)
		}
	}
	for _, kq := range drange {
		op := s.buildOperator(merged.diamagnetism[kq], kq[1] == 0)
		s.interactionDiamagnetism[kq] = op
		if kq[1] != 0 {
			s.interactionDiamagnetism[[2]int{kq[0], -kq[1]}] = adjointComponent(op, kq[1])
		}
	}
	for _, order := range orange {
		s.interactionMultipole[order] = s.buildOperator(merged.multipole[order], false)
	}
	return nil
}

// interactionColumns runs the pair loop for the columns [lo, hi).
func (s *SystemOne) interactionColumns(out *oneTriplets, lo, hi int, erange, brange []int, drange [][2]int, orange []int) error {
	for cIdx := lo; cIdx < hi; cIdx++ {
		c := s.states[cIdx]
		if c.Artificial {
			continue
		}
		for rIdx, r := range s.states {
			if r.Artificial {
				continue
			}

			// E-field interaction.
			for _, q := range erange {
				if q == 0 && rIdx < cIdx {
					continue
				}
				if state.SelectionRulesMultipoleQ(r, c, 1, q) {
					v, err := s.cache.ElectricDipole(r, c)
					if err != nil {
						return errors.Wrap(err, "")
					}
					out.efield[q] = append(out.efield[q], mat.Triplet{V: complex(v, 0), Row: rIdx, Col: cIdx})
					// The selection rule on the magnetic quantum numbers can
					// hold for at most one component.
					break
				}
			}

			// B-field interaction.
			for _, q := range brange {
				if q == 0 && rIdx < cIdx {
					continue
				}
				if state.SelectionRulesMomentum(r, c, q) {
					v, err := s.cache.MagneticDipole(r, c)
					if err != nil {
						return errors.Wrap(err, "")
					}
					out.bfield[q] = append(out.bfield[q], mat.Triplet{V: complex(v, 0), Row: rIdx, Col: cIdx})
					break
				}
			}

			// Diamagnetic interaction.
			for _, kq := range drange {
				if kq[1] == 0 && rIdx < cIdx {
					continue
				}
				if state.SelectionRulesMultipoleQ(r, c, kq[0], kq[1]) {
					v, err := s.cache.Diamagnetism(r, c, kq[0])
					if err != nil {
						return errors.Wrap(err, "")
					}
					v /= 8 * electronRestMass
					out.diamagnetism[kq] = append(out.diamagnetism[kq], mat.Triplet{V: complex(v, 0), Row: rIdx, Col: cIdx})
				}
			}

			// Multipole interaction with an ion conserves the total momentum.
			if s.charge != 0 && r.M == c.M {
				for _, order := range orange {
					if state.SelectionRulesMultipole(r, c, order) {
						v, err := s.cache.ElectricMultipole(r, c, order)
						if err != nil {
							return errors.Wrap(err, "")
						}
						v *= -coulombsConstant * elementaryCharge
						out.multipole[order] = append(out.multipole[order], mat.Triplet{V: complex(v, 0), Row: rIdx, Col: cIdx})
					}
				}
			}
		}
	}
	return nil
}

// buildOperator assembles triplets into a canonical-basis operator and
// transforms it into the symmetrized basis. Operators accumulated as a lower
// triangle are completed to their self-adjoint form first.
func (s *SystemOne) buildOperator(triplets []mat.Triplet, lowerTriangle bool) *mat.COO {
	op := mat.Zeros(len(s.states), len(s.states))
	op.Data = append(op.Data, triplets...)
	op.Compress()
	if lowerTriangle {
		op = op.SelfAdjointLower()
	}
	return mat.Transform(s.basisvectors, op)
}

// adjointComponent derives the -q tensor component, (-1)^q op†.
func adjointComponent(op *mat.COO, q int) *mat.COO {
	a := op.Adjoint()
	if q%2 != 0 {
		a.Scale(-1)
	}
	return a
}

////////////////////////////////////////////////////////////////////
// Hamiltonian assembly
////////////////////////////////////////////////////////////////////

func (s *SystemOne) addInteraction() error {
	addIf := func(coeff complex128, op *mat.COO) {
		if cmplx.Abs(coeff) > fieldTolerance {
			s.hamiltonian.Add(coeff, op)
		}
	}

	addIf(-s.efieldSpherical[0], s.interactionEfield[0])
	addIf(s.efieldSpherical[-1], s.interactionEfield[+1])
	addIf(s.efieldSpherical[+1], s.interactionEfield[-1])

	addIf(-s.bfieldSpherical[0], s.interactionBfield[0])
	addIf(s.bfieldSpherical[-1], s.interactionBfield[+1])
	addIf(s.bfieldSpherical[+1], s.interactionBfield[-1])

	if s.diamagnetism {
		addIf(s.diamagnetismTerms[[2]int{0, 0}], s.interactionDiamagnetism[[2]int{0, 0}])
		addIf(-s.diamagnetismTerms[[2]int{2, 0}], s.interactionDiamagnetism[[2]int{2, 0}])
		addIf(s.diamagnetismTerms[[2]int{2, 1}]*complex(math.Sqrt(3), 0), s.interactionDiamagnetism[[2]int{2, 1}])
		addIf(s.diamagnetismTerms[[2]int{2, -1}]*complex(math.Sqrt(3), 0), s.interactionDiamagnetism[[2]int{2, -1}])
		addIf(-s.diamagnetismTerms[[2]int{2, 2}]*complex(math.Sqrt(1.5), 0), s.interactionDiamagnetism[[2]int{2, 2}])
		addIf(-s.diamagnetismTerms[[2]int{2, -2}]*complex(math.Sqrt(1.5), 0), s.interactionDiamagnetism[[2]int{2, -2}])
	}

	if s.charge != 0 && !math.IsInf(s.distance, 1) {
		for order := 1; order <= s.ordermax; order++ {
			powerlaw := 1 / math.Pow(s.distance, float64(order+1))
			addIf(complex(float64(s.charge)*powerlaw, 0), s.interactionMultipole[order])
		}
	}
	return nil
}

func (s *SystemOne) transformInteraction(tr *mat.COO) {
	for q, op := range s.interactionEfield {
		s.interactionEfield[q] = mat.Transform(tr, op)
	}
	for q, op := range s.interactionBfield {
		s.interactionBfield[q] = mat.Transform(tr, op)
	}
	for kq, op := range s.interactionDiamagnetism {
		s.interactionDiamagnetism[kq] = mat.Transform(tr, op)
	}
	for o, op := range s.interactionMultipole {
		s.interactionMultipole[o] = mat.Transform(tr, op)
	}
}

func (s *SystemOne) deleteInteraction() {
	s.interactionEfield = make(map[int]*mat.COO)
	s.interactionBfield = make(map[int]*mat.COO)
	s.interactionDiamagnetism = make(map[[2]int]*mat.COO)
	s.interactionMultipole = make(map[int]*mat.COO)
}

////////////////////////////////////////////////////////////////////
// State rotation
////////////////////////////////////////////////////////////////////

// addRotated appends the Wigner-D expansion of st, rotated by the Euler
// angles, as column col.
func (s *SystemOne) addRotated(st state.One, col int, triplets *[]mat.Triplet, alpha, beta, gamma float64) {
	if st.Artificial {
		if row, ok := s.index[st]; ok {
			*triplets = append(*triplets, mat.Triplet{V: 1, Row: row, Col: col})
		}
		return
	}
	for mp := -st.J; mp <= st.J+1e-9; mp++ {
		v := wigner.D(st.J, mp, st.M, alpha, beta, gamma)
		if cmplx.Abs(v) < 1e-16 {
			continue
		}
		partner := state.NewOne(st.Species, st.N, st.L, st.J, mp)
		if row, ok := s.index[partner]; ok {
			*triplets = append(*triplets, mat.Triplet{V: v, Row: row, Col: col})
		}
	}
}

// RotateStates expands the given canonical states in the basis rotated by
// the Euler angles. Column i of the result is the rotated states[indices[i]].
func (s *SystemOne) RotateStates(indices []int, alpha, beta, gamma float64) (*mat.COO, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	var triplets []mat.Triplet
	for col, idx := range indices {
		if idx < 0 || idx >= len(s.states) {
			return nil, errors.Errorf("state index %d out of range", idx)
		}
		s.addRotated(s.states[idx], col, &triplets, alpha, beta, gamma)
	}

	rotated := mat.Zeros(len(s.states), len(indices))
	rotated.Data = append(rotated.Data, triplets...)
	rotated.Compress()
	return rotated, nil
}

// buildStaterotator returns the sparse Wigner-D rotation operator over the
// canonical basis.
func (s *SystemOne) buildStaterotator(alpha, beta, gamma float64) (*mat.COO, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	var triplets []mat.Triplet
	for idx, st := range s.states {
		s.addRotated(st, idx, &triplets, alpha, beta, gamma)
	}

	rotator := mat.Zeros(len(s.states), len(s.states))
	rotator.Data = append(rotator.Data, triplets...)
	rotator.Compress()
	return rotator, nil
}

// OverlapRotated returns the per-basis-vector overlap with st as seen from a
// frame rotated by the Euler angles.
func (s *SystemOne) OverlapRotated(st state.One, alpha, beta, gamma float64) ([]float64, error) {
	if err := s.buildBasis(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if _, ok := s.index[st]; !ok {
		return nil, errors.Errorf("state %s is not in the basis", st)
	}

	var triplets []mat.Triplet
	s.addRotated(st, 0, &triplets, alpha, beta, gamma)
	rotated := make(map[int]complex128, len(triplets))
	for _, t := range triplets {
		rotated[t.Row] = t.V
	}

	amps := make([]complex128, s.basisvectors.Cols())
	for _, t := range s.basisvectors.Data {
		if w, ok := rotated[t.Row]; ok {
			amps[t.Col] += cmplx.Conj(w) * t.V
		}
	}
	overlaps := make([]float64, len(amps))
	for i, a := range amps {
		overlaps[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return overlaps, nil
}

////////////////////////////////////////////////////////////////////
// System combination
////////////////////////////////////////////////////////////////////

// Incorporate merges the physical parameters of another one-atom system into
// this one, in preparation for combining both into a two-atom system.
// Scalar parameters must match exactly; symmetries are merged conservatively
// and cached interactions are invalidated.
func (s *SystemOne) Incorporate(other *SystemOne) error {
	if s.species != other.species {
		return errors.Wrap(ErrParameterMismatch, "species")
	}
	if s.efield != other.efield {
		return errors.Wrap(ErrParameterMismatch, "efield")
	}
	if s.bfield != other.bfield {
		return errors.Wrap(ErrParameterMismatch, "bfield")
	}
	if s.diamagnetism != other.diamagnetism {
		return errors.Wrap(ErrParameterMismatch, "diamagnetism")
	}

	numDifferent := 0
	if s.symReflection != other.symReflection {
		s.symReflection = NA
		numDifferent++
	}
	if !s.symRotation.Equal(other.symRotation) {
		s.symRotation = s.symRotation.Union(other.symRotation)
		numDifferent++
	}
	if numDifferent > 1 {
		log.Printf("WARNING: the systems differ in more than one symmetry, the notion of symmetries might be meaningless for the combined system")
	}

	s.deleteInteraction()
	s.hamiltonianDirty = true
	s.diagonalized = false
	return nil
}

// phaseF returns (-1)^n for integer-valued n.
func phaseF(n float64) float64 {
	if int(math.Round(n))%2 == 0 {
		return 1
	}
	return -1
}
