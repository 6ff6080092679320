package cache

import (
	"math"

	"github.com/pkg/errors"

	"github.com/SimonHollerith/pairinteraction/state"
)

// defectKey selects a Rydberg-Ritz series: orbital momentum and twice the
// total momentum.
type defectKey struct {
	l  int
	j2 int
}

// ritz holds the leading Rydberg-Ritz coefficients delta_0, delta_2, delta_4
// of the quantum defect series
//
//	delta(n) = delta_0 + delta_2/(n-delta_0)^2 + delta_4/(n-delta_0)^4.
type ritz struct {
	d0 float64
	d2 float64
	d4 float64
}

// Quantum defects of the low-l series. Higher l is treated as hydrogenic
// (zero defect). Values from the spectroscopy literature on alkali Rydberg
// series.
var quantumDefects = map[string]map[defectKey]ritz{
	"Rb": {
		{0, 1}: {3.1311804, 0.1784, 0},
		{1, 1}: {2.6548849, 0.2900, 0},
		{1, 3}: {2.6416737, 0.2950, 0},
		{2, 3}: {1.34809171, -0.60286, 0},
		{2, 5}: {1.34646572, -0.59600, 0},
		{3, 5}: {0.0165192, -0.085, 0},
		{3, 7}: {0.0165437, -0.086, 0},
	},
	"Cs": {
		{0, 1}: {4.0493532, 0.2391, 0},
		{1, 1}: {3.5915871, 0.36273, 0},
		{1, 3}: {3.5590676, 0.37469, 0},
		{2, 3}: {2.4754562, 0.00932, 0},
		{2, 5}: {2.4663144, 0.01381, 0},
		{3, 5}: {0.0334100, -0.198674, 0},
		{3, 7}: {0.0335370, -0.191000, 0},
	},
	"Li": {
		{0, 1}: {0.3995101, 0.029, 0},
		{1, 1}: {0.0471835, -0.024, 0},
		{1, 3}: {0.0471720, -0.024, 0},
		{2, 3}: {0.002129, 0, 0},
		{2, 5}: {0.002129, 0, 0},
	},
	"H": {},
}

// NStar returns the effective principal quantum number n - delta(n, l, j).
func NStar(s state.One) (float64, error) {
	series, ok := quantumDefects[s.Species]
	if !ok {
		return 0, errors.Errorf("no quantum defect data for species %q", s.Species)
	}

	var d float64
	if r, ok := series[defectKey{l: s.L, j2: int(math.Round(2 * s.J))}]; ok {
		n0 := float64(s.N) - r.d0
		d = r.d0 + r.d2/(n0*n0) + r.d4/(n0*n0*n0*n0)
	}
	return float64(s.N) - d, nil
}

// EnergyLevel returns the unperturbed state energy -1/(2 n*^2) in atomic
// units.
func EnergyLevel(s state.One) (float64, error) {
	nstar, err := NStar(s)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return -0.5 / (nstar * nstar), nil
}
