// Package cache computes and stores the physical matrix elements that the
// interaction builders consume: quantum-defect state energies, electric
// multipole, magnetic dipole and diamagnetic elements.
//
// Elements are derived from a quasiclassical radial approximation and exact
// angular momentum algebra; the full radial wavefunction solver is outside
// this module. Computed values are memoized in memory and optionally written
// through to a sqlite database so that precalculated element sets survive
// across processes.
//
// The Precalculate methods fill the cache for a basis slice and must complete
// before concurrent readers start; afterwards the scalar getters are safe for
// concurrent use.
package cache

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/SimonHollerith/pairinteraction/state"
)

// Operator methods stored in the cache.
const (
	methodElectric = iota
	methodMagnetic
	methodDiamagnetic
)

type stateKey struct {
	species string
	n       int
	l       int
	j2      int
	m2      int
}

type elemKey struct {
	method int
	kappa  int
	row    stateKey
	col    stateKey
}

// Cache is a memoizing matrix element source.
type Cache struct {
	mu       sync.RWMutex
	energies map[stateKey]float64
	elements map[elemKey]float64

	db *elementDB
}

// New returns an in-memory cache.
func New() *Cache {
	return &Cache{
		energies: make(map[stateKey]float64),
		elements: make(map[elemKey]float64),
	}
}

// NewWithDB returns a cache that persists computed elements to a sqlite
// database at dbPath.
func NewWithDB(dbPath string) (*Cache, error) {
	db, err := newElementDB(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	c := New()
	c.db = db
	return c, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func key(s state.One) stateKey {
	return stateKey{
		species: s.Species,
		n:       s.N,
		l:       s.L,
		j2:      int(math.Round(2 * s.J)),
		m2:      int(math.Round(2 * s.M)),
	}
}

// Energy returns the unperturbed energy of a state in atomic units.
func (c *Cache) Energy(s state.One) (float64, error) {
	if s.Artificial {
		return 0, nil
	}
	k := key(s)

	c.mu.RLock()
	e, ok := c.energies[k]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	e, err := EnergyLevel(s)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	c.mu.Lock()
	c.energies[k] = e
	c.mu.Unlock()
	return e, nil
}

// ElectricMultipole returns <row| r^kappa C^kappa_q |col> with q determined
// by the magnetic quantum numbers.
func (c *Cache) ElectricMultipole(row, col state.One, kappa int) (float64, error) {
	return c.element(elemKey{method: methodElectric, kappa: kappa, row: key(row), col: key(col)}, row, col)
}

// ElectricDipole returns the dipole element, the order-1 multipole.
func (c *Cache) ElectricDipole(row, col state.One) (float64, error) {
	return c.ElectricMultipole(row, col, 1)
}

// MagneticDipole returns <row| -mu_q |col> for the magnetic dipole moment
// mu = -mu_B (g_l L + g_s S).
func (c *Cache) MagneticDipole(row, col state.One) (float64, error) {
	return c.element(elemKey{method: methodMagnetic, kappa: 1, row: key(row), col: key(col)}, row, col)
}

// Diamagnetism returns the rank-k tensor component of the r^2 diamagnetic
// element, k in {0, 2}.
func (c *Cache) Diamagnetism(row, col state.One, k int) (float64, error) {
	return c.element(elemKey{method: methodDiamagnetic, kappa: k, row: key(row), col: key(col)}, row, col)
}

func (c *Cache) element(k elemKey, row, col state.One) (float64, error) {
	c.mu.RLock()
	v, ok := c.elements[k]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	if c.db != nil {
		v, ok, err := c.db.get(k)
		if err != nil {
			return 0, errors.Wrap(err, "")
		}
		if ok {
			c.mu.Lock()
			c.elements[k] = v
			c.mu.Unlock()
			return v, nil
		}
	}

	v, err := compute(k.method, k.kappa, row, col)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}

	c.mu.Lock()
	c.elements[k] = v
	c.mu.Unlock()
	if c.db != nil {
		if err := c.db.put(k, v); err != nil {
			return 0, errors.Wrap(err, "")
		}
	}
	return v, nil
}

func compute(method, kappa int, row, col state.One) (float64, error) {
	switch method {
	case methodElectric:
		rad, err := radialElement(row, col, kappa)
		if err != nil {
			return 0, errors.Wrap(err, "")
		}
		return rad * angularMultipole(row, col, kappa), nil
	case methodMagnetic:
		if row.N != col.N || row.L != col.L {
			return 0, nil
		}
		return -muB * angularMomentum(row, col), nil
	case methodDiamagnetic:
		rad, err := radialElement(row, col, 2)
		if err != nil {
			return 0, errors.Wrap(err, "")
		}
		return rad * angularMultipole(row, col, kappa), nil
	default:
		return 0, errors.Errorf("unknown method %d", method)
	}
}

// radialElement estimates <row| r^kappa |col> quasiclassically over the
// effective quantum numbers: the classical orbit radius scales as n*^2 and
// off-diagonal elements fall off with the effective detuning.
func radialElement(row, col state.One, kappa int) (float64, error) {
	nu1, err := NStar(row)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	nu2, err := NStar(col)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}

	nc := math.Sqrt(nu1 * nu2)
	dnu := math.Abs(nu1 - nu2)
	amp := math.Pow(1.5*nc*nc, float64(kappa))
	damp := 1 / math.Pow(1+dnu, 3)
	return amp * damp, nil
}

// PrecalculateElectricMomentum fills the dipole elements of the q component
// for all coupled pairs in states.
func (c *Cache) PrecalculateElectricMomentum(states []state.One, q int) error {
	return c.precalculate(states, methodElectric, 1, q)
}

// PrecalculateMagneticMomentum fills the magnetic dipole elements of the q
// component.
func (c *Cache) PrecalculateMagneticMomentum(states []state.One, q int) error {
	return c.precalculate(states, methodMagnetic, 1, q)
}

// PrecalculateDiamagnetism fills the rank-k, component-q diamagnetic
// elements.
func (c *Cache) PrecalculateDiamagnetism(states []state.One, k, q int) error {
	return c.precalculate(states, methodDiamagnetic, k, q)
}

// PrecalculateMultipole fills the multipole elements of the given order for
// every coupled pair, all tensor components.
func (c *Cache) PrecalculateMultipole(states []state.One, order int) error {
	for _, col := range states {
		if col.Artificial {
			continue
		}
		for _, row := range states {
			if row.Artificial {
				continue
			}
			if !state.SelectionRulesMultipole(row, col, order) {
				continue
			}
			k := elemKey{method: methodElectric, kappa: order, row: key(row), col: key(col)}
			if _, err := c.element(k, row, col); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	return nil
}

func (c *Cache) precalculate(states []state.One, method, kappa, q int) error {
	for _, col := range states {
		if col.Artificial {
			continue
		}
		for _, row := range states {
			if row.Artificial {
				continue
			}

			coupled := false
			switch method {
			case methodMagnetic:
				coupled = state.SelectionRulesMomentum(row, col, q)
			default:
				coupled = state.SelectionRulesMultipoleQ(row, col, kappa, q)
			}
			if !coupled {
				continue
			}

			k := elemKey{method: method, kappa: kappa, row: key(row), col: key(col)}
			if _, err := c.element(k, row, col); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	return nil
}
