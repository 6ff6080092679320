package cache

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonHollerith/pairinteraction/state"
)

func TestNStar(t *testing.T) {
	t.Parallel()
	// Alkali defects shift n* below n; hydrogen and high-l states are
	// hydrogenic.
	s, err := NStar(state.NewOne("Rb", 70, 0, 0.5, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, 70-3.1312, s, 1e-3)

	d, err := NStar(state.NewOne("Rb", 70, 2, 2.5, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, 70-1.3465, d, 1e-3)

	h, err := NStar(state.NewOne("H", 70, 5, 5.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, 70.0, h)

	hi, err := NStar(state.NewOne("Rb", 70, 10, 10.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, 70.0, hi)

	_, err = NStar(state.NewOne("Xx", 70, 0, 0.5, 0.5))
	assert.Error(t, err)
}

func TestEnergy(t *testing.T) {
	t.Parallel()
	c := New()

	e70, err := c.Energy(state.NewOne("Rb", 70, 0, 0.5, 0.5))
	require.NoError(t, err)
	e71, err := c.Energy(state.NewOne("Rb", 71, 0, 0.5, 0.5))
	require.NoError(t, err)

	assert.Less(t, e70, 0.0)
	assert.Less(t, e70, e71, "binding decreases with n")

	// The s series is more deeply bound than the hydrogenic value.
	nstar := 70 - 3.1312
	assert.InDelta(t, -0.5/(nstar*nstar), e70, 1e-8)

	// Artificial states sit at zero energy.
	ea, err := c.Energy(state.NewArtificial("v"))
	require.NoError(t, err)
	assert.Zero(t, ea)
}

func TestElectricDipole(t *testing.T) {
	t.Parallel()
	c := New()
	a := state.NewOne("Rb", 70, 0, 0.5, 0.5)
	b := state.NewOne("Rb", 70, 1, 1.5, 0.5)

	v, err := c.ElectricDipole(b, a)
	require.NoError(t, err)
	assert.NotZero(t, v)

	// The operator r C^1_0 is Hermitian with real elements.
	w, err := c.ElectricDipole(a, b)
	require.NoError(t, err)
	assert.InDelta(t, v, w, 1e-9*math.Abs(v))

	// Forbidden by parity: dipole cannot connect equal l.
	f, err := c.ElectricDipole(a, state.NewOne("Rb", 71, 0, 0.5, 0.5))
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestMagneticDipole(t *testing.T) {
	t.Parallel()
	c := New()
	a := state.NewOne("Rb", 70, 1, 1.5, 0.5)
	b := state.NewOne("Rb", 70, 1, 0.5, 0.5)

	v, err := c.MagneticDipole(a, b)
	require.NoError(t, err)
	assert.NotZero(t, v)

	w, err := c.MagneticDipole(b, a)
	require.NoError(t, err)
	assert.InDelta(t, v, w, 1e-9*math.Abs(v))

	// The magnetic moment cannot change n or l.
	f, err := c.MagneticDipole(a, state.NewOne("Rb", 71, 1, 1.5, 0.5))
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestDiamagnetism(t *testing.T) {
	t.Parallel()
	c := New()
	a := state.NewOne("Rb", 70, 0, 0.5, 0.5)

	// The scalar rank-0 component has a nonzero diagonal.
	v0, err := c.Diamagnetism(a, a, 0)
	require.NoError(t, err)
	assert.NotZero(t, v0)

	// The rank-2 component couples l to l+2.
	b := state.NewOne("Rb", 70, 2, 2.5, 0.5)
	v2, err := c.Diamagnetism(b, a, 2)
	require.NoError(t, err)
	assert.NotZero(t, v2)
}

func TestRadialScaling(t *testing.T) {
	t.Parallel()
	// Dipole elements grow as n*^2.
	lo, err := radialElement(state.NewOne("H", 30, 0, 0.5, 0.5), state.NewOne("H", 30, 1, 1.5, 0.5), 1)
	require.NoError(t, err)
	hi, err := radialElement(state.NewOne("H", 60, 0, 0.5, 0.5), state.NewOne("H", 60, 1, 1.5, 0.5), 1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, hi/lo, 1e-9)
}

func TestPrecalculate(t *testing.T) {
	t.Parallel()
	c := New()
	states := []state.One{
		state.NewOne("Rb", 70, 0, 0.5, 0.5),
		state.NewOne("Rb", 70, 1, 0.5, 0.5),
		state.NewOne("Rb", 70, 1, 1.5, 0.5),
		state.NewOne("Rb", 70, 1, 1.5, 1.5),
		state.NewArtificial("v"),
	}
	require.NoError(t, c.PrecalculateElectricMomentum(states, 0))
	require.NoError(t, c.PrecalculateElectricMomentum(states, 1))
	require.NoError(t, c.PrecalculateMagneticMomentum(states, 0))
	require.NoError(t, c.PrecalculateDiamagnetism(states, 2, 0))
	require.NoError(t, c.PrecalculateMultipole(states, 2))

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.NotEmpty(t, c.elements)
}

func TestDBRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "elements.db")
	a := state.NewOne("Rb", 70, 0, 0.5, 0.5)
	b := state.NewOne("Rb", 70, 1, 1.5, 0.5)

	c1, err := NewWithDB(path)
	require.NoError(t, err)
	v, err := c1.ElectricDipole(b, a)
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	// A fresh cache reads the persisted element instead of recomputing.
	c2, err := NewWithDB(path)
	require.NoError(t, err)
	defer c2.Close()
	w, err := c2.ElectricDipole(b, a)
	require.NoError(t, err)
	assert.Equal(t, v, w)
}
