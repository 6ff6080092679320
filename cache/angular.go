package cache

import (
	"math"

	"github.com/SimonHollerith/pairinteraction/state"
	"github.com/SimonHollerith/pairinteraction/wigner"
)

const (
	// Bohr magneton in atomic units.
	muB = 0.5
	gL  = 1.0
	gS  = 2.0023193043622
)

// angularMultipole returns the angular factor of the rank-kappa spherical
// multipole element <r| C^kappa_q |c>, with q fixed by the magnetic quantum
// numbers. The Wigner-Eckart theorem splits the element into a 3j symbol for
// the orientation and a reduced element recoupled through a 6j symbol.
func angularMultipole(r, c state.One, kappa int) float64 {
	s := r.S()
	q := r.M - c.M
	k := float64(kappa)

	w3 := wigner.Wigner3j(r.J, k, c.J, -r.M, q, c.M)
	if w3 == 0 {
		return 0
	}

	lr, lc := float64(r.L), float64(c.L)
	// Reduced element <l_r || C^kappa || l_c>.
	redC := phase(lr) * math.Sqrt((2*lr+1)*(2*lc+1)) * wigner.Wigner3j(lr, k, lc, 0, 0, 0)
	red := phase(lr+s+c.J+k) * math.Sqrt((2*r.J+1)*(2*c.J+1)) *
		wigner.Wigner6j(r.J, k, c.J, lc, s, lr) * redC

	return phase(r.J-r.M) * w3 * red
}

// angularMomentum returns <r| g_l L_q + g_s S_q |c> within an orbital
// momentum manifold, in units of hbar.
func angularMomentum(r, c state.One) float64 {
	if r.L != c.L {
		return 0
	}
	s := r.S()
	l := float64(r.L)
	q := r.M - c.M

	w3 := wigner.Wigner3j(r.J, 1, c.J, -r.M, q, c.M)
	if w3 == 0 {
		return 0
	}

	common := math.Sqrt((2*r.J + 1) * (2*c.J + 1))
	redL := phase(l+s+r.J+1) * common *
		math.Sqrt(l*(l+1)*(2*l+1)) * wigner.Wigner6j(l, r.J, s, c.J, l, 1)
	redS := phase(l+s+c.J+1) * common *
		math.Sqrt(s*(s+1)*(2*s+1)) * wigner.Wigner6j(s, r.J, l, c.J, s, 1)

	return phase(r.J-r.M) * w3 * (gL*redL + gS*redS)
}

// phase returns (-1)^n for integer-valued n.
func phase(n float64) float64 {
	if int(math.Round(n))%2 == 0 {
		return 1
	}
	return -1
}
