package state

import "math"

// SelectionRulesMultipole reports whether two states can couple through a
// rank-kappa electric multipole operator: the orbital momenta must differ by
// at most kappa with matching parity, and the total momenta must satisfy the
// triangle condition.
func SelectionRulesMultipole(r, c One, kappa int) bool {
	validL := abs(r.L-c.L) <= kappa && (kappa%2 == 0) == ((r.L+c.L)%2 == 0)
	validJ := math.Abs(r.J-c.J) <= float64(kappa) && r.J+c.J >= float64(kappa)
	validM := math.Abs(r.M-c.M) <= float64(kappa)
	return validL && validJ && validM
}

// SelectionRulesMultipoleQ additionally fixes the spherical component q.
func SelectionRulesMultipoleQ(r, c One, kappa, q int) bool {
	return float64(q) == r.M-c.M && SelectionRulesMultipole(r, c, kappa)
}

// SelectionRulesMomentum reports whether two states can couple through the
// q component of the magnetic dipole operator, which acts only within an
// orbital momentum manifold.
func SelectionRulesMomentum(r, c One, q int) bool {
	validL := r.L == c.L
	validJ := math.Abs(r.J-c.J) <= 1
	validM := r.M == c.M+float64(q)
	validQ := abs(q) <= 1
	return validL && validJ && validM && validQ
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
