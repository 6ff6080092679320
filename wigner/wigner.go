// Package wigner provides angular momentum coupling coefficients: Wigner 3j
// and 6j symbols and Wigner D rotation matrix elements. Half-integer angular
// momenta are passed as float64 (e.g. j = 1.5).
//
// Arguments violating the selection rules yield 0, not an error, mirroring
// the mathematical convention.
package wigner

import (
	"math"
)

// Wigner3j returns the Wigner 3j symbol (j1 j2 j3; m1 m2 m3) computed with
// the Racah sum formula in log space, which stays finite for the large
// angular momenta of Rydberg states.
func Wigner3j(j1, j2, j3, m1, m2, m3 float64) float64 {
	if !isTriangle(j1, j2, j3) {
		return 0
	}
	if m1+m2+m3 != 0 {
		return 0
	}
	if math.Abs(m1) > j1 || math.Abs(m2) > j2 || math.Abs(m3) > j3 {
		return 0
	}
	if !isInt(j1+m1) || !isInt(j2+m2) || !isInt(j3+m3) {
		return 0
	}

	logPrefactor := 0.5 * (logDelta(j1, j2, j3) +
		logFact(j1+m1) + logFact(j1-m1) +
		logFact(j2+m2) + logFact(j2-m2) +
		logFact(j3+m3) + logFact(j3-m3))

	tMin := max3(0, j2-j3-m1, j1-j3+m2)
	tMax := min3(j1+j2-j3, j1-m1, j2+m2)

	var sum float64
	for t := tMin; t <= tMax+0.5; t++ {
		logTerm := logPrefactor -
			logFact(t) -
			logFact(j3-j2+t+m1) -
			logFact(j3-j1+t-m2) -
			logFact(j1+j2-j3-t) -
			logFact(j1-t-m1) -
			logFact(j2-t+m2)
		sum += phase(t) * math.Exp(logTerm)
	}

	return phase(j1-j2-m3) * sum
}

// Wigner6j returns the Wigner 6j symbol {j1 j2 j3; j4 j5 j6}.
func Wigner6j(j1, j2, j3, j4, j5, j6 float64) float64 {
	if !isTriangle(j1, j2, j3) || !isTriangle(j1, j5, j6) ||
		!isTriangle(j4, j2, j6) || !isTriangle(j4, j5, j3) {
		return 0
	}

	logPrefactor := 0.5 * (logDelta(j1, j2, j3) + logDelta(j1, j5, j6) +
		logDelta(j4, j2, j6) + logDelta(j4, j5, j3))

	tMin := max4(j1+j2+j3, j1+j5+j6, j4+j2+j6, j4+j5+j3)
	tMax := min3(j1+j2+j4+j5, j2+j3+j5+j6, j3+j1+j6+j4)

	var sum float64
	for t := tMin; t <= tMax+0.5; t++ {
		logTerm := logPrefactor + logFact(t+1) -
			logFact(t-j1-j2-j3) -
			logFact(t-j1-j5-j6) -
			logFact(t-j4-j2-j6) -
			logFact(t-j4-j5-j3) -
			logFact(j1+j2+j4+j5-t) -
			logFact(j2+j3+j5+j6-t) -
			logFact(j3+j1+j6+j4-t)
		sum += phase(t) * math.Exp(logTerm)
	}

	return sum
}

// SmallD returns the Wigner small-d matrix element d^j_{mp,m}(beta).
func SmallD(j, mp, m, beta float64) float64 {
	if math.Abs(mp) > j || math.Abs(m) > j {
		return 0
	}
	if !isInt(j+mp) || !isInt(j+m) {
		return 0
	}

	logPrefactor := 0.5 * (logFact(j+m) + logFact(j-m) + logFact(j+mp) + logFact(j-mp))

	cos := math.Cos(beta / 2)
	sin := math.Sin(beta / 2)

	kMin := math.Max(0, m-mp)
	kMax := math.Min(j+m, j-mp)

	var sum float64
	for k := kMin; k <= kMax+0.5; k++ {
		logTerm := logPrefactor -
			logFact(j+m-k) - logFact(k) - logFact(j-k-mp) - logFact(k-m+mp)
		term := math.Exp(logTerm) *
			math.Pow(cos, 2*j-2*k+m-mp) *
			math.Pow(sin, 2*k-m+mp)
		sum += phase(k-m+mp) * term
	}

	return sum
}

// D returns the Wigner D matrix element
// D^j_{mp,m}(alpha, beta, gamma) = exp(-i mp alpha) d^j_{mp,m}(beta) exp(-i m gamma).
func D(j, mp, m, alpha, beta, gamma float64) complex128 {
	d := SmallD(j, mp, m, beta)
	if d == 0 {
		return 0
	}
	phi := -mp*alpha - m*gamma
	return complex(d*math.Cos(phi), d*math.Sin(phi))
}

func isTriangle(a, b, c float64) bool {
	if c < math.Abs(a-b) || c > a+b {
		return false
	}
	return isInt(a + b + c)
}

func isInt(x float64) bool {
	return math.Abs(x-math.Round(x)) < 1e-9
}

// phase returns (-1)^n for integer-valued n.
func phase(n float64) float64 {
	if int(math.Round(n))%2 == 0 {
		return 1
	}
	return -1
}

// logFact returns log(n!). Negative arguments mark vanishing sum terms and
// map to +Inf so that exp(-logFact) is 0.
func logFact(n float64) float64 {
	r := math.Round(n)
	if r < 0 {
		return math.Inf(1)
	}
	v, _ := math.Lgamma(r + 1)
	return v
}

func logDelta(a, b, c float64) float64 {
	return logFact(a+b-c) + logFact(a-b+c) + logFact(-a+b+c) - logFact(a+b+c+1)
}

func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max4(a, b, c, d float64) float64 {
	return math.Max(math.Max(a, b), math.Max(c, d))
}
