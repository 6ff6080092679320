package pairinteraction

import (
	"math"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"
)

// buildRotatorEuler returns the 3x3 rotation matrix R_z(alpha) R_y(beta)
// R_z(gamma).
func buildRotatorEuler(alpha, beta, gamma float64) *gmat.Dense {
	rz := func(a float64) *gmat.Dense {
		return gmat.NewDense(3, 3, []float64{
			math.Cos(a), -math.Sin(a), 0,
			math.Sin(a), math.Cos(a), 0,
			0, 0, 1,
		})
	}
	ry := gmat.NewDense(3, 3, []float64{
		math.Cos(beta), 0, math.Sin(beta),
		0, 1, 0,
		-math.Sin(beta), 0, math.Cos(beta),
	})

	var r gmat.Dense
	r.Mul(rz(alpha), ry)
	r.Mul(&r, rz(gamma))
	return &r
}

// buildRotatorAxes returns the rotation whose new z and y axes point along
// the given vectors. The axes must be orthogonal.
func buildRotatorAxes(toZ, toY [3]float64) (*gmat.Dense, error) {
	z := normalize3(toZ)
	y := normalize3(toY)
	if math.Abs(dot3(z, y)) > 1e-12 {
		return nil, errors.Errorf("to-z and to-y axes are not orthogonal: %v %v", toZ, toY)
	}
	x := cross3(y, z)

	// Axes are the columns.
	return gmat.NewDense(3, 3, []float64{
		x[0], y[0], z[0],
		x[1], y[1], z[1],
		x[2], y[2], z[2],
	}), nil
}

// rotateVector maps a field vector into the rotated frame, R^T v.
func rotateVector(field [3]float64, rotator *gmat.Dense) [3]float64 {
	if norm3(field) == 0 {
		return field
	}
	v := gmat.NewVecDense(3, []float64{field[0], field[1], field[2]})
	var w gmat.VecDense
	w.MulVec(rotator.T(), v)
	return [3]float64{w.AtVec(0), w.AtVec(1), w.AtVec(2)}
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func normalize3(v [3]float64) [3]float64 {
	n := norm3(v)
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
