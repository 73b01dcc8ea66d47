package kepler

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rz is the active rotation by angle about the third axis.
func Rz(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// Rx is the active rotation by angle about the first axis.
func Rx(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// Rotation returns Q = Rz(raan)·Rx(inc)·Rz(argp), mapping perifocal vectors to
// the Earth-centered inertial frame.
func Rotation(inc, raan, argp float64) *mat.Dense {
	var tmp, q mat.Dense
	tmp.Mul(Rx(inc), Rz(argp))
	q.Mul(Rz(raan), &tmp)
	return &q
}

// Rotate applies a 3x3 matrix to v.
func Rotate(q mat.Matrix, v Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = q.At(i, 0)*v[0] + q.At(i, 1)*v[1] + q.At(i, 2)*v[2]
	}
	return out
}

// frame is a row-major copy of Q for the per-sample hot loop.
type frame [9]float64

func newFrame(q *mat.Dense) frame {
	var f frame
	copy(f[:], q.RawMatrix().Data)
	return f
}

func (f *frame) apply(v Vec3) Vec3 {
	return Vec3{
		f[0]*v[0] + f[1]*v[1] + f[2]*v[2],
		f[3]*v[0] + f[4]*v[1] + f[5]*v[2],
		f[6]*v[0] + f[7]*v[1] + f[8]*v[2],
	}
}
