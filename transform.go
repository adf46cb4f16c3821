package mapview

import (
	"fmt"
	"math"
)

// AffineTransform maps world coordinates to viewer coordinates.
//
//	Layout: [a, b, c, d, e, f]
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
//
// It is a value type: assigning it copies the coefficients.
type AffineTransform [6]float64

// IdentityTransform maps every point to itself.
var IdentityTransform = AffineTransform{1, 0, 0, 0, 1, 0}

// Transform applies t to p.
func (t AffineTransform) Transform(p Vec2) Vec2 {
	return Vec2{
		X: t[0]*p.X + t[1]*p.Y + t[2],
		Y: t[3]*p.X + t[4]*p.Y + t[5],
	}
}

// Det returns the determinant of the linear part.
func (t AffineTransform) Det() float64 {
	return t[0]*t[4] - t[1]*t[3]
}

// Inverse returns the algebraic inverse of t, or ErrSingularTransform when
// the determinant is zero or not finite.
func (t AffineTransform) Inverse() (AffineTransform, error) {
	det := t.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return AffineTransform{}, fmt.Errorf("%w: det=%v", ErrSingularTransform, det)
	}
	inv := 1 / det
	a := t[4] * inv
	b := -t[1] * inv
	d := -t[3] * inv
	e := t[0] * inv
	return AffineTransform{
		a, b, -(a*t[2] + b*t[5]),
		d, e, -(d*t[2] + e*t[5]),
	}, nil
}

// InverseTransform maps a viewer point back to world coordinates.
func (t AffineTransform) InverseTransform(p Vec2) (Vec2, error) {
	inv, err := t.Inverse()
	if err != nil {
		return Vec2{}, err
	}
	return inv.Transform(p), nil
}

// Scale multiplies the linear part and the translation by factor. Callers
// pinning a focus point re-derive the translation afterward.
func (t *AffineTransform) Scale(factor float64) {
	for i := range t {
		t[i] *= factor
	}
}

// Multiply returns the composition t∘o: o is applied first.
func (t AffineTransform) Multiply(o AffineTransform) AffineTransform {
	return AffineTransform{
		t[0]*o[0] + t[1]*o[3],
		t[0]*o[1] + t[1]*o[4],
		t[0]*o[2] + t[1]*o[5] + t[2],
		t[3]*o[0] + t[4]*o[3],
		t[3]*o[1] + t[4]*o[4],
		t[3]*o[2] + t[4]*o[5] + t[5],
	}
}

// Equal reports whether every coefficient of t and o differs by at most eps.
func (t AffineTransform) Equal(o AffineTransform, eps float64) bool {
	for i := range t {
		if math.Abs(t[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

func (t AffineTransform) finite() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
