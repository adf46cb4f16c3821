package mapview

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"gonum.org/v1/gonum/mat"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// solve3x3 solves m·x = b for a row-major 3×3 matrix by explicit inversion.
func solve3x3(m [9]float64, b [3]float64) ([3]float64, error) {
	a := mat.NewDense(3, 3, m[:])
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return [3]float64{}, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}
	var x mat.VecDense
	x.MulVec(&inv, mat.NewVecDense(3, b[:]))
	return [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}, nil
}

// LatLonToWorld projects a WGS84 coordinate in degrees onto the normalized
// Web Mercator square, where [0,1]×[0,1] covers the whole zoom-0 tile.
// Latitudes beyond ±85.0511° snap to the top or bottom edge.
func LatLonToWorld(lat, lon float64) Vec2 {
	f := maptile.Fraction(orb.Point{lon, lat}, 0)
	return Vec2{f.X(), f.Y()}
}

// WorldToLatLon is the inverse of LatLonToWorld.
func WorldToLatLon(p Vec2) (lat, lon float64) {
	lon = p.X*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*p.Y))) * 180 / math.Pi
	return lat, lon
}

// WorldToTile returns the address of the tile at scale level s covering p.
func WorldToTile(s int, p Vec2) (x, y int) {
	n := math.Exp2(float64(s))
	return int(math.Floor(p.X * n)), int(math.Floor(p.Y * n))
}

// CubicBezier is a cubic curve given by its start point, two control
// points, and end point.
type CubicBezier [4]Vec2

// At evaluates the curve at parameter t in [0,1].
func (c CubicBezier) At(t float64) Vec2 {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Vec2{
		X: b0*c[0].X + b1*c[1].X + b2*c[2].X + b3*c[3].X,
		Y: b0*c[0].Y + b1*c[1].Y + b2*c[2].Y + b3*c[3].Y,
	}
}

// Flatten approximates the curve with segments+1 points.
func (c CubicBezier) Flatten(segments int) []Vec2 {
	if segments < 1 {
		segments = 1
	}
	pts := make([]Vec2, 0, segments+1)
	for i := 0; i <= segments; i++ {
		pts = append(pts, c.At(float64(i)/float64(segments)))
	}
	return pts
}

// Map returns the curve with every point transformed by t.
func (c CubicBezier) Map(t AffineTransform) CubicBezier {
	return CubicBezier{t.Transform(c[0]), t.Transform(c[1]), t.Transform(c[2]), t.Transform(c[3])}
}

// BoundingBox accumulates the extent of a point set. The zero value is empty.
type BoundingBox struct {
	Min, Max Vec2
	set      bool
}

// Add grows the box to include p.
func (b *BoundingBox) Add(p Vec2) {
	if !b.set {
		b.Min, b.Max, b.set = p, p, true
		return
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
}

// Empty reports whether no point was added.
func (b BoundingBox) Empty() bool { return !b.set }

// Size returns the box extent.
func (b BoundingBox) Size() Vec2 { return b.Max.Sub(b.Min) }

// Center returns the box midpoint.
func (b BoundingBox) Center() Vec2 { return b.Min.Add(b.Max).Mul(0.5) }
