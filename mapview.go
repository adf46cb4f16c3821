package mapview

import (
	"fmt"
	"math"
)

// Vec2 is a 2D vector used for world positions, viewer positions, and
// offsets throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul returns v scaled by k.
func (v Vec2) Mul(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Lerp returns the point t of the way from v to o.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

func (v Vec2) finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Rect is a rectangle in surface pixels, Y down.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies in r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and o share a region of positive area. Tiles
// that only touch the surface edge do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Location is the serializable view state: the world point at the center of
// the viewport and the viewport width in world units.
//
// VX and VY optionally place (X, Y) at a fraction of the viewport instead of
// its center. Zero means 0.5.
type Location struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	VX    float64 `json:"vx,omitempty"`
	VY    float64 `json:"vy,omitempty"`
}

// Validate returns an error wrapping ErrInvalidLocation if any field is NaN
// or infinite, or if Scale is not positive.
func (l Location) Validate() error {
	for _, f := range [...]struct {
		name string
		v    float64
	}{{"x", l.X}, {"y", l.Y}, {"scale", l.Scale}, {"vx", l.VX}, {"vy", l.VY}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidLocation, f.name, f.v)
		}
	}
	if l.Scale <= 0 {
		return fmt.Errorf("%w: scale %v is not positive", ErrInvalidLocation, l.Scale)
	}
	return nil
}

func (l Location) viewerRatios() (float64, float64) {
	vx, vy := l.VX, l.VY
	if vx == 0 {
		vx = 0.5
	}
	if vy == 0 {
		vy = 0.5
	}
	return vx, vy
}

// EventKind identifies the kind of input that started a gesture.
type EventKind uint8

const (
	EventTouchStart EventKind = iota // a finger landed on the surface
	EventMouseDown                   // the primary mouse button was pressed
	EventWheel                       // a scroll wheel step
)

func (k EventKind) String() string {
	switch k {
	case EventTouchStart:
		return "touchstart"
	case EventMouseDown:
		return "mousedown"
	case EventWheel:
		return "wheel"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Placement selects a corner of the viewport for annotation layers.
type Placement uint8

const (
	PlaceTopRight    Placement = iota // default
	PlaceTopLeft                      //
	PlaceBottomRight                  //
	PlaceBottomLeft                   //
)

func (p Placement) bottom() bool { return p == PlaceBottomRight || p == PlaceBottomLeft }
func (p Placement) left() bool   { return p == PlaceTopLeft || p == PlaceBottomLeft }
