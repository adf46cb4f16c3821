package mapview

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// flight is an animated transition between two locations. One tween drives
// the progress; the scale is interpolated geometrically so that zooming
// feels uniform.
type flight struct {
	from, to Location
	tween    *gween.Tween
	last     time.Time
}

// FlyTo animates the view to loc over d. A nil easeFn uses ease.InOutQuad.
// Any other location change, such as a gesture, cancels the flight.
func (r *Renderer) FlyTo(loc Location, d time.Duration, easeFn ease.TweenFunc) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	if d <= 0 {
		r.flight = nil
		r.setLocation(loc)
		return nil
	}
	if easeFn == nil {
		easeFn = ease.InOutQuad
	}
	r.flight = &flight{
		from:  r.GetLocation(),
		to:    loc,
		tween: gween.New(0, 1, float32(d.Seconds()), easeFn),
		last:  r.cfg.Now(),
	}
	return nil
}

// Flying reports whether a FlyTo animation is in progress.
func (r *Renderer) Flying() bool { return r.flight != nil }

func (r *Renderer) stepFlight(now time.Time) {
	f := r.flight
	if f == nil {
		return
	}
	dt := now.Sub(f.last).Seconds()
	f.last = now
	p, done := f.tween.Update(float32(dt))

	r.flying = true
	r.setLocation(interpolateLocation(f.from, f.to, float64(p)))
	r.flying = false

	if done && r.flight == f {
		r.flight = nil
	}
}

func interpolateLocation(a, b Location, t float64) Location {
	avx, avy := a.viewerRatios()
	bvx, bvy := b.viewerRatios()
	return Location{
		X:     a.X + (b.X-a.X)*t,
		Y:     a.Y + (b.Y-a.Y)*t,
		Scale: a.Scale * math.Pow(b.Scale/a.Scale, t),
		VX:    avx + (bvx-avx)*t,
		VY:    avy + (bvy-avy)*t,
	}
}
