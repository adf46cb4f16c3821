package mapview

import (
	"fmt"
	"image/color"
	"math"
)

// earthCircumferenceKm is the equatorial circumference of the earth.
const earthCircumferenceKm = 40075.017

// ScaleLayerConfig styles a ScaleLayer. Zero values select the defaults noted
// on each field.
type ScaleLayerConfig struct {
	// Margin from the viewport corner in logical pixels. Default 15.
	Margin float64
	// SizeRatio is the target bar length as a fraction of the visible world
	// width, before rounding to a nice distance. Default 0.25.
	SizeRatio float64
	Placement Placement
	// MaxDistance hides the bar when it would exceed this many km, where the
	// Mercator distortion makes a linear scale misleading. Zero disables.
	MaxDistance float64
	// Color defaults to black, ShadowColor to translucent white.
	Color       color.Color
	ShadowColor color.Color
}

func (c ScaleLayerConfig) withDefaults() ScaleLayerConfig {
	if c.Margin == 0 {
		c.Margin = 15
	}
	if c.SizeRatio == 0 {
		c.SizeRatio = 0.25
	}
	if c.Color == nil {
		c.Color = color.Black
	}
	if c.ShadowColor == nil {
		c.ShadowColor = color.NRGBA{255, 255, 255, 204}
	}
	return c
}

// ScaleLayer draws a distance scale bar. It assumes a Web Mercator world as
// produced by LatLonToWorld, scaled by the renderer's world width.
type ScaleLayer struct {
	r   *Renderer
	cfg ScaleLayerConfig
}

// NewScaleLayer creates a scale bar for r. Add it with Renderer.AddLayer.
func NewScaleLayer(r *Renderer, cfg ScaleLayerConfig) *ScaleLayer {
	return &ScaleLayer{r: r, cfg: cfg.withDefaults()}
}

func (l *ScaleLayer) Draw(s Surface, t AffineTransform, tl, br Vec2) {
	inv, err := t.Inverse()
	if err != nil {
		return
	}
	w, h := s.Size()
	sw, sh := float64(w), float64(h)
	worldW := l.r.cfg.Width

	center := inv.Transform(Vec2{sw / 2, sh / 2})
	lat, _ := WorldToLatLon(center.Mul(1 / worldW))
	// km per world unit along the parallel through the center
	xToKm := earthCircumferenceKm * math.Cos(lat*math.Pi/180) / worldW

	pz := l.r.pz
	worldTL, worldBR := pz.TopLeftWorld(), pz.BottomRightWorld()
	visible := math.Min(worldBR.X, br.X) - math.Max(worldTL.X, tl.X)
	km := nice(visible * l.cfg.SizeRatio * xToKm)
	if !(km > 0) || (l.cfg.MaxDistance > 0 && km > l.cfg.MaxDistance) {
		return
	}

	pr := l.r.PixelRatio()
	margin := l.cfg.Margin * pr
	tlv, brv := t.Transform(worldTL), t.Transform(worldBR)
	left, bottom := l.cfg.Placement.left(), l.cfg.Placement.bottom()

	var start Vec2
	dir := -1.0
	if left {
		start.X = math.Max(0, tlv.X) + margin
		dir = 1
	} else {
		start.X = math.Min(sw, brv.X) - margin
	}
	if bottom {
		start.Y = math.Min(brv.Y, sh) - margin
	} else {
		start.Y = math.Max(tlv.Y, 0) + margin
	}

	startWorld := inv.Transform(start)
	end := t.Transform(Vec2{startWorld.X + dir*km/xToKm, startWorld.Y})
	end = Vec2{math.Round(end.X), math.Round(end.Y)}
	if end.X > sw || end.X <= margin {
		// viewport too narrow
		return
	}

	tick := 4 * pr
	for pass, c := range [...]color.Color{l.cfg.ShadowColor, l.cfg.Color} {
		width := pr
		if pass == 0 {
			width = 3 * pr
		}
		s.StrokePolyline([]Vec2{start, end}, width, c)
		s.StrokePolyline([]Vec2{{start.X, start.Y - tick}, {start.X, start.Y + tick}}, width, c)
		s.StrokePolyline([]Vec2{{end.X, end.Y - tick}, {end.X, end.Y + tick}}, width, c)
	}

	text := formatScale(km)
	tw, th := s.MeasureText(text)
	pos := Vec2{start.X + dir*tick, start.Y}
	if !left {
		pos.X -= tw
	}
	if bottom {
		pos.Y -= th
	}
	s.DrawText(text, pos.Add(Vec2{1, 1}), l.cfg.ShadowColor)
	s.DrawText(text, pos, l.cfg.Color)
}

// nice rounds x to the closest multiple of half its decade.
func nice(x float64) float64 {
	if !(x > 0) || math.IsInf(x, 0) {
		return 0
	}
	r := math.Pow(10, math.Floor(math.Log10(x))) / 2
	return math.Round(x/r) * r
}

func formatScale(km float64) string {
	if km <= 1 {
		return fmt.Sprintf("~ %.0f m", math.Round(km*1000))
	}
	return fmt.Sprintf("~ %.0f km", math.Round(km))
}
