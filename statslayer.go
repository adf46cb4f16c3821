package mapview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// StatsLayer overlays frame rate, tile cache counters and the current
// location in a corner of the view.
type StatsLayer struct {
	r *Renderer
	// FPS reports the frame rate. Default ebiten.ActualFPS.
	FPS       func() float64
	Placement Placement
}

// NewStatsLayer creates a diagnostics overlay for r.
func NewStatsLayer(r *Renderer) *StatsLayer {
	return &StatsLayer{r: r, FPS: ebiten.ActualFPS, Placement: PlaceTopLeft}
}

func (l *StatsLayer) lines() []string {
	st := l.r.tiles.Stats()
	loc := l.r.GetLocation()
	fps := 0.0
	if l.FPS != nil {
		fps = l.FPS()
	}
	return []string{
		fmt.Sprintf("FPS: %.1f  frame %d  x%.2f", fps, l.r.DrawCount(), l.r.PixelRatio()),
		fmt.Sprintf("tiles: %d cached, %d loading, %d queued, %d failed", st.Cached, st.Loading, st.Queued, st.Failed),
		fmt.Sprintf("at %.5f,%.5f scale %.3g", loc.X, loc.Y, loc.Scale),
	}
}

func (l *StatsLayer) Draw(s Surface, _ AffineTransform, _, _ Vec2) {
	lines := l.lines()
	var bw, lh float64
	for _, line := range lines {
		w, h := s.MeasureText(line)
		bw, lh = max(bw, w), max(lh, h)
	}
	const pad = 4
	bw += 2 * pad
	bh := lh*float64(len(lines)) + 2*pad

	w, h := s.Size()
	x, y := 0.0, 0.0
	if !l.Placement.left() {
		x = float64(w) - bw
	}
	if l.Placement.bottom() {
		y = float64(h) - bh
	}

	// Semi-transparent background for readability
	s.FillPolygon([]Vec2{{x, y}, {x + bw, y}, {x + bw, y + bh}, {x, y + bh}}, color.RGBA{0, 0, 0, 128})
	for i, line := range lines {
		s.DrawText(line, Vec2{x + pad, y + pad + float64(i)*lh}, color.White)
	}
}
