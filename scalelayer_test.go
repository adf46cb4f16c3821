package mapview

import "testing"

func TestNice(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{10018.75, 10000},
		{1234, 1000},
		{1300, 1500},
		{7.6, 7.5},
		{0.26, 0.25},
		{0, 0},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := nice(tt.in); !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("nice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatScale(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0.5, "~ 500 m"},
		{1, "~ 1000 m"},
		{2.5, "~ 3 km"},
		{0.0025, "~ 3 m"},
		{10000, "~ 10000 km"},
	}
	for _, tt := range tests {
		if got := formatScale(tt.km); got != tt.want {
			t.Errorf("formatScale(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}

func drawScale(t *testing.T, cfg ScaleLayerConfig) *recordingSurface {
	t.Helper()
	r, canvas, _, _ := newTestRenderer(t, Config{})
	r.AddLayer(NewScaleLayer(r, cfg))
	canvas.surface.reset()
	r.AnimationFrame()
	return canvas.surface
}

func TestScaleLayerTopRight(t *testing.T) {
	s := drawScale(t, ScaleLayerConfig{})
	// Whole world at the equator: a quarter of the width is about 10000 km.
	if len(s.texts) != 2 || s.texts[1].s != "~ 10000 km" {
		t.Fatalf("texts = %+v, want the label twice", s.texts)
	}
	if len(s.lines) != 6 {
		t.Fatalf("lines = %d, want 6 (shadow and bar, three strokes each)", len(s.lines))
	}
	bar := s.lines[3]
	assertVec(t, "start", bar[0], Vec2{241, 15}, 1e-9)
	assertVec(t, "end", bar[1], Vec2{177, 15}, 1e-9)
	// Right-aligned label ending one tick left of the bar start.
	assertVec(t, "label", s.texts[1].pos, Vec2{241 - 4 - 60, 15}, 1e-9)
}

func TestScaleLayerBottomLeft(t *testing.T) {
	s := drawScale(t, ScaleLayerConfig{Placement: PlaceBottomLeft})
	if len(s.lines) != 6 {
		t.Fatalf("lines = %d, want 6", len(s.lines))
	}
	bar := s.lines[3]
	assertVec(t, "start", bar[0], Vec2{15, 241}, 1e-9)
	assertVec(t, "end", bar[1], Vec2{79, 241}, 1e-9)
	assertVec(t, "label", s.texts[1].pos, Vec2{19, 241 - 13}, 1e-9)
}

func TestScaleLayerMaxDistance(t *testing.T) {
	s := drawScale(t, ScaleLayerConfig{MaxDistance: 5000})
	if len(s.lines) != 0 || len(s.texts) != 0 {
		t.Errorf("drew %d lines and %d texts past MaxDistance", len(s.lines), len(s.texts))
	}
}
