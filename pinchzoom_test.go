package mapview

import (
	"testing"
	"time"
)

var t0 = time.Unix(1_700_000_000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

// newTestPinchZoom returns a PinchZoom showing loc in a w×h view.
func newTestPinchZoom(cfg PinchZoomConfig, w, h float64, loc Location) *PinchZoom {
	pz := NewPinchZoom(cfg)
	pz.SetViewSize(w, h)
	s := w / loc.Scale
	pz.transform = AffineTransform{s, 0, w/2 - s*loc.X, 0, s, h/2 - s*loc.Y}
	return pz
}

func centerOf(pz *PinchZoom) Vec2 {
	w, h := pz.ViewSize()
	return pz.WorldPosFromViewerPos(Vec2{w / 2, h / 2})
}

func touches(ts ...Touch) []Touch { return ts }

type recordingHandler struct {
	NopGestureHandler
	accept              bool
	starts, moves, ends int
	downs               int
}

func (h *recordingHandler) AcceptTouchEvent(Vec2, Vec2, EventKind) bool { return h.accept }
func (h *recordingHandler) HandleStart(TouchEvent)                      { h.starts++ }
func (h *recordingHandler) HandleMove(TouchEvent)                       { h.moves++ }
func (h *recordingHandler) HandleEnd(TouchEvent)                        { h.ends++ }
func (h *recordingHandler) HandleMouseDown(MouseEvent)                  { h.downs++ }

func TestSingleConstraintPinsWorldPoint(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	w := pz.WorldPosFromViewerPos(Vec2{100, 100})
	pz.ProcessConstraints([]Constraint{{Viewer: Vec2{150, 120}, World: w}})

	assertVec(t, "pinned", pz.ViewerPosFromWorldPos(w), Vec2{150, 120}, 1e-9)
	assertNear(t, "scale", pz.Transform()[0], 256)
}

func TestMouseDragShiftsLocation(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})

	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{100, 100}})
	pz.MouseMove(MouseEvent{Time: at(16), Pos: Vec2{150, 120}})
	pz.MouseUp(MouseEvent{Time: at(500), Pos: Vec2{150, 120}})

	assertVec(t, "center", centerOf(pz), Vec2{2 - 50.0/256, 2 - 20.0/256}, 1e-9)
	assertNear(t, "scale", pz.Transform()[0], 256)
}

func TestPinchKeepsScaleWhenFingersTranslate(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{}, 256, 256, Location{X: 0.5, Y: 0.5, Scale: 256.0 / 500})
	pz.transform = AffineTransform{500, 0, -100, 0, 500, -150}

	assertVec(t, "w1", pz.WorldPosFromViewerPos(Vec2{100, 100}), Vec2{0.4, 0.5}, 1e-9)
	assertVec(t, "w2", pz.WorldPosFromViewerPos(Vec2{200, 100}), Vec2{0.6, 0.5}, 1e-9)

	f1 := Touch{ID: 1, Pos: Vec2{100, 100}}
	f2 := Touch{ID: 2, Pos: Vec2{200, 100}}
	pz.TouchStart(TouchEvent{Time: at(0), Touches: touches(f1), Changed: touches(f1)})
	pz.TouchStart(TouchEvent{Time: at(10), Touches: touches(f1, f2), Changed: touches(f2)})

	m1 := Touch{ID: 1, Pos: Vec2{120, 100}}
	m2 := Touch{ID: 2, Pos: Vec2{220, 100}}
	pz.TouchMove(TouchEvent{Time: at(50), Touches: touches(m1, m2), Changed: touches(m1, m2)})

	assertNear(t, "scale", pz.Transform()[0], 500)
	assertVec(t, "midpoint", pz.ViewerPosFromWorldPos(Vec2{0.5, 0.5}), Vec2{170, 100}, 1e-6)
}

func TestPinchFitsBothConstraints(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{}, 256, 256, Location{})
	pz.transform = AffineTransform{500, 0, -100, 0, 500, -150}

	w1, w2 := Vec2{0.4, 0.5}, Vec2{0.6, 0.5}
	v1, v2 := Vec2{50, 100}, Vec2{250, 100}
	pz.ProcessConstraints([]Constraint{{Viewer: v1, World: w1}, {Viewer: v2, World: w2}})

	assertNear(t, "scale", pz.Transform()[0], 1000)
	assertVec(t, "w1", pz.ViewerPosFromWorldPos(w1), v1, 1e-6)
	assertVec(t, "w2", pz.ViewerPosFromWorldPos(w2), v2, 1e-6)
}

func TestPinchIgnoresExtraConstraints(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{}, 256, 256, Location{})
	pz.transform = AffineTransform{500, 0, -100, 0, 500, -150}

	two := []Constraint{{Viewer: Vec2{50, 100}, World: Vec2{0.4, 0.5}}, {Viewer: Vec2{250, 100}, World: Vec2{0.6, 0.5}}}
	pz.ProcessConstraints(append(two, Constraint{Viewer: Vec2{0, 0}, World: Vec2{0.9, 0.9}}))
	withExtra := pz.Transform()

	pz.transform = AffineTransform{500, 0, -100, 0, 500, -150}
	pz.ProcessConstraints(two)
	if !pz.Transform().Equal(withExtra, 1e-9) {
		t.Errorf("third constraint changed the fit: %v vs %v", withExtra, pz.Transform())
	}
}

func TestCoincidentConstraintsFallBack(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	w := Vec2{2, 2}
	pz.ProcessConstraints([]Constraint{{Viewer: Vec2{100, 100}, World: w}, {Viewer: Vec2{140, 100}, World: w}})

	assertNear(t, "scale", pz.Transform()[0], 256)
	assertVec(t, "pinned", pz.ViewerPosFromWorldPos(w), Vec2{100, 100}, 1e-9)
}

func TestZoomOutStopsAtScaleBound(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{}, 256, 256, Location{})
	pz.transform = AffineTransform{500, 0, -100, 0, 500, -150}

	for i := 0; i < 10; i++ {
		pz.Wheel(WheelEvent{Time: at(i * 16), Pos: Vec2{128, 128}, DeltaY: 100})
		if pz.Transform()[0] < 256-1e-9 {
			t.Fatalf("step %d: scale %v below bound 256", i, pz.Transform()[0])
		}
	}
	want := AffineTransform{256, 0, 0, 0, 256, 0}
	if !pz.Transform().Equal(want, 1e-6) {
		t.Errorf("transform = %v, want %v", pz.Transform(), want)
	}
}

func TestMaxScaleLimitsZoomOut(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4, MaxScale: 2}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	for i := 0; i < 20; i++ {
		pz.Wheel(WheelEvent{Pos: Vec2{128, 128}, DeltaY: 100})
	}
	assertNear(t, "scale", pz.Transform()[0], 128)
}

func TestMinScaleLimitsZoomIn(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4, MinScale: 0.01}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	for i := 0; i < 30; i++ {
		pz.Wheel(WheelEvent{Pos: Vec2{128, 128}, DeltaY: -100})
		if pz.Transform()[0] > 25600+1e-6 {
			t.Fatalf("step %d: scale %v above ceiling", i, pz.Transform()[0])
		}
	}
	assertNear(t, "scale", pz.Transform()[0], 25600)
}

func TestDynamicMinScale(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	var focus Vec2
	pz.MinScaleAt = func(p Vec2) (float64, bool) {
		focus = p
		return 0.5, true
	}
	pz.Wheel(WheelEvent{Pos: Vec2{128, 128}, DeltaY: -20})
	assertNear(t, "first step", pz.Transform()[0], 256*1.2)
	assertVec(t, "focus", focus, Vec2{2, 2}, 1e-9)

	for i := 0; i < 5; i++ {
		pz.Wheel(WheelEvent{Pos: Vec2{128, 128}, DeltaY: -20})
	}
	assertNear(t, "capped", pz.Transform()[0], 512)
}

func TestNarrowContentIsCentered(t *testing.T) {
	pz := NewPinchZoom(PinchZoomConfig{})
	pz.SetViewSize(512, 256)
	pz.transform = AffineTransform{256, 0, 0, 0, 256, 0}
	pz.CheckAndApplyTransform()

	want := AffineTransform{256, 0, 128, 0, 256, 0}
	if !pz.Transform().Equal(want, 1e-9) {
		t.Errorf("transform = %v, want %v", pz.Transform(), want)
	}
}

func TestFillScreenUsesLargerBound(t *testing.T) {
	pz := NewPinchZoom(PinchZoomConfig{FillScreen: true})
	pz.SetViewSize(512, 256)
	pz.transform = AffineTransform{256, 0, 0, 0, 256, 0}
	pz.CheckAndApplyTransform()
	assertNear(t, "scale", pz.Transform()[0], 512)

	tl := pz.ViewerPosFromWorldPos(pz.TopLeftWorld())
	br := pz.ViewerPosFromWorldPos(pz.BottomRightWorld())
	if tl.X > 1e-9 || tl.Y > 1e-9 || br.X < 512-1e-9 || br.Y < 256-1e-9 {
		t.Errorf("fill screen reveals outside bounds: tl=%v br=%v", tl, br)
	}
}

func TestEdgesPulledBackWithoutOvershoot(t *testing.T) {
	tests := []struct {
		name   string
		tx     float64
		wantTx float64
	}{
		{"left gap", 50, 0},
		{"right gap", -818, -768},
		{"inside", -300, -300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pz := NewPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4})
			pz.SetViewSize(256, 256)
			pz.transform = AffineTransform{256, 0, tt.tx, 0, 256, -300}
			pz.CheckAndApplyTransform()
			assertNear(t, "tx", pz.Transform()[2], tt.wantTx)
			assertNear(t, "ty", pz.Transform()[5], -300)
		})
	}
}

func TestBoundsRestrictPanning(t *testing.T) {
	cfg := PinchZoomConfig{WorldWidth: 4, WorldHeight: 4, Bounds: Rect{X: 1, Y: 1, Width: 2, Height: 2}}
	pz := newTestPinchZoom(cfg, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	assertVec(t, "top left", pz.TopLeftWorld(), Vec2{1, 1}, epsilon)
	assertVec(t, "bottom right", pz.BottomRightWorld(), Vec2{3, 3}, epsilon)

	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{100, 100}})
	pz.MouseMove(MouseEvent{Time: at(16), Pos: Vec2{600, 600}})
	pz.MouseUp(MouseEvent{Time: at(500), Pos: Vec2{600, 600}})

	assertVec(t, "clamped", pz.ViewerPosFromWorldPos(Vec2{1, 1}), Vec2{0, 0}, 1e-9)
}

func TestTransformChangedOncePerChange(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	calls := 0
	pz.OnTransformChanged = func(AffineTransform) { calls++ }

	c := []Constraint{{Viewer: Vec2{150, 120}, World: Vec2{1.9, 1.9}}}
	pz.ProcessConstraints(c)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	pz.ProcessConstraints(c)
	pz.CheckAndApplyTransform()
	if calls != 1 {
		t.Errorf("calls = %d after no-op updates, want 1", calls)
	}
}

func TestDoubleClickZoomsAboutPoint(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	clicks := 0
	pz.OnClick = func(ClickEvent) { clicks++ }

	p := Vec2{64, 200}
	w := pz.WorldPosFromViewerPos(p)
	pz.MouseDown(MouseEvent{Time: at(0), Pos: p})
	pz.MouseUp(MouseEvent{Time: at(50), Pos: p})
	pz.MouseDown(MouseEvent{Time: at(120), Pos: p})
	pz.MouseUp(MouseEvent{Time: at(170), Pos: p})
	pz.Tick(at(1000))

	assertNear(t, "scale", pz.Transform()[0], 512)
	assertVec(t, "fixed point", pz.ViewerPosFromWorldPos(w), p, 1e-9)
	if clicks != 0 {
		t.Errorf("clicks = %d, want 0 for a double click", clicks)
	}
}

func TestSingleClickFiresAfterDelay(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	var got []ClickEvent
	pz.OnClick = func(ev ClickEvent) { got = append(got, ev) }

	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{128, 128}})
	pz.MouseUp(MouseEvent{Time: at(60), Pos: Vec2{128, 128}})
	pz.Tick(at(199))
	if len(got) != 0 {
		t.Fatal("click fired before the double-click window closed")
	}
	pz.Tick(at(200))
	if len(got) != 1 {
		t.Fatalf("clicks = %d, want 1", len(got))
	}
	assertVec(t, "viewer", got[0].Viewer, Vec2{128, 128}, epsilon)
	assertVec(t, "world", got[0].World, Vec2{2, 2}, 1e-9)
}

func TestLongPressIsNotClick(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	clicks := 0
	pz.OnClick = func(ClickEvent) { clicks++ }

	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{128, 128}})
	pz.Tick(at(200))
	pz.MouseUp(MouseEvent{Time: at(400), Pos: Vec2{128, 128}})
	pz.Tick(at(1000))
	if clicks != 0 {
		t.Errorf("clicks = %d, want 0", clicks)
	}
}

func TestTapAndDoubleTap(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	var taps []ClickEvent
	pz.OnClick = func(ev ClickEvent) { taps = append(taps, ev) }

	f := Touch{ID: 7, Pos: Vec2{100, 100}}
	pz.TouchStart(TouchEvent{Time: at(0), Touches: touches(f), Changed: touches(f)})
	pz.TouchEnd(TouchEvent{Time: at(80), Changed: touches(f)})
	if len(taps) != 1 {
		t.Fatalf("taps = %d, want 1", len(taps))
	}
	assertVec(t, "tap viewer", taps[0].Viewer, Vec2{100, 100}, epsilon)

	w := pz.WorldPosFromViewerPos(Vec2{110, 105})
	g := Touch{ID: 8, Pos: Vec2{110, 105}}
	pz.TouchStart(TouchEvent{Time: at(200), Touches: touches(g), Changed: touches(g)})
	assertNear(t, "scale after double tap", pz.Transform()[0], 512)
	assertVec(t, "fixed point", pz.ViewerPosFromWorldPos(w), Vec2{110, 105}, 1e-9)
}

func TestDistantSecondTapIsNotDoubleTap(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	f := Touch{ID: 1, Pos: Vec2{10, 10}}
	pz.TouchStart(TouchEvent{Time: at(0), Touches: touches(f), Changed: touches(f)})
	pz.TouchEnd(TouchEvent{Time: at(50), Changed: touches(f)})
	g := Touch{ID: 2, Pos: Vec2{200, 200}}
	pz.TouchStart(TouchEvent{Time: at(100), Touches: touches(g), Changed: touches(g)})
	assertNear(t, "scale", pz.Transform()[0], 256)
}

func TestFingerLiftRestartsMotion(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	f1 := Touch{ID: 1, Pos: Vec2{100, 100}}
	f2 := Touch{ID: 2, Pos: Vec2{200, 100}}
	pz.TouchStart(TouchEvent{Time: at(0), Touches: touches(f1), Changed: touches(f1)})
	pz.TouchStart(TouchEvent{Time: at(5), Touches: touches(f1, f2), Changed: touches(f2)})

	f1 = Touch{ID: 1, Pos: Vec2{80, 100}}
	f2 = Touch{ID: 2, Pos: Vec2{240, 100}}
	pz.TouchMove(TouchEvent{Time: at(100), Touches: touches(f1, f2), Changed: touches(f1, f2)})
	afterPinch := pz.Transform()

	pz.TouchEnd(TouchEvent{Time: at(600), Touches: touches(f2), Changed: touches(f1)})
	if !pz.Transform().Equal(afterPinch, 1e-9) {
		t.Fatalf("lifting a finger moved the view: %v -> %v", afterPinch, pz.Transform())
	}
	if len(pz.touches) != 1 {
		t.Fatalf("sessions = %d, want 1 re-registered", len(pz.touches))
	}

	w := pz.WorldPosFromViewerPos(Vec2{240, 100})
	f2 = Touch{ID: 2, Pos: Vec2{250, 110}}
	pz.TouchMove(TouchEvent{Time: at(650), Touches: touches(f2), Changed: touches(f2)})
	assertVec(t, "pan", pz.ViewerPosFromWorldPos(w), Vec2{250, 110}, 1e-9)
	assertNear(t, "scale kept", pz.Transform()[0], afterPinch[0])
}

func TestMoveWithoutStartRegistersLazily(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	before := pz.Transform()
	f := Touch{ID: 3, Pos: Vec2{50, 50}}
	pz.TouchMove(TouchEvent{Time: at(0), Touches: touches(f), Changed: touches(f)})
	if !pz.Transform().Equal(before, 1e-9) {
		t.Errorf("first move changed transform")
	}
	w := pz.WorldPosFromViewerPos(Vec2{50, 50})
	f.Pos = Vec2{60, 50}
	pz.TouchMove(TouchEvent{Time: at(16), Touches: touches(f), Changed: touches(f)})
	assertVec(t, "pan", pz.ViewerPosFromWorldPos(w), Vec2{60, 50}, 1e-9)
}

func TestIsMoving(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	if pz.IsMoving() {
		t.Fatal("idle view reports moving")
	}
	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{100, 100}})
	pz.MouseMove(MouseEvent{Time: at(5), Pos: Vec2{100.5, 100}})
	if pz.IsMoving() {
		t.Error("sub-pixel motion reports moving")
	}
	pz.MouseMove(MouseEvent{Time: at(10), Pos: Vec2{105, 100}})
	if !pz.IsMoving() {
		t.Error("drag does not report moving")
	}
	pz.MouseUp(MouseEvent{Time: at(20), Pos: Vec2{105, 100}})
	if pz.IsMoving() {
		t.Error("released drag still reports moving")
	}
}

func TestHandlerStackNewestFirst(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	older := &recordingHandler{accept: true}
	newer := &recordingHandler{accept: true}
	declines := &recordingHandler{accept: false}
	pz.PushHandler(older)
	hNewer := pz.PushHandler(newer)
	pz.PushHandler(declines)

	before := pz.Transform()
	f := Touch{ID: 1, Pos: Vec2{100, 100}}
	pz.TouchStart(TouchEvent{Time: at(0), Touches: touches(f), Changed: touches(f)})
	f.Pos = Vec2{150, 150}
	pz.TouchMove(TouchEvent{Time: at(16), Touches: touches(f), Changed: touches(f)})
	pz.TouchEnd(TouchEvent{Time: at(500), Changed: touches(f)})

	if newer.starts != 1 || newer.moves != 1 || newer.ends != 1 {
		t.Errorf("newer handler got %d/%d/%d, want 1/1/1", newer.starts, newer.moves, newer.ends)
	}
	if older.starts != 0 || declines.starts != 0 {
		t.Error("gesture reached a handler that should not own it")
	}
	if !pz.Transform().Equal(before, 1e-9) {
		t.Error("intercepted gesture moved the view")
	}

	hNewer.Remove()
	pz.MouseDown(MouseEvent{Time: at(1000), Pos: Vec2{10, 10}})
	if older.downs != 1 {
		t.Errorf("older.downs = %d, want 1 after removal", older.downs)
	}
	if pz.CurrentHandler() != GestureHandler(older) {
		t.Error("current handler is not the older handler")
	}
}

func TestRemovingCurrentHandlerFallsBack(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	h := &recordingHandler{accept: true}
	handle := pz.PushHandler(h)
	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{10, 10}})
	handle.Remove()
	handle.Remove()
	if pz.CurrentHandler() != GestureHandler(pz) {
		t.Error("current handler not reset after removal")
	}
}

func TestWheelZoomsAboutPointer(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	p := Vec2{64, 64}
	w := pz.WorldPosFromViewerPos(p)
	pz.Wheel(WheelEvent{Pos: p, DeltaY: -2})
	assertNear(t, "scale", pz.Transform()[0], 256*1.1)
	assertVec(t, "fixed", pz.ViewerPosFromWorldPos(w), p, 1e-9)

	pz.Wheel(WheelEvent{Pos: p, DeltaY: -1000})
	assertNear(t, "clamped step", pz.Transform()[0], 256*1.1*1.2)
}

func TestWheelIgnoresHandlerStack(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	h := &recordingHandler{accept: true}
	pz.PushHandler(h)
	p := Vec2{64, 64}
	w := pz.WorldPosFromViewerPos(p)
	pz.Wheel(WheelEvent{Pos: p, DeltaY: -2})
	assertNear(t, "scale", pz.Transform()[0], 256*1.1)
	assertVec(t, "fixed", pz.ViewerPosFromWorldPos(w), p, 1e-9)
	if h.starts != 0 || h.moves != 0 || h.downs != 0 {
		t.Errorf("handler saw wheel input: %+v", h)
	}
}

func TestSetTransformKeepsMouseAnchored(t *testing.T) {
	pz := newTestPinchZoom(PinchZoomConfig{WorldWidth: 4, WorldHeight: 4}, 256, 256, Location{X: 2, Y: 2, Scale: 1})
	pz.MouseDown(MouseEvent{Time: at(0), Pos: Vec2{100, 100}})
	pz.SetTransform(AffineTransform{512, 0, -800, 0, 512, -800})
	w := pz.WorldPosFromViewerPos(Vec2{100, 100})
	pz.MouseMove(MouseEvent{Time: at(16), Pos: Vec2{110, 100}})
	assertVec(t, "anchored", pz.ViewerPosFromWorldPos(w), Vec2{110, 100}, 1e-9)
}
