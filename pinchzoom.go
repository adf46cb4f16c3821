package mapview

import (
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	doubleClickDelay  = 200 * time.Millisecond
	singleClickDelay  = 200 * time.Millisecond
	doubleTapDelay    = 300 * time.Millisecond
	tapDelay          = 300 * time.Millisecond
	doubleTapDistance = 100.0
	movingThreshold   = 1.0
	wheelDivisor      = 20.0
	wheelMaxStep      = 0.2
	transformEpsilon  = 1e-9
)

// PinchZoomConfig holds the world extent and zoom limits.
//
// MinScale and MaxScale are in Location.Scale units (world units across the
// viewport width): MinScale limits zooming in, MaxScale limits zooming out.
// Zero leaves a limit unset.
type PinchZoomConfig struct {
	WorldWidth, WorldHeight float64
	MinScale, MaxScale      float64
	// Bounds restricts panning. A zero rectangle means the whole world.
	Bounds Rect
	// FillScreen forbids showing any area outside the bounds.
	FillScreen bool
}

// PinchZoom owns the world-to-viewer transform and turns pointer input into
// transform updates. It is itself the bottom of its gesture handler stack
// and always accepts gestures.
type PinchZoom struct {
	cfg          PinchZoomConfig
	transform    AffineTransform
	viewW, viewH float64

	// OnTransformChanged is called once for every committed change.
	OnTransformChanged func(AffineTransform)
	// OnClick receives single taps and single clicks.
	OnClick func(ClickEvent)
	// MinScaleAt, when set, supplies the dynamic minimum scale near a
	// focus point. It is combined with PinchZoomConfig.MinScale.
	MinScaleAt func(focus Vec2) (float64, bool)

	touches map[int]*touchSession
	mouse   *touchSession

	handlers  []registeredHandler
	nextID    uint32
	current   GestureHandler
	currentID uint32 // 0 when current is the PinchZoom itself

	lastMouseDown    time.Time
	lastMouseUp      time.Time
	lastTouchDown    time.Time
	lastTouchDownPos Vec2
	clickTimer       deferredTask
}

// NewPinchZoom creates a PinchZoom with an identity transform. Zero world
// sizes default to 1.
func NewPinchZoom(cfg PinchZoomConfig) *PinchZoom {
	if cfg.WorldWidth <= 0 {
		cfg.WorldWidth = 1
	}
	if cfg.WorldHeight <= 0 {
		cfg.WorldHeight = 1
	}
	pz := &PinchZoom{
		cfg:              cfg,
		transform:        IdentityTransform,
		touches:          make(map[int]*touchSession),
		lastTouchDownPos: Vec2{-1, -1},
	}
	pz.current = pz
	return pz
}

// SetViewSize sets the drawing surface size in pixels.
func (pz *PinchZoom) SetViewSize(w, h float64) {
	pz.viewW, pz.viewH = w, h
}

// ViewSize returns the drawing surface size in pixels.
func (pz *PinchZoom) ViewSize() (w, h float64) {
	return pz.viewW, pz.viewH
}

// Transform returns a copy of the current transform.
func (pz *PinchZoom) Transform() AffineTransform {
	return pz.transform
}

// SetTransform commits t after bounds enforcement. An in-progress mouse
// drag stays anchored under the pointer, touch sessions are reset.
func (pz *PinchZoom) SetTransform(t AffineTransform) {
	pz.checkAndApplyTransform(t)
	if pz.mouse != nil {
		pz.mouse.startWorld = pz.WorldPosFromViewerPos(pz.mouse.startViewer)
	} else {
		clear(pz.touches)
	}
}

// WorldPosFromViewerPos maps a viewer point to world coordinates. It panics
// if the transform is singular, which bounds enforcement rules out.
func (pz *PinchZoom) WorldPosFromViewerPos(p Vec2) Vec2 {
	w, err := pz.transform.InverseTransform(p)
	if err != nil {
		panic(fmt.Sprintf("mapview: viewer to world on %v: %v", pz.transform, err))
	}
	return w
}

// ViewerPosFromWorldPos maps a world point to viewer coordinates.
func (pz *PinchZoom) ViewerPosFromWorldPos(p Vec2) Vec2 {
	return pz.transform.Transform(p)
}

// TopLeftWorld returns the top-left corner of the pannable area.
func (pz *PinchZoom) TopLeftWorld() Vec2 {
	b := pz.cfg.Bounds
	if b.Empty() {
		return Vec2{}
	}
	return Vec2{math.Max(b.X, 0), math.Max(b.Y, 0)}
}

// BottomRightWorld returns the bottom-right corner of the pannable area.
func (pz *PinchZoom) BottomRightWorld() Vec2 {
	b := pz.cfg.Bounds
	if b.Empty() {
		return Vec2{pz.cfg.WorldWidth, pz.cfg.WorldHeight}
	}
	return Vec2{
		math.Min(b.X+b.Width, pz.cfg.WorldWidth),
		math.Min(b.Y+b.Height, pz.cfg.WorldHeight),
	}
}

// IsMoving reports whether an active pointer has moved more than a pixel
// from where it started.
func (pz *PinchZoom) IsMoving() bool {
	if pz.mouse != nil && pz.mouse.moved(movingThreshold) {
		return true
	}
	for _, s := range pz.touches {
		if s.moved(movingThreshold) {
			return true
		}
	}
	return false
}

// PushHandler adds h on top of the gesture handler stack.
func (pz *PinchZoom) PushHandler(h GestureHandler) *HandlerHandle {
	pz.nextID++
	id := pz.nextID
	pz.handlers = append(pz.handlers, registeredHandler{id: id, h: h})
	return &HandlerHandle{id: id, remove: pz.removeHandler}
}

func (pz *PinchZoom) removeHandler(id uint32) {
	i := slices.IndexFunc(pz.handlers, func(r registeredHandler) bool { return r.id == id })
	if i < 0 {
		return
	}
	if pz.currentID == id {
		pz.current, pz.currentID = pz, 0
	}
	pz.handlers = slices.Delete(pz.handlers, i, i+1)
}

// CurrentHandler returns the handler receiving the current gesture.
func (pz *PinchZoom) CurrentHandler() GestureHandler {
	return pz.current
}

func (pz *PinchZoom) selectEventHandler(viewer Vec2, kind EventKind) {
	world := pz.WorldPosFromViewerPos(viewer)
	for i := len(pz.handlers) - 1; i >= 0; i-- {
		if pz.handlers[i].h.AcceptTouchEvent(viewer, world, kind) {
			pz.current, pz.currentID = pz.handlers[i].h, pz.handlers[i].id
			return
		}
	}
	pz.current, pz.currentID = pz, 0
}

// --- Event entry points, called by input adapters ---

// TouchStart routes a touch start. The handler is re-selected only when a
// gesture begins with a single contact.
func (pz *PinchZoom) TouchStart(ev TouchEvent) {
	if len(ev.Touches) == 1 {
		pz.selectEventHandler(ev.Touches[0].Pos, EventTouchStart)
	}
	pz.current.HandleStart(ev)
}

// TouchMove routes a touch move to the current handler.
func (pz *PinchZoom) TouchMove(ev TouchEvent) { pz.current.HandleMove(ev) }

// TouchEnd routes a touch end to the current handler.
func (pz *PinchZoom) TouchEnd(ev TouchEvent) { pz.current.HandleEnd(ev) }

// TouchCancel is treated as a touch end.
func (pz *PinchZoom) TouchCancel(ev TouchEvent) { pz.current.HandleEnd(ev) }

// MouseDown re-selects the handler and routes the press to it.
func (pz *PinchZoom) MouseDown(ev MouseEvent) {
	pz.selectEventHandler(ev.Pos, EventMouseDown)
	pz.current.HandleMouseDown(ev)
}

// MouseMove routes a mouse move to the current handler.
func (pz *PinchZoom) MouseMove(ev MouseEvent) { pz.current.HandleMouseMove(ev) }

// MouseUp routes a mouse release to the current handler.
func (pz *PinchZoom) MouseUp(ev MouseEvent) { pz.current.HandleMouseUp(ev) }

// Wheel zooms about the pointer. Wheel events bypass the handler stack.
func (pz *PinchZoom) Wheel(ev WheelEvent) {
	step := math.Max(-wheelMaxStep, math.Min(wheelMaxStep, ev.DeltaY/wheelDivisor))
	pz.zoomAbout(ev.Pos, 1-step)
}

// Tick fires the pending single-click timer once its deadline passes.
func (pz *PinchZoom) Tick(now time.Time) {
	pz.clickTimer.poll(now)
}

// --- GestureHandler implementation: panning and zooming ---

// AcceptTouchEvent always accepts.
func (pz *PinchZoom) AcceptTouchEvent(Vec2, Vec2, EventKind) bool { return true }

func (pz *PinchZoom) newSession(viewer Vec2) *touchSession {
	return &touchSession{
		startWorld:  pz.WorldPosFromViewerPos(viewer),
		startViewer: viewer,
	}
}

// HandleStart registers the new contacts. A contact landing while others are
// active restarts every session from the current positions.
func (pz *PinchZoom) HandleStart(ev TouchEvent) {
	if len(ev.Touches) == 1 {
		pos := ev.Touches[0].Pos
		if ev.Time.Sub(pz.lastTouchDown) < doubleTapDelay && Distance(pos, pz.lastTouchDownPos) < doubleTapDistance {
			pz.zoomAbout(pos, 2)
		}
		pz.lastTouchDown = ev.Time
		pz.lastTouchDownPos = pos
	}

	if len(pz.touches) > 0 {
		clear(pz.touches)
		for _, t := range ev.Touches {
			pz.touches[t.ID] = pz.newSession(t.Pos)
		}
		return
	}
	for _, t := range ev.Changed {
		pz.touches[t.ID] = pz.newSession(t.Pos)
	}
}

// HandleMove builds one constraint per active contact.
func (pz *PinchZoom) HandleMove(ev TouchEvent) {
	constraints := make([]Constraint, 0, len(ev.Touches))
	for _, t := range ev.Touches {
		s, ok := pz.touches[t.ID]
		if !ok {
			s = pz.newSession(t.Pos)
			pz.touches[t.ID] = s
		}
		s.current = t.Pos
		s.hasCurrent = true
		constraints = append(constraints, Constraint{Viewer: s.current, World: s.startWorld})
	}
	if len(constraints) > 0 {
		pz.ProcessConstraints(constraints)
	}
}

// HandleEnd forgets every session. A quick lift of the last contact is a
// tap; otherwise the remaining contacts start a new motion.
func (pz *PinchZoom) HandleEnd(ev TouchEvent) {
	if len(ev.Touches) == 0 && ev.Time.Sub(pz.lastTouchDown) < tapDelay {
		if s := pz.firstTouch(); s != nil {
			pz.handleSingleClick(s)
		}
		clear(pz.touches)
		return
	}
	clear(pz.touches)
	pz.HandleMove(ev)
}

func (pz *PinchZoom) firstTouch() *touchSession {
	if len(pz.touches) == 0 {
		return nil
	}
	ids := make([]int, 0, len(pz.touches))
	for id := range pz.touches {
		ids = append(ids, id)
	}
	return pz.touches[slices.Min(ids)]
}

// HandleMouseDown starts a drag, or zooms in on a double click.
func (pz *PinchZoom) HandleMouseDown(ev MouseEvent) {
	if ev.Time.Sub(pz.lastMouseDown) < doubleClickDelay {
		pz.zoomAbout(ev.Pos, 2)
		pz.mouse = nil
		pz.clickTimer.cancel()
	} else {
		click := pz.newSession(ev.Pos)
		pz.mouse = click
		pz.clickTimer.schedule(ev.Time.Add(singleClickDelay), func() {
			// A long press or a drag is not a click.
			if pz.lastMouseUp.After(pz.lastMouseDown) && pz.lastMouseUp.Sub(pz.lastMouseDown) < singleClickDelay {
				pz.handleSingleClick(click)
			}
		})
	}
	pz.lastMouseDown = ev.Time
}

// HandleMouseMove drags the world point grabbed at mouse down.
func (pz *PinchZoom) HandleMouseMove(ev MouseEvent) {
	if pz.mouse == nil {
		return
	}
	pz.mouse.current = ev.Pos
	pz.mouse.hasCurrent = true
	pz.ProcessConstraints([]Constraint{{Viewer: ev.Pos, World: pz.mouse.startWorld}})
}

// HandleMouseUp ends the drag.
func (pz *PinchZoom) HandleMouseUp(ev MouseEvent) {
	pz.lastMouseUp = ev.Time
	pz.HandleMouseMove(ev)
	pz.mouse = nil
}

func (pz *PinchZoom) handleSingleClick(s *touchSession) {
	if pz.OnClick != nil {
		pz.OnClick(ClickEvent{Viewer: s.startViewer, World: s.startWorld})
	}
}

// zoomAbout scales the view by factor keeping the world point under viewer
// fixed.
func (pz *PinchZoom) zoomAbout(viewer Vec2, factor float64) {
	c := Constraint{Viewer: viewer, World: pz.WorldPosFromViewerPos(viewer)}
	t := pz.transform
	t.Scale(factor)
	pz.processConstraintsFrom(t, []Constraint{c})
}

// --- Constraint fitting ---

// ProcessConstraints fits a new transform to the constraints, enforces the
// bounds, and commits the result. Only the first two constraints are used.
func (pz *PinchZoom) ProcessConstraints(constraints []Constraint) {
	pz.processConstraintsFrom(pz.transform, constraints)
}

func (pz *PinchZoom) processConstraintsFrom(base AffineTransform, constraints []Constraint) {
	t := base
	switch len(constraints) {
	case 0:
	case 1:
		pz.fitOne(&t, constraints[0], constraints[0].World)
	default:
		if err := pz.fitTwo(&t, constraints[0], constraints[1]); err != nil {
			pz.fitOne(&t, constraints[0], constraints[0].World)
		}
	}
	pz.checkAndApplyTransform(t)
}

// fitOne keeps the linear part and solves the translation.
func (pz *PinchZoom) fitOne(t *AffineTransform, c Constraint, focus Vec2) {
	pz.enforceConstraints(t, &focus)
	pin(t, c)
}

// fitTwo solves the isotropic scale s and translation (tx, ty) minimizing
// Σ‖s·w + t − v‖² over two constraints, then re-pins on the centroid.
//
//	A = | wx 1 0 |    AᵀA x = Aᵀv
//	    | wy 0 1 |
func (pz *PinchZoom) fitTwo(t *AffineTransform, c1, c2 Constraint) error {
	w1, w2 := c1.World, c2.World
	v1, v2 := c1.Viewer, c2.Viewer

	sumW := w1.X*w1.X + w2.X*w2.X + w1.Y*w1.Y + w2.Y*w2.Y
	sx := w1.X + w2.X
	sy := w1.Y + w2.Y
	ata := [9]float64{
		sumW, sx, sy,
		sx, 2, 0,
		sy, 0, 2,
	}
	atb := [3]float64{
		v1.X*w1.X + v2.X*w2.X + v1.Y*w1.Y + v2.Y*w2.Y,
		v1.X + v2.X,
		v1.Y + v2.Y,
	}
	r, err := solve3x3(ata, atb)
	if err != nil {
		return err
	}
	if r[0] <= 0 || math.IsNaN(r[0]) {
		return fmt.Errorf("%w: scale %v", ErrSingularSystem, r[0])
	}

	t[0], t[1], t[2] = r[0], 0, r[1]
	t[3], t[4], t[5] = 0, r[0], r[2]

	centroid := Constraint{
		Viewer: v1.Add(v2).Mul(0.5),
		World:  w1.Add(w2).Mul(0.5),
	}
	pz.enforceConstraints(t, &centroid.World)
	pin(t, centroid)
	return nil
}

// pin sets the translation so that c.World maps onto c.Viewer.
func pin(t *AffineTransform, c Constraint) {
	t[2] = c.Viewer.X - (t[0]*c.World.X + t[1]*c.World.Y)
	t[5] = c.Viewer.Y - (t[3]*c.World.X + t[4]*c.World.Y)
}

func (pz *PinchZoom) dynamicMinScale(focus *Vec2) (float64, bool) {
	if focus == nil || pz.MinScaleAt == nil {
		return 0, false
	}
	return pz.MinScaleAt(*focus)
}

// enforceConstraints clamps the scale of t to the zoom limits, then clamps
// its translation so that no area outside the bounds is revealed, or the
// content is centered when it is narrower than the view.
func (pz *PinchZoom) enforceConstraints(t *AffineTransform, focus *Vec2) {
	if pz.viewW <= 0 || pz.viewH <= 0 {
		return
	}
	tl := pz.TopLeftWorld()
	br := pz.BottomRightWorld()
	boundX := pz.viewW / (br.X - tl.X)
	boundY := pz.viewH / (br.Y - tl.Y)
	scaleBound := math.Min(boundX, boundY)
	if pz.cfg.FillScreen {
		scaleBound = math.Max(boundX, boundY)
	}
	if pz.cfg.MaxScale > 0 {
		scaleBound = math.Max(scaleBound, pz.viewW/pz.cfg.MaxScale)
	}

	scale := t[0]
	factor := 1.0
	if scale < scaleBound {
		factor = scaleBound / scale
	}

	minScale := pz.cfg.MinScale
	if dyn, ok := pz.dynamicMinScale(focus); ok {
		minScale = math.Max(minScale, dyn)
	}
	if minScale > 0 {
		ceiling := pz.viewW / minScale
		if scale > ceiling {
			factor = ceiling / scale
		}
	}

	t[0] = scale * factor
	t[4] = scale * factor
	t[2] *= factor
	t[5] *= factor

	topLeft := t.Transform(tl)
	bottomRight := t.Transform(br)
	width := bottomRight.X - topLeft.X
	height := bottomRight.Y - topLeft.Y

	if width < pz.viewW {
		t[2] = t[2] - topLeft.X + (pz.viewW-width)/2
	} else if topLeft.X > 0 {
		t[2] -= topLeft.X
	} else if bottomRight.X < pz.viewW {
		t[2] += pz.viewW - bottomRight.X
	}

	if height < pz.viewH {
		t[5] = t[5] - topLeft.Y + (pz.viewH-height)/2
	} else if topLeft.Y > 0 {
		t[5] -= topLeft.Y
	} else if bottomRight.Y < pz.viewH {
		t[5] += pz.viewH - bottomRight.Y
	}
}

// CheckAndApplyTransform re-enforces the bounds on the current transform.
func (pz *PinchZoom) CheckAndApplyTransform() {
	pz.checkAndApplyTransform(pz.transform)
}

func (pz *PinchZoom) checkAndApplyTransform(t AffineTransform) {
	pz.enforceConstraints(&t, nil)
	if !t.finite() || t.Det() == 0 {
		return
	}
	if t.Equal(pz.transform, transformEpsilon) {
		return
	}
	pz.transform = t
	if pz.OnTransformChanged != nil {
		pz.OnTransformChanged(t)
	}
}
