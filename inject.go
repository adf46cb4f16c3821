package mapview

// syntheticKind selects the PinchZoom entry point a synthetic event feeds.
type syntheticKind uint8

const (
	synthMouseDown syntheticKind = iota
	synthMouseMove
	synthMouseUp
	synthWheel
	synthTouchStart
	synthTouchMove
	synthTouchEnd
)

// syntheticEvent is one injected input event. Positions are surface pixels,
// matching what a screenshot shows.
type syntheticEvent struct {
	kind    syntheticKind
	pos     Vec2
	deltaY  float64
	touches []Touch
	changed []Touch
}

// InjectMouseDown queues a primary button press. Queued events are consumed
// one per Update.
func (r *Renderer) InjectMouseDown(x, y float64) {
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthMouseDown, pos: Vec2{x, y}})
}

// InjectMouseMove queues a pointer move.
func (r *Renderer) InjectMouseMove(x, y float64) {
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthMouseMove, pos: Vec2{x, y}})
}

// InjectMouseUp queues a primary button release.
func (r *Renderer) InjectMouseUp(x, y float64) {
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthMouseUp, pos: Vec2{x, y}})
}

// InjectClick queues a press and a release at the same point. Consumes two
// updates.
func (r *Renderer) InjectClick(x, y float64) {
	r.InjectMouseDown(x, y)
	r.InjectMouseUp(x, y)
}

// InjectDrag queues a press at from, frames-2 interpolated moves and a
// release at to. frames is at least 2.
func (r *Renderer) InjectDrag(from, to Vec2, frames int) {
	frames = max(frames, 2)
	r.InjectMouseDown(from.X, from.Y)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		p := from.Lerp(to, float64(i)/float64(steps+1))
		r.InjectMouseMove(p.X, p.Y)
	}
	r.InjectMouseUp(to.X, to.Y)
}

// InjectWheel queues a scroll step at (x, y). Positive dy zooms out.
func (r *Renderer) InjectWheel(x, y, dy float64) {
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthWheel, pos: Vec2{x, y}, deltaY: dy})
}

// InjectPinch queues a two-finger gesture centered on center, with the
// fingers spreading horizontally from fromDist to toDist apart over frames
// updates. frames is at least 2.
func (r *Renderer) InjectPinch(center Vec2, fromDist, toDist float64, frames int) {
	frames = max(frames, 2)
	fingers := func(d float64) []Touch {
		return []Touch{
			{ID: 1, Pos: Vec2{center.X - d/2, center.Y}},
			{ID: 2, Pos: Vec2{center.X + d/2, center.Y}},
		}
	}
	start := fingers(fromDist)
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthTouchStart, touches: start, changed: start})
	steps := frames - 2
	for i := 1; i <= steps+1; i++ {
		d := fromDist + (toDist-fromDist)*float64(i)/float64(steps+1)
		r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthTouchMove, touches: fingers(d)})
	}
	r.injectQueue = append(r.injectQueue, syntheticEvent{kind: synthTouchEnd, changed: fingers(toDist)})
}

// processInjectedInput feeds one queued event to PinchZoom and reports
// whether one was consumed.
func (r *Renderer) processInjectedInput() bool {
	if len(r.injectQueue) == 0 {
		return false
	}
	ev := r.injectQueue[0]
	copy(r.injectQueue, r.injectQueue[1:])
	r.injectQueue = r.injectQueue[:len(r.injectQueue)-1]

	now := r.cfg.Now()
	switch ev.kind {
	case synthMouseDown:
		r.pz.MouseDown(MouseEvent{Time: now, Pos: ev.pos})
	case synthMouseMove:
		r.pz.MouseMove(MouseEvent{Time: now, Pos: ev.pos})
	case synthMouseUp:
		r.pz.MouseUp(MouseEvent{Time: now, Pos: ev.pos})
	case synthWheel:
		r.pz.Wheel(WheelEvent{Time: now, Pos: ev.pos, DeltaY: ev.deltaY})
	case synthTouchStart:
		r.pz.TouchStart(TouchEvent{Time: now, Touches: ev.touches, Changed: ev.changed})
	case synthTouchMove:
		r.pz.TouchMove(TouchEvent{Time: now, Touches: ev.touches, Changed: ev.touches})
	case synthTouchEnd:
		r.pz.TouchEnd(TouchEvent{Time: now, Touches: ev.touches, Changed: ev.changed})
	}
	return true
}
