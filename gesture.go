package mapview

import "time"

// Touch is one active contact point in viewer coordinates.
type Touch struct {
	ID  int
	Pos Vec2
}

// TouchEvent carries the full set of active contacts after the change, plus
// the contacts that changed. On TouchEnd, Changed holds the lifted contacts.
type TouchEvent struct {
	Time    time.Time
	Touches []Touch
	Changed []Touch
}

// MouseEvent is a primary-button mouse event in viewer coordinates.
type MouseEvent struct {
	Time time.Time
	Pos  Vec2
}

// WheelEvent is a scroll step. Positive DeltaY scrolls down (zooms out).
type WheelEvent struct {
	Time   time.Time
	Pos    Vec2
	DeltaY float64
}

// ClickEvent reports a tap or click at a viewer position and the world
// position under it.
type ClickEvent struct {
	Viewer Vec2
	World  Vec2
}

// GestureHandler receives gestures routed by PinchZoom. When a gesture
// starts, handlers are polled newest first with AcceptTouchEvent. The first
// to accept receives the rest of the gesture.
type GestureHandler interface {
	AcceptTouchEvent(viewer, world Vec2, kind EventKind) bool
	HandleStart(ev TouchEvent)
	HandleMove(ev TouchEvent)
	HandleEnd(ev TouchEvent)
	HandleMouseDown(ev MouseEvent)
	HandleMouseMove(ev MouseEvent)
	HandleMouseUp(ev MouseEvent)
}

// NopGestureHandler implements GestureHandler with no-ops and never accepts.
// Embed it to implement only the methods you need.
type NopGestureHandler struct{}

func (NopGestureHandler) AcceptTouchEvent(Vec2, Vec2, EventKind) bool { return false }
func (NopGestureHandler) HandleStart(TouchEvent)                      {}
func (NopGestureHandler) HandleMove(TouchEvent)                       {}
func (NopGestureHandler) HandleEnd(TouchEvent)                        {}
func (NopGestureHandler) HandleMouseDown(MouseEvent)                  {}
func (NopGestureHandler) HandleMouseMove(MouseEvent)                  {}
func (NopGestureHandler) HandleMouseUp(MouseEvent)                    {}

type registeredHandler struct {
	id uint32
	h  GestureHandler
}

// HandlerHandle removes a pushed gesture handler or click callback.
type HandlerHandle struct {
	id     uint32
	remove func(id uint32)
}

// Remove unregisters the handler. Calling it more than once is harmless.
func (h *HandlerHandle) Remove() {
	if h == nil || h.remove == nil {
		return
	}
	h.remove(h.id)
	h.remove = nil
}

// Constraint asks the fitted transform to map World onto Viewer.
type Constraint struct {
	Viewer Vec2
	World  Vec2
}

// touchSession tracks one pointer from its first contact.
type touchSession struct {
	startWorld  Vec2
	startViewer Vec2
	current     Vec2
	hasCurrent  bool
}

func (s *touchSession) moved(threshold float64) bool {
	return s.hasCurrent && Distance(s.current, s.startViewer) > threshold
}
