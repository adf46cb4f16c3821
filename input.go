package mapview

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// wheelLineHeight converts ebiten wheel ticks to scroll units.
const wheelLineHeight = 4

// inputState is one tick of pointer input in surface pixels.
type inputState struct {
	mouse   Vec2
	pressed bool
	wheelY  float64
	touches []Touch // sorted by ID
}

// EbitenInput polls ebiten's mouse, wheel and touch state each tick and
// feeds the changes to a Renderer's PinchZoom.
type EbitenInput struct {
	r    *Renderer
	prev inputState

	touchIDs []ebiten.TouchID
}

// NewEbitenInput creates an input pump for r. Call Update once per tick,
// before Renderer.Update.
func NewEbitenInput(r *Renderer) *EbitenInput {
	return &EbitenInput{r: r}
}

// Update reads the current input state and dispatches what changed.
func (in *EbitenInput) Update() {
	in.apply(in.poll())
}

// poll reads ebiten state. Screen coordinates are scaled to the surface so
// gestures line up with drawn content.
func (in *EbitenInput) poll() inputState {
	kx, ky := in.surfaceScale()

	mx, my := ebiten.CursorPosition()
	_, yoff := ebiten.Wheel()
	st := inputState{
		mouse:   Vec2{float64(mx) * kx, float64(my) * ky},
		pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		wheelY:  -yoff * wheelLineHeight,
	}

	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	for _, id := range in.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		st.touches = append(st.touches, Touch{ID: int(id), Pos: Vec2{float64(tx) * kx, float64(ty) * ky}})
	}
	slices.SortFunc(st.touches, func(a, b Touch) int { return a.ID - b.ID })
	return st
}

func (in *EbitenInput) surfaceScale() (float64, float64) {
	cw, ch := in.r.canvas.ClientSize()
	if ec, ok := in.r.canvas.(*EbitenCanvas); ok && ec.screenW > 0 {
		cw, ch = ec.screenW, ec.screenH
	}
	sw, sh := in.r.canvas.Surface().Size()
	if cw <= 0 || ch <= 0 {
		return 1, 1
	}
	return float64(sw) / float64(cw), float64(sh) / float64(ch)
}

// apply diffs st against the previous tick.
func (in *EbitenInput) apply(st inputState) {
	pz := in.r.pz
	now := in.r.cfg.Now()
	prev := in.prev
	in.prev = st

	switch {
	case st.pressed && !prev.pressed:
		pz.MouseDown(MouseEvent{Time: now, Pos: st.mouse})
	case st.pressed && st.mouse != prev.mouse:
		pz.MouseMove(MouseEvent{Time: now, Pos: st.mouse})
	case !st.pressed && prev.pressed:
		pz.MouseUp(MouseEvent{Time: now, Pos: st.mouse})
	}

	if st.wheelY != 0 {
		pz.Wheel(WheelEvent{Time: now, Pos: st.mouse, DeltaY: st.wheelY})
	}

	var started, ended []Touch
	for _, t := range st.touches {
		if _, ok := findTouch(prev.touches, t.ID); !ok {
			started = append(started, t)
		}
	}
	for _, t := range prev.touches {
		if _, ok := findTouch(st.touches, t.ID); !ok {
			ended = append(ended, t)
		}
	}

	if len(ended) > 0 {
		pz.TouchEnd(TouchEvent{Time: now, Touches: st.touches, Changed: ended})
	}
	if len(started) > 0 {
		pz.TouchStart(TouchEvent{Time: now, Touches: st.touches, Changed: started})
	}
	if len(started) == 0 && len(ended) == 0 && touchesMoved(prev.touches, st.touches) {
		pz.TouchMove(TouchEvent{Time: now, Touches: st.touches, Changed: st.touches})
	}
}

func findTouch(ts []Touch, id int) (Touch, bool) {
	i, ok := slices.BinarySearchFunc(ts, id, func(t Touch, id int) int { return t.ID - id })
	if !ok {
		return Touch{}, false
	}
	return ts[i], true
}

func touchesMoved(prev, cur []Touch) bool {
	for _, t := range cur {
		if p, ok := findTouch(prev, t.ID); ok && p.Pos != t.Pos {
			return true
		}
	}
	return false
}
