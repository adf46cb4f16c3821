package mapview

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"time"
)

// --- recording surface ---

type drawCall struct {
	img image.Image
	src image.Rectangle
	dst Rect
}

type textCall struct {
	s   string
	pos Vec2
}

type recordingSurface struct {
	w, h     int
	clears   []color.Color
	draws    []drawCall
	lines    [][]Vec2
	polygons [][]Vec2
	circles  []Vec2
	texts    []textCall
}

func newRecordingSurface(w, h int) *recordingSurface {
	return &recordingSurface{w: w, h: h}
}

func (s *recordingSurface) Size() (int, int)     { return s.w, s.h }
func (s *recordingSurface) Clear(c color.Color) { s.clears = append(s.clears, c) }
func (s *recordingSurface) DrawImage(img image.Image, src image.Rectangle, dst Rect) {
	s.draws = append(s.draws, drawCall{img, src, dst})
}
func (s *recordingSurface) StrokePolyline(pts []Vec2, _ float64, _ color.Color) {
	s.lines = append(s.lines, append([]Vec2(nil), pts...))
}
func (s *recordingSurface) FillPolygon(pts []Vec2, _ color.Color) {
	s.polygons = append(s.polygons, append([]Vec2(nil), pts...))
}
func (s *recordingSurface) FillCircle(c Vec2, _ float64, _ color.Color) {
	s.circles = append(s.circles, c)
}
func (s *recordingSurface) DrawText(str string, pos Vec2, _ color.Color) {
	s.texts = append(s.texts, textCall{str, pos})
}
func (s *recordingSurface) MeasureText(str string) (float64, float64) {
	return float64(len(str)) * 6, 13
}

func (s *recordingSurface) reset() {
	s.clears, s.draws, s.lines, s.polygons, s.circles, s.texts = nil, nil, nil, nil, nil, nil
}

// --- fake canvas ---

type fakeCanvas struct {
	clientW, clientH int
	scale            float64
	surface          *recordingSurface
	resizes          int
	prepared         int
}

func newFakeCanvas(w, h int) *fakeCanvas {
	return &fakeCanvas{clientW: w, clientH: h, scale: 1, surface: newRecordingSurface(w, h)}
}

func (c *fakeCanvas) ClientSize() (int, int) { return c.clientW, c.clientH }
func (c *fakeCanvas) DeviceScale() float64   { return c.scale }
func (c *fakeCanvas) Resize(w, h int) {
	c.resizes++
	c.surface.w, c.surface.h = w, h
}
func (c *fakeCanvas) Surface() Surface { return c.surface }
func (c *fakeCanvas) PrepareImage(img image.Image) image.Image {
	c.prepared++
	return img
}

// --- manual image loading ---

type pendingLoad struct {
	url     string
	success func(image.Image)
	failure func(error)
}

// manualLoader records LoadImage calls and completes them on demand.
type manualLoader struct {
	pending []pendingLoad
	urls    []string
}

func (m *manualLoader) LoadImage(url string, success func(image.Image), failure func(error)) {
	m.urls = append(m.urls, url)
	m.pending = append(m.pending, pendingLoad{url, success, failure})
}

func (m *manualLoader) take(url string) (pendingLoad, bool) {
	for i, p := range m.pending {
		if p.url == url {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return p, true
		}
	}
	return pendingLoad{}, false
}

func (m *manualLoader) succeed(url string, img image.Image) bool {
	p, ok := m.take(url)
	if ok {
		p.success(img)
	}
	return ok
}

func (m *manualLoader) fail(url string) bool {
	p, ok := m.take(url)
	if ok {
		p.failure(errors.New("boom"))
	}
	return ok
}

func (m *manualLoader) succeedAll(img image.Image) {
	for len(m.pending) > 0 {
		p := m.pending[0]
		m.pending = m.pending[1:]
		p.success(img)
	}
}

func (m *manualLoader) requested(url string) bool {
	for _, u := range m.urls {
		if u == url {
			return true
		}
	}
	return false
}

// --- fake tile host ---

type fakeTileHost struct {
	manualLoader
	ratio        float64
	downsampling bool
	moving       bool
	refreshes    int
	// autoSucceed completes every load synchronously with img.
	autoSucceed image.Image
}

func newFakeTileHost() *fakeTileHost { return &fakeTileHost{ratio: 1} }

func (h *fakeTileHost) LoadImage(url string, success func(image.Image), failure func(error)) {
	if h.autoSucceed != nil {
		h.urls = append(h.urls, url)
		success(h.autoSucceed)
		return
	}
	h.manualLoader.LoadImage(url, success, failure)
}
func (h *fakeTileHost) PixelRatio() float64  { return h.ratio }
func (h *fakeTileHost) Downsampling() bool   { return h.downsampling }
func (h *fakeTileHost) IsMoving() bool       { return h.moving }
func (h *fakeTileHost) RefreshIfNotMoving()  { h.refreshes++ }
func (h *fakeTileHost) Logger() *slog.Logger { return newNopLogger() }

func keyURL(scale, x, y int) string { return TileKey{scale, x, y}.String() }

func testTileURL(scale, x, y int) string { return keyURL(scale, x, y) }

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// --- fake clock ---

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
