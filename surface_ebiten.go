package mapview

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Glyph size of ebitenutil's debug font.
const (
	debugGlyphW = 6
	debugGlyphH = 16
)

var whiteImage *ebiten.Image

// whiteSubImage returns the inner pixel of a lazily-created 3x3 white image
// used as the source for solid-color triangles.
func whiteSubImage() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	return whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}

// EbitenCanvas is a Canvas backed by an offscreen *ebiten.Image. The host
// game reports the window size through SetLayout and composites Image onto
// the screen in Draw.
type EbitenCanvas struct {
	clientW, clientH int
	scale            float64
	// screenW and screenH are the layout size returned to ebiten, the
	// space cursor positions are reported in.
	screenW, screenH int
	img              *ebiten.Image
	surface          ebitenSurface
}

// NewEbitenCanvas creates a canvas with a w×h image.
func NewEbitenCanvas(w, h int) *EbitenCanvas {
	c := &EbitenCanvas{clientW: w, clientH: h, scale: 1}
	c.Resize(w, h)
	return c
}

// SetLayout records the logical window size and device scale factor, as
// passed to and computed in ebiten.Game.Layout.
func (c *EbitenCanvas) SetLayout(w, h int, scale float64) {
	c.clientW, c.clientH, c.scale = w, h, scale
}

func (c *EbitenCanvas) ClientSize() (int, int) { return c.clientW, c.clientH }
func (c *EbitenCanvas) DeviceScale() float64   { return c.scale }

func (c *EbitenCanvas) Resize(w, h int) {
	if c.img != nil {
		c.img.Deallocate()
	}
	c.img = ebiten.NewImage(max(w, 1), max(h, 1))
	c.surface = ebitenSurface{img: c.img}
}

func (c *EbitenCanvas) Surface() Surface { return c.surface }

// PrepareImage uploads img to the GPU once so every frame reuses it.
func (c *EbitenCanvas) PrepareImage(img image.Image) image.Image {
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	return ebiten.NewImageFromImage(img)
}

// Image is the offscreen image the map is drawn into.
func (c *EbitenCanvas) Image() *ebiten.Image { return c.img }

type ebitenSurface struct {
	img *ebiten.Image
}

func (s ebitenSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s ebitenSurface) Clear(c color.Color) { s.img.Fill(c) }

func (s ebitenSurface) DrawImage(img image.Image, src image.Rectangle, dst Rect) {
	if src.Empty() || dst.Width <= 0 || dst.Height <= 0 {
		return
	}
	e, ok := img.(*ebiten.Image)
	if !ok {
		e = ebiten.NewImageFromImage(img)
		defer e.Deallocate()
	}
	sub := e.SubImage(src).(*ebiten.Image)
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(dst.Width/float64(src.Dx()), dst.Height/float64(src.Dy()))
	op.GeoM.Translate(dst.X, dst.Y)
	s.img.DrawImage(sub, op)
}

func (s ebitenSurface) StrokePolyline(pts []Vec2, width float64, c color.Color) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		vector.StrokeLine(s.img, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), c, true)
	}
}

func (s ebitenSurface) FillPolygon(pts []Vec2, c color.Color) {
	if len(pts) < 3 {
		return
	}
	var p vector.Path
	p.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, q := range pts[1:] {
		p.LineTo(float32(q.X), float32(q.Y))
	}
	p.Close()

	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := c.RGBA()
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(g) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	s.img.DrawTriangles(vs, is, whiteSubImage(), &ebiten.DrawTrianglesOptions{
		AntiAlias: true,
		FillRule:  ebiten.FillRuleNonZero,
	})
}

func (s ebitenSurface) FillCircle(center Vec2, radius float64, c color.Color) {
	vector.DrawFilledCircle(s.img, float32(center.X), float32(center.Y), float32(radius), c, true)
}

// DrawText uses ebitenutil's debug font, which is always white.
func (s ebitenSurface) DrawText(str string, pos Vec2, _ color.Color) {
	ebitenutil.DebugPrintAt(s.img, str, int(pos.X), int(pos.Y))
}

func (s ebitenSurface) MeasureText(str string) (float64, float64) {
	return float64(len(str) * debugGlyphW), debugGlyphH
}

// Snapshot reads the pixels back from the GPU. Only valid while the game
// loop runs.
func (s ebitenSurface) Snapshot() *image.NRGBA {
	b := s.img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	s.img.ReadPixels(rgba.Pix)
	out := image.NewNRGBA(rgba.Bounds())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, rgba.RGBAAt(x, y))
		}
	}
	return out
}
