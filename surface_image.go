package mapview

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// circleSegments is the number of edges used to approximate a circle.
const circleSegments = 32

// ImageCanvas is a headless Canvas backed by an *image.RGBA. Use it to
// render maps to files or to test layers without a window.
type ImageCanvas struct {
	clientW, clientH int
	scale            float64
	surface          *ImageSurface
}

// NewImageCanvas creates a canvas displayed at w×h logical pixels with a
// device scale of 1.
func NewImageCanvas(w, h int) *ImageCanvas {
	return &ImageCanvas{clientW: w, clientH: h, scale: 1, surface: NewImageSurface(w, h)}
}

// SetClientSize changes the displayed size. The surface follows on the next
// frame.
func (c *ImageCanvas) SetClientSize(w, h int) { c.clientW, c.clientH = w, h }

// SetDeviceScale sets the physical pixels per logical pixel.
func (c *ImageCanvas) SetDeviceScale(s float64) { c.scale = s }

func (c *ImageCanvas) ClientSize() (int, int) { return c.clientW, c.clientH }
func (c *ImageCanvas) DeviceScale() float64   { return c.scale }
func (c *ImageCanvas) Resize(w, h int)        { c.surface = NewImageSurface(w, h) }
func (c *ImageCanvas) Surface() Surface       { return c.surface }

// PrepareImage returns img unchanged; the surface draws any image.Image.
func (c *ImageCanvas) PrepareImage(img image.Image) image.Image { return img }

// Image returns the current surface pixels.
func (c *ImageCanvas) Image() *image.RGBA { return c.surface.img }

// ImageSurface implements Surface on an *image.RGBA. Vector shapes are
// rasterized with golang.org/x/image/vector and text uses basicfont.
type ImageSurface struct {
	img *image.RGBA
}

// NewImageSurface allocates a transparent w×h surface.
func NewImageSurface(w, h int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))}
}

func (s *ImageSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSurface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage scales src of img into dst with bilinear filtering.
func (s *ImageSurface) DrawImage(img image.Image, src image.Rectangle, dst Rect) {
	r := image.Rect(
		int(math.Round(dst.X)), int(math.Round(dst.Y)),
		int(math.Round(dst.X+dst.Width)), int(math.Round(dst.Y+dst.Height)),
	)
	if r.Empty() || src.Empty() || !r.Overlaps(s.img.Bounds()) {
		return
	}
	xdraw.ApproxBiLinear.Scale(s.img, r, img, src, xdraw.Over, nil)
}

// StrokePolyline draws each segment as a filled quad, with round joints
// for lines wider than two pixels.
func (s *ImageSurface) StrokePolyline(pts []Vec2, width float64, c color.Color) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	z := s.rasterizer()
	hw := width / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		n := Vec2{-d.Y / l * hw, d.X / l * hw}
		quad := [...]Vec2{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
		addPolygon(z, quad[:])
	}
	if width > 2 {
		for _, p := range pts[1 : len(pts)-1] {
			addPolygon(z, circlePoints(p, hw))
		}
	}
	s.fill(z, c)
}

func (s *ImageSurface) FillPolygon(pts []Vec2, c color.Color) {
	if len(pts) < 3 {
		return
	}
	z := s.rasterizer()
	addPolygon(z, pts)
	s.fill(z, c)
}

func (s *ImageSurface) FillCircle(center Vec2, radius float64, c color.Color) {
	if radius <= 0 {
		return
	}
	z := s.rasterizer()
	addPolygon(z, circlePoints(center, radius))
	s.fill(z, c)
}

// DrawText draws with basicfont.Face7x13, top-left corner at pos.
func (s *ImageSurface) DrawText(str string, pos Vec2, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(int(math.Round(pos.X))),
			Y: fixed.I(int(math.Round(pos.Y))) + face.Metrics().Ascent,
		},
	}
	d.DrawString(str)
}

func (s *ImageSurface) MeasureText(str string) (float64, float64) {
	face := basicfont.Face7x13
	return float64(font.MeasureString(face, str).Ceil()), float64(face.Metrics().Height.Ceil())
}

// Snapshot copies the surface into a non-premultiplied image.
func (s *ImageSurface) Snapshot() *image.NRGBA {
	b := s.img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, s.img, b.Min, draw.Src)
	return out
}

func (s *ImageSurface) rasterizer() *vector.Rasterizer {
	w, h := s.Size()
	return vector.NewRasterizer(w, h)
}

func (s *ImageSurface) fill(z *vector.Rasterizer, c color.Color) {
	z.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}

func addPolygon(z *vector.Rasterizer, pts []Vec2) {
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}

// circlePoints winds the same way as the stroke quads so overlapping joints
// do not cancel out.
func circlePoints(c Vec2, r float64) []Vec2 {
	pts := make([]Vec2, circleSegments)
	for i := range pts {
		a := -2 * math.Pi * float64(i) / circleSegments
		pts[i] = Vec2{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return pts
}
