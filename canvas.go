package mapview

import (
	"image"
	"image/color"
)

// Surface is the drawing target handed to layers each frame. Coordinates are
// physical pixels of the canvas.
type Surface interface {
	Size() (w, h int)
	Clear(c color.Color)
	// DrawImage draws the src sub-rectangle of img scaled into dst.
	DrawImage(img image.Image, src image.Rectangle, dst Rect)
	StrokePolyline(pts []Vec2, width float64, c color.Color)
	FillPolygon(pts []Vec2, c color.Color)
	FillCircle(center Vec2, radius float64, c color.Color)
	// DrawText draws a single line with its top-left corner at pos.
	DrawText(s string, pos Vec2, c color.Color)
	MeasureText(s string) (w, h float64)
}

// Canvas is the element a Renderer draws into: a resizable surface with a
// displayed size and a device pixel density.
type Canvas interface {
	// ClientSize is the displayed size in logical pixels.
	ClientSize() (w, h int)
	// DeviceScale is the number of physical pixels per logical pixel.
	DeviceScale() float64
	// Resize reallocates the surface to w×h physical pixels.
	Resize(w, h int)
	Surface() Surface
	// PrepareImage converts a decoded tile into the form the surface draws
	// fastest. It runs on the host goroutine.
	PrepareImage(img image.Image) image.Image
}

// Snapshotter is implemented by surfaces that can read back their pixels.
type Snapshotter interface {
	Snapshot() *image.NRGBA
}
