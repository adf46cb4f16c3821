package mapview

// Layer draws one stratum of the map. tl and br bound the visible world
// area. All layers of a frame receive the same transform, which they must
// not retain.
type Layer interface {
	Draw(s Surface, t AffineTransform, tl, br Vec2)
}

// MinScaleProvider is implemented by layers that know how far the view may
// zoom in near a world point, typically because deeper data is missing.
type MinScaleProvider interface {
	MinScaleAt(p Vec2) (float64, bool)
}

// LayerFunc adapts a function to the Layer interface.
type LayerFunc func(s Surface, t AffineTransform, tl, br Vec2)

// Draw calls f.
func (f LayerFunc) Draw(s Surface, t AffineTransform, tl, br Vec2) { f(s, t, tl, br) }
