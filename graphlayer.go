package mapview

import (
	"image/color"
	"math"
	"strings"
)

// GraphNode is a place marker in world coordinates.
type GraphNode struct {
	Name  string `json:"name"`
	Coord Vec2   `json:"coord"`
	Label string `json:"label,omitempty"`
	// Radius in logical pixels. Zero uses the layer default.
	Radius float64 `json:"radius,omitempty"`
	// TextPlacement is a compass direction for the label relative to the
	// marker: C, N, NE, E, S, W. Default S.
	TextPlacement string `json:"textPlacement,omitempty"`
	Hidden        bool   `json:"hidden,omitempty"`
}

// GraphEdge joins two nodes by name. Two control points make one cubic
// curve and five make two joined cubics. Any other count draws a polyline
// through the control points.
type GraphEdge struct {
	From          string `json:"from"`
	To            string `json:"to"`
	ControlPoints []Vec2 `json:"controlPoints,omitempty"`
	Hidden        bool   `json:"hidden,omitempty"`
	// LineWidth in logical pixels. Zero uses the layer default.
	LineWidth float64 `json:"lineWidth,omitempty"`
}

// Graph is a set of named places joined by edges.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// NewGraphFromStopovers chains stops in order, generating curved control
// points for each leg.
func NewGraphFromStopovers(stops []GraphNode) *Graph {
	g := &Graph{Nodes: append([]GraphNode(nil), stops...)}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		cp := GenerateControlPoints(a.Coord, b.Coord)
		g.Edges = append(g.Edges, GraphEdge{From: a.Name, To: b.Name, ControlPoints: cp[:]})
	}
	return g
}

// GenerateControlPoints returns the control points of a gentle arc from p1
// to p2, bulging to the left of the direction of travel.
func GenerateControlPoints(p1, p2 Vec2) [2]Vec2 {
	delta := p2.Sub(p1).Mul(1.0 / 3)
	n := Vec2{-delta.Y, delta.X}
	return [2]Vec2{p1.Add(delta).Add(n), p2.Sub(delta).Add(n)}
}

// Node returns the node with the given name.
func (g *Graph) Node(name string) (*GraphNode, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Curves returns the cubic segments of e in world coordinates. It returns
// nil for edges drawn as polylines and for edges with unknown endpoints.
func (g *Graph) Curves(e GraphEdge) []CubicBezier {
	from, ok1 := g.Node(e.From)
	to, ok2 := g.Node(e.To)
	if !ok1 || !ok2 {
		return nil
	}
	cp := e.ControlPoints
	switch len(cp) {
	case 2:
		return []CubicBezier{{from.Coord, cp[0], cp[1], to.Coord}}
	case 5:
		return []CubicBezier{
			{from.Coord, cp[0], cp[1], cp[2]},
			{cp[2], cp[3], cp[4], to.Coord},
		}
	}
	return nil
}

// Polyline returns the points of e from its start node to its end node.
func (g *Graph) Polyline(e GraphEdge) []Vec2 {
	from, ok1 := g.Node(e.From)
	to, ok2 := g.Node(e.To)
	if !ok1 || !ok2 {
		return nil
	}
	pts := make([]Vec2, 0, len(e.ControlPoints)+2)
	pts = append(pts, from.Coord)
	pts = append(pts, e.ControlPoints...)
	return append(pts, to.Coord)
}

// Bounds returns the extent of all node coordinates.
func (g *Graph) Bounds() BoundingBox {
	var b BoundingBox
	for _, n := range g.Nodes {
		b.Add(n.Coord)
	}
	return b
}

// Frame returns a box containing every node, grown by margin and widened or
// heightened to aspect (width/height). Zero aspect keeps the graph's own and
// zero margin means 1.1.
func (g *Graph) Frame(aspect, margin float64) BoundingBox {
	b := g.Bounds()
	if b.Empty() {
		return b
	}
	size := b.Size()
	if margin <= 0 {
		margin = 1.1
	}
	if aspect <= 0 {
		aspect = 1
		if size.Y > 0 {
			aspect = size.X / size.Y
		}
	}
	size = size.Mul(margin)
	if size.X > size.Y*aspect {
		size.Y = size.X / aspect
	} else {
		size.X = size.Y * aspect
	}
	half := size.Mul(0.5)
	c := b.Center()
	var out BoundingBox
	out.Add(c.Sub(half))
	out.Add(c.Add(half))
	return out
}

// Location returns the view that shows Frame(aspect, margin).
func (g *Graph) Location(aspect, margin float64) Location {
	f := g.Frame(aspect, margin)
	c := f.Center()
	return Location{X: c.X, Y: c.Y, Scale: f.Max.X - f.Min.X}
}

// GraphStyle holds GraphLayer drawing defaults. Sizes are logical pixels.
type GraphStyle struct {
	EdgeColor  color.Color
	EdgeWidth  float64
	NodeFill   color.Color
	NodeStroke color.Color
	Radius     float64
	LabelColor color.Color
	// TextOffset is the label distance from the marker center.
	TextOffset float64
	// CurveSegments is the flattening resolution of each cubic.
	CurveSegments int
}

// DefaultGraphStyle is used for zero GraphStyle fields.
var DefaultGraphStyle = GraphStyle{
	EdgeColor:     color.NRGBA{0x33, 0x33, 0x99, 0xff},
	EdgeWidth:     2,
	NodeFill:      color.White,
	NodeStroke:    color.Black,
	Radius:        6,
	LabelColor:    color.Black,
	TextOffset:    20,
	CurveSegments: 32,
}

func (s GraphStyle) withDefaults() GraphStyle {
	d := DefaultGraphStyle
	if s.EdgeColor == nil {
		s.EdgeColor = d.EdgeColor
	}
	if s.EdgeWidth == 0 {
		s.EdgeWidth = d.EdgeWidth
	}
	if s.NodeFill == nil {
		s.NodeFill = d.NodeFill
	}
	if s.NodeStroke == nil {
		s.NodeStroke = d.NodeStroke
	}
	if s.Radius == 0 {
		s.Radius = d.Radius
	}
	if s.LabelColor == nil {
		s.LabelColor = d.LabelColor
	}
	if s.TextOffset == 0 {
		s.TextOffset = d.TextOffset
	}
	if s.CurveSegments == 0 {
		s.CurveSegments = d.CurveSegments
	}
	return s
}

// GraphLayer draws a Graph: edges first, then markers, then labels.
type GraphLayer struct {
	r     *Renderer
	Graph *Graph
	Style GraphStyle
}

// NewGraphLayer creates a layer drawing g with the default style.
func NewGraphLayer(r *Renderer, g *Graph) *GraphLayer {
	return &GraphLayer{r: r, Graph: g}
}

func (l *GraphLayer) Draw(s Surface, t AffineTransform, _, _ Vec2) {
	g := l.Graph
	if g == nil {
		return
	}
	st := l.Style.withDefaults()
	pr := l.r.PixelRatio()

	for _, e := range g.Edges {
		if e.Hidden {
			continue
		}
		width := st.EdgeWidth
		if e.LineWidth > 0 {
			width = e.LineWidth
		}
		if curves := g.Curves(e); curves != nil {
			for _, c := range curves {
				s.StrokePolyline(c.Map(t).Flatten(st.CurveSegments), width*pr, st.EdgeColor)
			}
			continue
		}
		pts := g.Polyline(e)
		for i := range pts {
			pts[i] = t.Transform(pts[i])
		}
		s.StrokePolyline(pts, width*pr, st.EdgeColor)
	}

	sw, sh := s.Size()
	for _, n := range g.Nodes {
		if n.Hidden {
			continue
		}
		r := st.Radius
		if n.Radius > 0 {
			r = n.Radius
		}
		pos := t.Transform(n.Coord)
		m := (r + 1) * pr
		if !(Rect{X: -m, Y: -m, Width: float64(sw) + 2*m, Height: float64(sh) + 2*m}).Contains(pos.X, pos.Y) {
			continue
		}
		s.FillCircle(pos, (r+1)*pr, st.NodeStroke)
		s.FillCircle(pos, (r-1)*pr, st.NodeFill)
	}

	for _, n := range g.Nodes {
		if n.Hidden || n.Label == "" {
			continue
		}
		drawLabel(s, n.Label, t.Transform(n.Coord), n.TextPlacement, st.TextOffset*pr, st.LabelColor)
	}
}

// drawLabel places each line of text around anchor following a compass
// placement.
func drawLabel(s Surface, text string, anchor Vec2, placement string, offset float64, c color.Color) {
	lines := strings.Split(text, "\n")
	placement = strings.ToUpper(placement)
	if placement == "" {
		placement = "S"
	}
	if placement == "O" {
		placement = "W"
	}

	var align, baseline int // -1 start/top, 0 center/middle, 1 end/bottom
	pos := anchor
	switch placement {
	case "E", "NE":
		align = -1
		pos.X += offset
	case "W":
		align = 1
		pos.X -= offset
	}
	switch placement {
	case "C", "E", "W":
		baseline = 0
	case "N", "NE":
		baseline = 1
		pos.Y -= offset
	default:
		baseline = -1
		pos.Y += offset
	}

	_, lh := s.MeasureText("M")
	block := lh * float64(len(lines))
	y := pos.Y
	switch baseline {
	case 0:
		y -= block / 2
	case 1:
		y -= block
	}
	for i, line := range lines {
		w, _ := s.MeasureText(line)
		x := pos.X
		switch align {
		case 0:
			x -= w / 2
		case 1:
			x -= w
		}
		s.DrawText(line, Vec2{math.Round(x), math.Round(y + float64(i)*lh)}, c)
	}
}
