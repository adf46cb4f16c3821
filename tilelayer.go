package mapview

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"
)

// maxTileScale caps the pyramid depth so that 1<<scale stays exact.
const maxTileScale = 30

// maxZoomSearch is the deepest level MaxZoomAt inspects.
const maxZoomSearch = 20

// TileHost is what a TileLayer needs from its renderer.
type TileHost interface {
	// LoadImage fetches url asynchronously. Exactly one of success or
	// failure is later called on the host goroutine.
	LoadImage(url string, success func(image.Image), failure func(error))
	// PixelRatio is the current physical pixels per logical pixel of the
	// surface, including any motion down-sampling.
	PixelRatio() float64
	Downsampling() bool
	IsMoving() bool
	RefreshIfNotMoving()
	Logger() *slog.Logger
}

// TileKey addresses one tile of the pyramid.
type TileKey struct {
	Scale, X, Y int
}

func (k TileKey) String() string { return fmt.Sprintf("%d/%d/%d", k.Scale, k.X, k.Y) }

// Parent returns the tile up levels coarser that covers k.
func (k TileKey) Parent(up int) TileKey {
	return TileKey{k.Scale - up, k.X >> up, k.Y >> up}
}

// TileState is the lifecycle stage of a cached tile.
type TileState uint8

const (
	TileQueued  TileState = iota // waiting for a load slot
	TileLoading                  // fetch in flight
	TileLoaded                   // image available
	TileFailed                   // fetch failed, never retried
)

func (s TileState) String() string {
	switch s {
	case TileQueued:
		return "queued"
	case TileLoading:
		return "loading"
	case TileLoaded:
		return "loaded"
	case TileFailed:
		return "failed"
	default:
		return fmt.Sprintf("TileState(%d)", uint8(s))
	}
}

// TileLayerConfig configures a TileLayer. Zero fields take the same defaults
// as Config.
type TileLayerConfig struct {
	URL                     TileURLFunc
	WorldWidth, WorldHeight float64
	TileSize                int
	MaxNumCachedTiles       int
	MaxSimultaneousLoads    int
	MaxUpLevels             int
	StaleDrawCycles         int
}

func (c TileLayerConfig) withDefaults() TileLayerConfig {
	if c.URL == nil {
		c.URL = TemplateURL(DefaultTileURL)
	}
	if c.WorldWidth <= 0 {
		c.WorldWidth = 1
	}
	if c.WorldHeight <= 0 {
		c.WorldHeight = 1
	}
	if c.TileSize <= 0 {
		c.TileSize = 256
	}
	if c.MaxNumCachedTiles <= 0 {
		c.MaxNumCachedTiles = 64
	}
	if c.MaxSimultaneousLoads <= 0 {
		c.MaxSimultaneousLoads = 3
	}
	if c.MaxUpLevels <= 0 {
		c.MaxUpLevels = 5
	}
	if c.StaleDrawCycles <= 0 {
		c.StaleDrawCycles = 3
	}
	return c
}

type tile struct {
	key             TileKey
	state           TileState
	img             image.Image
	lastDrawRequest int
	priority        float64
}

type loadRequest struct {
	tile *tile
	url  string
}

// TileInfo is a snapshot of one cache record.
type TileInfo struct {
	Key             TileKey
	State           TileState
	Image           image.Image
	LastDrawRequest int
	Priority        float64
}

// TileStats summarizes the cache.
type TileStats struct {
	Total     int
	Cached    int
	Loading   int
	Queued    int
	Failed    int
	DrawCycle int
}

// TileLayer draws a quad-tree tile pyramid. It picks the level matching the
// surface resolution, falls back to cropped ancestors while tiles load and
// keeps the number of loaded tiles within budget.
type TileLayer struct {
	cfg  TileLayerConfig
	host TileHost

	tiles      map[TileKey]*tile
	queue      []loadRequest
	numLoading int
	numCached  int
	numDraw    int

	// numTiles is the level-0 tile count across the last drawn surface.
	numTiles float64
}

// NewTileLayer creates a TileLayer fetching through host.
func NewTileLayer(host TileHost, cfg TileLayerConfig) *TileLayer {
	return &TileLayer{
		cfg:   cfg.withDefaults(),
		host:  host,
		tiles: make(map[TileKey]*tile),
	}
}

type tileGeometry struct {
	origin Vec2
	delta  Vec2
	first  image.Point
}

// Draw renders the tiles covering [tl, br], then services the load queue and
// trims the cache.
func (l *TileLayer) Draw(s Surface, t AffineTransform, tl, br Vec2) {
	defer func() {
		l.processQueue()
		l.limitCacheSize()
		l.numDraw++
	}()

	w, h := s.Size()
	ratio := l.host.PixelRatio()
	if ratio <= 0 {
		ratio = 1
	}
	l.numTiles = float64(w) / (float64(l.cfg.TileSize) * ratio)
	if l.numTiles <= 0 || !(br.X > tl.X) {
		return
	}
	scale := l.scaleFor((br.X - tl.X) / l.numTiles)
	if l.host.Downsampling() && l.host.IsMoving() && scale > 0 {
		scale--
	}

	n := math.Exp2(float64(scale))
	lastX := int(math.Ceil(l.cfg.WorldWidth*n)) - 1
	lastY := int(math.Ceil(l.cfg.WorldHeight*n)) - 1
	x0 := int(math.Floor(math.Max(0, tl.X) * n))
	y0 := int(math.Floor(math.Max(0, tl.Y) * n))
	x1 := min(int(math.Floor(math.Min(l.cfg.WorldWidth, br.X)*n)), lastX)
	y1 := min(int(math.Floor(math.Min(l.cfg.WorldHeight, br.Y)*n)), lastY)

	origin := t.Transform(Vec2{float64(x0) / n, float64(y0) / n})
	next := t.Transform(Vec2{float64(x0+1) / n, float64(y0+1) / n})
	g := tileGeometry{
		origin: Vec2{math.Round(origin.X), math.Round(origin.Y)},
		delta:  Vec2{math.Round(next.X - origin.X), math.Round(next.Y - origin.Y)},
		first:  image.Pt(x0, y0),
	}

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			l.renderTile(s, TileKey{scale, x, y}, g, w, h)
		}
	}
}

func (l *TileLayer) scaleFor(unitsPerTile float64) int {
	s := math.Max(0, math.Ceil(-math.Log2(unitsPerTile)))
	if math.IsNaN(s) || s > maxTileScale {
		return maxTileScale
	}
	return int(s)
}

func (l *TileLayer) renderTile(s Surface, k TileKey, g tileGeometry, w, h int) {
	dst := Rect{
		X:     g.origin.X + g.delta.X*float64(k.X-g.first.X),
		Y:     g.origin.Y + g.delta.Y*float64(k.Y-g.first.Y),
		Width: g.delta.X, Height: g.delta.Y,
	}
	if !dst.Intersects(Rect{Width: float64(w), Height: float64(h)}) {
		return
	}

	for up := 0; up <= k.Scale && up < l.cfg.MaxUpLevels; up++ {
		pk := k.Parent(up)
		t := l.getTile(pk, 1-float64(up)*0.15)
		if t.state != TileLoaded || t.img == nil {
			continue
		}
		b := t.img.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			continue
		}
		skipX := k.X - pk.X<<up
		skipY := k.Y - pk.Y<<up
		// Crop in decoded image pixels, not TileSize.
		sizeX := max(1, b.Dx()>>up)
		sizeY := max(1, b.Dy()>>up)
		src := image.Rect(
			b.Min.X+skipX*sizeX, b.Min.Y+skipY*sizeY,
			b.Min.X+(skipX+1)*sizeX, b.Min.Y+(skipY+1)*sizeY,
		)
		s.DrawImage(t.img, src, dst)
		return
	}
}

// getTile returns the record for k, queueing a fetch the first time k is
// seen. Repeated requests within one draw cycle accumulate priority.
func (l *TileLayer) getTile(k TileKey, priority float64) *tile {
	if t, ok := l.tiles[k]; ok {
		if t.lastDrawRequest == l.numDraw {
			t.priority += priority
		} else {
			t.lastDrawRequest = l.numDraw
			t.priority = priority
		}
		return t
	}
	t := &tile{key: k, state: TileQueued, lastDrawRequest: l.numDraw, priority: priority}
	l.tiles[k] = t
	l.queue = append(l.queue, loadRequest{tile: t, url: l.cfg.URL(k.Scale, k.X, k.Y)})
	return t
}

func (l *TileLayer) processQueue() {
	if l.numLoading >= l.cfg.MaxSimultaneousLoads || len(l.queue) == 0 {
		return
	}
	slices.SortStableFunc(l.queue, func(a, b loadRequest) int {
		if c := cmp.Compare(a.tile.lastDrawRequest, b.tile.lastDrawRequest); c != 0 {
			return c
		}
		return cmp.Compare(a.tile.priority, b.tile.priority)
	})
	for l.numLoading < l.cfg.MaxSimultaneousLoads && len(l.queue) > 0 {
		req := l.queue[len(l.queue)-1]
		l.queue = l.queue[:len(l.queue)-1]

		if l.numDraw-req.tile.lastDrawRequest >= l.cfg.StaleDrawCycles {
			if l.tiles[req.tile.key] == req.tile {
				delete(l.tiles, req.tile.key)
			}
			continue
		}
		l.dispatch(req)
	}
}

func (l *TileLayer) dispatch(req loadRequest) {
	t := req.tile
	l.numLoading++
	t.state = TileLoading
	l.host.LoadImage(req.url,
		func(img image.Image) {
			l.numLoading--
			t.img = img
			t.state = TileLoaded
			if l.tiles[t.key] == t {
				l.numCached++
			}
			l.host.RefreshIfNotMoving()
		},
		func(err error) {
			l.numLoading--
			t.state = TileFailed
			l.host.Logger().Debug("tile load failed", "tile", t.key, "url", req.url, "err", err)
			l.processQueue()
		},
	)
}

// limitCacheSize evicts the least recently drawn loaded tiles until the
// budget holds. Tiles requested in the current cycle are kept regardless.
func (l *TileLayer) limitCacheSize() {
	excess := l.numCached - l.cfg.MaxNumCachedTiles
	if excess <= 0 {
		return
	}
	var candidates []*tile
	for _, t := range l.tiles {
		if t.state == TileLoaded && t.lastDrawRequest != l.numDraw {
			candidates = append(candidates, t)
		}
	}
	slices.SortFunc(candidates, func(a, b *tile) int {
		if c := cmp.Compare(a.lastDrawRequest, b.lastDrawRequest); c != 0 {
			return c
		}
		// Finer tiles go first; coarse ones back more of the view.
		return cmp.Compare(b.key.Scale, a.key.Scale)
	})
	for _, t := range candidates[:min(excess, len(candidates))] {
		delete(l.tiles, t.key)
		l.numCached--
	}
}

func (l *TileLayer) stateAt(scale int, p Vec2) (TileState, bool) {
	x, y := WorldToTile(scale, p)
	t, ok := l.tiles[TileKey{scale, x, y}]
	if !ok {
		return 0, false
	}
	return t.state, true
}

// MaxZoomAt returns the deepest level with a loaded tile covering p, if the
// tile one level deeper is known to have failed.
func (l *TileLayer) MaxZoomAt(p Vec2) (int, bool) {
	for z := maxZoomSearch; z >= 0; z-- {
		if st, ok := l.stateAt(z, p); ok && st == TileLoaded {
			if next, ok := l.stateAt(z+1, p); ok && next == TileFailed {
				return z, true
			}
			return 0, false
		}
	}
	return 0, false
}

// MinScaleAt returns the smallest Location.Scale worth showing around p:
// twice the native resolution of the deepest available level.
func (l *TileLayer) MinScaleAt(p Vec2) (float64, bool) {
	z, ok := l.MaxZoomAt(p)
	if !ok || l.numTiles <= 0 {
		return 0, false
	}
	return 0.5 * l.numTiles / math.Exp2(float64(z)), true
}

// Tile returns a snapshot of the record for k.
func (l *TileLayer) Tile(k TileKey) (TileInfo, bool) {
	t, ok := l.tiles[k]
	if !ok {
		return TileInfo{}, false
	}
	return TileInfo{
		Key:             t.key,
		State:           t.state,
		Image:           t.img,
		LastDrawRequest: t.lastDrawRequest,
		Priority:        t.priority,
	}, true
}

// Stats reports cache counters.
func (l *TileLayer) Stats() TileStats {
	st := TileStats{
		Total:     len(l.tiles),
		Cached:    l.numCached,
		Loading:   l.numLoading,
		Queued:    len(l.queue),
		DrawCycle: l.numDraw,
	}
	for _, t := range l.tiles {
		if t.state == TileFailed {
			st.Failed++
		}
	}
	return st
}

// Idle reports whether no tile is queued or loading.
func (l *TileLayer) Idle() bool {
	return l.numLoading == 0 && len(l.queue) == 0
}
