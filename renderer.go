package mapview

import (
	"context"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"
)

// resizeSlack is how far, in pixels, the surface may drift from the
// displayed size before it is reallocated.
const resizeSlack = 3

type clickHandler struct {
	id uint32
	fn func(ClickEvent) bool
}

// Renderer draws a tile pyramid and overlay layers into a Canvas and turns
// input into pan and zoom.
//
// Renderer is not safe for concurrent use. All methods must be called from
// the host goroutine, typically an ebiten Update/Draw loop. Tile fetches run
// on their own goroutines and report back through Update.
type Renderer struct {
	cfg    Config
	canvas Canvas
	logger *slog.Logger
	loader ImageLoader
	ctx    context.Context
	cancel context.CancelFunc

	pz     *PinchZoom
	tiles  *TileLayer
	layers []Layer

	location           Location
	pixelRatio         float64
	surfaceW, surfaceH int

	drawCount              int
	lastRefreshRequest     int
	frameRequested         bool
	refreshAfterDraw       bool
	inDraw                 bool
	downsampleDuringMotion bool
	moveEnd                deferredTask

	tasksMu sync.Mutex
	tasks   []func()

	clickHandlers []clickHandler
	nextClickID   uint32

	flight *flight
	flying bool

	runner          *TestRunner
	injectQueue     []syntheticEvent
	screenshotQueue []string
}

// New creates a Renderer drawing into canvas. The view starts at
// cfg.InitialLocation, or the whole world when it is nil.
func New(canvas Canvas, cfg Config) (*Renderer, error) {
	if canvas == nil {
		return nil, ErrNoCanvas
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Renderer{
		cfg:                cfg,
		canvas:             canvas,
		logger:             newLogger(cfg.Logger, cfg.Debug),
		loader:             cfg.Loader,
		ctx:                ctx,
		cancel:             cancel,
		lastRefreshRequest: -1,
	}
	if r.loader == nil {
		r.loader = NewHTTPLoader(HTTPLoaderConfig{Logger: r.logger})
	}
	r.pixelRatio = r.DevicePixelRatio()

	r.tiles = NewTileLayer(r, TileLayerConfig{
		URL:                  cfg.TileURL,
		WorldWidth:           cfg.Width,
		WorldHeight:          cfg.Height,
		TileSize:             cfg.TileSize,
		MaxNumCachedTiles:    cfg.MaxNumCachedTiles,
		MaxSimultaneousLoads: cfg.MaxSimultaneousLoads,
		MaxUpLevels:          cfg.MaxUpLevels,
		StaleDrawCycles:      cfg.StaleDrawCycles,
	})
	r.layers = []Layer{r.tiles}

	r.pz = NewPinchZoom(PinchZoomConfig{
		WorldWidth:  cfg.Width,
		WorldHeight: cfg.Height,
		MinScale:    cfg.MinScale,
		MaxScale:    cfg.MaxScale,
		Bounds:      cfg.Bounds,
		FillScreen:  cfg.FillScreen,
	})
	r.pz.OnTransformChanged = r.transformChanged
	r.pz.OnClick = r.dispatchClick
	r.pz.MinScaleAt = r.minScaleAt

	r.location = Location{X: cfg.Width / 2, Y: cfg.Height / 2, Scale: cfg.Width}
	if cfg.InitialLocation != nil {
		r.location = *cfg.InitialLocation
	}
	// Applies the location once the surface has a size.
	r.resizeCanvas()
	r.Refresh()
	return r, nil
}

// transformChanged runs for every committed transform change.
func (r *Renderer) transformChanged(AffineTransform) {
	r.location = r.GetLocation()
	if !r.flying {
		r.flight = nil
	}
	if r.cfg.OnLocationChange != nil {
		r.cfg.OnLocationChange(r)
	}
	r.logger.Debug("location",
		"w", r.surfaceW, "h", r.surfaceH,
		"x", r.location.X, "y", r.location.Y, "scale", r.location.Scale)
	r.Refresh()
}

func (r *Renderer) minScaleAt(p Vec2) (float64, bool) {
	var best float64
	found := false
	for _, l := range r.layers {
		if m, ok := l.(MinScaleProvider); ok {
			if s, ok := m.MinScaleAt(p); ok && (!found || s > best) {
				best, found = s, true
			}
		}
	}
	return best, found
}

// --- scheduling ---

// Refresh requests a frame. Repeated calls before the next frame are merged.
func (r *Renderer) Refresh() {
	if r.inDraw {
		r.refreshAfterDraw = true
		return
	}
	if r.lastRefreshRequest == r.drawCount {
		return
	}
	r.lastRefreshRequest = r.drawCount
	r.frameRequested = true
}

// RefreshIfNotMoving requests a frame unless a gesture is in progress.
func (r *Renderer) RefreshIfNotMoving() {
	if !r.pz.IsMoving() {
		r.Refresh()
	}
}

// NeedsFrame reports whether a frame has been requested.
func (r *Renderer) NeedsFrame() bool { return r.frameRequested }

// AnimationFrame draws if a frame was requested and reports whether it did.
func (r *Renderer) AnimationFrame() bool {
	if !r.frameRequested || r.inDraw {
		return false
	}
	r.frameRequested = false
	r.draw()
	return true
}

// Update runs one host tick: completed tile loads, scripted and injected
// input, pending click timers, the motion-end timer and any fly-to
// animation.
func (r *Renderer) Update() {
	r.runTasks()
	if r.runner != nil {
		r.runner.step(r)
	}
	r.processInjectedInput()
	now := r.cfg.Now()
	r.pz.Tick(now)
	r.moveEnd.poll(now)
	r.stepFlight(now)
}

func (r *Renderer) post(fn func()) {
	r.tasksMu.Lock()
	r.tasks = append(r.tasks, fn)
	r.tasksMu.Unlock()
}

func (r *Renderer) runTasks() {
	r.tasksMu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.tasksMu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// --- drawing ---

func (r *Renderer) draw() {
	if r.inDraw {
		return
	}
	r.inDraw = true
	defer func() { r.inDraw = false }()

	start := r.cfg.Now()
	r.resizeCanvas()
	resized := r.cfg.Now()
	r.pz.CheckAndApplyTransform()

	s := r.canvas.Surface()
	w, h := s.Size()
	t := r.pz.Transform()
	if r.cfg.Background != nil {
		s.Clear(r.cfg.Background)
	}
	if tl, br, ok := r.visibleWorld(t, w, h); ok {
		for _, l := range r.layers {
			l.Draw(s, t, tl, br)
		}
	}
	layersDone := r.cfg.Now()

	moving := r.pz.IsMoving()
	if moving {
		r.moveEnd.schedule(layersDone.Add(r.cfg.MotionEndDelay), r.Refresh)
	}

	r.drawCount++
	elapsed := r.cfg.Now().Sub(start)
	budget := time.Duration(float64(time.Second) / r.cfg.DowngradeIfSlowerFPS)
	if !r.downsampleDuringMotion && elapsed > budget {
		r.downsampleDuringMotion = true
		r.logger.Info("slow frame, down-sampling during motion",
			"elapsed", elapsed, "budget", budget)
	}

	r.debugLog(drawStats{
		resizeTime: resized.Sub(start),
		layersTime: layersDone.Sub(resized),
		total:      elapsed,
		moving:     moving,
		pixelRatio: r.pixelRatio,
		tiles:      r.tiles.Stats(),
	})
	r.flushScreenshots(s)

	r.inDraw = false
	if r.refreshAfterDraw {
		r.refreshAfterDraw = false
		r.Refresh()
	}
}

// visibleWorld returns the world bounding box of the viewport corners.
func (r *Renderer) visibleWorld(t AffineTransform, w, h int) (tl, br Vec2, ok bool) {
	inv, err := t.Inverse()
	if err != nil {
		r.logger.Warn("skipping layers", "err", err)
		return Vec2{}, Vec2{}, false
	}
	var bb BoundingBox
	for _, c := range [...]Vec2{{0, 0}, {float64(w), 0}, {float64(w), float64(h)}, {0, float64(h)}} {
		bb.Add(inv.Transform(c))
	}
	return bb.Min, bb.Max, true
}

// resizeCanvas matches the surface to the displayed size and density, and
// re-applies the location when the surface size changed.
func (r *Renderer) resizeCanvas() {
	density := r.DevicePixelRatio()
	factor := density
	if r.downsampleDuringMotion && r.pz.IsMoving() {
		factor = density / 2
	}
	cw, ch := r.canvas.ClientSize()
	nw := int(math.Floor(float64(cw) * factor))
	nh := int(math.Floor(float64(ch) * factor))

	sw, sh := r.canvas.Surface().Size()
	if nw != 0 && nh != 0 && (absInt(sw-nw) > resizeSlack || absInt(sh-nh) > resizeSlack) {
		r.canvas.Resize(nw, nh)
		r.pixelRatio = factor
		sw, sh = r.canvas.Surface().Size()
	}
	if sw != r.surfaceW || sh != r.surfaceH {
		r.surfaceW, r.surfaceH = sw, sh
		r.pz.SetViewSize(float64(sw), float64(sh))
		r.setLocation(r.location)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// --- location ---

// GetLocation returns the world point at the center of the view and the
// view width in world units.
func (r *Renderer) GetLocation() Location {
	w, h := r.pz.ViewSize()
	if w <= 0 || h <= 0 {
		return r.location
	}
	left := r.pz.WorldPosFromViewerPos(Vec2{0, h / 2})
	right := r.pz.WorldPosFromViewerPos(Vec2{w, h / 2})
	mid := left.Add(right).Mul(0.5)
	return Location{X: mid.X, Y: mid.Y, Scale: Distance(left, right)}
}

// SetLocation moves the view. Non-finite values or a non-positive scale are
// rejected with ErrInvalidLocation and leave the view unchanged.
func (r *Renderer) SetLocation(loc Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	r.setLocation(loc)
	return nil
}

func (r *Renderer) setLocation(loc Location) {
	r.location = loc
	w, h := r.pz.ViewSize()
	if w <= 0 || h <= 0 {
		return
	}
	vx, vy := loc.viewerRatios()
	px, py := w*vx, h*vy
	r.pz.ProcessConstraints([]Constraint{
		{Viewer: Vec2{px - w/2, py}, World: Vec2{loc.X - loc.Scale/2, loc.Y}},
		{Viewer: Vec2{px + w/2, py}, World: Vec2{loc.X + loc.Scale/2, loc.Y}},
	})
}

// --- layers and handlers ---

// AddLayer appends l above the existing layers.
func (r *Renderer) AddLayer(l Layer) {
	r.layers = append(r.layers, l)
	r.RefreshIfNotMoving()
}

// Layers returns the layers in drawing order.
func (r *Renderer) Layers() []Layer { return slices.Clone(r.layers) }

// TileLayer returns the base tile layer.
func (r *Renderer) TileLayer() *TileLayer { return r.tiles }

// PinchZoom returns the gesture engine, for pushing gesture handlers and
// feeding input.
func (r *Renderer) PinchZoom() *PinchZoom { return r.pz }

// AddClickHandler registers fn for taps and clicks. Newer handlers run
// first. Returning true stops propagation.
func (r *Renderer) AddClickHandler(fn func(ClickEvent) bool) *HandlerHandle {
	r.nextClickID++
	id := r.nextClickID
	r.clickHandlers = append(r.clickHandlers, clickHandler{id: id, fn: fn})
	return &HandlerHandle{id: id, remove: r.removeClickHandler}
}

func (r *Renderer) removeClickHandler(id uint32) {
	r.clickHandlers = slices.DeleteFunc(r.clickHandlers, func(c clickHandler) bool { return c.id == id })
}

func (r *Renderer) dispatchClick(ev ClickEvent) {
	handlers := slices.Clone(r.clickHandlers)
	for i := len(handlers) - 1; i >= 0; i-- {
		if handlers[i].fn(ev) {
			return
		}
	}
}

// --- tile host ---

// LoadImage fetches url on a new goroutine and reports back on the host
// goroutine during Update. Config.LoadImage replaces it when set.
func (r *Renderer) LoadImage(url string, success func(image.Image), failure func(error)) {
	if r.cfg.LoadImage != nil {
		r.cfg.LoadImage(url, success, failure)
		return
	}
	ctx, loader := r.ctx, r.loader
	go func() {
		img, err := loader.Load(ctx, url)
		r.post(func() {
			if err != nil {
				failure(err)
				return
			}
			success(r.canvas.PrepareImage(img))
		})
	}()
}

// DevicePixelRatio is the forced pixel ratio, or the canvas density.
func (r *Renderer) DevicePixelRatio() float64 {
	if r.cfg.ForceDevicePixelRatio > 0 {
		return r.cfg.ForceDevicePixelRatio
	}
	if d := r.canvas.DeviceScale(); d > 0 {
		return d
	}
	return 1
}

// PixelRatio is the ratio the surface was last allocated at. It is half the
// device ratio while down-sampling during motion.
func (r *Renderer) PixelRatio() float64 { return r.pixelRatio }

// IsMoving reports whether a gesture is moving the view.
func (r *Renderer) IsMoving() bool { return r.pz.IsMoving() }

// Downsampling reports whether slow frames switched on reduced resolution
// during motion.
func (r *Renderer) Downsampling() bool { return r.downsampleDuringMotion }

// Logger returns the renderer's logger.
func (r *Renderer) Logger() *slog.Logger { return r.logger }

// DrawCount returns the number of frames drawn.
func (r *Renderer) DrawCount() int { return r.drawCount }

// Close cancels in-flight tile fetches.
func (r *Renderer) Close() {
	r.cancel()
	if l, ok := r.loader.(*HTTPLoader); ok && r.cfg.Loader == nil {
		l.Close()
	}
}
