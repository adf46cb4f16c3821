package mapview

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS adds a StatsLayer on top of the map.
	ShowFPS bool
	// ExitWhenScriptDone ends the game loop once an attached TestRunner
	// finishes.
	ExitWhenScriptDone bool
}

// Game adapts a Renderer to ebiten.Game. The map is drawn into an offscreen
// EbitenCanvas only when a frame was requested; every ebiten frame blits it.
type Game struct {
	r      *Renderer
	canvas *EbitenCanvas
	input  *EbitenInput
	rc     RunConfig
}

// NewGame creates the canvas, renderer and input pump for a window.
func NewGame(cfg Config, rc RunConfig) (*Game, error) {
	if rc.Width <= 0 {
		rc.Width = 640
	}
	if rc.Height <= 0 {
		rc.Height = 480
	}
	canvas := NewEbitenCanvas(rc.Width, rc.Height)
	r, err := New(canvas, cfg)
	if err != nil {
		return nil, err
	}
	if rc.ShowFPS {
		r.AddLayer(NewStatsLayer(r))
	}
	return &Game{r: r, canvas: canvas, input: NewEbitenInput(r), rc: rc}, nil
}

// Renderer returns the game's renderer, for adding layers and handlers.
func (g *Game) Renderer() *Renderer { return g.r }

func (g *Game) Update() error {
	g.input.Update()
	g.r.Update()
	if g.rc.ExitWhenScriptDone && g.r.runner != nil && g.r.runner.Done() {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.r.AnimationFrame()
	img := g.canvas.Image()
	sb, ib := screen.Bounds(), img.Bounds()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(float64(sb.Dx())/float64(ib.Dx()), float64(sb.Dy())/float64(ib.Dy()))
	screen.DrawImage(img, op)
}

// Layout renders at device resolution. Cursor and touch positions are
// then in screen pixels, which EbitenInput maps onto the surface.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	g.canvas.SetLayout(outsideWidth, outsideHeight, scale)
	sw := int(math.Ceil(float64(outsideWidth) * scale))
	sh := int(math.Ceil(float64(outsideHeight) * scale))
	g.canvas.screenW, g.canvas.screenH = sw, sh
	return sw, sh
}

// Run opens a resizable window showing the map until it is closed.
func Run(cfg Config, rc RunConfig, setup func(*Renderer)) error {
	g, err := NewGame(cfg, rc)
	if err != nil {
		return err
	}
	defer g.r.Close()
	if setup != nil {
		setup(g.r)
	}
	ebiten.SetWindowTitle(rc.Title)
	ebiten.SetWindowSize(g.rc.Width, g.rc.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
