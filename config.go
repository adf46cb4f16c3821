package mapview

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"
)

// Config configures a Renderer. Zero values select the defaults noted on
// each field.
type Config struct {
	// URL is a tile address template; see TemplateURL. Ignored when
	// TileURL is set. Default DefaultTileURL.
	URL string
	// TileURL resolves tile addresses.
	TileURL TileURLFunc

	// Width and Height are the world size in level-0 tiles. Default 1.
	Width, Height float64

	TileSize             int // pixels, default 256
	MaxNumCachedTiles    int // default 64
	MaxSimultaneousLoads int // default 3
	MaxUpLevels          int // ancestor levels tried as fallback, default 5
	StaleDrawCycles      int // draws before a queued tile is dropped, default 3

	// DowngradeIfSlowerFPS enables motion down-sampling for good once a
	// frame takes longer than 1s/DowngradeIfSlowerFPS. Default 15.
	DowngradeIfSlowerFPS float64

	// MinScale and MaxScale bound Location.Scale. Zero leaves them unset.
	MinScale, MaxScale float64
	// Bounds restricts panning to part of the world. Zero means all of it.
	Bounds Rect
	// FillScreen forbids showing any area outside the bounds.
	FillScreen bool

	// ForceDevicePixelRatio overrides Canvas.DeviceScale.
	ForceDevicePixelRatio float64

	// InitialLocation defaults to the whole world.
	InitialLocation *Location

	// Debug enables diagnostic logging to stderr when Logger is nil.
	Debug  bool
	Logger *slog.Logger

	// Loader fetches tile images. Default NewHTTPLoader(HTTPLoaderConfig{}).
	Loader ImageLoader
	// LoadImage replaces the whole asynchronous fetch. success and failure
	// must be called on the host goroutine, for example from Update.
	LoadImage func(url string, success func(image.Image), failure func(error))

	// OnLocationChange is called after every committed view change.
	OnLocationChange func(r *Renderer)

	// MotionEndDelay is how long the view must stay still before the
	// full-quality redraw. Default 100ms.
	MotionEndDelay time.Duration

	// Background clears the surface before the layers draw when set.
	Background color.Color

	// ScreenshotDir receives Screenshot PNGs. Default "screenshots".
	ScreenshotDir string

	// Now is the clock. Default time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.TileURL == nil {
		if c.URL == "" {
			c.URL = DefaultTileURL
		}
		c.TileURL = TemplateURL(c.URL)
	}
	if c.Width == 0 {
		c.Width = 1
	}
	if c.Height == 0 {
		c.Height = 1
	}
	if c.TileSize == 0 {
		c.TileSize = 256
	}
	if c.MaxNumCachedTiles == 0 {
		c.MaxNumCachedTiles = 64
	}
	if c.MaxSimultaneousLoads == 0 {
		c.MaxSimultaneousLoads = 3
	}
	if c.MaxUpLevels == 0 {
		c.MaxUpLevels = 5
	}
	if c.StaleDrawCycles == 0 {
		c.StaleDrawCycles = 3
	}
	if c.DowngradeIfSlowerFPS == 0 {
		c.DowngradeIfSlowerFPS = 15
	}
	if c.MotionEndDelay == 0 {
		c.MotionEndDelay = 100 * time.Millisecond
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"Width", c.Width},
		{"Height", c.Height},
		{"TileSize", float64(c.TileSize)},
		{"MaxNumCachedTiles", float64(c.MaxNumCachedTiles)},
		{"MaxSimultaneousLoads", float64(c.MaxSimultaneousLoads)},
		{"MaxUpLevels", float64(c.MaxUpLevels)},
		{"StaleDrawCycles", float64(c.StaleDrawCycles)},
		{"DowngradeIfSlowerFPS", c.DowngradeIfSlowerFPS},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.v)
		}
	}
	if c.MinScale < 0 || c.MaxScale < 0 || c.ForceDevicePixelRatio < 0 {
		return fmt.Errorf("%w: negative scale or pixel ratio", ErrInvalidConfig)
	}
	if c.MinScale > 0 && c.MaxScale > 0 && c.MinScale > c.MaxScale {
		return fmt.Errorf("%w: MinScale %v > MaxScale %v", ErrInvalidConfig, c.MinScale, c.MaxScale)
	}
	if c.InitialLocation != nil {
		if err := c.InitialLocation.Validate(); err != nil {
			return fmt.Errorf("%w: initial location: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
