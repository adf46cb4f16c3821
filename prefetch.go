package mapview

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/sync/errgroup"
)

// PrefetchConfig selects the tiles Prefetch downloads.
type PrefetchConfig struct {
	// Bound is a lon/lat box in degrees.
	Bound            orb.Bound
	MinZoom, MaxZoom int
	URL              TileURLFunc
	// Workers is the number of concurrent fetches. Default 4.
	Workers int
	// OnTile is called after every tile with the running count. It may be
	// called from several goroutines, but never concurrently.
	OnTile func(done, total int, err error)
}

// PrefetchTiles lists the tiles covering b at every zoom in [minZoom,
// maxZoom], coarsest first.
func PrefetchTiles(b orb.Bound, minZoom, maxZoom int) []TileKey {
	var keys []TileKey
	for z := max(minZoom, 0); z <= maxZoom; z++ {
		zoom := maptile.Zoom(z)
		tl := maptile.At(orb.Point{b.Min.Lon(), b.Max.Lat()}, zoom)
		br := maptile.At(orb.Point{b.Max.Lon(), b.Min.Lat()}, zoom)
		last := uint32(1)<<zoom - 1
		for y := tl.Y; y <= min(br.Y, last); y++ {
			for x := tl.X; x <= min(br.X, last); x++ {
				keys = append(keys, TileKey{Scale: z, X: int(x), Y: int(y)})
			}
		}
	}
	return keys
}

// Prefetch downloads every tile of cfg through l, filling its memory and
// disk caches. Individual failures are reported to OnTile and counted; the
// returned error wraps the first one. Cancelling ctx stops the remaining
// fetches.
func Prefetch(ctx context.Context, l *HTTPLoader, cfg PrefetchConfig) error {
	if cfg.URL == nil {
		return fmt.Errorf("%w: prefetch needs a tile URL", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	keys := PrefetchTiles(cfg.Bound, cfg.MinZoom, cfg.MaxZoom)

	var (
		mu       sync.Mutex
		done     int
		failed   int
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, k := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := l.Fetch(gctx, cfg.URL(k.Scale, k.X, k.Y))
			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
			}
			if cfg.OnTile != nil {
				cfg.OnTile(done, len(keys), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("prefetch: %d of %d tiles failed: %w", failed, len(keys), firstErr)
	}
	return nil
}
