package mapview

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// nopHandler discards every record. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// newLogger picks the renderer logger: the configured one, a debug-level
// stderr logger when debug is set, or a silent one.
func newLogger(l *slog.Logger, debug bool) *slog.Logger {
	switch {
	case l != nil:
		return l.With("component", "mapview")
	case debug:
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		return slog.New(h).With("component", "mapview")
	default:
		return newNopLogger()
	}
}

// drawStats holds per-frame timing and tile metrics. Only logged when the
// logger has debug enabled.
type drawStats struct {
	resizeTime time.Duration
	layersTime time.Duration
	total      time.Duration
	moving     bool
	pixelRatio float64
	tiles      TileStats
}

func (r *Renderer) debugLog(stats drawStats) {
	if !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	r.logger.Debug("draw",
		"frame", r.drawCount,
		"resize", stats.resizeTime,
		"layers", stats.layersTime,
		"total", stats.total,
		"moving", stats.moving,
		"pixelRatio", stats.pixelRatio,
		"cached", stats.tiles.Cached,
		"loading", stats.tiles.Loading,
		"queued", stats.tiles.Queued,
		"failed", stats.tiles.Failed,
	)
}
