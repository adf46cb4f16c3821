package mapview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to Config.ScreenshotDir with a timestamped name. The canvas
// surface must implement Snapshotter.
func (r *Renderer) Screenshot(label string) {
	r.screenshotQueue = append(r.screenshotQueue, label)
}

// flushScreenshots writes one PNG per queued label. Called at the end of
// every draw.
func (r *Renderer) flushScreenshots(s Surface) {
	if len(r.screenshotQueue) == 0 {
		return
	}
	defer func() { r.screenshotQueue = r.screenshotQueue[:0] }()

	snap, ok := s.(Snapshotter)
	if !ok {
		r.logger.Warn("screenshot: surface cannot be read back", "surface", fmt.Sprintf("%T", s))
		return
	}
	dir := r.cfg.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.logger.Warn("screenshot: mkdir", "dir", dir, "err", err)
		return
	}

	img := snap.Snapshot()
	stamp := r.cfg.Now().Format("20060102_150405")
	seen := make(map[string]int, len(r.screenshotQueue))
	for _, label := range r.screenshotQueue {
		base := stamp + "_" + sanitizeLabel(label)
		name := base + ".png"
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s_%d.png", base, n)
		}
		seen[base]++
		if err := writePNG(filepath.Join(dir, name), img); err != nil {
			r.logger.Warn("screenshot", "err", err)
		}
	}
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
