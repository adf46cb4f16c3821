package mapview

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for tile formats
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ImageLoader fetches and decodes the image at url. It is called from
// loader goroutines and must be safe for concurrent use.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// ImageLoaderFunc adapts a function to ImageLoader.
type ImageLoaderFunc func(ctx context.Context, url string) (image.Image, error)

// Load calls f.
func (f ImageLoaderFunc) Load(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// HTTPLoaderConfig configures an HTTPLoader.
type HTTPLoaderConfig struct {
	Client  *http.Client
	Timeout time.Duration

	RequestsPerSecond float64 // default 8
	Burst             int     // default 4
	MaxRetries        int     // attempts per URL, default 3
	// RetryDelay is the pause before the second attempt. Later attempts wait
	// proportionally longer. Default 200ms.
	RetryDelay time.Duration

	UserAgent string // default "mapview/1.0"
	Headers   map[string]string

	// CacheDir enables an on-disk cache of encoded tiles.
	CacheDir string
	// MemoryCacheSize is the number of encoded tiles kept in memory.
	// Default 256, negative disables it.
	MemoryCacheSize int64
	MemoryCacheTTL  time.Duration // default 10m

	Logger *slog.Logger
}

// HTTPLoader fetches tiles over HTTP with rate limiting, retries, request
// deduplication, and optional memory and disk caches. URLs with a file://
// prefix are read from the local filesystem.
type HTTPLoader struct {
	cfg     HTTPLoaderConfig
	client  *http.Client
	limiter *rate.Limiter
	mem     *ccache.Cache[[]byte]
	flights singleflight.Group
	logger  *slog.Logger
}

// NewHTTPLoader creates an HTTPLoader.
func NewHTTPLoader(cfg HTTPLoaderConfig) *HTTPLoader {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mapview/1.0"
	}
	if cfg.MemoryCacheSize == 0 {
		cfg.MemoryCacheSize = 256
	}
	if cfg.MemoryCacheTTL <= 0 {
		cfg.MemoryCacheTTL = 10 * time.Minute
	}
	l := &HTTPLoader{
		cfg:     cfg,
		client:  cfg.Client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  cfg.Logger,
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MemoryCacheSize > 0 {
		l.mem = ccache.New(ccache.Configure[[]byte]().MaxSize(cfg.MemoryCacheSize))
	}
	if l.logger == nil {
		l.logger = newNopLogger()
	}
	return l
}

// Load fetches url and decodes it as PNG, JPEG or WebP.
func (l *HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	data, err := l.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, url, err)
	}
	return img, nil
}

// Fetch returns the encoded bytes at url. Concurrent fetches of one URL
// share a single request.
func (l *HTTPLoader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if b, ok := l.cached(url); ok {
		return b, nil
	}
	v, err, _ := l.flights.Do(url, func() (any, error) {
		if b, ok := l.cached(url); ok {
			return b, nil
		}
		b, err := l.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if l.mem != nil {
			l.mem.Set(url, b, l.cfg.MemoryCacheTTL)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Close stops the memory cache's background worker.
func (l *HTTPLoader) Close() {
	if l.mem != nil {
		l.mem.Stop()
	}
}

func (l *HTTPLoader) cached(url string) ([]byte, bool) {
	if l.mem == nil {
		return nil, false
	}
	item := l.mem.Get(url)
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (l *HTTPLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	if p, ok := strings.CutPrefix(url, "file://"); ok {
		return os.ReadFile(filepath.FromSlash(p))
	}

	cp := l.cachePath(url)
	if cp != "" {
		if b, err := os.ReadFile(cp); err == nil {
			return b, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, l.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		b, retry, err := l.get(ctx, url)
		if err == nil {
			if cp != "" {
				if werr := writeCacheFile(cp, b); werr != nil {
					l.logger.Warn("tile cache write failed", "path", cp, "err", werr)
				}
			}
			return b, nil
		}
		lastErr = err
		if !retry {
			break
		}
		l.logger.Debug("tile fetch retry", "url", url, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

// get performs one request. retry reports whether the failure is transient.
func (l *HTTPLoader) get(ctx context.Context, url string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	for k, v := range l.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, transient, fmt.Errorf("%w: HTTP %d for %s", ErrTileStatus, resp.StatusCode, url)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, false, nil
}

// cachePath shards tiles by the SHA-1 of their URL and keeps the URL's
// extension when it has a short one.
func (l *HTTPLoader) cachePath(url string) string {
	if l.cfg.CacheDir == "" {
		return ""
	}
	sum := sha1.Sum([]byte(url))
	id := hex.EncodeToString(sum[:])
	u, _, _ := strings.Cut(url, "?")
	ext := path.Ext(u)
	if ext == "" || len(ext) > 5 || strings.Contains(ext, "/") {
		ext = ".tile"
	}
	return filepath.Join(l.cfg.CacheDir, id[:2], id[2:4], id+ext)
}

func writeCacheFile(p string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
