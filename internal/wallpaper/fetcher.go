package wallpaper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abelbrown/screenstate/internal/otel"
	"github.com/abelbrown/screenstate/internal/siteimage"
)

// maxImageBytes caps a single download.
const maxImageBytes = 8 << 20

// ErrTooLarge is returned when a response body exceeds maxImageBytes.
var ErrTooLarge = errors.New("wallpaper: response too large")

// FetcherOptions tunes HTTPFetcher. Zero values pick defaults.
type FetcherOptions struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	Concurrency       int
	Client            *http.Client
	Events            *otel.Logger
}

// HTTPFetcher downloads wallpaper metadata and thumbnails.
type HTTPFetcher struct {
	urls        URLProvider
	cache       *siteimage.FileCache
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	events      *otel.Logger
}

// NewHTTPFetcher creates a fetcher. cache may be nil, in which case
// thumbnails are downloaded but not stored.
func NewHTTPFetcher(urls URLProvider, cache *siteimage.FileCache, opts FetcherOptions) *HTTPFetcher {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		urls:        urls,
		cache:       cache,
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		concurrency: opts.Concurrency,
		events:      opts.Events,
	}
}

// Metadata downloads and decodes wallpapers.json.
func (f *HTTPFetcher) Metadata(ctx context.Context) (Metadata, error) {
	start := time.Now()
	u, err := f.urls.MetadataURL()
	if err != nil {
		return Metadata{}, err
	}

	body, err := f.get(ctx, u)
	if err != nil {
		f.events.Error(otel.KindMetadataFetch, "wallpaper", err)
		return Metadata{}, err
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		err = fmt.Errorf("decode metadata: %w", err)
		f.events.Error(otel.KindMetadataFetch, "wallpaper", err)
		return Metadata{}, err
	}

	f.events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindMetadataFetch, Comp: "wallpaper",
		Dur: time.Since(start), Count: len(md.Collections),
	})
	return md, nil
}

// Thumbnails downloads the thumbnail of every wallpaper, skipping ones the
// cache already has, and returns wallpaper ID -> local path. The first
// failure cancels the remaining downloads.
func (f *HTTPFetcher) Thumbnails(ctx context.Context, ws []Wallpaper) (map[string]string, error) {
	var (
		mu    sync.Mutex
		paths = make(map[string]string, len(ws))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, w := range ws {
		g.Go(func() error {
			u, err := f.urls.ThumbnailURL(w)
			if err != nil {
				return err
			}
			path, err := f.thumbnail(ctx, u)
			if err != nil {
				return fmt.Errorf("thumbnail %s: %w", w.ID, err)
			}
			mu.Lock()
			paths[w.ID] = path
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		f.events.Error(otel.KindThumbnail, "wallpaper", err)
		return paths, err
	}
	f.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindThumbnail, Comp: "wallpaper", Count: len(paths)})
	return paths, nil
}

func (f *HTTPFetcher) thumbnail(ctx context.Context, u string) (string, error) {
	if f.cache != nil {
		if path, ok := f.cache.Path(u); ok {
			return path, nil
		}
	}
	data, err := f.get(ctx, u)
	if err != nil {
		return "", err
	}
	if f.cache == nil {
		return u, nil
	}
	return f.cache.Save(u, data)
}

func (f *HTTPFetcher) get(ctx context.Context, u string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if len(body) > maxImageBytes {
		return nil, fmt.Errorf("get %s: %w (over %d bytes)", u, ErrTooLarge, maxImageBytes)
	}
	return body, nil
}
