package files

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	// decode webp sources as well as the formats imaging registers.
	_ "golang.org/x/image/webp"
)

// Thumbnailer serves downscaled WebP copies of images from a cache in the temp directory.
//
// Cache entries are never evicted; they live until the OS clears its temp directory.
type Thumbnailer struct {
	manager  *Manager
	cacheDir string
	group    singleflight.Group
	slots    chan struct{}
	wg       sync.WaitGroup
}

// NewThumbnailer generates at most workers thumbnails at a time.
func NewThumbnailer(manager *Manager, workers int) *Thumbnailer {
	if workers < 1 {
		workers = 1
	}

	return &Thumbnailer{
		manager:  manager,
		cacheDir: manager.TempRoot(),
		slots:    make(chan struct{}, workers),
	}
}

// CachePath returns where the thumbnail of imgPath at maxPixelSize is cached.
func (t *Thumbnailer) CachePath(imgPath string, maxPixelSize int) string {
	key := xxhash.Sum64String(fmt.Sprintf("%s|%d", imgPath, maxPixelSize))

	return filepath.Join(t.cacheDir, fmt.Sprintf("%016x.webp", key))
}

// Thumbnail returns the cached thumbnail of imgPath when there is one.
// Otherwise it schedules generation in the background and returns the
// original image, so the caller never waits for a resize. GIFs are never
// downscaled to keep their animation.
func (t *Thumbnailer) Thumbnail(imgPath string, maxPixelSize int) string {
	src := t.manager.Resolve(imgPath)

	if maxPixelSize <= 0 || strings.EqualFold(filepath.Ext(src), ".gif") {
		return src
	}

	cached := t.CachePath(src, maxPixelSize)
	if _, err := os.Stat(cached); err == nil {
		return cached
	}

	t.schedule(src, cached, maxPixelSize)

	return src
}

func (t *Thumbnailer) schedule(src, dst string, maxPixelSize int) {
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()

		t.slots <- struct{}{}
		defer func() { <-t.slots }()

		// concurrent requests for the same uncached thumbnail share one generation
		_, err, _ := t.group.Do(dst, func() (interface{}, error) {
			if _, err := os.Stat(dst); err == nil {
				return nil, nil
			}

			return nil, GenerateThumbnail(src, dst, maxPixelSize)
		})
		if err != nil {
			log.Warn().Err(err).Str("src", src).Msg("error generating thumbnail")
		}
	}()
}

// Wait blocks until every scheduled thumbnail has been written.
func (t *Thumbnailer) Wait() {
	t.wg.Wait()
}

// GenerateThumbnail scales src so that its shorter side is maxPixelSize and
// writes it to dst as WebP. Images that are already small enough are only re-encoded.
func GenerateThumbnail(src, dst string, maxPixelSize int) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", src, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if shorter := min(width, height); shorter > maxPixelSize {
		scale := float64(maxPixelSize) / float64(shorter)
		width = int(math.Round(float64(width) * scale))
		height = int(math.Round(float64(height) * scale))
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("error creating thumbnail directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "thumbnail*")
	if err != nil {
		return fmt.Errorf("error creating thumbnail file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := nativewebp.Encode(tmp, img, nil); err != nil {
		tmp.Close()

		return fmt.Errorf("error encoding thumbnail of %s: %w", src, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing thumbnail file: %w", err)
	}

	// readers only ever see a complete thumbnail
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("error storing thumbnail %s: %w", dst, err)
	}

	return nil
}
