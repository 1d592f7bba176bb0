package mediactl

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

const (
	artworkMaxDim      = 300
	artworkFetchLimit  = 4 << 20 // 4 MiB
	artworkFetchWindow = 10 * time.Second
)

// ArtworkCache fetches remote artwork, downscales it for the control
// surface, and caches the result on disk keyed by source URL. An unchanged
// artwork ref is never refetched.
type ArtworkCache struct {
	dir    string
	client *http.Client

	mu    sync.Mutex
	paths map[string]string // ref → local path
}

// NewArtworkCache creates a cache rooted at dir.
func NewArtworkCache(dir string) *ArtworkCache {
	return &ArtworkCache{
		dir:    dir,
		client: &http.Client{Timeout: artworkFetchWindow},
		paths:  make(map[string]string),
	}
}

// Prepare resolves an artwork ref to a local file URI suitable for the
// control surface. Non-HTTP refs pass through unchanged; fetch or decode
// failures fall back to the original ref.
func (c *ArtworkCache) Prepare(ctx context.Context, ref string) string {
	if ref == "" || (!strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")) {
		return ref
	}

	c.mu.Lock()
	if p, ok := c.paths[ref]; ok {
		c.mu.Unlock()
		return "file://" + p
	}
	c.mu.Unlock()

	path, err := c.fetchAndScale(ctx, ref)
	if err != nil {
		return ref
	}

	c.mu.Lock()
	c.paths[ref] = path
	c.mu.Unlock()
	return "file://" + path
}

func (c *ArtworkCache) fetchAndScale(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artwork fetch: status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(http.MaxBytesReader(nil, resp.Body, artworkFetchLimit))
	if err != nil {
		return "", fmt.Errorf("artwork decode: %w", err)
	}

	dst := scaleDown(src, artworkMaxDim)

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(ref))
	path := filepath.Join(c.dir, hex.EncodeToString(sum[:])+".jpg")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// scaleDown resizes an image so its longest side is at most maxDim,
// preserving aspect ratio. Images already small enough pass through.
func scaleDown(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
