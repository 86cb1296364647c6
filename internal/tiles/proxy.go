// Package tiles proxies base map tiles from an upstream {z}/{x}/{y}
// template, re-encoding them to WebP and caching on disk.
package tiles

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const webpQuality = 80

// Proxy fetches, converts and caches base map tiles.
type Proxy struct {
	client   *http.Client
	template string
	cacheDir string
	maxZoom  int
}

// NewProxy returns a proxy for the given upstream template. Tiles are
// cached under cacheDir as {cacheDir}/{z}/{x}/{y}.webp.
func NewProxy(client *http.Client, template, cacheDir string, maxZoom int) *Proxy {
	return &Proxy{
		client:   client,
		template: template,
		cacheDir: cacheDir,
		maxZoom:  maxZoom,
	}
}

// Ensure returns the cached file path for a tile, fetching and converting
// it first when missing. Coordinates outside the valid range error out.
func (p *Proxy) Ensure(z, x, y int) (string, error) {
	if err := validCoord(z, x, y, p.maxZoom); err != nil {
		return "", err
	}

	path := filepath.Join(p.cacheDir, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".webp")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}

	data, err := p.fetch(z, x, y)
	if err != nil {
		return "", err
	}

	encoded := reencode(data)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	// Temp file plus rename so a concurrent reader never sees a partial tile
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}

	return path, nil
}

func (p *Proxy) fetch(z, x, y int) ([]byte, error) {
	url := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(p.template)

	resp, err := p.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// reencode converts a tile image to WebP. When decoding fails the original
// bytes are kept, the browser will sniff the format.
func reencode(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("Tile decode failed, caching original bytes")
		return data
	}
	if format == "webp" {
		return data
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		log.Debug().Err(err).Msg("WebP encode failed, caching original bytes")
		return data
	}

	return buf.Bytes()
}

func validCoord(z, x, y, maxZoom int) error {
	if z < 0 || z > maxZoom {
		return fmt.Errorf("zoom %d out of range [0,%d]", z, maxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return fmt.Errorf("tile %d/%d/%d out of range", z, x, y)
	}

	return nil
}
