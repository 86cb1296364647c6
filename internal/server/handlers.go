// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/maprika/kmlview/internal/kml"
	"github.com/maprika/kmlview/internal/metrics"
	"github.com/maprika/kmlview/internal/state"
)

const etagCap = 64

// frontendConfig is the configuration subset exposed to the browser.
type frontendConfig struct {
	TileURL     string  `json:"tile_url"`
	Attribution string  `json:"attribution"`
	IconBaseURL string  `json:"icon_base_url"`
	MaxZoom     int     `json:"max_zoom"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
}

// HandleConfig serves the frontend-relevant configuration as JSON.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, frontendConfig{
		TileURL:     s.TileURL(),
		Attribution: s.Config.Tiles.Attribution,
		IconBaseURL: s.Config.Tiles.IconBaseURL,
		MaxZoom:     s.Config.Tiles.MaxZoom,
		Color:       s.Config.Style.Color,
		Weight:      s.Config.Style.Weight,
		Opacity:     s.Config.Style.Opacity,
	})
}

// HandleState serves the current view state snapshot.
func (s *ServerContext) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.State.Snapshot())
}

// HandleUpload accepts a KML file as the multipart part named "file",
// converts it, computes the metrics and commits the result atomically.
// Any failure leaves the previously committed state untouched.
func (s *ServerContext) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.Config.Upload.MaxSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "upload carries no file")
		return
	}
	defer func() { _ = file.Close() }()

	seq := s.State.UploadStart()

	data, err := io.ReadAll(file)
	if err != nil {
		s.State.UploadFailure(seq)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", header.Filename, err))
		return
	}

	fc, err := kml.Convert(data)
	if err != nil {
		s.State.UploadFailure(seq)
		log.Warn().Err(err).Str("file", header.Filename).Msg("Conversion failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	summary := metrics.Compute(fc)

	if err := s.State.UploadSuccess(seq, fc, summary); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	log.Info().
		Str("file", header.Filename).
		Int("features", len(fc.Features)).
		Uint64("seq", seq).
		Msg("Upload converted")

	writeJSON(w, http.StatusOK, s.State.Snapshot())
}

// HandleView switches the visible panel.
func (s *ServerContext) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode, err := state.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.State.SetViewMode(mode); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.State.Snapshot())
}

// HandleClear resets the loaded data and the view mode.
func (s *ServerContext) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	if err := s.State.Clear(); err != nil {
		if errors.Is(err, state.ErrNoData) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.State.Snapshot())
}

// HandleTile serves cached base map tiles from the proxy.
// Path: /tiles/{z}/{x}/{y}.webp
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	if s.Proxy == nil {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}

	z, errZ := strconv.Atoi(parts[1])
	x, errX := strconv.Atoi(parts[2])
	y, errY := strconv.Atoi(strings.TrimSuffix(parts[3], ".webp"))
	if errZ != nil || errX != nil || errY != nil {
		http.NotFound(w, r)
		return
	}

	path, err := s.Proxy.Ensure(z, x, y)
	if err != nil {
		log.Debug().Err(err).Int("z", z).Int("x", x).Int("y", y).Msg("Tile unavailable")

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(s.TransparentTile)
		return
	}

	s.serveFile(w, r, path, "")
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/favicon.svg" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// serveFile tries to serve a file from disk with ETag generation.
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
