package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maprika/kmlview/assets"
	"github.com/maprika/kmlview/internal/config"
	"github.com/maprika/kmlview/internal/state"
	"github.com/maprika/kmlview/internal/tiles"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	State           *state.Controller
	Proxy           *tiles.Proxy
	IndexHTML       []byte
	Favicon         []byte
	TransparentTile []byte
}

// NewServerContext initializes the context: the view state controller and,
// unless disabled, the caching tile proxy.
func NewServerContext(cfg *config.Config) *ServerContext {
	ctx := &ServerContext{
		Config:          cfg,
		State:           state.NewController(),
		IndexHTML:       assets.Index,
		Favicon:         assets.Favicon,
		TransparentTile: assets.TransparentTile,
	}

	if cfg.Tiles.NoProxy {
		log.Info().
			Str("upstream", cfg.Tiles.URL).
			Msg("Tile proxy disabled, frontend fetches upstream directly")
		return ctx
	}

	client := &http.Client{Timeout: 15 * time.Second}
	ctx.Proxy = tiles.NewProxy(client, cfg.Tiles.URL, cfg.Tiles.CacheDir, cfg.Tiles.MaxZoom)

	log.Info().
		Str("upstream", cfg.Tiles.URL).
		Str("cache_dir", cfg.Tiles.CacheDir).
		Int("max_zoom", cfg.Tiles.MaxZoom).
		Msg("Tile proxy initialized")

	return ctx
}

// TileURL is the template the frontend should use for the base layer.
func (s *ServerContext) TileURL() string {
	if s.Proxy != nil {
		return "/tiles/{z}/{x}/{y}.webp"
	}

	return s.Config.Tiles.URL
}
