// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves fields empty.
const (
	DefaultTileURL       = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution   = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	DefaultIconBaseURL   = "https://unpkg.com/leaflet@1.9.4/dist/images"
	DefaultCacheDir      = "tiles"
	DefaultMaxZoom       = 19
	DefaultMaxUploadSize = 16 << 20
)

// Config represents the root configuration file structure.
type Config struct {
	Tiles  Tiles  `yaml:"tiles"`
	Style  Style  `yaml:"style"`
	Upload Upload `yaml:"upload"`
}

// Tiles configures the base layer source and the local proxy cache.
type Tiles struct {
	// URL is the upstream {z}/{x}/{y} template the proxy fetches from.
	URL         string `yaml:"url" json:"url"`
	Attribution string `yaml:"attribution" json:"attribution"`
	IconBaseURL string `yaml:"icon_base_url" json:"icon_base_url"`
	CacheDir    string `yaml:"cache_dir" json:"-"`
	MaxZoom     int    `yaml:"max_zoom" json:"max_zoom"`
	NoProxy     bool   `yaml:"no_proxy" json:"-"`
}

// Style is the single fixed style applied to every overlay feature.
type Style struct {
	Color   string  `yaml:"color" json:"color"`
	Weight  int     `yaml:"weight" json:"weight"`
	Opacity float64 `yaml:"opacity" json:"opacity"`
}

// Upload bounds the synchronous parse on the request path.
type Upload struct {
	MaxSize int64 `yaml:"max_size"`
}

// Load reads and parses the YAML configuration file from the specified path.
// A missing file is not an error: all defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Tiles.URL == "" {
		c.Tiles.URL = DefaultTileURL
	}
	if c.Tiles.Attribution == "" {
		c.Tiles.Attribution = DefaultAttribution
	}
	if c.Tiles.IconBaseURL == "" {
		c.Tiles.IconBaseURL = DefaultIconBaseURL
	}
	if c.Tiles.CacheDir == "" {
		c.Tiles.CacheDir = DefaultCacheDir
	}
	if c.Tiles.MaxZoom <= 0 {
		c.Tiles.MaxZoom = DefaultMaxZoom
	}
	if c.Style.Color == "" {
		c.Style.Color = "#3388ff"
	}
	if c.Style.Weight <= 0 {
		c.Style.Weight = 3
	}
	if c.Style.Opacity <= 0 {
		c.Style.Opacity = 0.8
	}
	if c.Upload.MaxSize <= 0 {
		c.Upload.MaxSize = DefaultMaxUploadSize
	}
}

func (c *Config) validate() error {
	if !strings.Contains(c.Tiles.URL, "{z}") {
		return fmt.Errorf("tiles url %q is not a {z}/{x}/{y} template", c.Tiles.URL)
	}
	if c.Style.Opacity > 1 {
		return fmt.Errorf("style opacity %v out of range (0,1]", c.Style.Opacity)
	}
	return nil
}
