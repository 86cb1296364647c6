// Command prefetch warms the tile cache for a bounding box and zoom range.
package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/maprika/kmlview/internal/config"
	"github.com/maprika/kmlview/internal/logger"
	"github.com/maprika/kmlview/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string  `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	West        float64 `short:"W" long:"west"        description:"Bounding box west longitude"  default:"-180"`
	South       float64 `short:"S" long:"south"       description:"Bounding box south latitude"  default:"-85"`
	East        float64 `short:"E" long:"east"        description:"Bounding box east longitude"  default:"180"`
	North       float64 `short:"N" long:"north"       description:"Bounding box north latitude"  default:"85"`
	MinZoom     int     `short:"z" long:"min-zoom"    description:"First zoom level to fetch"    default:"0"`
	MaxZoom     int     `short:"Z" long:"max-zoom"    description:"Last zoom level to fetch"     default:"6"`
	Concurrency int     `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"8"`
}

type coord struct {
	z, x, y int
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.MaxZoom > cfg.Tiles.MaxZoom {
		opts.MaxZoom = cfg.Tiles.MaxZoom
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	proxy := tiles.NewProxy(client, cfg.Tiles.URL, cfg.Tiles.CacheDir, cfg.Tiles.MaxZoom)

	jobs := make(chan coord, opts.Concurrency)
	var fetched, failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				_, err := proxy.Ensure(c.z, c.x, c.y)

				mu.Lock()
				if err != nil {
					failed++
					log.Debug().Err(err).
						Int("z", c.z).Int("x", c.x).Int("y", c.y).
						Msg("Tile fetch failed")
				} else {
					fetched++
				}
				mu.Unlock()
			}
		}()
	}

	log.Info().
		Int("min_zoom", opts.MinZoom).
		Int("max_zoom", opts.MaxZoom).
		Int("concurrency", opts.Concurrency).
		Msg("Starting prefetch")

	for z := opts.MinZoom; z <= opts.MaxZoom; z++ {
		minX, maxY := tiles.TileAt(opts.West, opts.South, float64(z))
		maxX, minY := tiles.TileAt(opts.East, opts.North, float64(z))

		count := (maxX - minX + 1) * (maxY - minY + 1)
		log.Debug().Int("zoom", z).Int("count", count).Msg("Queueing zoom level")

		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				jobs <- coord{z, x, y}
			}
		}
	}

	close(jobs)
	wg.Wait()

	log.Info().
		Int64("fetched", fetched).
		Int64("failed", failed).
		Msg("Prefetch finished")
}
