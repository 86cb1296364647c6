// Command kml2geojson converts a KML file to GeoJSON on the command line
// and reports the same statistics the web UI shows.
package main

import (
	"encoding/json"
	"os"

	"github.com/maprika/kmlview/internal/kml"
	"github.com/maprika/kmlview/internal/logger"
	"github.com/maprika/kmlview/internal/metrics"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Output string `short:"o" long:"output" description:"Output file, stdout when omitted"`

	Args struct {
		Input string `positional-arg-name:"input.kml" required:"yes"`
	} `positional-args:"yes"`
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

	data, err := os.ReadFile(opts.Args.Input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	fc, err := kml.Convert(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Conversion failed")
	}

	summary := metrics.Compute(fc)

	out := os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output")
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				log.Error().Err(closeErr).Str("path", opts.Output).Msg("Failed to close file")
			}
		}()
		out = f
	}

	if err := json.NewEncoder(out).Encode(fc); err != nil {
		log.Fatal().Err(err).Msg("Failed to write GeoJSON")
	}

	for geomType, count := range summary.ElementCounts {
		ev := log.Info().Str("type", geomType).Int("count", count)
		if km, ok := summary.LineLengths[geomType]; ok {
			ev = ev.Float64("km", km)
		}
		ev.Msg("Converted")
	}
}
