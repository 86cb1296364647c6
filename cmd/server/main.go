package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/maprika/kmlview/internal/config"
	"github.com/maprika/kmlview/internal/logger"
	"github.com/maprika/kmlview/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	NoProxy    bool   `short:"P" long:"no-proxy" env:"NO_TILE_PROXY" description:"Disable the local tile proxy"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.NoProxy {
		cfg.Tiles.NoProxy = true
	}

	srvCtx := server.NewServerContext(cfg)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", srvCtx.HandleConfig)
	mux.HandleFunc("/api/state", srvCtx.HandleState)
	mux.HandleFunc("/api/upload", srvCtx.HandleUpload)
	mux.HandleFunc("/api/view", srvCtx.HandleView)
	mux.HandleFunc("/api/clear", srvCtx.HandleClear)
	mux.HandleFunc("/tiles/", srvCtx.HandleTile)
	mux.HandleFunc("/favicon.svg", srvCtx.HandleFavicon)
	mux.HandleFunc("/", srvCtx.HandleIndex)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("tiles", srvCtx.TileURL()).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
