// Package assets embeds the frontend served by the web server.
package assets

import _ "embed"

// Index is the composed single page application.
// Regenerate with `go run ./cmd/minify` after editing the template, CSS or JS.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte

// TransparentTile is served when a proxied tile cannot be fetched.
//
//go:embed transparent.png
var TransparentTile []byte
