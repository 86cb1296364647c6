// Package state holds the single view state container driving all panels.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/maprika/kmlview/internal/metrics"
)

// ViewMode selects which informational panel is visible.
type ViewMode string

// Valid view modes.
const (
	ModeNone    ViewMode = "none"
	ModeSummary ViewMode = "summary"
	ModeDetails ViewMode = "details"
)

// Sentinel errors returned by controller actions.
var (
	ErrNoData      = errors.New("no data loaded")
	ErrStaleUpload = errors.New("stale upload superseded by a newer one")
)

// ParseMode validates a mode string from the API.
func ParseMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ModeNone, ModeSummary, ModeDetails:
		return m, nil
	}

	return "", fmt.Errorf("unknown view mode %q", s)
}

// Controller is the single state container. All mutation goes through the
// explicit actions below; Snapshot returns a consistent view for rendering.
// Uploads carry a sequence number so a slow upload that finishes after a
// newer one cannot overwrite the newer result.
type Controller struct {
	mu        sync.Mutex
	data      *geojson.FeatureCollection
	summary   metrics.Summary
	mode      ViewMode
	nextSeq   uint64
	committed uint64
	inflight  int
}

// Snapshot is a consistent copy of the controller state. Data is shared by
// pointer and must be treated as immutable.
type Snapshot struct {
	Data    *geojson.FeatureCollection `json:"data"`
	Summary metrics.Summary            `json:"summary"`
	Mode    ViewMode                   `json:"mode"`
	Loading bool                       `json:"loading"`
}

// NewController returns a controller with no data, mode none, not loading.
func NewController() *Controller {
	return &Controller{mode: ModeNone}
}

// UploadStart marks an upload in flight and issues its sequence number.
func (c *Controller) UploadStart() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	c.inflight++

	return c.nextSeq
}

// UploadSuccess commits the conversion result atomically. The view mode is
// left unchanged: loading data does not auto-open a panel. Returns
// ErrStaleUpload when a later upload already committed.
func (c *Controller) UploadSuccess(seq uint64, fc *geojson.FeatureCollection, summary metrics.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight > 0 {
		c.inflight--
	}

	if seq <= c.committed {
		log.Debug().
			Uint64("seq", seq).
			Uint64("committed", c.committed).
			Msg("Dropping stale upload result")
		return ErrStaleUpload
	}

	c.committed = seq
	c.data = fc
	c.summary = summary

	return nil
}

// UploadFailure drops the loading flag and leaves all data fields untouched.
func (c *Controller) UploadFailure(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight > 0 {
		c.inflight--
	}
}

// SetViewMode switches the visible panel. Disabled while no data is loaded.
func (c *Controller) SetViewMode(mode ViewMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil && mode != ModeNone {
		return ErrNoData
	}
	c.mode = mode

	return nil
}

// Clear resets the data, metrics and view mode. Disabled while no data is
// loaded. In-flight uploads keep their sequence numbers, so a conversion
// that started before the clear can still commit afterwards.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return ErrNoData
	}

	c.data = nil
	c.summary = metrics.Summary{}
	c.mode = ModeNone

	return nil
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Data:    c.data,
		Summary: c.summary,
		Mode:    c.mode,
		Loading: c.inflight > 0,
	}
}
