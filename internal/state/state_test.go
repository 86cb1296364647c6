package state

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/maprika/kmlview/internal/metrics"
)

func sampleData() (*geojson.FeatureCollection, metrics.Summary) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{10, 50}))

	return fc, metrics.Compute(fc)
}

func TestInitialState(t *testing.T) {
	s := NewController().Snapshot()

	if s.Data != nil {
		t.Error("initial data should be nil")
	}
	if s.Mode != ModeNone {
		t.Errorf("initial mode = %s, want none", s.Mode)
	}
	if s.Loading {
		t.Error("initial loading should be false")
	}
}

func TestUploadLifecycle(t *testing.T) {
	c := NewController()
	fc, summary := sampleData()

	seq := c.UploadStart()
	if !c.Snapshot().Loading {
		t.Error("loading should be true after UploadStart")
	}

	if err := c.UploadSuccess(seq, fc, summary); err != nil {
		t.Fatalf("UploadSuccess() error = %v", err)
	}

	s := c.Snapshot()
	if s.Loading {
		t.Error("loading should be false after commit")
	}
	if s.Data != fc {
		t.Error("committed data not visible in snapshot")
	}
	if s.Mode != ModeNone {
		t.Errorf("mode = %s, success must not auto-open a panel", s.Mode)
	}
}

func TestUploadFailureKeepsData(t *testing.T) {
	c := NewController()
	fc, summary := sampleData()

	if err := c.UploadSuccess(c.UploadStart(), fc, summary); err != nil {
		t.Fatalf("UploadSuccess() error = %v", err)
	}

	seq := c.UploadStart()
	c.UploadFailure(seq)

	s := c.Snapshot()
	if s.Data != fc {
		t.Error("failure must leave previously committed data untouched")
	}
	if s.Loading {
		t.Error("loading should drop after failure")
	}
}

func TestStaleUploadCannotOverwriteNewer(t *testing.T) {
	c := NewController()
	oldFC, oldSummary := sampleData()

	newFC := geojson.NewFeatureCollection()
	newFC.Append(geojson.NewFeature(orb.Point{0, 0}))
	newFC.Append(geojson.NewFeature(orb.Point{1, 1}))
	newSummary := metrics.Compute(newFC)

	slowSeq := c.UploadStart()
	fastSeq := c.UploadStart()

	if err := c.UploadSuccess(fastSeq, newFC, newSummary); err != nil {
		t.Fatalf("newer upload commit error = %v", err)
	}

	err := c.UploadSuccess(slowSeq, oldFC, oldSummary)
	if !errors.Is(err, ErrStaleUpload) {
		t.Fatalf("stale commit error = %v, want ErrStaleUpload", err)
	}

	if s := c.Snapshot(); s.Data != newFC {
		t.Error("stale upload overwrote the newer result")
	}
}

func TestViewModeRequiresData(t *testing.T) {
	c := NewController()

	if err := c.SetViewMode(ModeSummary); !errors.Is(err, ErrNoData) {
		t.Errorf("SetViewMode without data error = %v, want ErrNoData", err)
	}
	if err := c.SetViewMode(ModeNone); err != nil {
		t.Errorf("SetViewMode(none) without data error = %v, want nil", err)
	}

	fc, summary := sampleData()
	if err := c.UploadSuccess(c.UploadStart(), fc, summary); err != nil {
		t.Fatalf("UploadSuccess() error = %v", err)
	}

	if err := c.SetViewMode(ModeDetails); err != nil {
		t.Errorf("SetViewMode with data error = %v", err)
	}
	if s := c.Snapshot(); s.Mode != ModeDetails {
		t.Errorf("mode = %s, want details", s.Mode)
	}
}

func TestClear(t *testing.T) {
	c := NewController()

	if err := c.Clear(); !errors.Is(err, ErrNoData) {
		t.Errorf("Clear without data error = %v, want ErrNoData", err)
	}

	fc, summary := sampleData()
	if err := c.UploadSuccess(c.UploadStart(), fc, summary); err != nil {
		t.Fatalf("UploadSuccess() error = %v", err)
	}
	if err := c.SetViewMode(ModeSummary); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	s := c.Snapshot()
	if s.Data != nil {
		t.Error("data should be nil after clear")
	}
	if s.Mode != ModeNone {
		t.Errorf("mode = %s, want none after clear", s.Mode)
	}
	if s.Summary.ElementCounts != nil || s.Summary.Bound != nil {
		t.Error("summary should be reset after clear")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ViewMode
		wantErr bool
	}{
		{"none", ModeNone, false},
		{"summary", ModeSummary, false},
		{"details", ModeDetails, false},
		{"", "", true},
		{"Summary", "", true},
		{"full", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
