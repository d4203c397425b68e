package pipeline

import (
	"testing"

	"github.com/khaledhikmat/gbd-go/model"
)

func TestFrameTimelineTwoSecondsAt30(t *testing.T) {
	timeline := frameTimeline(model.NewFrameRate(30), 2.0)

	if len(timeline) != 60 {
		t.Fatalf("expected 60 timestamps, got %d", len(timeline))
	}
	if !timeline[0].Equal(model.NewTimestamp(0, 1)) {
		t.Fatalf("expected first timestamp 0, got %s", timeline[0])
	}
	if !timeline[59].Equal(model.NewTimestamp(59, 30)) {
		t.Fatalf("expected last timestamp 59/30, got %s", timeline[59])
	}

	for i := 1; i < len(timeline); i++ {
		if timeline[i].Seconds() <= timeline[i-1].Seconds() {
			t.Fatalf("timeline not strictly increasing at index %d", i)
		}
	}
}

func TestFrameTimelineNTSC(t *testing.T) {
	timeline := frameTimeline(model.NewFrameRate(29.97), 2.0)

	// floor(29.97 x 2) = 59
	if len(timeline) != 59 {
		t.Fatalf("expected 59 timestamps, got %d", len(timeline))
	}

	// Recomputing the grid yields keys that compare equal
	again := frameTimeline(model.NewFrameRate(29.97), 2.0)
	for i := range timeline {
		if !timeline[i].Equal(again[i]) {
			t.Fatalf("timeline not reproducible at index %d: %s vs %s", i, timeline[i], again[i])
		}
	}
}

func TestFrameTimelineInvalidRate(t *testing.T) {
	if timeline := frameTimeline(model.NewFrameRate(0), 10); timeline != nil {
		t.Fatalf("expected nil timeline for invalid rate, got %d entries", len(timeline))
	}
	if timeline := frameTimeline(model.NewFrameRate(30), 0); timeline != nil {
		t.Fatalf("expected nil timeline for zero duration, got %d entries", len(timeline))
	}
}
