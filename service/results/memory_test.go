package results

import (
	"sync"
	"testing"

	"github.com/khaledhikmat/gbd-go/model"
)

func TestAppendAndLookup(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	ts := model.NewTimestamp(1, 30)
	boxes := []model.DetectionBox{
		{X: 0.4, Y: 0.4, Width: 0.1, Height: 0.1, Label: "ball", Confidence: 0.9},
	}
	svc.Append(gen, ts, boxes)

	got, ok := svc.Lookup(ts)
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if len(got) != 1 || got[0].Confidence != 0.9 {
		t.Fatalf("unexpected boxes: %+v", got)
	}
}

func TestLookupUnknownTimestamp(t *testing.T) {
	svc := NewInMemory()
	svc.Reset()

	if _, ok := svc.Lookup(model.NewTimestamp(5, 30)); ok {
		t.Fatalf("expected lookup of unknown timestamp to fail")
	}
}

func TestLookupEquivalentTimestamp(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	svc.Append(gen, model.NewTimestamp(2, 60), nil)

	// 1/30 and 2/60 reduce to the same key
	if _, ok := svc.Lookup(model.NewTimestamp(1, 30)); !ok {
		t.Fatalf("expected lookup via equivalent timestamp to succeed")
	}
}

func TestDuplicateTimestampLastWins(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	ts := model.NewTimestamp(0, 1)
	first := []model.DetectionBox{{Label: "ball", Confidence: 0.3}}
	second := []model.DetectionBox{{Label: "ball", Confidence: 0.8}}

	svc.Append(gen, ts, first)
	svc.Append(gen, ts, second)

	if svc.Len() != 1 {
		t.Fatalf("expected a single timestamp entry, got %d", svc.Len())
	}

	got, ok := svc.Lookup(ts)
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if len(got) != 1 || got[0].Confidence != 0.8 {
		t.Fatalf("expected last append to win, got %+v", got)
	}
}

func TestStaleGenerationDropped(t *testing.T) {
	svc := NewInMemory()
	stale := svc.Reset()
	svc.Reset()

	svc.Append(stale, model.NewTimestamp(1, 30), []model.DetectionBox{{Label: "ball"}})

	if svc.Len() != 0 {
		t.Fatalf("expected stale generation append to be dropped, store has %d entries", svc.Len())
	}
}

func TestResetClears(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	ts := model.NewTimestamp(1, 30)
	svc.Append(gen, ts, nil)
	if svc.Len() != 1 {
		t.Fatalf("expected one entry before reset")
	}

	next := svc.Reset()
	if next == gen {
		t.Fatalf("expected reset to mint a new generation")
	}
	if svc.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d entries", svc.Len())
	}
	if _, ok := svc.Lookup(ts); ok {
		t.Fatalf("expected lookup to fail after reset")
	}
}

func TestResultsFollowAppendOrder(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	rate := model.NewFrameRate(30)
	for i := int64(0); i < 5; i++ {
		svc.Append(gen, rate.FrameTimestamp(i), []model.DetectionBox{{Label: "ball"}})
	}

	results := svc.Results()
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Timestamp.Equal(rate.FrameTimestamp(int64(i))) {
			t.Fatalf("result %d has timestamp %s", i, r.Timestamp)
		}
	}
}

func TestConcurrentAppends(t *testing.T) {
	svc := NewInMemory()
	gen := svc.Reset()

	rate := model.NewFrameRate(30)
	const frames = 200

	var wg sync.WaitGroup
	for i := int64(0); i < frames; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			svc.Append(gen, rate.FrameTimestamp(i), []model.DetectionBox{{Label: "ball"}})
		}(i)
	}
	wg.Wait()

	if svc.Len() != frames {
		t.Fatalf("expected %d entries, got %d", frames, svc.Len())
	}
	for i := int64(0); i < frames; i++ {
		if _, ok := svc.Lookup(rate.FrameTimestamp(i)); !ok {
			t.Fatalf("missing entry for frame %d", i)
		}
	}
}
