package detector

import (
	"context"
	"testing"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gbd-go/model"
)

func TestFakeDeterministic(t *testing.T) {
	svc := NewFake()
	session, err := svc.OpenSession()
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer session.Close()

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	thresholds := model.DefaultThresholds()
	first, err := session.Detect(context.Background(), img, thresholds)
	if err != nil {
		t.Fatalf("unexpected detect error: %v", err)
	}
	second, err := session.Detect(context.Background(), img, thresholds)
	if err != nil {
		t.Fatalf("unexpected detect error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical results, got %d vs %d boxes", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("box %d differs between identical calls", i)
		}
	}
}

func TestFakeRaisingConfidenceYieldsSubset(t *testing.T) {
	svc := NewFake()
	session, err := svc.OpenSession()
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer session.Close()

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	var prev []model.DetectionBox
	for _, conf := range []float32{0.15, 0.40, 0.60, 0.95} {
		boxes, err := session.Detect(context.Background(), img, model.ThresholdConfig{Confidence: conf, Overlap: 0.10})
		if err != nil {
			t.Fatalf("unexpected detect error at confidence %f: %v", conf, err)
		}

		for _, b := range boxes {
			if b.Confidence < conf {
				t.Fatalf("box below threshold %f survived: %+v", conf, b)
			}
		}

		if prev != nil && len(boxes) > len(prev) {
			t.Fatalf("raising the threshold grew the result set: %d > %d", len(boxes), len(prev))
		}
		prev = boxes
	}
}

func TestFakeCancelledContext(t *testing.T) {
	svc := NewFake()
	session, err := svc.OpenSession()
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer session.Close()

	canxCtx, canxFn := context.WithCancel(context.Background())
	canxFn()

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	if _, err := session.Detect(canxCtx, img, model.DefaultThresholds()); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
