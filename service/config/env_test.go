package config

import (
	"math"
	"sync"
	"testing"

	"github.com/khaledhikmat/gbd-go/model"
)

func TestDefaultThresholds(t *testing.T) {
	svc := NewEnv()

	th := svc.GetThresholds()
	if math.Abs(float64(th.Confidence-model.DefaultConfidenceThreshold)) > 1e-6 {
		t.Fatalf("default confidence = %f", th.Confidence)
	}
	if math.Abs(float64(th.Overlap-model.DefaultOverlapThreshold)) > 1e-6 {
		t.Fatalf("default overlap = %f", th.Overlap)
	}
}

func TestThresholdOverridesFromEnv(t *testing.T) {
	t.Setenv("DETECTOR_CONFIDENCE_THRESHOLD", "0.40")
	t.Setenv("DETECTOR_OVERLAP_THRESHOLD", "0.25")

	svc := NewEnv()

	th := svc.GetThresholds()
	if math.Abs(float64(th.Confidence-0.40)) > 1e-6 {
		t.Fatalf("expected confidence 0.40, got %f", th.Confidence)
	}
	if math.Abs(float64(th.Overlap-0.25)) > 1e-6 {
		t.Fatalf("expected overlap 0.25, got %f", th.Overlap)
	}
}

func TestSetThresholdsSnaps(t *testing.T) {
	svc := NewEnv()

	svc.SetThresholds(model.ThresholdConfig{Confidence: 0.17, Overlap: 1.4})

	th := svc.GetThresholds()
	if math.Abs(float64(th.Confidence-0.15)) > 1e-6 {
		t.Fatalf("expected snapped confidence 0.15, got %f", th.Confidence)
	}
	if math.Abs(float64(th.Overlap-1.0)) > 1e-6 {
		t.Fatalf("expected clamped overlap 1.0, got %f", th.Overlap)
	}
}

func TestConcurrentThresholdAccess(t *testing.T) {
	svc := NewEnv()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				svc.SetThresholds(model.ThresholdConfig{Confidence: 0.30, Overlap: 0.10})
			} else {
				th := svc.GetThresholds()
				if th.Confidence < 0 || th.Confidence > 1 {
					t.Errorf("read out-of-range confidence %f", th.Confidence)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestDetectorParameterDefaults(t *testing.T) {
	svc := NewEnv()

	p := svc.GetDetectorParameters()
	if p.InputSize != 640 {
		t.Fatalf("expected input size 640, got %d", p.InputSize)
	}
	if p.FrameStride != 1 {
		t.Fatalf("expected frame stride 1, got %d", p.FrameStride)
	}
	if p.Logging {
		t.Fatalf("expected detection logging off by default")
	}
}
