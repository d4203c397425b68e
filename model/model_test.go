package model

import (
	"math"
	"testing"
)

func TestTimestampReduction(t *testing.T) {
	a := NewTimestamp(2, 60)
	b := NewTimestamp(1, 30)

	if !a.Equal(b) {
		t.Fatalf("expected %s to equal %s", a, b)
	}
	if a.Num != 1 || a.Den != 30 {
		t.Fatalf("expected reduced 1/30, got %s", a)
	}
}

func TestTimestampZeroDenominator(t *testing.T) {
	ts := NewTimestamp(5, 0)
	if ts != (Timestamp{}) {
		t.Fatalf("expected zero value for zero denominator, got %s", ts)
	}
	if ts.Seconds() != 0 {
		t.Fatalf("expected 0 seconds, got %f", ts.Seconds())
	}
}

func TestTimestampNegativeDenominator(t *testing.T) {
	ts := NewTimestamp(1, -30)
	if ts.Num != -1 || ts.Den != 30 {
		t.Fatalf("expected -1/30, got %s", ts)
	}
}

func TestFrameRateIntegral(t *testing.T) {
	rate := NewFrameRate(30)
	if !rate.Valid() {
		t.Fatalf("expected valid rate")
	}
	if rate.Num != 30 || rate.Den != 1 {
		t.Fatalf("expected 30/1, got %d/%d", rate.Num, rate.Den)
	}

	ts := rate.FrameTimestamp(7)
	if ts.Num != 7 || ts.Den != 30 {
		t.Fatalf("expected 7/30, got %s", ts)
	}
}

func TestFrameRateNTSC(t *testing.T) {
	rate := NewFrameRate(29.97)
	if !rate.Valid() {
		t.Fatalf("expected valid rate")
	}
	if rate.Num != 2997 || rate.Den != 100 {
		t.Fatalf("expected 2997/100, got %d/%d", rate.Num, rate.Den)
	}

	// Independently constructed timestamps for the same frame compare equal
	if !rate.FrameTimestamp(3).Equal(rate.FrameTimestamp(3)) {
		t.Fatalf("expected equal timestamps for same index")
	}

	prev := rate.FrameTimestamp(0)
	for i := int64(1); i < 10; i++ {
		ts := rate.FrameTimestamp(i)
		if ts.Seconds() <= prev.Seconds() {
			t.Fatalf("expected strictly increasing timestamps, got %s after %s", ts, prev)
		}
		prev = ts
	}
}

func TestFrameRateInvalid(t *testing.T) {
	for _, fps := range []float64{0, -30, math.NaN(), math.Inf(1)} {
		rate := NewFrameRate(fps)
		if rate.Valid() {
			t.Fatalf("expected invalid rate for fps=%f", fps)
		}
		if rate.TotalFrames(10) != 0 {
			t.Fatalf("expected zero frames for fps=%f", fps)
		}
	}
}

func TestTotalFrames(t *testing.T) {
	tests := []struct {
		fps      float64
		duration float64
		want     int64
	}{
		{30, 2.0, 60},
		{29.97, 2.0, 59},
		{30, 0, 0},
		{30, -1, 0},
		{25, 0.99, 24},
	}

	for _, tc := range tests {
		got := NewFrameRate(tc.fps).TotalFrames(tc.duration)
		if got != tc.want {
			t.Fatalf("TotalFrames(fps=%f, d=%f) = %d, want %d", tc.fps, tc.duration, got, tc.want)
		}
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.Confidence != DefaultConfidenceThreshold {
		t.Fatalf("default confidence = %f", th.Confidence)
	}
	if th.Overlap != DefaultOverlapThreshold {
		t.Fatalf("default overlap = %f", th.Overlap)
	}
}

func TestThresholdSnapping(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{-0.3, 0},
		{0, 0},
		{0.17, 0.15},
		{0.18, 0.20},
		{1, 1},
		{1.4, 1},
	}

	for _, tc := range tests {
		got := ThresholdConfig{Confidence: tc.in, Overlap: tc.in}.Snapped()
		if math.Abs(float64(got.Confidence-tc.want)) > 1e-6 {
			t.Fatalf("Snapped(%f).Confidence = %f, want %f", tc.in, got.Confidence, tc.want)
		}
		if math.Abs(float64(got.Overlap-tc.want)) > 1e-6 {
			t.Fatalf("Snapped(%f).Overlap = %f, want %f", tc.in, got.Overlap, tc.want)
		}
	}
}
