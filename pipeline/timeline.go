package pipeline

import "github.com/khaledhikmat/gbd-go/model"

// frameTimeline computes the uniform sampling grid for a video: exactly
// floor(rate x duration) timestamps, strictly increasing, spaced 1/rate
// seconds apart, starting at 0.
func frameTimeline(rate model.FrameRate, durationSeconds float64) []model.Timestamp {
	total := rate.TotalFrames(durationSeconds)
	if total <= 0 {
		return nil
	}

	out := make([]model.Timestamp, 0, total)
	for i := int64(0); i < total; i++ {
		out = append(out, rate.FrameTimestamp(i))
	}
	return out
}
