package detector

import (
	"context"

	"github.com/khaledhikmat/gbd-go/model"
	"gocv.io/x/gocv"
)

// Session is one model handle. Handles are not safe for concurrent use
// (gocv nets are not thread-safe), so each inference worker opens its own.
// Thresholds are passed fresh on every Detect call; the handle itself may be
// reused across frames.
type Session interface {
	Detect(ctx context.Context, img gocv.Mat, thresholds model.ThresholdConfig) ([]model.DetectionBox, error)
	Close() error
}

type IService interface {
	OpenSession() (Session, error)
	// CanSkipFrame lets the framer subsample large videos (stride > 1).
	CanSkipFrame(frames int) bool
}
