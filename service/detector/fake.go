package detector

import (
	"context"

	"github.com/khaledhikmat/gbd-go/model"
	"gocv.io/x/gocv"
)

type fakeService struct {
	candidates []model.DetectionBox
	openErr    error
	detectErr  error
}

// NewFake returns a deterministic detector: every Detect call filters a fixed
// candidate set by the confidence threshold. Same image, same thresholds,
// same boxes.
func NewFake() IService {
	return &fakeService{
		candidates: []model.DetectionBox{
			{X: 0.40, Y: 0.40, Width: 0.10, Height: 0.10, Label: "ball", Confidence: 0.90},
			{X: 0.10, Y: 0.70, Width: 0.08, Height: 0.08, Label: "ball", Confidence: 0.50},
			{X: 0.75, Y: 0.15, Width: 0.05, Height: 0.05, Label: "ball", Confidence: 0.20},
		},
	}
}

// NewFailingFake returns a detector whose sessions cannot be opened, for
// exercising the pipeline's best-effort policy.
func NewFailingFake(openErr error) IService {
	return &fakeService{openErr: openErr}
}

// NewErroringFake returns a detector whose Detect calls always fail.
func NewErroringFake(detectErr error) IService {
	return &fakeService{detectErr: detectErr}
}

func (svc *fakeService) OpenSession() (Session, error) {
	if svc.openErr != nil {
		return nil, svc.openErr
	}
	return &fakeSession{svc: svc}, nil
}

func (svc *fakeService) CanSkipFrame(_ int) bool {
	return false
}

type fakeSession struct {
	svc *fakeService
}

func (s *fakeSession) Detect(ctx context.Context, _ gocv.Mat, thresholds model.ThresholdConfig) ([]model.DetectionBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.svc.detectErr != nil {
		return nil, s.svc.detectErr
	}

	var boxes []model.DetectionBox
	for _, c := range s.svc.candidates {
		if c.Confidence >= thresholds.Confidence {
			boxes = append(boxes, c)
		}
	}
	return boxes, nil
}

func (s *fakeSession) Close() error {
	return nil
}
