package detector

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
	"gocv.io/x/gocv"
)

const defaultLabel = "ball"

type onnxService struct {
	cfgSvc config.IService
	labels []string
}

// NewONNX wraps an ONNX object-detection model (YOLO-style output rows) behind
// the adapter interface. The model file must exist; labels are optional and
// default to a single "ball" class.
func NewONNX(cfgSvc config.IService) (IService, error) {
	params := cfgSvc.GetDetectorParameters()
	if _, err := os.Stat(params.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("detector model does not exist: %s", params.ModelPath)
	}

	labels := []string{defaultLabel}
	if data, err := os.ReadFile(params.LabelsPath); err == nil {
		labels = strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	return &onnxService{
		cfgSvc: cfgSvc,
		labels: labels,
	}, nil
}

func (svc *onnxService) OpenSession() (Session, error) {
	params := svc.cfgSvc.GetDetectorParameters()

	net := gocv.ReadNet(params.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("error reading detector model %s", params.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &onnxSession{
		net:       net,
		labels:    svc.labels,
		inputSize: params.InputSize,
	}, nil
}

func (svc *onnxService) CanSkipFrame(frames int) bool {
	stride := svc.cfgSvc.GetDetectorParameters().FrameStride
	if stride <= 1 {
		return false
	}
	return frames%stride != 0
}

type onnxSession struct {
	net       gocv.Net
	labels    []string
	inputSize int
}

func (s *onnxSession) Detect(ctx context.Context, img gocv.Mat, thresholds model.ThresholdConfig) ([]model.DetectionBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected DNN output dims: %v", dims)
	}

	reshaped := output.Reshape(1, dims[1])
	if reshaped.Empty() || reshaped.Rows() == 0 || reshaped.Cols() < 5 {
		reshaped.Close()
		return nil, fmt.Errorf("reshape failed or invalid dimensions")
	}
	defer reshaped.Close()

	var rects []image.Rectangle
	var scores []float32
	var labels []string

	for i := 0; i < reshaped.Rows(); i++ {
		row := reshaped.RowRange(i, i+1)
		data, err := row.DataPtrFloat32()
		if err != nil || data == nil || len(data) < 5 {
			row.Close()
			continue
		}

		rect, score, label := s.decodeRow(data, img.Cols(), img.Rows())
		row.Close()

		if score < thresholds.Confidence {
			continue
		}

		rects = append(rects, rect)
		scores = append(scores, score)
		labels = append(labels, label)
	}

	if len(rects) == 0 {
		return nil, nil
	}

	// The overlap threshold drives non-max suppression of duplicate boxes
	indices := gocv.NMSBoxes(rects, scores, thresholds.Confidence, thresholds.Overlap)

	boxes := make([]model.DetectionBox, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(rects) {
			continue
		}
		boxes = append(boxes, normalizeBox(rects[idx], scores[idx], labels[idx], img.Cols(), img.Rows()))
	}

	return boxes, nil
}

func (s *onnxSession) Close() error {
	return s.net.Close()
}

// decodeRow converts one YOLO output row [cx, cy, w, h, objectness, class...]
// to a pixel-space rectangle, a score and a label.
func (s *onnxSession) decodeRow(data []float32, cols, rows int) (image.Rectangle, float32, string) {
	score := data[4]
	label := s.labels[0]

	if len(data) > 5 {
		classScores := data[5:]
		classID := 0
		best := float32(0.0)
		for j, cs := range classScores {
			if cs > best {
				best = cs
				classID = j
			}
		}
		score *= best
		if classID < len(s.labels) {
			label = s.labels[classID]
		}
	}

	cx := data[0] * float32(cols)
	cy := data[1] * float32(rows)
	w := data[2] * float32(cols)
	h := data[3] * float32(rows)
	x := int(cx - w/2)
	y := int(cy - h/2)

	return image.Rect(x, y, x+int(w), y+int(h)), score, label
}

// normalizeBox maps a pixel-space rect (top-left origin) to a [0,1] box with a
// bottom-left origin; the overlay layer flips it back for display.
func normalizeBox(rect image.Rectangle, score float32, label string, cols, rows int) model.DetectionBox {
	fw := float64(cols)
	fh := float64(rows)

	x := clamp01(float64(rect.Min.X) / fw)
	topY := clamp01(float64(rect.Min.Y) / fh)
	w := clamp01(float64(rect.Dx()) / fw)
	h := clamp01(float64(rect.Dy()) / fh)

	if x+w > 1 {
		w = 1 - x
	}
	if topY+h > 1 {
		h = 1 - topY
	}

	return model.DetectionBox{
		X:          x,
		Y:          clamp01(1 - topY - h),
		Width:      w,
		Height:     h,
		Label:      label,
		Confidence: score,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
