package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/lgr"
	"gocv.io/x/gocv"
)

var annotationColor = color.RGBA{G: 255}

// Annotator buffers frames, joins them with stored detection results and
// flushes annotated MP4 clips to the storage service. Results for a frame may
// still be in flight at flush time; missing lookups simply render no boxes,
// consistent with the pipeline's best-effort posture.
//
// WARNING: Can't do workers because we need the frames to be in order.
func Annotator(canx context.Context, svcs ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}) (chan FrameData, <-chan struct{}) {
	in := make(chan FrameData, svcs.CfgSvc.GetStreamerChannelDepth())
	done := make(chan struct{})

	go func() {
		defer close(done)

		var buffer []FrameData
		var recordingTime = time.Now()

		lgr.Logger.Info(
			"annotator initialized...",
			slog.String("media", run.Media.Name),
		)

		flush := func(clonedBuffer []FrameData) {
			defer func() {
				for _, f := range clonedBuffer {
					f.Mat.Close()
				}
				if r := recover(); r != nil {
					lgr.Logger.Error("annotator flush panic recovered", slog.Any("panic", fmt.Errorf("%v", r)))
				}
			}()

			if len(clonedBuffer) == 0 {
				return
			}

			fn, err := saveAnnotatedClip(svcs, run, clonedBuffer)
			if err != nil {
				errorStream <- model.GenError("agent_annotator",
					err,
					map[string]interface{}{},
					"error saving annotated clip")
				return
			}

			defer func() {
				if fn == "" {
					return
				}
				if err := os.Remove(fn); err != nil {
					errorStream <- model.GenError("agent_annotator",
						err,
						map[string]interface{}{},
						"error deleting the local clip %s", fn)
				}
			}()

			if fn != "" {
				clipURL, err := svcs.StorageSvc.StoreFile(fn)
				if err != nil {
					errorStream <- model.GenError("agent_annotator",
						err,
						map[string]interface{}{},
						"error storing annotated clip %s", fn)
					return
				}

				lgr.Logger.Info(
					"annotated clip stored",
					slog.String("media", run.Media.Name),
					slog.String("clip", clipURL),
				)
			}
		}

		proc := func(frame FrameData) bool {
			buffer = append(buffer, frame)

			if time.Since(recordingTime) >= time.Duration(svcs.CfgSvc.GetAnnotatorClipDuration())*time.Second {
				clonedBuffer := make([]FrameData, len(buffer))
				for i, f := range buffer {
					clonedBuffer[i] = FrameData{
						Mat:       f.Mat.Clone(),
						Timestamp: f.Timestamp,
					}
				}

				// Close original frames immediately (not deferred)
				for _, f := range buffer {
					f.Mat.Close()
				}

				buffer = make([]FrameData, 0, len(buffer))

				// Launch flush as a goroutine so we don't block the main loop
				go flush(clonedBuffer)
				return true
			}
			return false
		}

		frames := 0
		beginTime := time.Now().Unix()
		errors := 0
		var totalProcTime time.Duration

		defer func() {
			uptime := time.Now().Unix() - beginTime
			fps := 0
			if uptime > 0 {
				fps = int(float64(frames) / float64(uptime))
			}
			var avgProcTime float64
			if frames > 0 {
				avgProcTime = totalProcTime.Seconds() / float64(frames)
			}
			statsStream <- model.StreamerStats{
				Name:        "annotator",
				Worker:      -1,
				Media:       run.Media.Name,
				Frames:      frames,
				Errors:      errors,
				Uptime:      uptime,
				FPS:         fps,
				AvgProcTime: avgProcTime,
			}
		}()

		defer func() {
			// Final flush on channel close or shutdown
			if len(buffer) > 0 {
				clonedBuffer := make([]FrameData, len(buffer))
				for i, f := range buffer {
					clonedBuffer[i] = FrameData{
						Mat:       f.Mat.Clone(),
						Timestamp: f.Timestamp,
					}
					f.Mat.Close()
				}
				flush(clonedBuffer)
			}
		}()

		for f := range in {
			select {
			case <-canx.Done():
				lgr.Logger.Info("annotator context cancelled")
				f.Mat.Close()
				time.Sleep(waitBeforeCancel)
				return
			default:
				start := time.Now()
				if proc(f) {
					recordingTime = time.Now()
				}
				frames++
				totalProcTime += time.Since(start)
			}
		}
	}()

	return in, done
}

// DrawDetections overlays boxes on the image. Boxes are normalized with a
// bottom-left origin; the image is top-left, so the vertical axis is flipped.
func DrawDetections(mat *gocv.Mat, boxes []model.DetectionBox) {
	cols := float64(mat.Cols())
	rows := float64(mat.Rows())

	for _, box := range boxes {
		x := int(box.X * cols)
		y := int((1 - box.Y - box.Height) * rows)
		w := int(box.Width * cols)
		h := int(box.Height * rows)

		rect := image.Rect(x, y, x+w, y+h)
		gocv.Rectangle(mat, rect, annotationColor, 2)
		gocv.PutText(mat, fmt.Sprintf("%s %.2f", box.Label, box.Confidence), image.Pt(x, y-5),
			gocv.FontHersheySimplex, 0.6, annotationColor, 2)
	}
}

func saveAnnotatedClip(svcs ServicesFactory, run Run, frames []FrameData) (string, error) {
	if len(frames) == 0 {
		return "", fmt.Errorf("no frames to save")
	}

	if frames[0].Mat.Empty() || frames[0].Mat.Cols() <= 0 || frames[0].Mat.Rows() <= 0 {
		return "", fmt.Errorf("invalid Mat in frames[0]")
	}

	filename := fmt.Sprintf("%s/%s_annotated_%d.mp4", svcs.CfgSvc.GetWorkFolder(), run.Media.ID, time.Now().UnixNano())
	writer, err := gocv.VideoWriterFile(filename, "avc1", 30, frames[0].Mat.Cols(), frames[0].Mat.Rows(), true)
	if err != nil {
		lgr.Logger.Error(
			"error creating video writer",
			slog.Any("error", err),
		)
		return "", err
	}
	defer writer.Close()

	for _, f := range frames {
		if boxes, ok := svcs.ResultsSvc.Lookup(f.Timestamp); ok {
			DrawDetections(&f.Mat, boxes)
		}

		if err := writer.Write(f.Mat); err != nil {
			return "", err
		}
	}

	return filename, nil
}
