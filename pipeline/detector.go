package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/detector"
	"github.com/khaledhikmat/gbd-go/service/lgr"
	"github.com/natefinch/lumberjack"
	"gocv.io/x/gocv"
)

// Global detections logger instance
var detectionsLogger = &lumberjack.Logger{
	Filename:   "detections.log",
	MaxSize:    10, // MB
	MaxBackups: 5,
	MaxAge:     7,    // days
	Compress:   true, // compress old logs
}

// BallDetector is the inference scheduler: it drains the frame channel with a
// pool of workers, each holding its own detector session, and appends every
// completed detection to the result store keyed by the frame's timestamp.
// Completion order is concurrency-dependent; the store tolerates interleaved
// appends. Any per-frame failure is swallowed: no result is appended and the
// batch continues.
func BallDetector(canx context.Context, svcs ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}) (chan FrameData, <-chan struct{}) {
	in := make(chan FrameData, svcs.CfgSvc.GetStreamerChannelDepth())
	done := make(chan struct{})

	go func() {
		defer close(done)

		lgr.Logger.Info("ball detector starting...",
			slog.String("media", run.Media.Name),
			slog.String("run", run.ID),
			slog.String("openCV", gocv.Version()),
		)

		logging := svcs.CfgSvc.GetDetectorParameters().Logging

		proc := func(frame FrameData, session detector.Session) bool {
			defer frame.Mat.Close()
			defer func() {
				if r := recover(); r != nil {
					lgr.Logger.Error("ball detector recovered from panic",
						slog.Any("panic", fmt.Errorf("%v", r)),
					)
				}
			}()

			if frame.Mat.Empty() {
				lgr.Logger.Debug("skipping empty frame due to decode error")
				return false
			}

			// Thresholds are read at the moment the inference request is
			// issued; frames already dispatched are never re-inferred
			thresholds := svcs.CfgSvc.GetThresholds()

			boxes, err := session.Detect(canx, frame.Mat, thresholds)
			if err != nil {
				// Best-effort policy: one bad frame must never abort the batch
				lgr.Logger.Debug(
					"ball detector inference failed, dropping frame",
					slog.String("timestamp", frame.Timestamp.String()),
					slog.Any("error", err),
				)
				return false
			}

			svcs.ResultsSvc.Append(run.Generation, frame.Timestamp, boxes)

			if logging && len(boxes) > 0 {
				logDetections(run.Media.Name, frame.Timestamp, boxes)
			}
			return true
		}

		var wg sync.WaitGroup
		for i := 0; i < svcs.CfgSvc.GetStreamerMaxWorkers(); i++ {
			worker := i
			wg.Add(1)
			go func(worker int, in chan FrameData) {
				defer wg.Done()

				// WARNING: detector sessions are not thread-safe!!!
				// So one must be opened in each worker
				session, err := svcs.DetectorSvc.OpenSession()
				if err != nil {
					errorStream <- model.GenError("agent_ball_detector",
						err,
						map[string]interface{}{},
						"worker %d: error opening detector session", worker)
					// Keep draining so the framer never blocks; those frames
					// simply yield no detections
					for f := range in {
						f.Mat.Close()
					}
					return
				}
				defer session.Close()

				frames := 0
				beginTime := time.Now().Unix()
				errors := 0
				var totalInferenceTime time.Duration

				defer func() {
					uptime := time.Now().Unix() - beginTime
					fps := int(float64(frames) / float64(max64(uptime, 1)))
					if fps == 0 {
						fps = 1
					}
					var avgProcTime float64
					if frames > 0 {
						avgProcTime = totalInferenceTime.Seconds() / float64(frames)
					}
					statsStream <- model.StreamerStats{
						Name:        "ballDetector",
						Worker:      worker,
						Media:       run.Media.Name,
						Frames:      frames,
						Errors:      errors,
						Uptime:      uptime,
						FPS:         fps,
						AvgProcTime: avgProcTime,
					}
				}()

				for f := range in {
					select {
					case <-canx.Done():
						lgr.Logger.Info(
							"ball detector worker context cancelled",
							slog.Int("worker", worker),
						)
						f.Mat.Close()
						return
					default:
						startInference := time.Now()
						if !proc(f, session) {
							errors++
						}
						frames++
						totalInferenceTime += time.Since(startInference)
					}
				}
			}(worker, in)
		}

		wg.Wait()
		lgr.Logger.Info("ball detector drained",
			slog.String("media", run.Media.Name),
		)
	}()

	return in, done
}

func logDetections(mediaName string, ts model.Timestamp, boxes []model.DetectionBox) {
	entry := map[string]interface{}{
		"time":      time.Now().Format(time.RFC3339),
		"media":     mediaName,
		"timestamp": ts.String(),
		"boxes":     boxes,
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		lgr.Logger.Error("error marshaling detections", slog.Any("error", err))
		return
	}

	if _, err := detectionsLogger.Write(append(jsonData, '\n')); err != nil {
		lgr.Logger.Error("error writing to detections log file", slog.Any("error", err))
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
