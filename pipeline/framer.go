package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/lgr"
	"gocv.io/x/gocv"
)

// framer extracts frames from the run's work copy and routes them to the
// streamer channels. It returns the number of frames dispatched. All failures
// are non-fatal: a media item that cannot be probed yields zero frames and one
// report on the error stream; an individual frame that fails to decode is
// dropped silently.
func framer(canxCtx context.Context, svcs ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) int {
	if run.Media.Kind == model.MediaKindPhoto {
		return photoFramer(canxCtx, svcs, run, errorStream, statsStream, streamChannels)
	}

	return videoFramer(canxCtx, svcs, run, errorStream, statsStream, streamChannels)
}

func videoFramer(canxCtx context.Context, svcs ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) int {
	var startTime = time.Now().Unix()
	var frames = 0
	var skippedFrames = 0
	var errors = 0

	defer func() {
		uptime := time.Now().Unix() - startTime
		fps := 0
		if uptime > 0 {
			fps = int(float64(frames) / float64(uptime))
		}
		statsStream <- model.FramerStats{
			Name:          "videoFramer",
			Media:         run.Media.Name,
			Frames:        frames,
			SkippedFrames: skippedFrames,
			Errors:        errors,
			Uptime:        uptime,
			FPS:           fps,
		}
	}()

	capture, err := gocv.OpenVideoCapture(run.WorkPath)
	if err != nil {
		errorStream <- model.GenError("agent_video_framer",
			err,
			map[string]interface{}{},
			"error opening video asset %s", run.WorkPath)
		return 0
	}
	defer capture.Close()

	// Probe the asset's nominal frame rate and duration. Either may be
	// unavailable, in which case extraction produces zero frames and the
	// pipeline performs no inference.
	rate := model.NewFrameRate(capture.Get(gocv.VideoCaptureFPS))
	frameCount := capture.Get(gocv.VideoCaptureFrameCount)
	if !rate.Valid() || frameCount <= 0 {
		errorStream <- model.GenError("agent_video_framer",
			nil,
			map[string]interface{}{"fps": rate.FPS(), "frameCount": frameCount},
			"video asset metadata unavailable, no frames extracted")
		return 0
	}

	duration := frameCount / rate.FPS()
	timestamps := frameTimeline(rate, duration)

	lgr.Logger.Info(
		"video framer starting....",
		slog.String("media", run.Media.Name),
		slog.Float64("fps", rate.FPS()),
		slog.Float64("duration", duration),
		slog.Int("timestamps", len(timestamps)),
	)

	// Decode one exact still per timestamp and route it to the streamers
	for index, ts := range timestamps {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"videoFramer context cancelled",
			)
			return frames
		default:
		}

		if svcs.DetectorSvc.CanSkipFrame(index) {
			skippedFrames++
			continue
		}

		img := gocv.NewMat()
		capture.Set(gocv.VideoCapturePosFrames, float64(index))
		if ok := capture.Read(&img); !ok || img.Empty() {
			// Decode failure: this timestamp yields no frame and no result
			errors++
			img.Close() // Crucial to close the image to avoid memory leaks
			continue
		}

		frames++
		for _, streamChan := range streamChannels {
			// WARNING: We need an extra check to make sure we don't send on a closed channel
			select {
			case <-canxCtx.Done():
				// Context canceled, stop sending
				lgr.Logger.Info("videoFramer context cancelled while sending!!")
				img.Close() // Crucial to close the image to avoid memory leaks
				return frames
			case streamChan <- FrameData{Mat: img.Clone(), Timestamp: ts}:
				// Successfully sent to the channel
			}
		}

		img.Close() // Crucial to close the image to avoid memory leaks
	}

	return frames
}

// photoFramer delivers a single still image as a one-frame sequence with
// timestamp zero.
func photoFramer(canxCtx context.Context, _ ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) int {
	var startTime = time.Now().Unix()
	var frames = 0
	var errors = 0

	defer func() {
		statsStream <- model.FramerStats{
			Name:   "photoFramer",
			Media:  run.Media.Name,
			Frames: frames,
			Errors: errors,
			Uptime: time.Now().Unix() - startTime,
		}
	}()

	img := gocv.IMRead(run.WorkPath, gocv.IMReadColor)
	if img.Empty() {
		errors++
		img.Close()
		errorStream <- model.GenError("agent_photo_framer",
			nil,
			map[string]interface{}{},
			"error decoding photo asset %s", run.WorkPath)
		return 0
	}

	frames++
	ts := model.NewTimestamp(0, 1)
	for _, streamChan := range streamChannels {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("photoFramer context cancelled while sending!!")
			img.Close() // Crucial to close the image to avoid memory leaks
			return frames
		case streamChan <- FrameData{Mat: img.Clone(), Timestamp: ts}:
		}
	}

	img.Close() // Crucial to close the image to avoid memory leaks
	return frames
}
