package mode

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/pipeline"
	"github.com/khaledhikmat/gbd-go/service/lgr"
)

// Photo processes a single still image: one agent, one frame, one detection
// call with the thresholds in force at dispatch.
func Photo(canxCtx context.Context, svcs pipeline.ServicesFactory, streamers []string, target string) error {
	if target == "" {
		return fmt.Errorf("photo mode requires an image path argument")
	}

	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	item := model.MediaItem{
		ID:   uuid.NewString(),
		Name: filepath.Base(target),
		Path: target,
		Kind: model.MediaKindPhoto,
	}

	agentResult := make(chan error, 1)
	go func() {
		agentResult <- pipeline.Agent(canxCtx, svcs, errorStream, statsStream, item, streamers)
	}()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"photo mode context cancelled",
			)
			goto resume

		case err := <-agentResult:
			if err != nil {
				procError(svcs.DataSvc, model.GenError("photo_mode",
					err,
					map[string]interface{}{},
					"error running agent for photo: %s",
					item.Name))
			}
			goto resume

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Drain stats and errors from agent go routines that may still be exiting
resume:
	lgr.Logger.Info(
		"photo mode is waiting for all go routines to exit",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				"photo mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)

			return nil

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
