package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/lgr"
)

// Streamer processes
var streamerProcs = map[string]Streamer{}

func RegisterStreamer(name string, streamer Streamer) {
	if _, ok := streamerProcs[name]; ok {
		lgr.Logger.Warn("streamer already registered", slog.String("name", name))
		return
	}
	streamerProcs[name] = streamer
}

// Agent runs the full pipeline for one media item: localize the asset, reset
// the result store to a fresh generation, extract frames, wait for every
// streamer to drain, then export results and report stats.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	errorStream chan interface{},
	statsStream chan interface{},
	media model.MediaItem,
	streamNames []string) error {
	agentID := uuid.NewString()
	lgr.Logger.Info(
		"agent starting....",
		slog.String("agentID", agentID),
		slog.String("media", media.Name),
		slog.String("kind", media.Kind),
		slog.String("streamers", fmt.Sprintf("%v", streamNames)),
	)

	var agentStartTime = time.Now().Unix()

	// A new media load clears the store; in-flight appends from a superseded
	// run carry a stale generation and are dropped
	generation := svcs.ResultsSvc.Reset()

	// Work on a transient local copy of the picked media
	workPath, err := svcs.MediaSvc.Localize(media)
	if err != nil {
		return fmt.Errorf("error localizing media item: %w", err)
	}
	defer func() {
		if err := svcs.MediaSvc.Release(workPath); err != nil {
			lgr.Logger.Warn(
				"error releasing media work copy",
				slog.String("workPath", workPath),
				slog.Any("error", err),
			)
		}
	}()

	run := Run{
		ID:         agentID,
		Media:      media,
		Generation: generation,
		WorkPath:   workPath,
	}

	// Claim the media item
	err = svcs.DataSvc.UpdateMediaAgentID(media.ID, agentID)
	if err != nil {
		return fmt.Errorf("error updating media agent id: %w", err)
	}

	// Setup the stream channels
	streamChannels := []chan FrameData{}
	doneChannels := []<-chan struct{}{}
	for _, name := range streamNames {
		streamer, ok := streamerProcs[name]
		if !ok {
			return fmt.Errorf("streamer %s not found", name)
		}
		in, done := streamer(canxCtx, svcs, run, errorStream, statsStream)
		streamChannels = append(streamChannels, in)
		doneChannels = append(doneChannels, done)
	}

	// Run the framer; it returns once every frame has been dispatched (or the
	// context was cancelled). Heartbeat while it works.
	framerResult := make(chan int, 1)
	go func() {
		framerResult <- framer(canxCtx, svcs, run, errorStream, statsStream, streamChannels)
	}()

	frames := 0
	framing := true
	for framing {
		select {
		case frames = <-framerResult:
			framing = false

		case <-time.After(time.Duration(svcs.CfgSvc.GetAgentPeriodicTimeout()) * time.Second):
			// Update the heartbeat so the mode processor knows this agent is
			// alive and does not need to be re-scheduled
			err := svcs.DataSvc.UpdateMediaAgentHeartbeat(media.ID)
			if err != nil {
				lgr.Logger.Error(
					"error updating media agent heartbeat",
					slog.Any("error", err),
				)
			}
		}
	}

	// No more sends: close the channels so the streamer workers drain and exit
	for _, streamChan := range streamChannels {
		close(streamChan)
	}
	for _, done := range doneChannels {
		<-done
	}

	results := svcs.ResultsSvc.Results()

	if err := svcs.DataSvc.NewRunResults(agentID, media.ID, results); err != nil {
		lgr.Logger.Error(
			"error exporting run results",
			slog.Any("error", err),
		)
	}

	if err := svcs.DataSvc.UpdateMediaProcessed(media.ID, true); err != nil {
		lgr.Logger.Error(
			"error marking media item processed",
			slog.Any("error", err),
		)
	}

	payload := map[string]interface{}{
		"runId":     agentID,
		"media":     media.Name,
		"frames":    frames,
		"results":   len(results),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if err := svcs.WebhookSvc.Post(payload); err != nil {
		lgr.Logger.Error(
			"error posting run summary webhook",
			slog.Any("error", err),
		)
	}

	statsStream <- model.AgentStats{
		ID:      agentID,
		Media:   media.Name,
		Frames:  frames,
		Results: len(results),
		Uptime:  time.Now().Unix() - agentStartTime,
	}

	lgr.Logger.Info(
		"agent completed",
		slog.String("agentID", agentID),
		slog.String("media", media.Name),
		slog.Int("frames", frames),
		slog.Int("results", len(results)),
	)

	return nil
}
