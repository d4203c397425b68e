package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/pipeline"
	"github.com/khaledhikmat/gbd-go/service/data"
	"github.com/khaledhikmat/gbd-go/service/lgr"
)

// Processor is a long-running mode entry point. `target` carries the media
// path in photo mode and is ignored in video mode.
type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	streamers []string,
	target string) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.VideoModeStats:
		procVideoModeStats(datasvc, stats)
	case model.AgentStats:
		procAgentStats(datasvc, stats)
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	case model.StreamerStats:
		procStreamerStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procVideoModeStats(datasvc data.IService, stats model.VideoModeStats) {
	err := datasvc.NewVideoModeStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store video mode stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procAgentStats(datasvc data.IService, stats model.AgentStats) {
	err := datasvc.NewAgentStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store agent stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procStreamerStats(datasvc data.IService, stats model.StreamerStats) {
	err := datasvc.NewStreamerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store streamer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
