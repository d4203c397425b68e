package data

import "github.com/khaledhikmat/gbd-go/model"

type IService interface {
	RetrieveMediaItems() ([]model.MediaItem, error)
	RetrieveMediaItemByID(id string) (model.MediaItem, error)
	RetrievePendingMediaItems(max int) ([]model.MediaItem, error)
	UpdateMediaAgentID(mediaID, agentID string) error
	UpdateMediaAgentHeartbeat(id string) error
	UpdateMediaProcessed(id string, processed bool) error

	NewError(err interface{}) error
	NewVideoModeStats(stats model.VideoModeStats) error
	NewAgentStats(stats model.AgentStats) error
	NewFramerStats(stats model.FramerStats) error
	NewStreamerStats(stats model.StreamerStats) error
	NewRunResults(runID, mediaID string, results []model.DetectionResult) error
}
