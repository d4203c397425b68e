package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
)

type filesDBService struct {
	CfgSvc config.IService
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) RetrieveMediaItems() ([]model.MediaItem, error) {
	items := []model.MediaItem{}

	input := svc.CfgSvc.GetMediaInputFile()
	data, err := os.ReadFile(input)
	if err != nil {
		return items, err
	}

	err = json.Unmarshal(data, &items)
	if err != nil {
		return items, err
	}

	return items, nil
}

func (svc *filesDBService) RetrieveMediaItemByID(id string) (model.MediaItem, error) {
	items, err := svc.RetrieveMediaItems()
	if err != nil {
		return model.MediaItem{}, err
	}

	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}

	return model.MediaItem{}, nil
}

func (svc *filesDBService) RetrievePendingMediaItems(max int) ([]model.MediaItem, error) {
	items, err := svc.RetrieveMediaItems()
	if err != nil {
		return nil, err
	}

	var result []model.MediaItem
	for _, item := range items {
		if item.Excluded || item.Processed || item.AgentID != "" {
			continue
		}
		result = append(result, item)
		if len(result) >= max {
			break
		}
	}

	return result, nil
}

func (svc *filesDBService) UpdateMediaAgentID(mediaID, agentID string) error {
	return svc.updateMedia(mediaID, func(item *model.MediaItem) {
		item.AgentID = agentID
		item.StartupTime = time.Now().Unix()
		item.LastHeartBeat = time.Now().Unix()
		item.Uptime = item.LastHeartBeat - item.StartupTime
	})
}

func (svc *filesDBService) UpdateMediaAgentHeartbeat(id string) error {
	return svc.updateMedia(id, func(item *model.MediaItem) {
		item.LastHeartBeat = time.Now().Unix()
		item.Uptime = item.LastHeartBeat - item.StartupTime
	})
}

func (svc *filesDBService) UpdateMediaProcessed(id string, processed bool) error {
	return svc.updateMedia(id, func(item *model.MediaItem) {
		item.Processed = processed
		item.AgentID = ""
	})
}

func (svc *filesDBService) updateMedia(id string, apply func(*model.MediaItem)) error {
	items, err := svc.RetrieveMediaItems()
	if err != nil {
		// No media table yet (ad-hoc photo runs); nothing to update
		return nil
	}

	for i, item := range items {
		if item.ID == id {
			apply(&items[i])
			break
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	output := svc.CfgSvc.GetMediaInputFile()
	// Write the JSON data to the file (with truncation)
	err = os.WriteFile(output, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	if custom, ok := err.(model.CustomError); ok {
		customErr = custom
	} else if inner, ok := err.(error); ok {
		customErr.Processor = "N/A"
		customErr.Inner = inner
		customErr.Message = inner.Error()
		customErr.StackTrace = "N/A"
	} else {
		customErr.Processor = "N/A"
		customErr.Message = fmt.Sprintf("%v", err)
		customErr.StackTrace = "N/A"
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	// Create an error object to persist
	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	return newEntity(errorData, "errors", svc.CfgSvc)
}

func (svc *filesDBService) NewVideoModeStats(stats model.VideoModeStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(stats, "video-mode-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(stats, "agent-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(stats, "framer-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewStreamerStats(stats model.StreamerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(stats, "streamer-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewRunResults(runID, mediaID string, results []model.DetectionResult) error {
	export := struct {
		RunID     string                  `json:"runId"`
		MediaID   string                  `json:"mediaId"`
		Timestamp int64                   `json:"timestamp"`
		Results   []model.DetectionResult `json:"results"`
	}{
		RunID:     runID,
		MediaID:   mediaID,
		Timestamp: time.Now().Unix(),
		Results:   results,
	}
	return newEntity(export, "run-results", svc.CfgSvc)
}

func newEntity[T any](entity T, filename string, cfgsvc config.IService) error {
	entities, err := retrieveEntities[T](filename, cfgsvc)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	// Marshal the entity data to JSON
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	folder := filepath.Dir(cfgsvc.GetMediaInputFile())
	if err := os.MkdirAll(folder, 0755); err != nil {
		return err
	}

	// Write the JSON data to the file (with truncation)
	output := fmt.Sprintf("%s/%s.json", folder, filename)
	err = os.WriteFile(output, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

func retrieveEntities[T any](filename string, cfgsvc config.IService) ([]T, error) {
	var entities []T

	folder := filepath.Dir(cfgsvc.GetMediaInputFile())
	data, err := os.ReadFile(fmt.Sprintf("%s/%s.json", folder, filename))
	if err != nil {
		// File not found, return empty slice
		return entities, nil
	}

	entities = []T{}
	err = json.Unmarshal(data, &entities)
	if err != nil {
		return entities, err
	}

	return entities, nil
}
