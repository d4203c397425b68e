package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
)

func seedMediaTable(t *testing.T, items []model.MediaItem) IService {
	t.Helper()

	folder := t.TempDir()
	input := filepath.Join(folder, "media.json")
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		t.Fatalf("error marshaling media items: %v", err)
	}
	if err := os.WriteFile(input, data, 0644); err != nil {
		t.Fatalf("error writing media table: %v", err)
	}

	t.Setenv("MEDIA_INPUT_FILE", input)
	return NewFilesDB(config.NewEnv())
}

func TestRetrievePendingMediaItems(t *testing.T) {
	svc := seedMediaTable(t, []model.MediaItem{
		{ID: "1", Name: "a.mp4", Kind: model.MediaKindVideo},
		{ID: "2", Name: "b.mp4", Kind: model.MediaKindVideo, Excluded: true},
		{ID: "3", Name: "c.mp4", Kind: model.MediaKindVideo, Processed: true},
		{ID: "4", Name: "d.mp4", Kind: model.MediaKindVideo, AgentID: "busy"},
		{ID: "5", Name: "e.mp4", Kind: model.MediaKindVideo},
	})

	pending, err := svc.RetrievePendingMediaItems(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending items, got %d", len(pending))
	}
	if pending[0].ID != "1" || pending[1].ID != "5" {
		t.Fatalf("unexpected pending items: %+v", pending)
	}
}

func TestRetrievePendingMediaItemsHonorsMax(t *testing.T) {
	svc := seedMediaTable(t, []model.MediaItem{
		{ID: "1", Name: "a.mp4", Kind: model.MediaKindVideo},
		{ID: "2", Name: "b.mp4", Kind: model.MediaKindVideo},
		{ID: "3", Name: "c.mp4", Kind: model.MediaKindVideo},
	})

	pending, err := svc.RetrievePendingMediaItems(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected max 2 pending items, got %d", len(pending))
	}
}

func TestUpdateMediaLifecycle(t *testing.T) {
	svc := seedMediaTable(t, []model.MediaItem{
		{ID: "1", Name: "a.mp4", Kind: model.MediaKindVideo},
	})

	if err := svc.UpdateMediaAgentID("1", "agent-1"); err != nil {
		t.Fatalf("unexpected error assigning agent: %v", err)
	}

	item, err := svc.RetrieveMediaItemByID("1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.AgentID != "agent-1" {
		t.Fatalf("expected agent-1, got %q", item.AgentID)
	}

	// An assigned item is no longer pending
	pending, err := svc.RetrievePendingMediaItems(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending items, got %d", len(pending))
	}

	if err := svc.UpdateMediaProcessed("1", true); err != nil {
		t.Fatalf("unexpected error marking processed: %v", err)
	}

	item, err = svc.RetrieveMediaItemByID("1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.Processed {
		t.Fatalf("expected item to be processed")
	}
	if item.AgentID != "" {
		t.Fatalf("expected agent id to be cleared, got %q", item.AgentID)
	}
}

func TestUpdateMediaWithoutTable(t *testing.T) {
	t.Setenv("MEDIA_INPUT_FILE", filepath.Join(t.TempDir(), "media.json"))
	svc := NewFilesDB(config.NewEnv())

	// Ad-hoc photo runs have no media table; updates are a no-op
	if err := svc.UpdateMediaAgentID("ad-hoc", "agent-1"); err != nil {
		t.Fatalf("expected no error without a media table, got %v", err)
	}
}

func TestNewRunResults(t *testing.T) {
	svc := seedMediaTable(t, []model.MediaItem{
		{ID: "1", Name: "a.mp4", Kind: model.MediaKindVideo},
	})

	results := []model.DetectionResult{
		{
			Timestamp: model.NewTimestamp(1, 30),
			Boxes:     []model.DetectionBox{{Label: "ball", Confidence: 0.9}},
		},
	}
	if err := svc.NewRunResults("run-1", "1", results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	folder := filepath.Dir(os.Getenv("MEDIA_INPUT_FILE"))
	data, err := os.ReadFile(filepath.Join(folder, "run-results.json"))
	if err != nil {
		t.Fatalf("expected run-results.json to exist: %v", err)
	}

	var exports []struct {
		RunID   string                  `json:"runId"`
		MediaID string                  `json:"mediaId"`
		Results []model.DetectionResult `json:"results"`
	}
	if err := json.Unmarshal(data, &exports); err != nil {
		t.Fatalf("error unmarshaling run results: %v", err)
	}
	if len(exports) != 1 || exports[0].RunID != "run-1" || exports[0].MediaID != "1" {
		t.Fatalf("unexpected run results export: %+v", exports)
	}
	if len(exports[0].Results) != 1 {
		t.Fatalf("expected 1 result in export, got %d", len(exports[0].Results))
	}
}
