package config

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/khaledhikmat/gbd-go/model"
)

type envService struct {
	thresholds atomic.Value // model.ThresholdConfig
}

// NewEnv reads settings from environment variables (loaded from .env in dev)
// and falls back to hardcoded defaults. Thresholds start at the defaults unless
// overridden and can be changed at runtime through SetThresholds.
func NewEnv() IService {
	svc := &envService{}

	t := model.DefaultThresholds()
	if v, ok := envFloat("DETECTOR_CONFIDENCE_THRESHOLD"); ok {
		t.Confidence = float32(v)
	}
	if v, ok := envFloat("DETECTOR_OVERLAP_THRESHOLD"); ok {
		t.Overlap = float32(v)
	}
	svc.thresholds.Store(t.Snapped())

	return svc
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return envInt("MODE_MAX_SHUTDOWN_TIME", 5)
}

func (svc *envService) GetWorkFolder() string {
	return envString("WORK_FOLDER", "./work")
}

func (svc *envService) GetArtifactsFolder() string {
	return envString("ARTIFACTS_FOLDER", "./artifacts")
}

func (svc *envService) GetMediaInputFile() string {
	return envString("MEDIA_INPUT_FILE", "./settings/media.json")
}

func (svc *envService) GetMaxAgentsPerPod() int {
	return envInt("MAX_AGENTS_PER_POD", 1)
}

func (svc *envService) GetVideoModePeriodicTimeout() int {
	// Seconds
	return envInt("VIDEO_MODE_PERIODIC_TIMEOUT", 30)
}

func (svc *envService) GetIntakePeriodicTimeout() int {
	// Seconds
	return envInt("INTAKE_PERIODIC_TIMEOUT", 5)
}

func (svc *envService) GetIntakeMaxPendingItems() int {
	return envInt("INTAKE_MAX_PENDING_ITEMS", 10)
}

func (svc *envService) GetAgentPeriodicTimeout() int {
	// Seconds
	return envInt("AGENT_PERIODIC_TIMEOUT", 30)
}

func (svc *envService) GetStreamerMaxWorkers() int {
	return envInt("STREAMER_MAX_WORKERS", 3)
}

func (svc *envService) GetStreamerChannelDepth() int {
	return envInt("STREAMER_CHANNEL_DEPTH", 100)
}

func (svc *envService) GetAnnotatorClipDuration() int {
	// Seconds of buffered frames per flushed clip
	return envInt("ANNOTATOR_CLIP_DURATION", 6)
}

func (svc *envService) GetDetectorParameters() DetectorParameters {
	return DetectorParameters{
		ModelPath:   envString("DETECTOR_MODEL_PATH", "./models/golfball.onnx"),
		LabelsPath:  envString("DETECTOR_LABELS_PATH", "./models/golfball.names"),
		InputSize:   envInt("DETECTOR_INPUT_SIZE", 640),
		FrameStride: envInt("DETECTOR_FRAME_STRIDE", 1),
		Logging:     envString("DETECTOR_LOGGING", "") == "true",
	}
}

func (svc *envService) GetThresholds() model.ThresholdConfig {
	return svc.thresholds.Load().(model.ThresholdConfig)
}

func (svc *envService) SetThresholds(t model.ThresholdConfig) {
	svc.thresholds.Store(t.Snapped())
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string) (float64, bool) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
