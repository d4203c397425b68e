package config

import "github.com/khaledhikmat/gbd-go/model"

type DetectorParameters struct {
	ModelPath   string
	LabelsPath  string
	InputSize   int
	FrameStride int
	Logging     bool
}

type IService interface {
	GetModeMaxShutdownTime() int
	GetWorkFolder() string
	GetArtifactsFolder() string
	GetMediaInputFile() string
	GetMaxAgentsPerPod() int
	GetVideoModePeriodicTimeout() int
	GetIntakePeriodicTimeout() int
	GetIntakeMaxPendingItems() int
	GetAgentPeriodicTimeout() int
	GetStreamerMaxWorkers() int
	GetStreamerChannelDepth() int
	GetAnnotatorClipDuration() int
	GetDetectorParameters() DetectorParameters

	// Thresholds are mutable at any time (slider surface); readers get the
	// values in force at the moment of the call.
	GetThresholds() model.ThresholdConfig
	SetThresholds(t model.ThresholdConfig)
}
