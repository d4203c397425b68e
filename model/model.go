package model

import (
	"fmt"
	"math"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Timestamp is a rational time value (Num/Den seconds) identifying a frame's
// position in a video. Timestamps are always stored reduced, so two timestamps
// built independently for the same instant compare equal with ==.
type Timestamp struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

func NewTimestamp(num, den int64) Timestamp {
	if den == 0 {
		return Timestamp{}
	}
	if den < 0 {
		num = -num
		den = -den
	}
	g := gcd(num, den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Timestamp{Num: num, Den: den}
}

func (t Timestamp) Seconds() float64 {
	if t.Den == 0 {
		return 0
	}
	return float64(t.Num) / float64(t.Den)
}

func (t Timestamp) Equal(o Timestamp) bool {
	return t == o
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d/%d", t.Num, t.Den)
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// FrameRate is a nominal frame rate expressed as a reduced rational
// (Num frames per Den seconds). Non-integral rates such as 29.97 are carried
// over a millihertz grid so the derived timestamps stay exact.
type FrameRate struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

func NewFrameRate(fps float64) FrameRate {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return FrameRate{}
	}
	num := int64(math.Round(fps * 1000))
	if num <= 0 {
		return FrameRate{}
	}
	den := int64(1000)
	g := gcd(num, den)
	return FrameRate{Num: num / g, Den: den / g}
}

func (r FrameRate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

func (r FrameRate) FPS() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// FrameTimestamp returns the timestamp of frame `index`, i.e. index * 1/rate.
func (r FrameRate) FrameTimestamp(index int64) Timestamp {
	if !r.Valid() {
		return Timestamp{}
	}
	return NewTimestamp(index*r.Den, r.Num)
}

// TotalFrames is floor(rate * durationSeconds).
func (r FrameRate) TotalFrames(durationSeconds float64) int64 {
	if !r.Valid() || durationSeconds <= 0 {
		return 0
	}
	return int64(math.Floor(r.FPS() * durationSeconds))
}

// DetectionBox is a rectangle normalized to the image dimensions, origin at the
// bottom-left. The rendering layer flips the vertical axis for display.
type DetectionBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

type DetectionResult struct {
	Timestamp Timestamp      `json:"timestamp"`
	Boxes     []DetectionBox `json:"boxes"`
}

const (
	DefaultConfidenceThreshold = float32(0.15)
	DefaultOverlapThreshold    = float32(0.10)
	ThresholdStep              = float32(0.05)
)

// ThresholdConfig carries the two user-tunable detector thresholds. It is read
// fresh at the moment each inference request is issued; already-dispatched
// frames are never re-inferred.
type ThresholdConfig struct {
	Confidence float32 `json:"confidence"`
	Overlap    float32 `json:"overlap"`
}

func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		Confidence: DefaultConfidenceThreshold,
		Overlap:    DefaultOverlapThreshold,
	}
}

// Snapped clamps both thresholds to [0,1] and snaps them to the slider step.
func (t ThresholdConfig) Snapped() ThresholdConfig {
	return ThresholdConfig{
		Confidence: snapThreshold(t.Confidence),
		Overlap:    snapThreshold(t.Overlap),
	}
}

func snapThreshold(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	steps := math.Round(float64(v) / float64(ThresholdStep))
	return float32(steps) * ThresholdStep
}

const (
	MediaKindVideo = "video"
	MediaKindPhoto = "photo"
)

type MediaItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Kind          string `json:"kind"`
	Excluded      bool   `json:"excluded"`
	Processed     bool   `json:"processed"`
	AgentID       string `json:"agentId"`       // The agent id that is currently processing this media item
	StartupTime   int64  `json:"startupTime"`   // The startup time of the agent
	LastHeartBeat int64  `json:"lastHeartbeat"` // The last heartbeat time of the agent
	Uptime        int64  `json:"uptime"`        // The uptime of the agent
}

type StreamerStats struct {
	Name        string  `json:"name"`
	Worker      int     `json:"worker"`
	Media       string  `json:"media"`
	FPS         int     `json:"fps"`
	Frames      int     `json:"frames"`
	Errors      int     `json:"errors"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type FramerStats struct {
	Name          string `json:"name"`
	Media         string `json:"media"`
	FPS           int    `json:"fps"`
	Frames        int    `json:"frames"`
	SkippedFrames int    `json:"skippedFrames"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}

type AgentStats struct {
	ID        string `json:"id"`      // Agent ID
	Media     string `json:"media"`   // Media item name
	Frames    int    `json:"frames"`  // Frames dispatched by the framer
	Results   int    `json:"results"` // Results appended to the store
	Uptime    int64  `json:"uptime"`  // Uptime of the agent
	Timestamp int64  `json:"timestamp"`
}

type VideoModeStats struct {
	TotalIntakeRequests        int64   `json:"intakeRequests"`
	TotalIntakeSubscriptions   int64   `json:"intakeSubscriptions"`
	TotalIntakeUnsubscriptions int64   `json:"intakeUnsubscriptions"`
	TotalRunningAgents         int64   `json:"runningAgents"`
	TotalRunningAgentsUptime   int64   `json:"runningAgentsUptime"`
	AvgRunningAgentsPerMin     float64 `json:"avgRunningAgentsPerMin"`
	Timestamp                  int64   `json:"timestamp"`
}
