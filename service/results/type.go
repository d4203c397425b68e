package results

import "github.com/khaledhikmat/gbd-go/model"

// Generation tags one media load. Appends carrying a superseded generation are
// dropped, so late inference completions from a replaced video can never land
// in the new video's timestamp namespace.
type Generation string

type IService interface {
	// Reset clears all entries and starts a fresh generation for a new media
	// load. The returned generation must accompany every Append of that run.
	Reset() Generation
	Append(gen Generation, ts model.Timestamp, boxes []model.DetectionBox)
	// Lookup returns the most recent boxes appended for the timestamp.
	Lookup(ts model.Timestamp) ([]model.DetectionBox, bool)
	Timestamps() []model.Timestamp
	Results() []model.DetectionResult
	Len() int
}
