package results

import (
	"sync"

	"github.com/google/uuid"
	"github.com/khaledhikmat/gbd-go/model"
)

type memoryService struct {
	mu      sync.Mutex
	gen     Generation
	order   []model.Timestamp
	entries map[model.Timestamp][][]model.DetectionBox
}

// NewInMemory returns a mutex-guarded, append-only store. Appends from
// concurrent inference workers arrive in no particular order; within one
// generation nothing is ever removed.
func NewInMemory() IService {
	return &memoryService{
		gen:     Generation(uuid.NewString()),
		entries: map[model.Timestamp][][]model.DetectionBox{},
	}
}

func (svc *memoryService) Reset() Generation {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.gen = Generation(uuid.NewString())
	svc.order = nil
	svc.entries = map[model.Timestamp][][]model.DetectionBox{}
	return svc.gen
}

func (svc *memoryService) Append(gen Generation, ts model.Timestamp, boxes []model.DetectionBox) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	// Stale generation: the media item was replaced mid-flight
	if gen != svc.gen {
		return
	}

	if _, ok := svc.entries[ts]; !ok {
		svc.order = append(svc.order, ts)
	}
	svc.entries[ts] = append(svc.entries[ts], boxes)
}

func (svc *memoryService) Lookup(ts model.Timestamp) ([]model.DetectionBox, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	appends, ok := svc.entries[ts]
	if !ok || len(appends) == 0 {
		return nil, false
	}
	// Last-appended wins for duplicated timestamps
	return appends[len(appends)-1], true
}

func (svc *memoryService) Timestamps() []model.Timestamp {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]model.Timestamp, len(svc.order))
	copy(out, svc.order)
	return out
}

func (svc *memoryService) Results() []model.DetectionResult {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]model.DetectionResult, 0, len(svc.order))
	for _, ts := range svc.order {
		appends := svc.entries[ts]
		out = append(out, model.DetectionResult{
			Timestamp: ts,
			Boxes:     appends[len(appends)-1],
		})
	}
	return out
}

func (svc *memoryService) Len() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.order)
}
