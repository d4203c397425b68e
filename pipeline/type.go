package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
	"github.com/khaledhikmat/gbd-go/service/data"
	"github.com/khaledhikmat/gbd-go/service/detector"
	"github.com/khaledhikmat/gbd-go/service/intake"
	"github.com/khaledhikmat/gbd-go/service/media"
	"github.com/khaledhikmat/gbd-go/service/results"
	"github.com/khaledhikmat/gbd-go/service/storage"
	"github.com/khaledhikmat/gbd-go/service/webhook"
	"gocv.io/x/gocv"
)

const waitBeforeCancel = 2 * time.Second

// FrameData is an immutable (timestamp, decoded image) pair. The Mat is owned
// by the pipeline until a streamer consumes and closes it.
type FrameData struct {
	Mat       gocv.Mat
	Timestamp model.Timestamp
}

// Run identifies one processing pass over one media item. The generation tags
// result-store appends so a superseded run cannot pollute the next load.
type Run struct {
	ID         string
	Media      model.MediaItem
	Generation results.Generation
	WorkPath   string
}

type ServicesFactory struct {
	CfgSvc      config.IService
	DataSvc     data.IService
	IntakeSvc   intake.IService
	MediaSvc    media.IService
	StorageSvc  storage.IService
	DetectorSvc detector.IService
	ResultsSvc  results.IService
	WebhookSvc  webhook.IService
}

// Signature of streamer function. The returned channel receives frames from
// the framer; the done channel is closed once every dispatched frame has been
// fully processed (or the context was cancelled).
type Streamer func(canx context.Context, svcs ServicesFactory, run Run, errorStream chan interface{}, statsStream chan interface{}) (chan FrameData, <-chan struct{})
