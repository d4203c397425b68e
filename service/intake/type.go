package intake

import "github.com/khaledhikmat/gbd-go/model"

// IService delivers pending media items (the picker surface's output) to the
// video mode processor over a subscription channel.
type IService interface {
	Publish(items []model.MediaItem) error
	Subscribe() (<-chan []model.MediaItem, error)
	Unsubscribe() error
	Finalize()
}
