package media

import "github.com/khaledhikmat/gbd-go/model"

// IService produces a transient local work copy of a picked media item so the
// pipeline (and the playback surface) never touches the original file.
type IService interface {
	Localize(item model.MediaItem) (string, error)
	Release(workPath string) error
}
