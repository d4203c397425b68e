package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
)

type localService struct {
	CfgSvc config.IService
}

func NewLocal(cfgsvc config.IService) IService {
	return &localService{
		CfgSvc: cfgsvc,
	}
}

func (svc *localService) Localize(item model.MediaItem) (string, error) {
	src, err := os.Open(item.Path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	folder := svc.CfgSvc.GetWorkFolder()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", err
	}

	workPath := filepath.Join(folder, fmt.Sprintf("%s%s", item.ID, filepath.Ext(item.Path)))
	dst, err := os.Create(workPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(workPath)
		return "", err
	}

	return workPath, nil
}

func (svc *localService) Release(workPath string) error {
	if workPath == "" {
		return nil
	}
	return os.Remove(workPath)
}
