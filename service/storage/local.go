package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/khaledhikmat/gbd-go/service/config"
)

type localService struct {
	CfgSvc config.IService
}

// NewLocal stores artifacts (annotated stills and clips) in the artifacts
// folder. A cloud implementation would return a remote URL instead.
func NewLocal(cfgsvc config.IService) IService {
	return &localService{
		CfgSvc: cfgsvc,
	}
}

func (svc *localService) StoreFile(fileName string) (string, error) {
	folder := svc.CfgSvc.GetArtifactsFolder()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", err
	}

	src, err := os.Open(fileName)
	if err != nil {
		return "", err
	}
	defer src.Close()

	target := filepath.Join(folder, filepath.Base(fileName))
	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return target, nil
}
