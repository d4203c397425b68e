package intake

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/service/config"
	"github.com/khaledhikmat/gbd-go/service/data"
	"github.com/khaledhikmat/gbd-go/service/lgr"
	"golang.org/x/xerrors"
)

type timedService struct {
	CanxCtx      context.Context
	SubsCtx      context.Context
	SubsCancel   context.CancelFunc
	MediaChannel chan []model.MediaItem
	CfgSvc       config.IService
	DataSvc      data.IService
}

// This implementation polls the data service on a timer and delivers pending
// media items on the subscribed channel.
func NewTimed(canxCtx context.Context, cfgSvc config.IService, dataSvc data.IService) IService {
	return &timedService{
		CfgSvc:  cfgSvc,
		DataSvc: dataSvc,
		CanxCtx: canxCtx,
	}
}

func (svc *timedService) Publish(_ []model.MediaItem) error {
	// This cannot be implemented in this service
	return nil
}

func (svc *timedService) Subscribe() (<-chan []model.MediaItem, error) {
	if svc.SubsCtx != nil {
		lgr.Logger.Error(
			"intake timed service. Already subscribed to media items. Unsubscribe first",
			slog.Any("Subs Context", svc.SubsCtx),
		)
		return nil, xerrors.New("intake timed service. child context is not nil. Unsubscribe first")
	}

	// Regardless of how many times we subscribe/unsubscribe, we will always
	// have only one channel to send media items to the mode processor
	if svc.MediaChannel == nil {
		svc.MediaChannel = make(chan []model.MediaItem)
	}

	// Create a child context for the subscription
	// This context will be used to cancel the subscription
	subsContext, subsCancel := context.WithCancel(svc.CanxCtx)
	svc.SubsCtx = subsContext
	svc.SubsCancel = subsCancel

	go func() {
		defer svc.cleanup()

		for {
			select {
			case <-svc.CanxCtx.Done():
				lgr.Logger.Info(
					"intake timed service context cancelled",
				)
				return
			case <-svc.SubsCtx.Done():
				lgr.Logger.Info(
					"intake timed service subscription cancelled",
				)
				return
			case <-time.After(time.Duration(svc.CfgSvc.GetIntakePeriodicTimeout()) * time.Second):
				items, err := svc.DataSvc.RetrievePendingMediaItems(svc.CfgSvc.GetIntakeMaxPendingItems())
				if err != nil {
					lgr.Logger.Error(
						"error retrieving pending media items",
						slog.Any("error", xerrors.New(err.Error())),
					)
					continue
				}

				if len(items) == 0 {
					continue
				}

				select {
				case <-svc.SubsCtx.Done():
					return
				case svc.MediaChannel <- items:
				}
			}
		}
	}()

	return svc.MediaChannel, nil
}

func (svc *timedService) Unsubscribe() error {
	if svc.SubsCtx == nil {
		return xerrors.New("not subscribed yet. Subscribe first")
	}

	svc.cleanup()
	return nil
}

func (svc *timedService) Finalize() {
	if svc.MediaChannel != nil {
		close(svc.MediaChannel)
		svc.MediaChannel = nil
	}
}

func (svc *timedService) cleanup() {
	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
}
