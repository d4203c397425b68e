package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/gbd-go/model"
	"github.com/khaledhikmat/gbd-go/pipeline"
	"github.com/khaledhikmat/gbd-go/service/lgr"
)

type agent struct {
	Media  model.MediaItem
	CanxFn context.CancelFunc
}

// Video consumes pending media items from the intake service and runs one
// pipeline agent per item, bounded by the pod's max agents.
func Video(canxCtx context.Context, svcs pipeline.ServicesFactory, streamers []string, _ string) error {
	// Subscribe to the intake service to receive pending media items
	intakeStream, err := svcs.IntakeSvc.Subscribe()
	if err != nil {
		return err
	}
	subscribed := true

	// Error and stats streams feeding this processor's select loop
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	// Agents report their media id here when they finish
	agentDoneStream := make(chan string)

	var videoModeStartTime = time.Now().Unix()
	var runningAgents = map[string]agent{}

	videoModeStats := model.VideoModeStats{
		TotalIntakeSubscriptions: 1,
	}

	// Wait for cancellation, timeout, intake deliveries or agent completions
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"video mode context cancelled",
			)
			goto resume

		case items := <-intakeStream:
			videoModeStats.TotalIntakeRequests++
			unAccommodatedItems := []model.MediaItem{}

			// Run each media item's agent using configured streamers
			for _, item := range items {
				if len(runningAgents) >= svcs.CfgSvc.GetMaxAgentsPerPod() {
					unAccommodatedItems = append(unAccommodatedItems, item)
					continue
				}

				// Create a child context for the agent to allow us to cancel
				// an agent without cancelling the main context
				agentCanxCtx, agentCanxFn := context.WithCancel(canxCtx)

				go func(item model.MediaItem) {
					err := pipeline.Agent(agentCanxCtx, svcs, errorStream, statsStream, item, streamers)
					if err != nil {
						procError(svcs.DataSvc, model.GenError("video_mode",
							err,
							map[string]interface{}{},
							"error running agent for media item: %s",
							item.Name))
					}
					agentDoneStream <- item.ID
				}(item)

				// Store the agent in memory
				runningAgents[item.ID] = agent{
					Media:  item,
					CanxFn: agentCanxFn,
				}
			}

			// If there are unaccommodated items, let it be known
			if len(unAccommodatedItems) > 0 {
				lgr.Logger.Debug(
					"video mode could not accommodate these media items.",
					slog.Int("runningAgents", len(runningAgents)),
					slog.Int("maxAgentsPerPod", svcs.CfgSvc.GetMaxAgentsPerPod()),
					slog.Int("unAccommodatedItems", len(unAccommodatedItems)),
				)
			}

			if len(runningAgents) >= svcs.CfgSvc.GetMaxAgentsPerPod() && subscribed {
				videoModeStats.TotalIntakeUnsubscriptions++
				// Unsubscribe so we don't consume items that other pods could
				// pick up while we are at capacity
				err = svcs.IntakeSvc.Unsubscribe()
				if err != nil {
					procError(svcs.DataSvc, model.GenError("video_mode",
						err,
						map[string]interface{}{},
						"error unsubscribing from intake service"))
				} else {
					subscribed = false
				}
			}

		case id := <-agentDoneStream:
			if a, ok := runningAgents[id]; ok {
				a.CanxFn()
				delete(runningAgents, id)
			}

		case <-time.After(time.Duration(svcs.CfgSvc.GetVideoModePeriodicTimeout()) * time.Second):
			if len(runningAgents) < svcs.CfgSvc.GetMaxAgentsPerPod() && !subscribed {
				// Below capacity again: re-subscribe for more media items
				videoModeStats.TotalIntakeSubscriptions++
				_, err = svcs.IntakeSvc.Subscribe()
				if err != nil {
					procError(svcs.DataSvc, model.GenError("video_mode",
						err,
						map[string]interface{}{},
						"error subscribing to intake service"))
				} else {
					subscribed = true
				}
			}

			videoModeStats.TotalRunningAgentsUptime = time.Now().Unix() - videoModeStartTime
			videoModeStats.TotalRunningAgents += int64(len(runningAgents))
			if videoModeStats.TotalRunningAgentsUptime > 0 {
				uptimeInMinutes := float64(videoModeStats.TotalRunningAgentsUptime) / 60.0
				videoModeStats.AvgRunningAgentsPerMin = float64(videoModeStats.TotalRunningAgents) / uptimeInMinutes
			} else {
				videoModeStats.AvgRunningAgentsPerMin = 0.0 // Avoid division by zero
			}

			procStats(svcs.DataSvc, videoModeStats)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Wait in a non-blocking way for the shutdown duration for all the go
	// routines to exit. This is needed because the go routines may need to
	// report errors and stats as they are exiting
resume:
	lgr.Logger.Info(
		"video mode is waiting for all go routines to exit",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"video mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)

			return nil

		case id := <-agentDoneStream:
			if a, ok := runningAgents[id]; ok {
				a.CanxFn()
				delete(runningAgents, id)
			}

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
