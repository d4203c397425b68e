package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gbd-go/mode"
	"github.com/khaledhikmat/gbd-go/pipeline"
	"github.com/khaledhikmat/gbd-go/service/config"
	"github.com/khaledhikmat/gbd-go/service/data"
	"github.com/khaledhikmat/gbd-go/service/detector"
	"github.com/khaledhikmat/gbd-go/service/intake"
	"github.com/khaledhikmat/gbd-go/service/lgr"
	"github.com/khaledhikmat/gbd-go/service/media"
	"github.com/khaledhikmat/gbd-go/service/results"
	"github.com/khaledhikmat/gbd-go/service/storage"
	"github.com/khaledhikmat/gbd-go/service/webhook"
)

const (
	// WARNING: this has to be bigger than the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"video": mode.Video,
	"photo": mode.Photo,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
			panic("error loading .env file")
		}
	}

	modeType := "video"
	target := ""
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}
	if len(args) > 1 {
		target = args[1]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Create the services needed for the mode processor
	// They can be overridden by the mode processor with different implementations
	// Config service
	cfgSvc := config.NewEnv()
	// Data service
	dataSvc := data.NewFilesDB(cfgSvc)
	// Intake service
	intakeSvc := intake.NewTimed(canxCtx, cfgSvc, dataSvc)
	defer intakeSvc.Finalize()
	// Media service
	mediaSvc := media.NewLocal(cfgSvc)
	// Storage service
	storageSvc := storage.NewLocal(cfgSvc)
	// Results store service
	resultsSvc := results.NewInMemory()
	// Detector service
	detectorSvc, err := detector.NewONNX(cfgSvc)
	if err != nil {
		lgr.Logger.Error("error creating detector service", slog.Any("error", xerrors.New(err.Error())))
		panic("error creating detector service")
	}
	// Webhook service
	webhookSvc := webhook.NewFake(cfgSvc)

	svcs := pipeline.ServicesFactory{
		CfgSvc:      cfgSvc,
		DataSvc:     dataSvc,
		IntakeSvc:   intakeSvc,
		MediaSvc:    mediaSvc,
		StorageSvc:  storageSvc,
		DetectorSvc: detectorSvc,
		ResultsSvc:  resultsSvc,
		WebhookSvc:  webhookSvc,
	}

	// Create mode processor result
	modeProcResult := make(chan error)
	defer close(modeProcResult)

	// Register streamers by name; the mode processors wire them to agents
	pipeline.RegisterStreamer("ballDetector", pipeline.BallDetector)
	pipeline.RegisterStreamer("annotator", pipeline.Annotator)

	streamers := []string{
		"ballDetector",
		"annotator",
	}

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, streamers, target)
	}()

	// Wait for cancellation, mode proc or error
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"detections pod context cancelled",
			)
			goto resume

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"detections pod mode processor exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
			goto resume
		}
	}

	// Wait in a non-blocking way for `waitOnShutdown` for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are exiting
resume:
	// Cancel the context if not already cancelled
	if canxCtx.Err() == nil {
		// Force cancel the context
		canxFn()
	}

	lgr.Logger.Info(
		"detections pod is waiting for all go routines to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"detections pod shutdown waiting period expired. Exiting now",
				slog.Duration("period", waitOnShutdown),
			)

			return

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"detections pod mode processor exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
		}
	}
}
