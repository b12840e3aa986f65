package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
	"go.gazette.dev/core/server"
	"go.gazette.dev/core/task"

	"github.com/malawley/hygiene-prediction-clean/go/runtime"
)

type cmdServeExtractor struct {
	runtime.ExtractorConfig
}

func (cmd cmdServeExtractor) Execute(_ []string) error {
	defer mbp.InitDiagnosticsAndRecover(cmd.Diagnostics)()
	mbp.InitLog(cmd.Log)

	log.WithFields(log.Fields{
		"config":    cmd,
		"version":   mbp.Version,
		"buildDate": mbp.BuildDate,
	}).Info("hpctl configuration")

	// Bind our server listener, grabbing a random available port if Port is zero.
	var srv, err = server.New("", cmd.Extractor.Port)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	var args = runtime.ExtractorArgs{
		Config: cmd.ExtractorConfig,
		Server: srv,
		Tasks:  task.NewGroup(context.Background()),
	}
	if _, err = runtime.StartExtractorService(args); err != nil {
		return fmt.Errorf("starting extractor service: %w", err)
	}
	args.Server.QueueTasks(args.Tasks)

	log.WithFields(log.Fields{
		"zone":     cmd.Extractor.Zone,
		"endpoint": cmd.Extractor.BuildProcessSpec(srv).Endpoint,
	}).Info("starting extractor")

	// Install signal handler & start service tasks.
	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	args.Tasks.Queue("watch signalCh", func() error {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")

			args.Tasks.Cancel()
			srv.BoundedGracefulStop()
			return nil

		case <-args.Tasks.Context().Done():
			return nil
		}
	})
	args.Tasks.GoRun()

	// Block until all tasks complete.
	if err = args.Tasks.Wait(); err != nil {
		return fmt.Errorf("task failed: %w", err)
	}

	log.Info("goodbye")
	return nil
}
