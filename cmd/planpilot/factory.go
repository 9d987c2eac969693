package main

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planpilot/planpilot/internal/config"
	"github.com/planpilot/planpilot/internal/orchestrator"
	"github.com/planpilot/planpilot/internal/reasoner"
	"github.com/planpilot/planpilot/internal/schedsvc"
)

// buildLoop wires the service client, the reasoner, and the orchestration
// loop from resolved configuration. The returned cleanup releases the debug
// logger and the signal watcher.
func buildLoop(cfg *config.Config) (*orchestrator.Loop, *reasoner.Client, func(), error) {
	service, err := schedsvc.NewClient(schedsvc.ClientConfig{
		BaseURL: cfg.Service.BaseURL,
		Timeout: cfg.Service.Timeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create service client: %w", err)
	}

	reasonerClient, err := reasoner.NewClient(reasoner.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		Timeout:       cfg.Reasoner.Timeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create reasoner client: %w", err)
	}

	opts := []orchestrator.Option{
		orchestrator.WithMaxIterations(cfg.Loop.MaxIterations),
	}

	var cleanups []func()

	if cfg.Loop.DebugLogPath != "" {
		logger, err := orchestrator.NewDebugLogger(cfg.Loop.DebugLogPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create debug logger: %w", err)
		}
		opts = append(opts, orchestrator.WithDebugLogger(logger))
		cleanups = append(cleanups, func() { logger.Close() })
	}

	// Stop signals are optional; a run works without the watcher.
	if cwd, err := os.Getwd(); err == nil {
		if watcher, err := orchestrator.NewSignalWatcher(cwd); err == nil {
			watcher.Clear()
			opts = append(opts, orchestrator.WithSignalWatcher(watcher))
			cleanups = append(cleanups, watcher.Close)
		}
	}

	loop, err := orchestrator.New(orchestrator.RequiredConfig{
		Reasoner: reasonerClient,
		Service:  service,
	}, opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create orchestration loop: %w", err)
	}

	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	return loop, reasonerClient, cleanup, nil
}
