package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adrg/xdg"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v2"

	"github.com/driftwoodlabs/skyrepost/curation"
)

var cmdRun = &cli.Command{
	Name:   "run",
	Usage:  "perform one bounded curation pass",
	Action: runOnce,
}

var cmdServe = &cli.Command{
	Name:  "serve",
	Usage: "perform curation passes on a cron schedule",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "standard cron expression",
			Value: "@hourly",
		},
	},
	Action: runServe,
}

func runOnce(cctx *cli.Context) error {
	return executePass(cctx, slog.Default())
}

func runServe(cctx *cli.Context) error {
	logger := slog.Default()
	sched := cctx.String("schedule")
	if _, err := cron.ParseStandard(sched); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", sched, err)
	}

	c := cron.New()
	if _, err := c.AddFunc(sched, func() {
		if err := executePass(cctx, logger); err != nil {
			logger.Error("scheduled pass failed", "err", err)
		}
	}); err != nil {
		return err
	}
	logger.Info("scheduler started", "schedule", sched)
	c.Run()
	return nil
}

// executePass is one full invocation: load config and state, log in,
// run the engine, persist state. Each scheduled tick gets a fresh session
// and a fresh state load so ticks stay independent.
func executePass(cctx *cli.Context, logger *slog.Logger) error {
	ctx := context.Background()

	handle := cctx.String("handle")
	password := cctx.String("password")
	if handle == "" || password == "" {
		return fmt.Errorf("missing credentials: set BSKY_USERNAME and BSKY_PASSWORD (or --handle/--password)")
	}

	cfg := curation.LoadConfig(cctx.String("config"), logger)
	host := cctx.String("pds-host")
	if host == "" {
		host = cfg.PDSHost
	}

	statePath := cctx.String("state")
	if statePath == "" {
		p, err := xdg.StateFile("skyrepost/state.json")
		if err != nil {
			return fmt.Errorf("resolving state path: %w", err)
		}
		statePath = p
	}

	client := curation.NewXRPCClient(host)
	if err := client.Login(ctx, handle, password, cfg.LoginAttempts, cfg.LoginRetryDelay(), logger); err != nil {
		return err
	}
	logger.Info("logged in", "handle", handle, "pds", host)

	st := curation.LoadRunState(statePath, logger)
	engine := curation.NewEngine(client, cfg, logger)
	summary, err := engine.RunOnce(ctx, st)
	if err != nil {
		return err
	}

	if err := st.Save(statePath); err != nil {
		return fmt.Errorf("persisting run state: %w", err)
	}
	logger.Info("state persisted", "path", statePath, "tracked", summary.TrackedURIs)
	return nil
}
