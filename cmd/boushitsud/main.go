// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pfpacket/boushitsu/lib/beebotte"
	"github.com/pfpacket/boushitsu/lib/command"
	"github.com/pfpacket/boushitsu/lib/config"
	"github.com/pfpacket/boushitsu/lib/identity"
	"github.com/pfpacket/boushitsu/lib/ipc"
	"github.com/pfpacket/boushitsu/lib/presence"
	"github.com/pfpacket/boushitsu/lib/roster"
	"github.com/pfpacket/boushitsu/lib/sensor"
	"github.com/pfpacket/boushitsu/lib/sqlitepool"
	"github.com/pfpacket/boushitsu/lib/twitter"
	"github.com/pfpacket/boushitsu/lib/version"
	"github.com/pfpacket/boushitsu/lib/watchdog"
)

// watchdogMaxAge bounds how old an exec-transition record may be and
// still be attributed to this start. Older files are leftovers.
const watchdogMaxAge = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "path to boushitsu.yaml (default: $BOUSHITSU_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("boushitsud %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Recognize a commanded restart or update on the way back up.
	if state, found, err := watchdog.Check(cfg.Socket.WatchdogPath, watchdogMaxAge); err != nil {
		logger.Error("reading watchdog state", "error", err)
	} else if found {
		logger.Info("back from exec transition",
			"reason", state.Reason,
			"initiator", state.Initiator,
		)
		if err := watchdog.Clear(cfg.Socket.WatchdogPath); err != nil {
			logger.Error("clearing watchdog state", "error", err)
		}
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Database.Path,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer pool.Close()

	ledger, err := roster.New(ctx, roster.Config{Pool: pool, Logger: logger})
	if err != nil {
		return err
	}
	directory, err := identity.New(ctx, identity.Config{Pool: pool, Logger: logger})
	if err != nil {
		return err
	}

	oracle, err := presence.New(presence.Config{
		Sensor: sensor.NewLight(sensor.Config{
			Chip:      cfg.Sensor.Chip,
			DriveLine: cfg.Sensor.DriveLine,
			SenseLine: cfg.Sensor.SenseLine,
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	twitterClient, err := twitter.NewClient(twitter.Config{
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		AccessToken:    cfg.Twitter.AccessToken,
		AccessSecret:   cfg.Twitter.AccessSecret,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating twitter client: %w", err)
	}

	bot, err := NewBot(BotConfig{
		ScreenName:          cfg.ScreenName,
		AuthorizedPersonnel: cfg.AuthorizedPersonnel,
		Ledger:              ledger,
		Directory:           directory,
		Oracle:              oracle,
		Twitter:             twitterClient,
		UpdateCommand:       cfg.Update.Command,
		StatusUnits:         cfg.Status.Units,
		Logger:              logger,
	})
	if err != nil {
		return err
	}

	// The control socket serves badge toggles and CLI queries
	// alongside the dispatch loop.
	socketServer := ipc.NewSocketServer(cfg.Socket.Path, logger)
	bot.registerActions(socketServer)

	socketCtx, socketCancel := context.WithCancel(context.Background())
	defer socketCancel()
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(socketCtx)
	}()

	events, err := beebotte.Dial(beebotte.Config{
		Host:   cfg.Beebotte.Host,
		Port:   cfg.Beebotte.Port,
		CACert: cfg.Beebotte.CACert,
		Token:  cfg.Beebotte.Token,
		Topic:  cfg.Beebotte.Topic,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("connecting to beebotte: %w", err)
	}
	defer events.Close()

	logger.Info("boushitsud running",
		"screen_name", cfg.ScreenName,
		"socket", cfg.Socket.Path,
		"topic", cfg.Beebotte.Topic,
		"version", version.Info(),
	)

	signalValue, err := bot.Run(ctx, events.Events())
	if err != nil {
		return err
	}

	// Drain the control socket before exiting or re-execing.
	socketCancel()
	if err := <-socketDone; err != nil {
		logger.Error("control socket error", "error", err)
	}

	switch signalValue {
	case command.ShutdownNone:
		logger.Info("shutting down on signal")
		return nil
	case command.ShutdownStop:
		logger.Info("stop command", "initiator", bot.ShutdownInitiator())
		return nil
	case command.ShutdownRestart:
		return execSelf(cfg, watchdog.ReasonRestart, bot.ShutdownInitiator(), logger)
	case command.ShutdownUpdate:
		return execSelf(cfg, watchdog.ReasonUpdate, bot.ShutdownInitiator(), logger)
	default:
		return fmt.Errorf("unknown shutdown signal %d", signalValue)
	}
}

// execSelf records a watchdog state and replaces the process image
// with the current binary. On an update transition the binary on disk
// has just been refreshed, so the exec picks up the new code.
func execSelf(cfg *config.Config, reason, initiator string, logger *slog.Logger) error {
	if err := watchdog.Write(cfg.Socket.WatchdogPath, watchdog.State{
		Component: "boushitsud",
		Reason:    reason,
		Initiator: initiator,
		Timestamp: time.Now(),
	}); err != nil {
		// Exec anyway: the watchdog is diagnostics, not a gate.
		logger.Error("writing watchdog state", "error", err)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating own binary: %w", err)
	}

	logger.Info("re-exec", "reason", reason, "binary", executable)
	if err := unix.Exec(executable, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", executable, err)
	}
	return nil
}
