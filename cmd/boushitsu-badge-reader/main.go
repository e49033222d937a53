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

	"golang.org/x/term"

	"github.com/pfpacket/boushitsu/lib/ipc"
	"github.com/pfpacket/boushitsu/lib/version"
)

// toggleTimeout bounds one control-socket round trip. The daemon
// answers a toggle in milliseconds; a second means it is wedged.
const toggleTimeout = time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		devicePath  string
		socketPath  string
		holdoff     time.Duration
		showVersion bool
	)
	flag.StringVar(&devicePath, "device", "/dev/ttyACM0", "card reader device path")
	flag.StringVar(&socketPath, "socket", "/run/boushitsu/control.sock", "boushitsud control socket path")
	flag.DurationVar(&holdoff, "holdoff", defaultHoldoff, "repeat-scan suppression window")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("boushitsu-badge-reader %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	device, err := os.Open(devicePath)
	if err != nil {
		return fmt.Errorf("opening card reader: %w", err)
	}
	defer device.Close()

	// A tty device buffers line-by-line and echoes by default; raw
	// mode delivers scan bytes as they arrive.
	fd := int(device.Fd())
	if term.IsTerminal(fd) {
		restore, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("setting raw mode: %w", err)
		}
		defer term.Restore(fd, restore)
	}

	client := ipc.NewClient(socketPath)
	toggle := func(ctx context.Context, memberID string) (ToggleOutcome, error) {
		callCtx, cancel := context.WithTimeout(ctx, toggleTimeout)
		defer cancel()

		var result struct {
			Handle   string `cbor:"handle"`
			LoggedIn bool   `cbor:"logged_in"`
		}
		err := client.Call(callCtx, "toggle", map[string]any{"member_id": memberID}, &result)
		if err != nil {
			return ToggleOutcome{}, err
		}
		return ToggleOutcome{Handle: result.Handle, LoggedIn: result.LoggedIn}, nil
	}

	reader, err := NewReader(ReaderConfig{
		Input:   device,
		Toggle:  toggle,
		Holdoff: holdoff,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// The device read blocks with no deadline; closing the file on
	// shutdown is what unblocks it.
	go func() {
		<-ctx.Done()
		device.Close()
	}()

	logger.Info("badge reader started",
		"device", devicePath,
		"socket", socketPath,
		"version", version.Info(),
	)
	return reader.Run(ctx)
}
