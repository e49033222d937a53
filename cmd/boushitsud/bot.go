// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pfpacket/boushitsu/lib/activity"
	"github.com/pfpacket/boushitsu/lib/beebotte"
	"github.com/pfpacket/boushitsu/lib/clock"
	"github.com/pfpacket/boushitsu/lib/command"
	"github.com/pfpacket/boushitsu/lib/identity"
	"github.com/pfpacket/boushitsu/lib/netutil"
	"github.com/pfpacket/boushitsu/lib/presence"
	"github.com/pfpacket/boushitsu/lib/roster"
	"github.com/pfpacket/boushitsu/lib/twitter"
)

// Twitter is the subset of the Twitter client the bot uses. Tests
// substitute a recording fake.
type Twitter interface {
	PostUpdate(ctx context.Context, text string) (*twitter.Tweet, error)
	PostDirectMessage(ctx context.Context, screenName, text string) error
	RateLimitStatus(ctx context.Context, families ...string) (map[string]map[string]twitter.RateLimit, error)
}

// RunCommandFunc executes a subprocess and returns its combined
// output. The default shells out via os/exec; tests substitute a
// canned implementation.
type RunCommandFunc func(ctx context.Context, name string, args ...string) (string, error)

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.String(), err
}

// BotConfig holds the dependencies for creating a Bot.
type BotConfig struct {
	// ScreenName is the bot's own handle, without "@". Required.
	ScreenName string

	// AuthorizedPersonnel is the allow-list for privileged commands.
	AuthorizedPersonnel []string

	// Ledger is the membership login ledger. Required.
	Ledger *roster.Ledger

	// Directory is the member identity directory. Required.
	Directory *identity.Directory

	// Oracle answers whether the room is open. Required.
	Oracle *presence.Oracle

	// Twitter is the reply channel. Required.
	Twitter Twitter

	// UpdateCommand is the argv run by the update command. Empty
	// disables self-update.
	UpdateCommand []string

	// StatusUnits are the systemd units reported by
	// checkServiceStatus.
	StatusUnits []string

	// Interfaces enumerates network interfaces for the address
	// commands. Defaults to netutil.SystemInterfaces.
	Interfaces netutil.Interfaces

	// RunCommand executes subprocesses for bou, update, and
	// checkServiceStatus. Defaults to os/exec.
	RunCommand RunCommandFunc

	// Clock provides timestamps for farewell broadcasts and uptime.
	// Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives dispatch diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Bot owns the dispatch loop: Beebotte payloads in, Twitter replies
// out. All command processing is strictly sequential; a blocking
// handler (the presence oracle's sampling window) stalls subsequent
// events by design.
type Bot struct {
	screenName string
	router     *command.Router
	ledger     *roster.Ledger
	directory  *identity.Directory
	oracle     *presence.Oracle
	twitter    Twitter
	clock      clock.Clock
	logger     *slog.Logger

	updateCommand []string
	statusUnits   []string
	interfaces    netutil.Interfaces
	runCommand    RunCommandFunc
	startedAt     time.Time

	// roomState caches the last oracle verdict for the status socket
	// action. Guarded by roomStateMu: the dispatch loop writes, the
	// socket server reads.
	roomStateMu sync.Mutex
	roomState   string

	// shutdownInitiator is the username behind the terminal command
	// that ended the run, recorded for the watchdog state file. Only
	// the sequential dispatch loop touches it.
	shutdownInitiator string
}

// ShutdownInitiator returns the username that issued the terminal
// command, once Run has returned a non-ShutdownNone signal.
func (b *Bot) ShutdownInitiator() string {
	return b.shutdownInitiator
}

// NewBot creates a Bot and registers its command table.
func NewBot(cfg BotConfig) (*Bot, error) {
	if cfg.ScreenName == "" {
		return nil, fmt.Errorf("boushitsud: ScreenName is required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("boushitsud: Ledger is required")
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("boushitsud: Directory is required")
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("boushitsud: Oracle is required")
	}
	if cfg.Twitter == nil {
		return nil, fmt.Errorf("boushitsud: Twitter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interfaces := cfg.Interfaces
	if interfaces == nil {
		interfaces = netutil.SystemInterfaces
	}
	run := cfg.RunCommand
	if run == nil {
		run = runCommand
	}

	bot := &Bot{
		screenName:    cfg.ScreenName,
		ledger:        cfg.Ledger,
		directory:     cfg.Directory,
		oracle:        cfg.Oracle,
		twitter:       cfg.Twitter,
		clock:         clk,
		logger:        logger,
		updateCommand: cfg.UpdateCommand,
		statusUnits:   cfg.StatusUnits,
		interfaces:    interfaces,
		runCommand:    run,
		startedAt:     clk.Now(),
		roomState:     "unknown",
	}

	bot.router = command.NewRouter(command.Config{
		AuthorizedPersonnel: cfg.AuthorizedPersonnel,
		Members: func(ctx context.Context, username string) (bool, error) {
			return cfg.Directory.IsMember(ctx, username)
		},
		Logger: logger,
	})
	bot.registerCommands()

	return bot, nil
}

// Run consumes raw Beebotte payloads until the context is cancelled
// or a terminal command is dispatched. Returns the shutdown signal
// (ShutdownNone on context cancellation) after all replies for the
// final command have been sent.
func (b *Bot) Run(ctx context.Context, events <-chan []byte) (command.Shutdown, error) {
	for {
		select {
		case <-ctx.Done():
			return command.ShutdownNone, nil
		case raw, ok := <-events:
			if !ok {
				return command.ShutdownNone, fmt.Errorf("event stream closed")
			}
			if signal := b.handlePayload(ctx, raw); signal != command.ShutdownNone {
				return signal, nil
			}
		}
	}
}

// handlePayload processes one MQTT delivery: unwrap the Beebotte
// record envelope, decode each account-activity event, extract the
// requests addressed to the bot, and dispatch them in order. Returns
// the first non-ShutdownNone signal; remaining requests in the
// payload are intentionally dropped (the process is about to exit).
func (b *Bot) handlePayload(ctx context.Context, raw []byte) command.Shutdown {
	records, err := beebotte.DecodeRecord(raw)
	if err != nil {
		b.logger.Error("undecodable record envelope", "error", err)
		return command.ShutdownNone
	}

	for _, record := range records {
		event, err := activity.Decode(record)
		if err != nil {
			b.logger.Error("undecodable account-activity event", "error", err)
			continue
		}
		for _, request := range event.Extract(b.screenName) {
			if signal := b.handleRequest(ctx, request); signal != command.ShutdownNone {
				return signal
			}
		}
	}
	return command.ShutdownNone
}

// handleRequest parses and dispatches one extracted request and sends
// the reply. The shutdown signal is returned only after the reply and
// any broadcast have been sent.
func (b *Bot) handleRequest(ctx context.Context, request activity.Request) command.Shutdown {
	b.logger.Info("request",
		"username", request.Username,
		"body", request.Body,
		"link", request.Link,
		"private", request.Private,
	)

	cmd := command.Parse(request.Body, "@"+b.screenName)
	envelope := b.router.Dispatch(ctx, cmd, command.Request{
		Username: request.Username,
		Link:     request.Link,
		Private:  request.Private,
	})

	b.respond(ctx, request, envelope)
	return envelope.Shutdown
}

// respond delivers one envelope over the reply channel. Private
// envelopes (and all replies to direct messages) go out as DMs;
// public replies mention the requester and carry the backlink.
// Transport failures are logged and swallowed: ledger mutations are
// never rolled back because a send failed.
func (b *Bot) respond(ctx context.Context, request activity.Request, envelope command.Envelope) {
	body := fmt.Sprintf("%d %s", envelope.Status, envelope.Text)

	if request.Private || envelope.Private {
		if err := b.twitter.PostDirectMessage(ctx, request.Username, body); err != nil {
			b.logger.Error("sending direct message", "username", request.Username, "error", err)
		}
	} else {
		text := fmt.Sprintf("@%s %s %s", request.Username, body, request.Link)
		if _, err := b.twitter.PostUpdate(ctx, text); err != nil {
			b.logger.Error("posting reply", "username", request.Username, "error", err)
		}
	}

	if envelope.Broadcast != "" {
		if _, err := b.twitter.PostUpdate(ctx, envelope.Broadcast); err != nil {
			b.logger.Error("posting broadcast", "error", err)
		}
	}
}

// cacheRoomState records the last presence verdict for the status
// socket action.
func (b *Bot) cacheRoomState(open bool) {
	state := "closed"
	if open {
		state = "open"
	}
	b.roomStateMu.Lock()
	b.roomState = state
	b.roomStateMu.Unlock()
}

// cachedRoomState returns the last presence verdict, or "unknown"
// before the first check.
func (b *Bot) cachedRoomState() string {
	b.roomStateMu.Lock()
	defer b.roomStateMu.Unlock()
	return b.roomState
}

// firstLine truncates multi-line subprocess output for a reply body.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
