// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pfpacket/boushitsu/lib/command"
	"github.com/pfpacket/boushitsu/lib/identity"
	"github.com/pfpacket/boushitsu/lib/netutil"
)

// registerCommands assembles the daemon's command table. Registration
// order is the help listing order.
func (b *Bot) registerCommands() {
	b.router.Handle("help", command.Entry{
		Handler: b.handleHelp,
		Args:    0,
		Usage:   "help",
		Summary: "show the available commands and the corresponding usage",
	})
	b.router.Handle("ping", command.Entry{
		Handler: b.handlePing,
		Args:    0,
		Usage:   "ping",
		Summary: "return \"pong\" to tell you the service is up",
	})
	b.router.Handle("ITS.isOpen", command.Entry{
		Handler: b.handleIsOpen,
		Args:    0,
		Usage:   "ITS.isOpen",
		Summary: "check if the club room is open by using a light sensor",
	})
	b.router.Handle("ITS.getLoggedInMembers", command.Entry{
		Handler: b.handleLoggedInMembers,
		Args:    0,
		Usage:   "ITS.getLoggedInMembers",
		Summary: "list the members currently logged in to the club room",
	})
	b.router.Handle("account.register", command.Entry{
		Handler: b.handleAccountRegister,
		Args:    2,
		Usage:   "account.register <id> <handle>",
		Summary: "map a member ID to a Twitter handle",
	})
	b.router.Handle("account.unregister", command.Entry{
		Handler: b.handleAccountUnregister,
		Args:    1,
		Auth:    command.AuthorizedOnly,
		Usage:   "account.unregister <id>",
		Summary: "remove a member ID mapping",
	})
	b.router.Handle("account.getAll", command.Entry{
		Handler: b.handleAccountGetAll,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "account.getAll",
		Summary: "list all registered member ID mappings",
	})
	b.router.Handle("checkRateLimit", command.Entry{
		Handler: b.handleCheckRateLimit,
		Args:    0,
		Usage:   "checkRateLimit",
		Summary: "check the rate limit status for the current endpoint",
	})
	b.router.Handle("checkServiceStatus", command.Entry{
		Handler: b.handleCheckServiceStatus,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "checkServiceStatus",
		Summary: "report the configured systemd units",
	})
	b.router.Handle("getLocalAddress", command.Entry{
		Handler: b.handleGetLocalAddress,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "getLocalAddress",
		Summary: "report the host's non-loopback addresses",
	})
	b.router.Handle("getAddressInfo", command.Entry{
		Handler: b.handleGetAddressInfo,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "getAddressInfo",
		Summary: "report detailed network interface information",
	})
	b.router.Handle("update", command.Entry{
		Handler: b.handleUpdate,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "update",
		Summary: "pull the latest code and restart",
	})
	b.router.Handle("stop", command.Entry{
		Handler: b.handleStop,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "stop",
		Summary: "stop the service",
	})
	b.router.Handle("restart", command.Entry{
		Handler: b.handleRestart,
		Args:    0,
		Auth:    command.AuthorizedOnly,
		Usage:   "restart",
		Summary: "restart the service",
	})
	b.router.Handle("bou", command.Entry{
		Handler: b.handleBou,
		Args:    command.ArgsAny,
		Auth:    command.AuthorizedOnly,
		Usage:   "bou <argv ...>",
		Summary: "run a maintenance command on the host",
	})
}

func (b *Bot) handleHelp(ctx context.Context, req command.Request) command.Envelope {
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    "usage:\n" + b.router.Help(),
		Private: true,
	}
}

func (b *Bot) handlePing(ctx context.Context, req command.Request) command.Envelope {
	return command.Envelope{Status: command.StatusOK, Text: "pong"}
}

func (b *Bot) handleIsOpen(ctx context.Context, req command.Request) command.Envelope {
	open := b.oracle.IsOpen(ctx)
	b.cacheRoomState(open)

	text := "the club room is closed"
	if open {
		text = "the club room is open"
	}
	return command.Envelope{Status: command.StatusOK, Text: text}
}

// handleLoggedInMembers is the presence-coupled roster query. The
// presence check comes first: a closed room bulk-logs-out the ledger
// before the roster is read, so no member is ever reported logged in
// while the room is confirmed closed. The reply is always private.
func (b *Bot) handleLoggedInMembers(ctx context.Context, req command.Request) command.Envelope {
	open := b.oracle.IsOpen(ctx)
	b.cacheRoomState(open)

	if !open {
		if err := b.ledger.LogoutAll(ctx); err != nil {
			b.logger.Error("logout-all on closed room", "error", err)
			return command.Envelope{
				Status:  command.StatusInternal,
				Text:    "ledger unavailable",
				Private: true,
			}
		}
		return command.Envelope{
			Status:  command.StatusNotFound,
			Text:    "No one logged in",
			Private: true,
		}
	}

	ids, err := b.ledger.LoggedInIDs(ctx)
	if err != nil {
		b.logger.Error("reading roster", "error", err)
		return command.Envelope{
			Status:  command.StatusInternal,
			Text:    "ledger unavailable",
			Private: true,
		}
	}
	if len(ids) == 0 {
		return command.Envelope{
			Status:  command.StatusNotFound,
			Text:    "No one logged in",
			Private: true,
		}
	}

	handles := make([]string, len(ids))
	for i, id := range ids {
		handles[i] = b.directory.Resolve(ctx, id)
	}
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    strings.Join(handles, " "),
		Private: true,
	}
}

func (b *Bot) handleAccountRegister(ctx context.Context, req command.Request) command.Envelope {
	id, handle := req.Args[0], strings.TrimPrefix(req.Args[1], "@")
	if err := b.directory.Register(ctx, id, handle); err != nil {
		if errors.Is(err, identity.ErrInvalidMemberID) {
			return command.Envelope{
				Status:  command.StatusBadRequest,
				Text:    "invalid member ID (want 8 alphanumeric characters)",
				Private: true,
			}
		}
		b.logger.Error("registering account", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "directory unavailable", Private: true}
	}
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    fmt.Sprintf("registered %s as @%s", identity.Redact(id), handle),
		Private: true,
	}
}

func (b *Bot) handleAccountUnregister(ctx context.Context, req command.Request) command.Envelope {
	id := req.Args[0]
	if err := b.directory.Unregister(ctx, id); err != nil {
		b.logger.Error("unregistering account", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "directory unavailable", Private: true}
	}
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    fmt.Sprintf("unregistered %s", identity.Redact(id)),
		Private: true,
	}
}

func (b *Bot) handleAccountGetAll(ctx context.Context, req command.Request) command.Envelope {
	accounts, err := b.directory.All(ctx)
	if err != nil {
		b.logger.Error("listing accounts", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "directory unavailable", Private: true}
	}
	if len(accounts) == 0 {
		return command.Envelope{Status: command.StatusNotFound, Text: "No accounts registered", Private: true}
	}

	ids := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("%s @%s", id, accounts[id])
	}
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    strings.Join(lines, "\n"),
		Private: true,
	}
}

// rate limit endpoint families per reply channel.
const (
	statusesFamily      = "statuses"
	statusesEndpoint    = "/statuses/update"
	directMessageFamily = "direct_messages"
	directMessageEnd    = "/direct_messages/events/new"
)

func (b *Bot) handleCheckRateLimit(ctx context.Context, req command.Request) command.Envelope {
	family, endpoint := statusesFamily, statusesEndpoint
	if req.Private {
		family, endpoint = directMessageFamily, directMessageEnd
	}

	resources, err := b.twitter.RateLimitStatus(ctx, family)
	if err != nil {
		b.logger.Error("rate limit status", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "rate limit status unavailable"}
	}

	limit, ok := resources[family][endpoint]
	if !ok {
		b.logger.Error("rate limit family missing endpoint", "family", family, "endpoint", endpoint)
		return command.Envelope{Status: command.StatusInternal, Text: "rate limit status unavailable"}
	}
	return command.Envelope{
		Status: command.StatusOK,
		Text:   fmt.Sprintf("limit=%d remaining=%d reset=%d", limit.Limit, limit.Remaining, limit.Reset),
	}
}

func (b *Bot) handleCheckServiceStatus(ctx context.Context, req command.Request) command.Envelope {
	if len(b.statusUnits) == 0 {
		return command.Envelope{Status: command.StatusNotFound, Text: "no units configured", Private: true}
	}

	lines := make([]string, len(b.statusUnits))
	for i, unit := range b.statusUnits {
		// systemctl is-active exits nonzero for inactive units but
		// still prints the state; the output is the answer either way.
		output, err := b.runCommand(ctx, "systemctl", "is-active", unit)
		state := firstLine(output)
		if state == "" {
			if err != nil {
				state = "unknown"
			} else {
				state = "active"
			}
		}
		lines[i] = fmt.Sprintf("%s: %s", unit, state)
	}
	return command.Envelope{
		Status:  command.StatusOK,
		Text:    strings.Join(lines, "\n"),
		Private: true,
	}
}

func (b *Bot) handleGetLocalAddress(ctx context.Context, req command.Request) command.Envelope {
	report, err := netutil.LocalAddresses(b.interfaces)
	if err != nil {
		b.logger.Error("local addresses", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "address lookup failed", Private: true}
	}
	// Host addresses never go out publicly.
	return command.Envelope{Status: command.StatusOK, Text: report, Private: true}
}

func (b *Bot) handleGetAddressInfo(ctx context.Context, req command.Request) command.Envelope {
	report, err := netutil.InterfaceReport(b.interfaces)
	if err != nil {
		b.logger.Error("interface report", "error", err)
		return command.Envelope{Status: command.StatusInternal, Text: "address lookup failed", Private: true}
	}
	return command.Envelope{Status: command.StatusOK, Text: report, Private: true}
}

// handleUpdate runs the configured update command and, on success,
// signals the loop to re-exec. A failed update reports 500 and keeps
// the current process running.
func (b *Bot) handleUpdate(ctx context.Context, req command.Request) command.Envelope {
	if len(b.updateCommand) == 0 {
		return command.Envelope{Status: command.StatusInternal, Text: "update command not configured", Private: true}
	}

	output, err := b.runCommand(ctx, b.updateCommand[0], b.updateCommand[1:]...)
	if err != nil {
		b.logger.Error("update command failed", "error", err, "output", output)
		return command.Envelope{
			Status:  command.StatusInternal,
			Text:    "update failed: " + firstLine(output),
			Private: true,
		}
	}

	b.logger.Info("update command succeeded", "output", firstLine(output))
	b.shutdownInitiator = req.Username
	return command.Envelope{
		Status:    command.StatusOK,
		Text:      "Updating",
		Broadcast: b.farewell("Updating", req),
		Shutdown:  command.ShutdownUpdate,
	}
}

func (b *Bot) handleStop(ctx context.Context, req command.Request) command.Envelope {
	b.shutdownInitiator = req.Username
	return command.Envelope{
		Status:    command.StatusOK,
		Text:      "Bye (^^)/",
		Broadcast: b.farewell("Bye (^^)/", req),
		Shutdown:  command.ShutdownStop,
	}
}

func (b *Bot) handleRestart(ctx context.Context, req command.Request) command.Envelope {
	b.shutdownInitiator = req.Username
	return command.Envelope{
		Status:    command.StatusOK,
		Text:      "Restarting",
		Broadcast: b.farewell("Restarting", req),
		Shutdown:  command.ShutdownRestart,
	}
}

// farewell formats the public announcement posted before a terminal
// command takes effect. Everyone should know the service is going
// down, who asked for it, and when.
func (b *Bot) farewell(text string, req command.Request) string {
	return fmt.Sprintf("200 %s [%s] (%s) %s",
		text, req.Username, b.clock.Now().Format("2006-01-02 15:04:05"), req.Link)
}

// bouOutputLimit bounds how much subprocess output goes into a reply.
const bouOutputLimit = 280

func (b *Bot) handleBou(ctx context.Context, req command.Request) command.Envelope {
	if len(req.Args) == 0 {
		return command.Envelope{
			Status:  command.StatusBadRequest,
			Text:    "wrong number of arguments (bou <argv ...>)",
			Private: true,
		}
	}

	output, err := b.runCommand(ctx, req.Args[0], req.Args[1:]...)
	output = strings.TrimSpace(output)
	if len(output) > bouOutputLimit {
		output = output[:bouOutputLimit]
	}
	if err != nil {
		b.logger.Error("bou command failed", "argv", req.Args, "error", err)
		text := "command failed"
		if output != "" {
			text = "command failed: " + firstLine(output)
		}
		return command.Envelope{Status: command.StatusInternal, Text: text, Private: true}
	}
	if output == "" {
		output = "(no output)"
	}
	return command.Envelope{Status: command.StatusOK, Text: output, Private: true}
}
