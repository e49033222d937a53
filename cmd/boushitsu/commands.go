// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pfpacket/boushitsu/lib/ipc"
	"github.com/pfpacket/boushitsu/lib/version"
)

// callTimeout bounds one control-socket round trip.
const callTimeout = 5 * time.Second

// subcommand is one entry in the CLI's dispatch table.
type subcommand struct {
	usage   string
	summary string
	run     func(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error
}

// commandOrder fixes the help listing order.
var commandOrder = []string{"roster", "toggle", "logout-all", "resolve", "status", "version"}

var commands = map[string]subcommand{
	"roster": {
		usage:   "roster",
		summary: "list logged-in members",
		run:     runRoster,
	},
	"toggle": {
		usage:   "toggle <id>",
		summary: "flip a member's login state",
		run:     runToggle,
	},
	"logout-all": {
		usage:   "logout-all",
		summary: "log out every member",
		run:     runLogoutAll,
	},
	"resolve": {
		usage:   "resolve <id>",
		summary: "show the handle mapped to a member ID",
		run:     runResolve,
	},
	"status": {
		usage:   "status",
		summary: "show daemon status",
		run:     runStatus,
	},
	"version": {
		usage:   "version",
		summary: "show CLI version",
		run:     runVersion,
	},
}

func call(ctx context.Context, client *ipc.Client, action string, fields map[string]any, result any) error {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return client.Call(callCtx, action, fields, result)
}

func runRoster(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: boushitsu roster")
	}

	var entries []struct {
		MemberID string `cbor:"member_id"`
		Handle   string `cbor:"handle"`
	}
	if err := call(ctx, client, "roster", nil, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "no members logged in")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tHANDLE")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\n", entry.MemberID, entry.Handle)
	}
	return w.Flush()
}

func runToggle(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: boushitsu toggle <id>")
	}

	var result struct {
		MemberID string `cbor:"member_id"`
		Handle   string `cbor:"handle"`
		LoggedIn bool   `cbor:"logged_in"`
	}
	if err := call(ctx, client, "toggle", map[string]any{"member_id": args[0]}, &result); err != nil {
		return err
	}

	state := "logged out"
	if result.LoggedIn {
		state = "logged in"
	}
	fmt.Fprintf(out, "%s (%s) %s\n", result.Handle, result.MemberID, state)
	return nil
}

func runLogoutAll(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: boushitsu logout-all")
	}
	if err := call(ctx, client, "logout-all", nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "all members logged out")
	return nil
}

func runResolve(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: boushitsu resolve <id>")
	}

	var result struct {
		Handle string `cbor:"handle"`
	}
	if err := call(ctx, client, "resolve", map[string]any{"member_id": args[0]}, &result); err != nil {
		return err
	}
	fmt.Fprintln(out, result.Handle)
	return nil
}

func runStatus(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: boushitsu status")
	}

	var result struct {
		Version       string `cbor:"version"`
		UptimeSeconds int64  `cbor:"uptime_seconds"`
		RoomState     string `cbor:"room_state"`
		LoggedIn      int    `cbor:"logged_in"`
	}
	if err := call(ctx, client, "status", nil, &result); err != nil {
		return err
	}

	fmt.Fprintf(out, "version:    %s\n", result.Version)
	fmt.Fprintf(out, "uptime:     %s\n", (time.Duration(result.UptimeSeconds) * time.Second).String())
	fmt.Fprintf(out, "room:       %s\n", result.RoomState)
	fmt.Fprintf(out, "logged in:  %d\n", result.LoggedIn)
	return nil
}

func runVersion(ctx context.Context, client *ipc.Client, args []string, out io.Writer) error {
	fmt.Fprintf(out, "boushitsu %s\n", version.Info())
	return nil
}
