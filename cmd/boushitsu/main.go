// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/pfpacket/boushitsu/lib/ipc"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("boushitsu", pflag.ContinueOnError)
	socketPath := flags.String("socket", "/run/boushitsu/control.sock", "boushitsud control socket path")
	help := flags.BoolP("help", "h", false, "show usage")

	// Stop at the first positional arg so subcommand args pass
	// through untouched.
	flags.SetInterspersed(false)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *help {
		printUsage(os.Stderr)
		return nil
	}

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(os.Stderr)
		return fmt.Errorf("command required")
	}

	command, ok := commands[rest[0]]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return command.run(ctx, ipc.NewClient(*socketPath), rest[1:], os.Stdout)
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: boushitsu [--socket path] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-18s %s\n", commands[name].usage, commands[name].summary)
	}
}
