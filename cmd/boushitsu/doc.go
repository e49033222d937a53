// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// The boushitsu CLI talks to a running boushitsud over its control
// socket: inspect the login roster, toggle a member by hand, resolve
// a member ID, bulk log out, and query daemon status.
//
// Usage:
//
//	boushitsu [--socket path] <command> [args]
//
// Commands:
//
//	roster            list logged-in members
//	toggle <id>       flip a member's login state
//	logout-all        log out every member
//	resolve <id>      show the handle mapped to a member ID
//	status            show daemon status
//	version           show CLI version
package main
