// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil reports the host's network configuration for the
// getLocalAddress and getAddressInfo commands. All lookups go through
// an Interfaces function so tests can substitute a fixed topology.
package netutil

import (
	"fmt"
	"net"
	"strings"
)

// Interface is the subset of net.Interface the reports need, paired
// with the interface's addresses. Decoupled from net.Interface so
// tests can construct arbitrary topologies.
type Interface struct {
	Name         string
	Flags        net.Flags
	HardwareAddr net.HardwareAddr
	Addrs        []net.Addr
}

// Interfaces enumerates the host's network interfaces. The default
// uses the net package; tests replace it.
type Interfaces func() ([]Interface, error)

// SystemInterfaces returns the host's real network interfaces with
// their addresses.
func SystemInterfaces() ([]Interface, error) {
	netInterfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	interfaces := make([]Interface, 0, len(netInterfaces))
	for _, netInterface := range netInterfaces {
		addrs, err := netInterface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("listing addresses for %s: %w", netInterface.Name, err)
		}
		interfaces = append(interfaces, Interface{
			Name:         netInterface.Name,
			Flags:        netInterface.Flags,
			HardwareAddr: netInterface.HardwareAddr,
			Addrs:        addrs,
		})
	}
	return interfaces, nil
}

// LocalAddresses returns the host's non-loopback IP addresses, one
// per line as "interface: address". Returns an error if no interface
// carries a usable address.
func LocalAddresses(interfaces Interfaces) (string, error) {
	if interfaces == nil {
		interfaces = SystemInterfaces
	}
	list, err := interfaces()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, iface := range list {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		for _, addr := range iface.Addrs {
			ip := addrIP(addr)
			if ip == nil || ip.IsLoopback() {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", iface.Name, ip))
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("no non-loopback addresses found")
	}
	return strings.Join(lines, "\n"), nil
}

// InterfaceReport returns a detailed per-interface report: name,
// flags, hardware address, and all assigned addresses including
// loopback.
func InterfaceReport(interfaces Interfaces) (string, error) {
	if interfaces == nil {
		interfaces = SystemInterfaces
	}
	list, err := interfaces()
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no network interfaces found")
	}

	var builder strings.Builder
	for i, iface := range list {
		if i > 0 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "%s <%s>", iface.Name, iface.Flags)
		if len(iface.HardwareAddr) > 0 {
			fmt.Fprintf(&builder, " %s", iface.HardwareAddr)
		}
		for _, addr := range iface.Addrs {
			fmt.Fprintf(&builder, "\n  %s", addr)
		}
	}
	return builder.String(), nil
}

// addrIP extracts the IP from a net.Addr, handling both *net.IPNet
// (the usual case from Interface.Addrs) and *net.IPAddr.
func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}
