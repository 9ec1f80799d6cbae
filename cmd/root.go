// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	// Bluetooth LE connection flags
	bleAddress  string
	scanTimeout time.Duration

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Hub model flags
	hubFamily   string
	profilePath string

	// Capture flags
	recordPath string
)

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "LEGO Powered Up hub monitor and controller",
	Long: `hubctl - A CLI tool for monitoring and controlling LEGO Powered Up (LPF2) hubs.

Provides commands for raw frame logging, live port and sensor monitoring,
statistics, and motor, LED, sound and name commands.

Connection modes:
  Bluetooth: [--address 90:84:2B:00:00:00] [--scan-timeout 10s]
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Without --port or --url, hubctl scans for a hub over Bluetooth LE and
connects to the first one found (or the one at --address).

The hub model is selected with --hub (movehub, hub, remote, duplo) or loaded
from a YAML file with --profile.

For WebSocket authentication, the password is read from the HUBCTL_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func init() {
	// Bluetooth LE connection flags
	rootCmd.PersistentFlags().StringVarP(&bleAddress, "address", "a", "", "Bluetooth address of the hub (default: first hub found)")
	rootCmd.PersistentFlags().DurationVar(&scanTimeout, "scan-timeout", 10*time.Second, "Bluetooth scan timeout")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Hub model flags
	rootCmd.PersistentFlags().StringVar(&hubFamily, "hub", "movehub", "Hub family: movehub, hub, remote, duplo")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML hub profile (overrides --hub)")

	// Capture flags
	rootCmd.PersistentFlags().StringVar(&recordPath, "record", "", "Record connection traffic to a capture file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
