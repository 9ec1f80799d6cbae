// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// hubctl - LEGO Powered Up Hub Controller
//
// A CLI tool for monitoring, controlling and recording LEGO Powered Up (LPF2)
// hubs over Bluetooth LE, serial bridges or WebSocket bridges.

package main

import (
	"os"

	"github.com/Thermoquad/hubctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
