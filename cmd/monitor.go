// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring and controlling a hub",
	Long: `Monitor and control a LEGO Powered Up hub via an interactive terminal UI.

Features:
  - Live port table with attached devices and latest sensor readings
  - Command console (motor, ramp, rotate, stop, led, rgb, sound, name)
  - Battery voltage, current and frame statistics
  - Event logging

Tab switches between the port list and the command line. Enter on a port
starts a motor command for it. Type "help" in the command line for the full
command list.

Supports Bluetooth LE, serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	events := make(chan hubEventMsg, eventBatchSize*4)
	s, err := openSession(lpf2.WithListener(eventForwarder(events)))
	if err != nil {
		return err
	}
	defer s.Close()

	m := initialMonitorModel(s.hub, s.connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go forwardEvents(p, events)
	go func() {
		err := <-s.Done()
		p.Send(connectionLostMsg{err: err})
	}()

	if err := s.hub.RequestBatteryUpdates(); err != nil {
		log.Printf("Battery updates: %v", err)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
