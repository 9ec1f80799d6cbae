// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showEvents    bool
	statsInterval int
	useTUI        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Track frame statistics, port state and hub telemetry",
	Long: `Connect to a hub, subscribe to every attached sensor and track traffic.

This command counts:
  - Frames received by message type, and bytes
  - Frames dropped for unknown message types or unconfigured ports
  - Port value frames that carried no reading
  - Events decoded, frames sent and write errors

It also shows which device is attached to each port and the latest battery
voltage and current reported by the hub.

In text mode, statistics summaries are printed at a configurable interval.
Use --show-events to print every decoded event as well.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&showEvents, "show-events", false, "Print every decoded event (text mode)")
	statsCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	statsCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runStats(cmd *cobra.Command, args []string) error {
	if useTUI {
		return runStatsTUI()
	}
	return runStatsText()
}

// runStatsTUI runs the statistics view in a terminal UI
func runStatsTUI() error {
	events := make(chan hubEventMsg, eventBatchSize*4)
	s, err := openSession(lpf2.WithListener(eventForwarder(events)))
	if err != nil {
		return err
	}
	defer s.Close()

	m := initialStatsModel(s.hub, s.connInfo, statsInterval)
	p := tea.NewProgram(m)

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

// runStatsText prints events and periodic summaries
func runStatsText() error {
	events := make(chan lpf2.Event, 64)
	s, err := openSession(lpf2.WithListener(lpf2.ListenerFunc(func(ev lpf2.Event) {
		select {
		case events <- ev:
		default:
		}
	})))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("hubctl - Statistics\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Hub: %s\n", s.hub.Profile().Name)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := s.hub.RequestBatteryUpdates(); err != nil {
		log.Printf("Battery updates: %v", err)
	}

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev := <-events:
			switch ev.(type) {
			case lpf2.AttachEvent, lpf2.DetachEvent:
				// Port changes are always shown
				fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), lpf2.FormatEvent(ev))
			default:
				if showEvents {
					fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), lpf2.FormatEvent(ev))
				}
			}

		case <-statsTicker.C:
			stats := s.hub.Statistics()
			fmt.Println()
			fmt.Print(stats.FormatSummary())
			fmt.Print(formatPortTable(s.hub.Ports()))
			fmt.Println()

		case err := <-s.Done():
			log.Printf("Connection closed: %v", err)
			return nil
		}
	}
}

// formatPortTable lists each port and its attached device
func formatPortTable(ports []lpf2.PortState) string {
	var out string
	for _, p := range ports {
		device := "-"
		if p.Connected {
			device = p.Device.String()
		}
		busy := ""
		if p.Busy {
			busy = " (busy)"
		}
		out += fmt.Sprintf("  %-12s 0x%02X  %s%s\n", p.Name, p.Index, device, busy)
	}
	return out
}
