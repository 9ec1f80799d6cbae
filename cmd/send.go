// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	sendAttachTimeout time.Duration
	sendTimeout       time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [args...]",
	Short: "Send one command to the hub and wait for it to finish",
	Long: `Connect to the hub, send a single console command and wait for it.

Motor commands wait for a device to attach to the named port first, since the
hub announces its devices right after connecting. Timed commands, ramps and
rotations wait for their completion before exiting.

Commands:
` + consoleHelp + `

Examples:
  hubctl send motor A 50 2s
  hubctl send ramp B 0 100 1s
  hubctl --hub boost send rotate C 90 30
  hubctl send led green`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().DurationVar(&sendAttachTimeout, "attach-timeout", 5*time.Second, "How long to wait for the port's device to attach")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "How long to wait for the command to complete")
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if port := commandPort(args); port != "" {
		if err := waitForAttach(s, port, sendAttachTimeout); err != nil {
			return err
		}
	}

	res, err := runConsoleCommand(s.hub, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(res.Message)

	if res.Done == nil {
		return nil
	}

	select {
	case err := <-res.Done:
		if err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		fmt.Println("done")
		return nil
	case err := <-s.Done():
		return fmt.Errorf("connection lost: %w", err)
	case <-time.After(sendTimeout):
		return fmt.Errorf("command did not complete within %s", sendTimeout)
	}
}

// commandPort returns the port a motor command addresses, or ""
func commandPort(args []string) string {
	if len(args) < 2 {
		return ""
	}
	switch strings.ToLower(args[0]) {
	case "motor", "m", "ramp", "r", "rotate":
		return args[1]
	}
	return ""
}

// waitForAttach polls until a device is attached to the port
func waitForAttach(s *session, port string, timeout time.Duration) error {
	if _, err := s.hub.Port(port); err != nil {
		return err
	}

	deadline := time.After(timeout)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if st, err := s.hub.Port(port); err == nil && st.Connected {
			return nil
		}
		select {
		case <-ticker.C:
		case err := <-s.Done():
			return fmt.Errorf("connection lost: %w", err)
		case <-deadline:
			return fmt.Errorf("no device attached to port %s within %s", port, timeout)
		}
	}
}
