// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by requesting the hub's battery level",
	Long: `Send battery level requests to the hub and wait for each update.

This command tests bidirectional communication with the hub: every request is
a hub property request that the hub answers with a property update.

This is useful for verifying:
  - The transport is established (Bluetooth LE, serial or WebSocket)
  - WebSocket bridge authentication works
  - Frames reach the hub and replies come back
  - Round-trip latency of the link

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("hubctl - Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	// Reader goroutine - forwards battery updates only
	updates := make(chan uint8, 1)
	errChan := make(chan error, 1)
	go func() {
		decoder := lpf2.NewDecoder()
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			decoder.Write(buf[:n])
			for {
				frame, ok := decoder.Next()
				if !ok {
					break
				}
				// Ignore attach announcements and other traffic
				if level, ok := batteryUpdate(frame); ok {
					select {
					case updates <- level:
					default:
					}
				}
			}
		}
	}()

	request := lpf2.NewHubPropertyCommand(lpf2.PropBatteryVoltage, lpf2.PropOpRequestUpdate)
	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		// Discard a late reply to an earlier ping
		select {
		case <-updates:
		default:
		}

		startTime := time.Now()
		if _, err := conn.Write(request); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case level := <-updates:
			rtt := time.Since(startTime)
			fmt.Printf("battery=%d%%, rtt=%v\n", level, rtt.Round(time.Millisecond))
			successCount++

		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount += pingCount - i + 1
			i = pingCount

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

// batteryUpdate extracts the level from a battery property update frame
func batteryUpdate(f lpf2.Frame) (uint8, bool) {
	if f.Type() != lpf2.MsgHubProperties {
		return 0, false
	}
	payload := f.Payload()
	if len(payload) < 3 || payload[0] != lpf2.PropBatteryVoltage || payload[1] != lpf2.PropOpUpdate {
		return 0, false
	}
	return payload[2], true
}
