// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"github.com/spf13/cobra"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously de-frame and display hub frames as they arrive.

Each frame is shown with a timestamp, message type and decoded fields. No
commands are sent to the hub, so sensors that need a subscription stay quiet;
use monitor for a live view of ports and sensors.

Use --record to save the traffic for later replay.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, record, _, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	if record != nil {
		defer record.Close()
	}

	fmt.Printf("hubctl - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if recordPath != "" {
		fmt.Printf("Recording: %s\n", recordPath)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := lpf2.NewDecoder()
	buf := make([]byte, 256)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			decoder.Write(buf[:n])
			for {
				frame, ok := decoder.Next()
				if !ok {
					break
				}
				fmt.Print(lpf2.FormatFrame(frame, time.Now()))
			}
		}
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}
