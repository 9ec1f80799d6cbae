// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/hubctl/pkg/capture"
	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"github.com/spf13/cobra"
)

var (
	replayFrames   bool
	replayRealtime bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Replay a recorded session through the protocol engine",
	Long: `Feed the hub traffic from a capture file (written with --record) into the
protocol engine and print the decoded events, without a hub attached.

Use --frames to print every frame in both directions instead of events, and
--realtime to replay at the recorded pace. The hub model is taken from --hub
or --profile, which must match the hub that was recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayFrames, "frames", false, "Print frames in both directions instead of events")
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "Replay at the recorded pace")
}

func runReplay(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	var pace func(time.Duration)
	if replayRealtime {
		start := time.Now()
		pace = func(offset time.Duration) {
			time.Sleep(time.Until(start.Add(offset)))
		}
	}

	stats, err := replayCapture(f, profile, os.Stdout, replayFrames, pace)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(stats.FormatSummary())
	return nil
}

// replayCapture feeds inbound records into a hub engine and prints what it
// decodes. Outbound records are only printed in frame mode. pace, when set,
// is called with each record's offset before it is processed.
func replayCapture(r io.Reader, profile *lpf2.Profile, out io.Writer, showFrames bool, pace func(time.Duration)) (lpf2.Statistics, error) {
	var (
		start   time.Time
		current time.Duration
	)
	stamp := func() time.Time { return start.Add(current) }

	listener := lpf2.ListenerFunc(func(ev lpf2.Event) {
		if !showFrames {
			fmt.Fprintf(out, "[%s] %s\n", formatOffset(current), lpf2.FormatEvent(ev))
		}
	})
	hub, err := lpf2.NewHub(profile, io.Discard,
		lpf2.WithAutoSubscribe(false),
		lpf2.WithListener(listener))
	if err != nil {
		return lpf2.Statistics{}, err
	}
	defer hub.Close()

	inbound := lpf2.NewDecoder()
	outbound := lpf2.NewDecoder()
	reader := capture.NewReader(r)

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return hub.Statistics(), err
		}

		current = rec.Offset()
		if pace != nil {
			pace(current)
		}

		if rec.Dir == capture.Outbound {
			if showFrames {
				printFrames(out, outbound, rec, stamp())
			}
			continue
		}
		if showFrames {
			printFrames(out, inbound, rec, stamp())
		}
		hub.Accept(rec.Data)
	}

	return hub.Statistics(), nil
}

// printFrames de-frames one record and prints every complete frame
func printFrames(out io.Writer, dec *lpf2.Decoder, rec capture.Record, ts time.Time) {
	dec.Write(rec.Data)
	for {
		frame, ok := dec.Next()
		if !ok {
			return
		}
		fmt.Fprintf(out, "%s %s", rec.Dir, lpf2.FormatFrame(frame, ts))
	}
}

// formatOffset formats a capture offset as seconds with milliseconds
func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%8.3fs", d.Seconds())
}
