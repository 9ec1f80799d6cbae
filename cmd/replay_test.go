// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/hubctl/pkg/capture"
	"github.com/Thermoquad/hubctl/pkg/lpf2"
)

// buildCapture writes a short session: one attach split across two
// deliveries, a subscription sent by the host, then a detach
func buildCapture(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	w := capture.NewWriter(&buf)

	attach := lpf2.Encode(lpf2.MsgHubAttachedIO, 0x00, lpf2.IOAttached, byte(lpf2.DeviceTachoMotor), 0x00)
	writes := []struct {
		dir  capture.Direction
		data []byte
	}{
		{capture.Inbound, attach[:3]},
		{capture.Inbound, attach[3:]},
		{capture.Outbound, lpf2.NewPortInputFormatCommand(0x00, 0x02, 1, true)},
		{capture.Inbound, lpf2.Encode(lpf2.MsgHubAttachedIO, 0x00, lpf2.IODetached)},
	}
	for _, wr := range writes {
		if err := w.Write(wr.dir, wr.data); err != nil {
			t.Fatalf("capture write: %v", err)
		}
	}
	return &buf
}

func TestReplayCaptureEvents(t *testing.T) {
	var out bytes.Buffer
	stats, err := replayCapture(buildCapture(t), lpf2.MoveHubProfile(), &out, false, nil)
	if err != nil {
		t.Fatalf("replayCapture: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 event lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], "A: attached TACHO_MOTOR") {
		t.Errorf("first event = %q", lines[0])
	}
	if !strings.Contains(lines[1], "A:") {
		t.Errorf("second event = %q", lines[1])
	}

	if stats.TotalFrames != 2 {
		t.Errorf("TotalFrames = %d, want 2", stats.TotalFrames)
	}
	if stats.FramesSent != 0 {
		t.Errorf("replay must not send frames, FramesSent = %d", stats.FramesSent)
	}
}

func TestReplayCaptureFrames(t *testing.T) {
	var out bytes.Buffer
	_, err := replayCapture(buildCapture(t), lpf2.MoveHubProfile(), &out, true, nil)
	if err != nil {
		t.Fatalf("replayCapture: %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "RX ["); n != 2 {
		t.Errorf("expected 2 RX frames, got %d:\n%s", n, got)
	}
	if n := strings.Count(got, "TX ["); n != 1 {
		t.Errorf("expected 1 TX frame, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "PORT_INPUT_FORMAT") {
		t.Errorf("TX frame should be decoded:\n%s", got)
	}
	if strings.Contains(got, "attached TACHO_MOTOR") {
		t.Errorf("frame mode should not print events:\n%s", got)
	}
}

func TestReplayCapturePacing(t *testing.T) {
	var offsets []time.Duration
	pace := func(d time.Duration) { offsets = append(offsets, d) }

	var out bytes.Buffer
	if _, err := replayCapture(buildCapture(t), lpf2.MoveHubProfile(), &out, false, pace); err != nil {
		t.Fatalf("replayCapture: %v", err)
	}
	if len(offsets) != 4 {
		t.Fatalf("pace called %d times, want 4", len(offsets))
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			t.Errorf("offsets not monotonic: %v", offsets)
		}
	}
}

func TestReplayCaptureCorrupt(t *testing.T) {
	var out bytes.Buffer
	_, err := replayCapture(bytes.NewReader([]byte{0xFF, 0x00}), lpf2.MoveHubProfile(), &out, false, nil)
	if err == nil {
		t.Fatal("expected error for corrupt capture")
	}
}
