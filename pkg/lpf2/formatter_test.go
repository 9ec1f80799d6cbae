// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"strings"
	"testing"
	"time"
)

func TestFormatFrame(t *testing.T) {
	ts := time.Date(2025, 1, 1, 12, 30, 45, 123000000, time.UTC)

	tests := []struct {
		name  string
		frame []byte
		want  []string
	}{
		{
			name:  "attach",
			frame: Encode(MsgHubAttachedIO, 0x00, IOAttached, byte(DeviceTachoMotor), 0x00),
			want:  []string{"12:30:45.123", "HUB_ATTACHED_IO (0x04)", "Attached: TACHO_MOTOR (0x0026)"},
		},
		{
			name:  "detach",
			frame: Encode(MsgHubAttachedIO, 0x01, IODetached),
			want:  []string{"Port: 0x01, Detached"},
		},
		{
			name:  "feedback",
			frame: Encode(MsgPortOutputFeedback, 0x00, FeedbackCompleted|FeedbackIdle),
			want:  []string{"PORT_OUTPUT_FEEDBACK", "completed, idle"},
		},
		{
			name:  "input format",
			frame: NewPortInputFormatCommand(0x02, 0x08, 1, true),
			want:  []string{"Mode: 8, Delta: 1, Notify: true"},
		},
		{
			name:  "unknown type",
			frame: Encode(0x05, 0xAA),
			want:  []string{"UNKNOWN (0x05)", "Raw: AA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFrame(Frame(tt.frame), ts)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("FormatFrame = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{AttachEvent{PortName: "A", Device: DeviceTachoMotor}, "A: attached TACHO_MOTOR"},
		{ColorEvent{PortName: "C", Color: ColorLightBlue}, "C: color light blue"},
		{TiltEvent{PortName: "TILT", X: -3, Y: 4}, "TILT: tilt x=-3 y=4"},
		{ButtonEvent{Source: "GREEN", State: ButtonPressed}, "GREEN: button PRESSED"},
		{VoltageEvent{Percent: 82}, "hub: voltage 82%"},
	}
	for _, tt := range tests {
		if got := FormatEvent(tt.ev); got != tt.want {
			t.Errorf("FormatEvent(%#v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint8
		ok   bool
	}{
		{"red", ColorRed, true},
		{"Light Blue", ColorLightBlue, true},
		{"lightblue", ColorLightBlue, true},
		{"light_blue", ColorLightBlue, true},
		{"off", ColorBlack, true},
		{"7", ColorYellow, true},
		{"11", 0, false},
		{"mauve", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseColor(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestStatisticsSummary(t *testing.T) {
	s := NewStatistics()
	s.Update(Frame(Encode(MsgPortValueSingle, 0x00, 0x01)), OutcomeHandled)
	s.Update(Frame(Encode(MsgPortValueSingle, 0x99, 0x01)), OutcomeUnknownPort)
	s.Update(Frame(Encode(0x05)), OutcomeUnknownType)
	s.CalculateRates()

	if s.TotalFrames != 3 || s.HandledFrames != 1 || s.UnknownPorts != 1 || s.UnknownTypes != 1 {
		t.Errorf("counters = %+v", s)
	}
	if s.ByType[MsgPortValueSingle] != 2 {
		t.Errorf("ByType = %v", s.ByType)
	}

	summary := s.FormatSummary()
	if !strings.Contains(summary, "PORT_VALUE_SINGLE") || !strings.Contains(summary, "Frames:   3 received") {
		t.Errorf("summary = %q", summary)
	}

	c := s.Clone()
	c.ByType[0x01] = 9
	if s.ByType[0x01] != 0 {
		t.Error("Clone shares ByType map")
	}

	s.Reset()
	if s.TotalFrames != 0 || len(s.ByType) != 0 {
		t.Error("Reset left counters")
	}
}
