// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"math"
	"reflect"
	"testing"
)

func TestDecodeSensor(t *testing.T) {
	tests := []struct {
		name    string
		kind    SensorKind
		payload []byte
		want    []Event
	}{
		{
			name:    "WeDo distance",
			kind:    SensorWeDoDistance,
			payload: []byte{12, 0},
			want:    []Event{DistanceEvent{PortName: "C", Distance: 120}},
		},
		{
			name:    "WeDo distance extended range",
			kind:    SensorWeDoDistance,
			payload: []byte{5, 1},
			want:    []Event{DistanceEvent{PortName: "C", Distance: 2600}},
		},
		{
			name:    "color and distance",
			kind:    SensorColorDistance,
			payload: []byte{ColorRed, 2, 0, 0},
			want: []Event{
				ColorEvent{PortName: "C", Color: ColorRed},
				DistanceEvent{PortName: "C", Distance: 30},
				ColorAndDistanceEvent{PortName: "C", Color: ColorRed, Distance: 30},
			},
		},
		{
			name:    "color distance with partial",
			kind:    SensorColorDistance,
			payload: []byte{ColorBlue, 1, 0, 2},
			// floor(1.5 * 25.4) - 20
			want: []Event{
				ColorEvent{PortName: "C", Color: ColorBlue},
				DistanceEvent{PortName: "C", Distance: 18},
				ColorAndDistanceEvent{PortName: "C", Color: ColorBlue, Distance: 18},
			},
		},
		{
			name:    "color distance without valid color",
			kind:    SensorColorDistance,
			payload: []byte{ColorNone, 3, 0, 0},
			want:    []Event{DistanceEvent{PortName: "C", Distance: 56}},
		},
		{
			name:    "color",
			kind:    SensorColor,
			payload: []byte{ColorGreen},
			want:    []Event{ColorEvent{PortName: "C", Color: ColorGreen}},
		},
		{
			name:    "color out of range",
			kind:    SensorColor,
			payload: []byte{11},
			want:    nil,
		},
		{
			name:    "WeDo tilt high",
			kind:    SensorWeDoTilt,
			payload: []byte{170, 170},
			want:    []Event{TiltEvent{PortName: "C", X: -85, Y: 85}},
		},
		{
			name:    "WeDo tilt low",
			kind:    SensorWeDoTilt,
			payload: []byte{10, 10},
			want:    []Event{TiltEvent{PortName: "C", X: -10, Y: -10}},
		},
		{
			name:    "move hub tilt high",
			kind:    SensorMoveHubTilt,
			payload: []byte{170, 170},
			want:    []Event{TiltEvent{PortName: "C", X: -85, Y: 85}},
		},
		{
			name:    "move hub tilt low",
			kind:    SensorMoveHubTilt,
			payload: []byte{10, 10},
			want:    []Event{TiltEvent{PortName: "C", X: 10, Y: -10}},
		},
		{
			name:    "rotation negative",
			kind:    SensorRotation,
			payload: []byte{0xA6, 0xFF, 0xFF, 0xFF},
			want:    []Event{RotateEvent{PortName: "C", Degrees: -90}},
		},
		{
			name:    "rotation short payload padded",
			kind:    SensorRotation,
			payload: []byte{0x5A},
			want:    []Event{RotateEvent{PortName: "C", Degrees: 90}},
		},
		{
			name:    "remote up",
			kind:    SensorRemoteButton,
			payload: []byte{0x01},
			want:    []Event{ButtonEvent{Source: "C", State: ButtonUp}},
		},
		{
			name:    "remote down",
			kind:    SensorRemoteButton,
			payload: []byte{0xFF},
			want:    []Event{ButtonEvent{Source: "C", State: ButtonDown}},
		},
		{
			name:    "remote stop",
			kind:    SensorRemoteButton,
			payload: []byte{0x7F},
			want:    []Event{ButtonEvent{Source: "C", State: ButtonStop}},
		},
		{
			name:    "remote released",
			kind:    SensorRemoteButton,
			payload: []byte{0x00},
			want:    []Event{ButtonEvent{Source: "C", State: ButtonReleased}},
		},
		{
			name:    "remote unknown value",
			kind:    SensorRemoteButton,
			payload: []byte{0x42},
			want:    nil,
		},
		{
			name:    "speed",
			kind:    SensorSpeed,
			payload: []byte{0xF6, 0xFF},
			want:    []Event{SpeedEvent{PortName: "C", Speed: -10}},
		},
		{
			name:    "no decoder",
			kind:    SensorNone,
			payload: []byte{1, 2, 3},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSensor(tt.kind, "C", tt.payload)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeSensor = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeTelemetry(t *testing.T) {
	raw := []byte{0x00, 0x08} // 2048

	for _, profile := range []*Profile{HubProfile(), MoveHubProfile(), DuploTrainProfile()} {
		table := profile.Telemetry
		ev, ok := table.DecodeTelemetry(TelemetryIndexA, raw).(CurrentEvent)
		if !ok || math.Abs(ev.Current-50) > 1e-9 {
			t.Errorf("%s 0x3B = %#v, want current 50", profile.Name, ev)
		}
		if ev := table.DecodeTelemetry(TelemetryIndexB, raw); ev != (VoltageEvent{Percent: 50}) {
			t.Errorf("%s 0x3C = %#v, want voltage 50", profile.Name, ev)
		}
	}

	remote := RemoteProfile().Telemetry
	ev, ok := remote.DecodeTelemetry(TelemetryIndexA, raw).(CurrentEvent)
	if !ok || math.Abs(ev.Current-2.048) > 1e-9 {
		t.Errorf("remote 0x3B = %#v, want current 2.048", ev)
	}
	if ev := remote.DecodeTelemetry(TelemetryIndexB, raw); ev != (VoltageEvent{Percent: 50}) {
		t.Errorf("remote 0x3C = %#v, want voltage 50", ev)
	}

	if ev := HubProfile().Telemetry.DecodeTelemetry(0x00, raw); ev != nil {
		t.Errorf("non-telemetry index decoded as %#v", ev)
	}
}

func TestDecodeTelemetry_VoltageTruncates(t *testing.T) {
	table := HubProfile().Telemetry
	// 4095/4096*100 = 99.97
	ev := table.DecodeTelemetry(TelemetryIndexB, []byte{0xFF, 0x0F})
	if ev != (VoltageEvent{Percent: 99}) {
		t.Errorf("got %#v, want 99", ev)
	}
}
