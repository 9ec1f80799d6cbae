// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hubconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
)

func TestLoad_Overrides(t *testing.T) {
	src := `
family: boost
name: Crane
button: START
ports:
  - {name: LEFT, index: 0x00}
  - {name: ARM, index: 0x02}
devices:
  COLOR_DISTANCE_SENSOR: color
  "0x2E": rotation
modes:
  tacho_motor: 3
`
	profile, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if profile.Family != lpf2.FamilyMoveHub || profile.Name != "Crane" || profile.ButtonName != "START" {
		t.Errorf("header = %v %q %q", profile.Family, profile.Name, profile.ButtonName)
	}
	wantPorts := []lpf2.PortSpec{{Name: "LEFT", Index: 0x00}, {Name: "ARM", Index: 0x02}}
	if !reflect.DeepEqual(profile.Ports, wantPorts) {
		t.Errorf("ports = %+v", profile.Ports)
	}
	if profile.Devices[lpf2.DeviceColorDistance] != lpf2.SensorColor {
		t.Errorf("color distance decoder = %v", profile.Devices[lpf2.DeviceColorDistance])
	}
	if profile.Devices[lpf2.DeviceType(0x2E)] != lpf2.SensorRotation {
		t.Error("numeric device not added")
	}
	if profile.Devices[lpf2.DeviceWeDo2Tilt] != lpf2.SensorWeDoTilt {
		t.Error("default device entries should be kept")
	}
	if profile.Modes[lpf2.DeviceTachoMotor] != 3 {
		t.Errorf("tacho mode = %d", profile.Modes[lpf2.DeviceTachoMotor])
	}
	if !profile.Opcodes.RotateByAngle {
		t.Error("family opcodes should be kept")
	}

	// Built-in tables are not modified
	if lpf2.MoveHubProfile().Devices[lpf2.DeviceColorDistance] != lpf2.SensorColorDistance {
		t.Error("built-in profile modified")
	}
}

func TestLoad_TelemetryAndOpcodes(t *testing.T) {
	src := `
family: hub
telemetry:
  current_scale: milli
opcodes:
  motor: start_power
  rotate_by_angle: true
  led: {disabled: true}
  sound: {port: 0x01, mode: 0x02}
`
	profile, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := lpf2.TelemetryTable{
		CurrentIndex: lpf2.TelemetryIndexA,
		VoltageIndex: lpf2.TelemetryIndexB,
		CurrentScale: lpf2.CurrentScaleMilli,
	}
	if profile.Telemetry != want {
		t.Errorf("telemetry = %+v, want %+v", profile.Telemetry, want)
	}
	ev, ok := profile.Telemetry.DecodeTelemetry(lpf2.TelemetryIndexA, []byte{0x00, 0x08}).(lpf2.CurrentEvent)
	if !ok || ev.Current != 2.048 {
		t.Errorf("current at 0x3B = %#v, want 2.048", ev)
	}

	ops := profile.Opcodes
	if ops.Motor != lpf2.MotorStartPower || !ops.RotateByAngle {
		t.Errorf("motor = %v rotate = %v", ops.Motor, ops.RotateByAngle)
	}
	if ops.HasLED || ops.LEDPort != 0 {
		t.Errorf("led = %v port 0x%02X, want disabled", ops.HasLED, ops.LEDPort)
	}
	if !ops.HasSound || ops.SoundPort != 0x01 || ops.SoundMode != 0x02 {
		t.Errorf("sound = %v 0x%02X 0x%02X", ops.HasSound, ops.SoundPort, ops.SoundMode)
	}
}

func TestLoad_TelemetryIndices(t *testing.T) {
	src := "family: movehub\ntelemetry:\n  voltage_index: 0x3B\n  current_index: 0x3C\n"
	profile, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if profile.Telemetry.VoltageIndex != 0x3B || profile.Telemetry.CurrentIndex != 0x3C {
		t.Errorf("telemetry = %+v", profile.Telemetry)
	}
	if profile.Telemetry.CurrentScale != lpf2.CurrentScaleRatio {
		t.Errorf("scale = %v, want family default", profile.Telemetry.CurrentScale)
	}
}

func TestLoad_FamilyOnly(t *testing.T) {
	profile, err := Load(strings.NewReader("family: remote\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(profile, lpf2.RemoteProfile()) {
		t.Errorf("family-only profile differs from built-in: %+v", profile)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no family", "name: x\n"},
		{"unknown family", "family: spaceship\n"},
		{"unknown field", "family: hub\ncolour: red\n"},
		{"unknown device", "family: hub\ndevices:\n  WARP_DRIVE: rotation\n"},
		{"unknown sensor", "family: hub\ndevices:\n  TACHO_MOTOR: sonar\n"},
		{"duplicate port", "family: hub\nports:\n  - {name: A, index: 0}\n  - {name: A, index: 1}\n"},
		{"telemetry index", "family: hub\nports:\n  - {name: A, index: 0x3B}\n"},
		{"bad yaml", "family: [hub\n"},
		{"unknown scale", "family: hub\ntelemetry:\n  current_scale: amps\n"},
		{"shared telemetry index", "family: hub\ntelemetry:\n  voltage_index: 0x3B\n"},
		{"port on moved telemetry", "family: hub\ntelemetry:\n  voltage_index: 0x00\n"},
		{"unknown motor", "family: hub\nopcodes:\n  motor: steam\n"},
		{"unknown opcode field", "family: hub\nopcodes:\n  horn: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDumpLoadFile(t *testing.T) {
	for _, original := range []*lpf2.Profile{lpf2.DuploTrainProfile(), lpf2.RemoteProfile()} {
		t.Run(original.Family.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Dump(&buf, original); err != nil {
				t.Fatalf("Dump failed: %v", err)
			}

			path := filepath.Join(t.TempDir(), "profile.yaml")
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				t.Fatal(err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v\n%s", err, buf.String())
			}
			if !reflect.DeepEqual(loaded, original) {
				t.Errorf("loaded profile differs:\n%+v\n%+v", loaded, original)
			}
		})
	}
}

func TestDump_OverridesApplyToOtherFamily(t *testing.T) {
	// A remote dump relabelled as a hub must reproduce the remote's tables
	var buf bytes.Buffer
	if err := Dump(&buf, lpf2.RemoteProfile()); err != nil {
		t.Fatal(err)
	}
	src := strings.Replace(buf.String(), "family: remote", "family: hub", 1)
	loaded, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v\n%s", err, src)
	}
	want := lpf2.RemoteProfile()
	if loaded.Telemetry != want.Telemetry {
		t.Errorf("telemetry = %+v, want %+v", loaded.Telemetry, want.Telemetry)
	}
	if loaded.Opcodes != want.Opcodes {
		t.Errorf("opcodes = %+v, want %+v", loaded.Opcodes, want.Opcodes)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
