// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
)

// fakeController records every call as a string
type fakeController struct {
	calls []string
	ports []lpf2.PortState
	err   error
	done  chan error
}

func newFakeController() *fakeController {
	return &fakeController{done: make(chan error, 1)}
}

func (f *fakeController) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeController) SetMotorSpeed(port string, speed int) error {
	f.record("speed %s %d", port, speed)
	return f.err
}

func (f *fakeController) SetMotorSpeedFor(port string, speed int, d time.Duration) (<-chan error, error) {
	f.record("speedfor %s %d %s", port, speed, d)
	return f.done, f.err
}

func (f *fakeController) RampMotorSpeed(port string, from, to int, d time.Duration) (<-chan error, error) {
	f.record("ramp %s %d %d %s", port, from, to, d)
	return f.done, f.err
}

func (f *fakeController) RotateByAngle(port string, degrees int, speed int) (<-chan error, error) {
	f.record("rotate %s %d %d", port, degrees, speed)
	return f.done, f.err
}

func (f *fakeController) SetLEDColor(color uint8) error {
	f.record("led %d", color)
	return f.err
}

func (f *fakeController) SetLEDRGB(red, green, blue uint8) error {
	f.record("rgb %d %d %d", red, green, blue)
	return f.err
}

func (f *fakeController) PlaySound(sound uint8) error {
	f.record("sound %d", sound)
	return f.err
}

func (f *fakeController) SetName(name string) error {
	f.record("name %s", name)
	return f.err
}

func (f *fakeController) RequestBatteryUpdates() error {
	f.record("battery")
	return f.err
}

func (f *fakeController) Ports() []lpf2.PortState {
	return f.ports
}

func TestRunConsoleCommand(t *testing.T) {
	tests := []struct {
		line     string
		calls    []string
		wantDone bool
	}{
		{"motor A 50", []string{"speed A 50"}, false},
		{"m B -100", []string{"speed B -100"}, false},
		{"motor A 50 500", []string{"speedfor A 50 500ms"}, true},
		{"motor A 50 1.5s", []string{"speedfor A 50 1.5s"}, true},
		{"ramp A 0 100 1s", []string{"ramp A 0 100 1s"}, true},
		{"rotate C 90", []string{"rotate C 90 50"}, true},
		{"rotate C -180 30", []string{"rotate C -180 30"}, true},
		{"led red", []string{"led 9"}, false},
		{"led light blue", []string{"led 4"}, false},
		{"rgb 255 0 0x10", []string{"rgb 255 0 16"}, false},
		{"sound 3", []string{"sound 3"}, false},
		{"name My Hub", []string{"name My Hub"}, false},
		{"battery", []string{"battery"}, false},
		{"stop A B", []string{"speed A 0", "speed B 0"}, false},
		{"MOTOR A 10", []string{"speed A 10"}, false},
		{"   ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFakeController()
			res, err := runConsoleCommand(f, tt.line)
			if err != nil {
				t.Fatalf("runConsoleCommand(%q) error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(f.calls, tt.calls) {
				t.Errorf("calls = %v, want %v", f.calls, tt.calls)
			}
			if (res.Done != nil) != tt.wantDone {
				t.Errorf("Done set = %v, want %v", res.Done != nil, tt.wantDone)
			}
			if len(tt.calls) > 0 && res.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestRunConsoleCommandStopAll(t *testing.T) {
	f := newFakeController()
	f.ports = []lpf2.PortState{
		{Name: "A", Connected: true},
		{Name: "B"},
		{Name: "C", Connected: true},
	}

	if _, err := runConsoleCommand(f, "stop"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := []string{"speed A 0", "speed C 0"}
	if !reflect.DeepEqual(f.calls, want) {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}
}

func TestRunConsoleCommandErrors(t *testing.T) {
	tests := []struct {
		line      string
		wantUsage bool
	}{
		{"motor", true},
		{"motor A", true},
		{"motor A fast", false},
		{"motor A 101", false},
		{"motor A 50 soon", false},
		{"motor A 50 -5", false},
		{"ramp A 0 100", true},
		{"rotate A", true},
		{"rotate A ninety", false},
		{"led", true},
		{"led mauve", false},
		{"rgb 1 2", true},
		{"rgb 1 2 256", false},
		{"sound", true},
		{"sound loud", false},
		{"name", true},
		{"fly away", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFakeController()
			_, err := runConsoleCommand(f, tt.line)
			if err == nil {
				t.Fatalf("runConsoleCommand(%q) should fail", tt.line)
			}
			if got := errors.Is(err, errUsage); got != tt.wantUsage {
				t.Errorf("usage error = %v, want %v (%v)", got, tt.wantUsage, err)
			}
			if len(f.calls) != 0 {
				t.Errorf("no hub call expected, got %v", f.calls)
			}
		})
	}
}

func TestRunConsoleCommandHubError(t *testing.T) {
	f := newFakeController()
	f.err = lpf2.ErrUnsupported

	_, err := runConsoleCommand(f, "sound 1")
	if !errors.Is(err, lpf2.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	f.ports = []lpf2.PortState{{Name: "A", Connected: true}}
	_, err = runConsoleCommand(f, "stop")
	if !errors.Is(err, lpf2.ErrUnsupported) {
		t.Errorf("stop should wrap hub error, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "A:") {
		t.Errorf("stop error should name the port: %v", err)
	}
}

func TestRunConsoleCommandHelp(t *testing.T) {
	res, err := runConsoleCommand(newFakeController(), "help")
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []string{"motor", "ramp", "rotate", "stop", "led", "rgb", "sound", "name", "battery"} {
		if !strings.Contains(res.Message, cmd) {
			t.Errorf("help missing %q", cmd)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"250", 250 * time.Millisecond, true},
		{"0", 0, true},
		{"2s", 2 * time.Second, true},
		{"1m", time.Minute, true},
		{"-1", 0, false},
		{"-1s", 0, false},
		{"later", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseDuration(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute and 1 second"},
		{2 * time.Hour, "2 hours"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1 hour, 2 minutes, and 3 seconds"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
