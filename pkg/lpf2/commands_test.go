// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMapSpeed(t *testing.T) {
	tests := []struct {
		speed int
		want  byte
	}{
		{0, 0x00},
		{50, 0x32},
		{-50, 0xCE},
		{100, 0x64},
		{150, 0x64},
		{-100, 0x9C},
		{-150, 0x9C},
		{BrakeSpeed, 0x7F},
	}
	for _, tt := range tests {
		if got := MapSpeed(tt.speed); got != tt.want {
			t.Errorf("MapSpeed(%d) = 0x%02X, want 0x%02X", tt.speed, got, tt.want)
		}
	}
}

func TestNewMotorSpeedCommand(t *testing.T) {
	tests := []struct {
		name string
		enc  MotorEncoding
		want []byte
		err  error
	}{
		{
			name: "start power",
			enc:  MotorStartPower,
			want: []byte{0x0A, 0x00, 0x81, 0x01, 0x11, 0x01, 0xCE, 0x64, 0x7F, 0x03},
		},
		{
			name: "direct mode",
			enc:  MotorDirectMode,
			want: []byte{0x08, 0x00, 0x81, 0x01, 0x11, 0x51, 0x00, 0xCE},
		},
		{
			name: "unsupported",
			enc:  MotorNone,
			err:  ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMotorSpeedCommand(tt.enc, 0x01, -50)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % X, want % X", got, tt.want)
			}
		})
	}
}

func TestNewRotateByDegreesCommand(t *testing.T) {
	got := NewRotateByDegreesCommand(0x02, 360, 75)
	want := []byte{0x0E, 0x00, 0x81, 0x02, 0x11, 0x0B, 0x68, 0x01, 0x00, 0x00, 0x4B, 0x64, 0x7F, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestNewPortInputFormatCommand(t *testing.T) {
	got := NewPortInputFormatCommand(0x02, 0x08, 1, true)
	want := []byte{0x0A, 0x00, 0x41, 0x02, 0x08, 0x01, 0x00, 0x00, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestLEDAndSoundCommands(t *testing.T) {
	if got, want := NewLEDColorCommand(0x32, 0x00, ColorRed), []byte{0x08, 0x00, 0x81, 0x32, 0x11, 0x51, 0x00, 0x09}; !bytes.Equal(got, want) {
		t.Errorf("LED color = % X, want % X", got, want)
	}
	if got, want := NewLEDRGBCommand(0x32, 0x01, 1, 2, 3), []byte{0x0A, 0x00, 0x81, 0x32, 0x11, 0x51, 0x01, 0x01, 0x02, 0x03}; !bytes.Equal(got, want) {
		t.Errorf("LED RGB = % X, want % X", got, want)
	}
	if got, want := NewSoundCommand(0x01, 0x01, 0x03), []byte{0x08, 0x00, 0x81, 0x01, 0x11, 0x51, 0x01, 0x03}; !bytes.Equal(got, want) {
		t.Errorf("sound = % X, want % X", got, want)
	}
	if got, want := NewHubPropertyCommand(PropBatteryVoltage, PropOpEnableUpdates), []byte{0x05, 0x00, 0x01, 0x06, 0x02}; !bytes.Equal(got, want) {
		t.Errorf("property = % X, want % X", got, want)
	}
}

func TestNewSetNameCommand(t *testing.T) {
	got, err := NewSetNameCommand("Robot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x0A, 0x00, 0x01, 0x01, 0x01, 'R', 'o', 'b', 'o', 't'}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"single character", "A", true},
		{"max length", strings.Repeat("x", MaxNameLength), true},
		{"empty", "", false},
		{"too long", strings.Repeat("x", MaxNameLength+1), false},
		{"non-ASCII", "héllo", false},
		{"control character", "a\nb", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error = %v, want ErrInvalidName", err)
			}
		})
	}
}
