// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"encoding/binary"
	"fmt"
)

// Command builder functions return complete wire frames ready to write.
// Layout differences between hub models are selected by the Profile's Opcodes.

// MapSpeed converts a speed in percent to the signed wire byte.
// BrakeSpeed passes through; everything else is clamped to -100..100.
func MapSpeed(speed int) byte {
	if speed == BrakeSpeed {
		return BrakeSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	} else if speed < -MaxSpeed {
		speed = -MaxSpeed
	}
	return byte(int8(speed))
}

// NewMotorSpeedCommand sets a motor's speed using the model's encoding.
// Use speed=0 to stop the motor.
func NewMotorSpeedCommand(enc MotorEncoding, port uint8, speed int) ([]byte, error) {
	s := MapSpeed(speed)
	switch enc {
	case MotorStartPower:
		return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubStartPower,
			s, DefaultPower, EndStateHold, ProfileAccDecc), nil
	case MotorDirectMode:
		return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubWriteDirectMode,
			0x00, s), nil
	default:
		return nil, fmt.Errorf("motor speed: %w", ErrUnsupported)
	}
}

// NewRotateByDegreesCommand turns a tacho motor by a number of degrees.
// The hub acknowledges completion with a port output feedback frame.
func NewRotateByDegreesCommand(port uint8, degrees uint32, speed int) []byte {
	var deg [4]byte
	binary.LittleEndian.PutUint32(deg[:], degrees)
	return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubStartSpeedDegrees,
		deg[0], deg[1], deg[2], deg[3], MapSpeed(speed), DefaultPower, EndStateHold, ProfileAccDecc)
}

// NewPortInputFormatCommand selects a port's mode.
// With notify set, the hub reports a value whenever it changes by delta.
func NewPortInputFormatCommand(port, mode uint8, delta uint32, notify bool) []byte {
	var d [4]byte
	binary.LittleEndian.PutUint32(d[:], delta)
	n := byte(0x00)
	if notify {
		n = 0x01
	}
	return Encode(MsgPortInputFormat, port, mode, d[0], d[1], d[2], d[3], n)
}

// NewLEDColorCommand sets an LED to a color code (ColorBlack turns it off)
func NewLEDColorCommand(port, mode, color uint8) []byte {
	return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubWriteDirectMode, mode, color)
}

// NewLEDRGBCommand sets an LED to an RGB value. The LED port must be in RGB mode.
func NewLEDRGBCommand(port, mode, red, green, blue uint8) []byte {
	return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubWriteDirectMode, mode, red, green, blue)
}

// NewSoundCommand plays a built-in sound
func NewSoundCommand(port, mode, sound uint8) []byte {
	return Encode(MsgPortOutputCommand, port, StartupAndCompletion, SubWriteDirectMode, mode, sound)
}

// NewHubPropertyCommand performs an operation on a hub property
// (e.g. PropBatteryVoltage, PropOpEnableUpdates)
func NewHubPropertyCommand(property, operation uint8) []byte {
	return Encode(MsgHubProperties, property, operation)
}

// NewSetNameCommand renames the hub. Names must be 1-14 printable ASCII characters.
func NewSetNameCommand(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	body := make([]byte, 0, 3+len(name))
	body = append(body, MsgHubProperties, PropAdvertisingName, PropOpSet)
	body = append(body, name...)
	return Encode(body...), nil
}

// ValidateName checks a hub advertising name
func ValidateName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrInvalidName, len(name), MaxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7E {
			return fmt.Errorf("%w: non-ASCII byte 0x%02X at %d", ErrInvalidName, name[i], i)
		}
	}
	return nil
}
