// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package lpf2 implements the protocol engine for LEGO Powered Up (LPF2) hubs.
//
// The hub speaks a length-prefixed binary protocol over a single byte stream
// (normally a BLE characteristic). This package frames and de-frames that
// stream, keeps per-port state for a connected hub, decodes sensor payloads
// into typed events, and encodes outbound motor, LED, sound and name
// commands. Per-model differences (port numbers, device families, telemetry
// indices, opcodes) are carried by a Profile rather than hard-coded.
package lpf2

// Frame layout
const (
	FrameHeaderSize = 3 // length, reserved, type
	MaxFrameSize    = 255
	ReservedByte    = 0x00
)

// Message types (byte 2 of every frame)
const (
	MsgHubProperties      = 0x01
	MsgHubAttachedIO      = 0x04
	MsgPortInputFormat    = 0x41
	MsgPortValueSingle    = 0x45
	MsgPortOutputCommand  = 0x81
	MsgPortOutputFeedback = 0x82
)

// Hub property references (byte 3 of a 0x01 frame)
const (
	PropAdvertisingName = 0x01
	PropButton          = 0x02
	PropBatteryVoltage  = 0x06
)

// Hub property operations (byte 4 of a 0x01 frame)
const (
	PropOpSet            = 0x01
	PropOpEnableUpdates  = 0x02
	PropOpDisableUpdates = 0x03
	PropOpRequestUpdate  = 0x05
	PropOpUpdate         = 0x06
)

// Attached I/O events (byte 4 of a 0x04 frame)
const (
	IODetached        = 0x00
	IOAttached        = 0x01
	IOAttachedVirtual = 0x02
)

// Port output subcommands
const (
	StartupAndCompletion = 0x11 // execute immediately, request feedback

	SubStartPower        = 0x01
	SubStartSpeedForTime = 0x09
	SubStartSpeedDegrees = 0x0B
	SubWriteDirectMode   = 0x51
)

// Port output feedback bits (byte 4 of a 0x82 frame)
const (
	FeedbackInProgress = 0x01
	FeedbackCompleted  = 0x02
	FeedbackDiscarded  = 0x04
	FeedbackIdle       = 0x08
)

// Motor command constants
const (
	BrakeSpeed     = 127
	MaxSpeed       = 100
	DefaultPower   = 0x64
	EndStateHold   = 0x7F
	ProfileAccDecc = 0x03
)

// MaxNameLength is the longest advertising name a hub accepts.
const MaxNameLength = 14

// Reserved port indices used for hub telemetry rather than attached devices
const (
	TelemetryIndexA = 0x3B
	TelemetryIndexB = 0x3C
)

// DeviceType is the device-type ID reported in an attach frame.
type DeviceType uint16

const (
	DeviceUnknown           DeviceType = 0x00
	DeviceBasicMotor        DeviceType = 0x01
	DeviceTrainMotor        DeviceType = 0x02
	DeviceLEDLights         DeviceType = 0x08
	DeviceRGBLight          DeviceType = 0x17
	DeviceWeDo2Tilt         DeviceType = 0x22
	DeviceWeDo2Distance     DeviceType = 0x23
	DeviceColorDistance     DeviceType = 0x25
	DeviceTachoMotor        DeviceType = 0x26
	DeviceMoveHubMotor      DeviceType = 0x27
	DeviceMoveHubTilt       DeviceType = 0x28
	DeviceDuploTrainMotor   DeviceType = 0x29
	DeviceDuploTrainSpeaker DeviceType = 0x2A
	DeviceDuploTrainColor   DeviceType = 0x2B
	DeviceDuploTrainSpeed   DeviceType = 0x2C
	DeviceRemoteButton      DeviceType = 0x37
	DeviceVoltageSensor     DeviceType = 0x14
	DeviceCurrentSensor     DeviceType = 0x15
	DevicePiezoTone         DeviceType = 0x16
)

// Color codes used by the hub LED and color sensors
const (
	ColorBlack     = 0
	ColorPink      = 1
	ColorPurple    = 2
	ColorBlue      = 3
	ColorLightBlue = 4
	ColorCyan      = 5
	ColorGreen     = 6
	ColorYellow    = 7
	ColorOrange    = 8
	ColorRed       = 9
	ColorWhite     = 10
	ColorNone      = 255
)

// MaxColor is the highest color code a sensor reports as a real reading.
const MaxColor = ColorWhite

// ButtonState is the transition reported by a hub or remote button.
type ButtonState uint8

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
	ButtonUp
	ButtonDown
	ButtonStop
)

// Raw remote button values
const (
	remoteButtonUp       = 0x01
	remoteButtonDown     = 0xFF
	remoteButtonStop     = 0x7F
	remoteButtonReleased = 0x00
)

// String returns the button state name
func (s ButtonState) String() string {
	switch s {
	case ButtonReleased:
		return "RELEASED"
	case ButtonPressed:
		return "PRESSED"
	case ButtonUp:
		return "UP"
	case ButtonDown:
		return "DOWN"
	case ButtonStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}
