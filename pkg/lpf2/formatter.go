// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f Frame, timestamp time.Time) string {
	msgType := FormatMessageType(f.Type())
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp.Format("15:04:05.000"), msgType, f.Type(), f.Length())
	return result + FormatPayload(f)
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgHubProperties:
		return "HUB_PROPERTIES"
	case MsgHubAttachedIO:
		return "HUB_ATTACHED_IO"
	case MsgPortInputFormat:
		return "PORT_INPUT_FORMAT"
	case MsgPortValueSingle:
		return "PORT_VALUE_SINGLE"
	case MsgPortOutputCommand:
		return "PORT_OUTPUT_COMMAND"
	case MsgPortOutputFeedback:
		return "PORT_OUTPUT_FEEDBACK"
	default:
		return "UNKNOWN"
	}
}

// FormatPayload formats the frame body based on message type
func FormatPayload(f Frame) string {
	switch f.Type() {
	case MsgHubProperties:
		data := f.PaddedPayload(2)
		return fmt.Sprintf("  Property: %s (0x%02X), Operation: %d, Value: % X\n",
			formatProperty(f.Subject()), f.Subject(), data[0], data[1:])

	case MsgHubAttachedIO:
		data := f.PaddedPayload(3)
		if data[0] == IODetached {
			return fmt.Sprintf("  Port: 0x%02X, Detached\n", f.Subject())
		}
		device := DeviceType(binary.LittleEndian.Uint16(data[1:3]))
		kind := "Attached"
		if data[0] == IOAttachedVirtual {
			kind = "Attached (virtual)"
		}
		return fmt.Sprintf("  Port: 0x%02X, %s: %s (0x%04X)\n", f.Subject(), kind, device, uint16(device))

	case MsgPortInputFormat:
		data := f.PaddedPayload(6)
		delta := binary.LittleEndian.Uint32(data[1:5])
		return fmt.Sprintf("  Port: 0x%02X, Mode: %d, Delta: %d, Notify: %t\n", f.Subject(), data[0], delta, data[5] != 0)

	case MsgPortValueSingle:
		return fmt.Sprintf("  Port: 0x%02X, Value: % X\n", f.Subject(), f.PaddedPayload(0))

	case MsgPortOutputCommand:
		data := f.PaddedPayload(2)
		return fmt.Sprintf("  Port: 0x%02X, Sub-command: 0x%02X, Args: % X\n", f.Subject(), data[1], data[2:])

	case MsgPortOutputFeedback:
		pairs := f.Payload()
		var b strings.Builder
		for i := 0; i+1 < len(pairs); i += 2 {
			fmt.Fprintf(&b, "  Port: 0x%02X, Feedback: %s\n", pairs[i], formatFeedback(pairs[i+1]))
		}
		return b.String()

	default:
		return fmt.Sprintf("  Raw: % X\n", f.Payload())
	}
}

// FormatEvent returns a one-line description of an event
func FormatEvent(ev Event) string {
	switch e := ev.(type) {
	case AttachEvent:
		return fmt.Sprintf("%s: attached %s", e.PortName, e.Device)
	case DetachEvent:
		return fmt.Sprintf("%s: detached", e.PortName)
	case ButtonEvent:
		return fmt.Sprintf("%s: button %s", e.Source, e.State)
	case DistanceEvent:
		return fmt.Sprintf("%s: distance %d mm", e.PortName, e.Distance)
	case ColorEvent:
		return fmt.Sprintf("%s: color %s", e.PortName, ColorName(e.Color))
	case ColorAndDistanceEvent:
		return fmt.Sprintf("%s: color %s, distance %d mm", e.PortName, ColorName(e.Color), e.Distance)
	case TiltEvent:
		return fmt.Sprintf("%s: tilt x=%d y=%d", e.PortName, e.X, e.Y)
	case RotateEvent:
		return fmt.Sprintf("%s: rotation %d°", e.PortName, e.Degrees)
	case SpeedEvent:
		return fmt.Sprintf("%s: speed %d", e.PortName, e.Speed)
	case VoltageEvent:
		return fmt.Sprintf("hub: voltage %d%%", e.Percent)
	case CurrentEvent:
		return fmt.Sprintf("hub: current %.2f", e.Current)
	case BatteryEvent:
		return fmt.Sprintf("hub: battery %d%%", e.Percent)
	default:
		return fmt.Sprintf("%T", ev)
	}
}

// String returns the device name
func (d DeviceType) String() string {
	switch d {
	case DeviceUnknown:
		return "UNKNOWN"
	case DeviceBasicMotor:
		return "BASIC_MOTOR"
	case DeviceTrainMotor:
		return "TRAIN_MOTOR"
	case DeviceLEDLights:
		return "LED_LIGHTS"
	case DeviceVoltageSensor:
		return "VOLTAGE"
	case DeviceCurrentSensor:
		return "CURRENT"
	case DevicePiezoTone:
		return "PIEZO_TONE"
	case DeviceRGBLight:
		return "RGB_LIGHT"
	case DeviceWeDo2Tilt:
		return "WEDO2_TILT"
	case DeviceWeDo2Distance:
		return "WEDO2_DISTANCE"
	case DeviceColorDistance:
		return "COLOR_DISTANCE_SENSOR"
	case DeviceTachoMotor:
		return "TACHO_MOTOR"
	case DeviceMoveHubMotor:
		return "MOVE_HUB_MOTOR"
	case DeviceMoveHubTilt:
		return "MOVE_HUB_TILT"
	case DeviceDuploTrainMotor:
		return "DUPLO_TRAIN_MOTOR"
	case DeviceDuploTrainSpeaker:
		return "DUPLO_TRAIN_SPEAKER"
	case DeviceDuploTrainColor:
		return "DUPLO_TRAIN_COLOR"
	case DeviceDuploTrainSpeed:
		return "DUPLO_TRAIN_SPEEDOMETER"
	case DeviceRemoteButton:
		return "REMOTE_BUTTON"
	default:
		return fmt.Sprintf("DEVICE_0x%04X", uint16(d))
	}
}

var knownDevices = []DeviceType{
	DeviceBasicMotor, DeviceTrainMotor, DeviceLEDLights, DeviceVoltageSensor,
	DeviceCurrentSensor, DevicePiezoTone, DeviceRGBLight, DeviceWeDo2Tilt,
	DeviceWeDo2Distance, DeviceColorDistance, DeviceTachoMotor, DeviceMoveHubMotor,
	DeviceMoveHubTilt, DeviceDuploTrainMotor, DeviceDuploTrainSpeaker,
	DeviceDuploTrainColor, DeviceDuploTrainSpeed, DeviceRemoteButton,
}

// ParseDeviceType accepts a device name (as printed by String) or a
// numeric type ID such as "0x26"
func ParseDeviceType(s string) (DeviceType, error) {
	s = strings.TrimSpace(s)
	for _, d := range knownDevices {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil || n == 0 {
		return DeviceUnknown, fmt.Errorf("unknown device type %q", s)
	}
	return DeviceType(n), nil
}

var colorNames = [...]string{
	ColorBlack:     "black",
	ColorPink:      "pink",
	ColorPurple:    "purple",
	ColorBlue:      "blue",
	ColorLightBlue: "light blue",
	ColorCyan:      "cyan",
	ColorGreen:     "green",
	ColorYellow:    "yellow",
	ColorOrange:    "orange",
	ColorRed:       "red",
	ColorWhite:     "white",
}

// ColorName returns the name of a color code
func ColorName(color uint8) string {
	if int(color) < len(colorNames) {
		return colorNames[color]
	}
	if color == ColorNone {
		return "none"
	}
	return fmt.Sprintf("color %d", color)
}

// ParseColor accepts a color name or a numeric code
func ParseColor(s string) (uint8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range colorNames {
		if s == name || s == strings.ReplaceAll(name, " ", "") || s == strings.ReplaceAll(name, " ", "_") {
			return uint8(i), nil
		}
	}
	if s == "off" || s == "none" {
		return ColorBlack, nil
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && n <= MaxColor {
		return uint8(n), nil
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

func formatProperty(prop uint8) string {
	switch prop {
	case PropAdvertisingName:
		return "ADVERTISING_NAME"
	case PropButton:
		return "BUTTON"
	case PropBatteryVoltage:
		return "BATTERY_VOLTAGE"
	default:
		return "UNKNOWN"
	}
}

func formatFeedback(fb uint8) string {
	var parts []string
	if fb&FeedbackInProgress != 0 {
		parts = append(parts, "in progress")
	}
	if fb&FeedbackCompleted != 0 {
		parts = append(parts, "completed")
	}
	if fb&FeedbackDiscarded != 0 {
		parts = append(parts, "discarded")
	}
	if fb&FeedbackIdle != 0 {
		parts = append(parts, "idle")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("0x%02X", fb)
	}
	return strings.Join(parts, ", ")
}
