// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"encoding/binary"
	"math"
)

// Calibration constants for distance sensors. These are empirical and
// kept exactly as measured.
const (
	wedoDistanceExtend = 255
	wedoDistanceScale  = 10
	colorDistanceInch  = 25.4
	colorDistanceTrim  = 20
)

// Raw telemetry scaling
const (
	telemetryFullScale = 4096
	telemetryMilli     = 1000
)

// Payload lengths each decoder reads (after the port byte)
var sensorPayloadSize = map[SensorKind]int{
	SensorWeDoDistance:  2,
	SensorColorDistance: 4,
	SensorColor:         1,
	SensorWeDoTilt:      2,
	SensorMoveHubTilt:   2,
	SensorRotation:      4,
	SensorRemoteButton:  1,
	SensorSpeed:         2,
}

// DecodeSensor converts a port value payload (the bytes after the port index)
// into events for the given device kind. Short payloads are zero-padded.
// Returns nil when the reading carries nothing to report.
func DecodeSensor(kind SensorKind, port string, payload []byte) []Event {
	size, ok := sensorPayloadSize[kind]
	if !ok {
		return nil
	}
	data := pad(payload, size)

	switch kind {
	case SensorWeDoDistance:
		distance := int(data[0])
		if data[1] == 1 {
			distance += wedoDistanceExtend
		}
		return []Event{DistanceEvent{PortName: port, Distance: distance * wedoDistanceScale}}

	case SensorColorDistance:
		return decodeColorDistance(port, data)

	case SensorColor:
		if data[0] > MaxColor {
			return nil
		}
		return []Event{ColorEvent{PortName: port, Color: data[0]}}

	case SensorWeDoTilt:
		x, y := wedoTilt(data[0], data[1])
		return []Event{TiltEvent{PortName: port, X: x, Y: y}}

	case SensorMoveHubTilt:
		x, y := moveHubTilt(data[0], data[1])
		return []Event{TiltEvent{PortName: port, X: x, Y: y}}

	case SensorRotation:
		degrees := int32(binary.LittleEndian.Uint32(data[0:4]))
		return []Event{RotateEvent{PortName: port, Degrees: degrees}}

	case SensorRemoteButton:
		state, ok := remoteButtonState(data[0])
		if !ok {
			return nil
		}
		return []Event{ButtonEvent{Source: port, State: state}}

	case SensorSpeed:
		speed := int16(binary.LittleEndian.Uint16(data[0:2]))
		return []Event{SpeedEvent{PortName: port, Speed: speed}}
	}

	return nil
}

// decodeColorDistance handles the combined sensor: [color, distance, reflected, partial].
// The distance byte is in inches, refined by 1/partial when partial is set.
func decodeColorDistance(port string, data []byte) []Event {
	color := data[0]
	distance := float64(data[1])
	if partial := data[3]; partial > 0 {
		distance += 1.0 / float64(partial)
	}
	mm := int(math.Floor(distance*colorDistanceInch)) - colorDistanceTrim

	events := make([]Event, 0, 3)
	if color <= MaxColor {
		events = append(events, ColorEvent{PortName: port, Color: color})
	}
	events = append(events, DistanceEvent{PortName: port, Distance: mm})
	if color <= MaxColor {
		events = append(events, ColorAndDistanceEvent{PortName: port, Color: color, Distance: mm})
	}
	return events
}

// wedoTilt mirrors both axes
func wedoTilt(bx, by byte) (int, int) {
	x := -int(bx)
	if bx > 160 {
		x = int(bx) - 255
	}
	return x, tiltY(by)
}

// moveHubTilt leaves small X values unsigned
func moveHubTilt(bx, by byte) (int, int) {
	x := int(bx)
	if bx > 160 {
		x = int(bx) - 255
	}
	return x, tiltY(by)
}

func tiltY(by byte) int {
	if by > 160 {
		return 255 - int(by)
	}
	return -int(by)
}

func remoteButtonState(raw byte) (ButtonState, bool) {
	switch raw {
	case remoteButtonUp:
		return ButtonUp, true
	case remoteButtonDown:
		return ButtonDown, true
	case remoteButtonStop:
		return ButtonStop, true
	case remoteButtonReleased:
		return ButtonReleased, true
	default:
		return 0, false
	}
}

// IsTelemetryIndex reports whether index is one of the table's reserved indices
func (t TelemetryTable) IsTelemetryIndex(index uint8) bool {
	return index == t.VoltageIndex || index == t.CurrentIndex
}

// DecodeTelemetry converts a telemetry payload (little-endian uint16 after
// the index byte) into a voltage or current event. Returns nil when index
// is not a telemetry index of this table.
func (t TelemetryTable) DecodeTelemetry(index uint8, payload []byte) Event {
	data := pad(payload, 2)
	raw := float64(binary.LittleEndian.Uint16(data))

	switch index {
	case t.VoltageIndex:
		return VoltageEvent{Percent: int(raw / telemetryFullScale * 100)}
	case t.CurrentIndex:
		if t.CurrentScale == CurrentScaleMilli {
			return CurrentEvent{Current: raw / telemetryMilli}
		}
		return CurrentEvent{Current: raw / telemetryFullScale * 100}
	}
	return nil
}

func pad(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
