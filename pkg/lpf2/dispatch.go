// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import "encoding/binary"

// Outcome classifies what the dispatcher did with a frame
type Outcome int

const (
	OutcomeHandled Outcome = iota
	OutcomeUnknownType
	OutcomeUnknownPort
	OutcomeNoReading
)

// dispatch routes one complete frame. Called with the hub lock held.
// Unrecognized message types and unknown ports are ignored.
func (h *Hub) dispatch(f Frame) Outcome {
	switch f.Type() {
	case MsgHubProperties:
		return h.handleHubProperty(f)
	case MsgHubAttachedIO:
		return h.handleAttachedIO(f)
	case MsgPortValueSingle:
		return h.handlePortValue(f)
	case MsgPortOutputFeedback:
		return h.handleFeedback(f)
	default:
		return OutcomeUnknownType
	}
}

// handleHubProperty: [len, 0, 0x01, property, operation, value...]
func (h *Hub) handleHubProperty(f Frame) Outcome {
	data := f.PaddedPayload(2)
	if data[0] != PropOpUpdate {
		return OutcomeNoReading
	}

	switch f.Subject() {
	case PropButton:
		state := ButtonReleased
		if data[1] == 1 {
			state = ButtonPressed
		}
		h.emit(ButtonEvent{Source: h.profile.ButtonName, State: state})
	case PropBatteryVoltage:
		h.battery = data[1]
		h.hasBattery = true
		h.emit(BatteryEvent{Percent: data[1]})
	default:
		return OutcomeNoReading
	}
	return OutcomeHandled
}

// handleAttachedIO: [len, 0, 0x04, port, event, type lo, type hi, ...]
func (h *Hub) handleAttachedIO(f Frame) Outcome {
	data := f.PaddedPayload(3)
	device := DeviceType(binary.LittleEndian.Uint16(data[1:3]))
	if data[0] == IODetached {
		device = DeviceUnknown
	}

	ev := h.ports.OnAttach(f.Subject(), device)
	if ev == nil {
		return OutcomeUnknownPort
	}
	h.emit(ev)

	if attach, ok := ev.(AttachEvent); ok && h.autoSubscribe {
		if mode, ok := h.profile.Modes[attach.Device]; ok {
			h.writeQuiet(NewPortInputFormatCommand(f.Subject(), mode, 1, true))
		}
	}
	return OutcomeHandled
}

// handlePortValue: [len, 0, 0x45, port, value...]
// Telemetry indices are checked before the port table.
func (h *Hub) handlePortValue(f Frame) Outcome {
	index := f.Subject()
	payload := f.PaddedPayload(0)

	if h.profile.Telemetry.IsTelemetryIndex(index) {
		ev := h.profile.Telemetry.DecodeTelemetry(index, payload)
		switch e := ev.(type) {
		case VoltageEvent:
			h.voltage = e.Percent
			h.hasVoltage = true
		case CurrentEvent:
			h.current = e.Current
			h.hasCurrent = true
		}
		h.emit(ev)
		return OutcomeHandled
	}

	p := h.ports.LookupByIndex(index)
	if p == nil {
		return OutcomeUnknownPort
	}
	if !p.connected {
		return OutcomeNoReading
	}

	events := DecodeSensor(h.profile.Devices[p.device], p.name, payload)
	if len(events) == 0 {
		return OutcomeNoReading
	}
	for _, ev := range events {
		h.emit(ev)
	}
	return OutcomeHandled
}

// handleFeedback: [len, 0, 0x82, (port, feedback)...]
func (h *Hub) handleFeedback(f Frame) Outcome {
	pairs := f.Payload()
	outcome := OutcomeUnknownPort
	for i := 0; i+1 < len(pairs); i += 2 {
		if h.ports.LookupByIndex(pairs[i]) == nil {
			continue
		}
		outcome = OutcomeHandled
		if pairs[i+1]&(FeedbackCompleted|FeedbackDiscarded) != 0 {
			h.ports.OnAck(pairs[i])
		}
	}
	return outcome
}
