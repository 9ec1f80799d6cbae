// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

// Event is a decoded notification from the hub. The set of event types is
// closed; switch on the concrete type to read the payload.
type Event interface {
	// Port returns the logical port name, or "" for hub-level events
	Port() string
	event()
}

// AttachEvent reports a device attached to a port
type AttachEvent struct {
	PortName string
	Device   DeviceType
}

// DetachEvent reports a device removed from a port
type DetachEvent struct {
	PortName string
}

// ButtonEvent reports a hub or remote button transition.
// Source is the port name for remote buttons, or the profile's hub button name.
type ButtonEvent struct {
	Source string
	State  ButtonState
}

// DistanceEvent carries a distance reading in millimeters
type DistanceEvent struct {
	PortName string
	Distance int
}

// ColorEvent carries a color code (0-10)
type ColorEvent struct {
	PortName string
	Color    uint8
}

// ColorAndDistanceEvent is emitted by combined color/distance sensors
// when both readings are valid
type ColorAndDistanceEvent struct {
	PortName string
	Color    uint8
	Distance int
}

// TiltEvent carries signed tilt angles for both axes
type TiltEvent struct {
	PortName string
	X        int
	Y        int
}

// RotateEvent carries the absolute motor position in degrees
type RotateEvent struct {
	PortName string
	Degrees  int32
}

// SpeedEvent carries a signed speed reading
type SpeedEvent struct {
	PortName string
	Speed    int16
}

// VoltageEvent carries the hub battery voltage as a truncated percentage
type VoltageEvent struct {
	Percent int
}

// CurrentEvent carries the hub current draw, scaled per hub family
type CurrentEvent struct {
	Current float64
}

// BatteryEvent carries the battery level reported through hub properties
type BatteryEvent struct {
	Percent uint8
}

func (e AttachEvent) Port() string           { return e.PortName }
func (e DetachEvent) Port() string           { return e.PortName }
func (e ButtonEvent) Port() string           { return e.Source }
func (e DistanceEvent) Port() string         { return e.PortName }
func (e ColorEvent) Port() string            { return e.PortName }
func (e ColorAndDistanceEvent) Port() string { return e.PortName }
func (e TiltEvent) Port() string             { return e.PortName }
func (e RotateEvent) Port() string           { return e.PortName }
func (e SpeedEvent) Port() string            { return e.PortName }
func (e VoltageEvent) Port() string          { return "" }
func (e CurrentEvent) Port() string          { return "" }
func (e BatteryEvent) Port() string          { return "" }

func (AttachEvent) event()           {}
func (DetachEvent) event()           {}
func (ButtonEvent) event()           {}
func (DistanceEvent) event()         {}
func (ColorEvent) event()            {}
func (ColorAndDistanceEvent) event() {}
func (TiltEvent) event()             {}
func (RotateEvent) event()           {}
func (SpeedEvent) event()            {}
func (VoltageEvent) event()          {}
func (CurrentEvent) event()          {}
func (BatteryEvent) event()          {}

// Listener receives events from a Hub.
// Events are delivered outside the hub lock, so a listener may issue commands.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(Event)

// HandleEvent calls f(e)
func (f ListenerFunc) HandleEvent(e Event) {
	f(e)
}
