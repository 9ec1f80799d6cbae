// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"fmt"
	"strings"
)

// Family identifies a hub model family
type Family int

const (
	FamilyMoveHub Family = iota
	FamilyHub
	FamilyRemote
	FamilyDuploTrain
)

// String returns the canonical family name
func (f Family) String() string {
	switch f {
	case FamilyMoveHub:
		return "movehub"
	case FamilyHub:
		return "hub"
	case FamilyRemote:
		return "remote"
	case FamilyDuploTrain:
		return "duplo"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily parses a family name as accepted on the command line
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "movehub", "boost", "move_hub":
		return FamilyMoveHub, nil
	case "hub", "pup", "powered_up":
		return FamilyHub, nil
	case "remote", "handset":
		return FamilyRemote, nil
	case "duplo", "duplo_train", "train":
		return FamilyDuploTrain, nil
	default:
		return 0, fmt.Errorf("unknown hub family: %q", name)
	}
}

// SensorKind selects the payload decoder for a device type
type SensorKind int

const (
	SensorNone SensorKind = iota
	SensorWeDoDistance
	SensorColorDistance
	SensorColor
	SensorWeDoTilt
	SensorMoveHubTilt
	SensorRotation
	SensorRemoteButton
	SensorSpeed
)

var sensorKindNames = map[SensorKind]string{
	SensorNone:          "none",
	SensorWeDoDistance:  "wedo_distance",
	SensorColorDistance: "color_distance",
	SensorColor:         "color",
	SensorWeDoTilt:      "wedo_tilt",
	SensorMoveHubTilt:   "movehub_tilt",
	SensorRotation:      "rotation",
	SensorRemoteButton:  "remote_button",
	SensorSpeed:         "speed",
}

// String returns the decoder name used in profile files
func (k SensorKind) String() string {
	if name, ok := sensorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("sensor(%d)", int(k))
}

// ParseSensorKind parses a decoder name
func ParseSensorKind(name string) (SensorKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range sensorKindNames {
		if n == name {
			return k, nil
		}
	}
	return SensorNone, fmt.Errorf("unknown sensor kind: %q", name)
}

// CurrentScale selects how raw current telemetry is scaled
type CurrentScale int

const (
	// CurrentScaleRatio reports (raw/4096)*100
	CurrentScaleRatio CurrentScale = iota
	// CurrentScaleMilli reports raw/1000
	CurrentScaleMilli
)

// String returns the scale name used in profile files
func (c CurrentScale) String() string {
	switch c {
	case CurrentScaleRatio:
		return "ratio"
	case CurrentScaleMilli:
		return "milli"
	default:
		return fmt.Sprintf("scale(%d)", int(c))
	}
}

// ParseCurrentScale parses a current scale name
func ParseCurrentScale(name string) (CurrentScale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ratio":
		return CurrentScaleRatio, nil
	case "milli":
		return CurrentScaleMilli, nil
	default:
		return 0, fmt.Errorf("unknown current scale: %q", name)
	}
}

// TelemetryTable maps the reserved telemetry indices to their meaning.
// Current arrives on 0x3B and voltage on 0x3C; the remote family reports
// current in raw/1000 where every other hub reports (raw/4096)*100.
type TelemetryTable struct {
	VoltageIndex uint8
	CurrentIndex uint8
	CurrentScale CurrentScale
}

// MotorEncoding selects the command layout used for motor speed
type MotorEncoding int

const (
	MotorNone MotorEncoding = iota
	// MotorStartPower: [0x81, port, 0x11, 0x01, speed, power, end state, profile]
	MotorStartPower
	// MotorDirectMode: [0x81, port, 0x11, 0x51, 0x00, speed]
	MotorDirectMode
)

var motorEncodingNames = map[MotorEncoding]string{
	MotorNone:       "none",
	MotorStartPower: "start_power",
	MotorDirectMode: "direct_mode",
}

// String returns the encoding name used in profile files
func (m MotorEncoding) String() string {
	if name, ok := motorEncodingNames[m]; ok {
		return name
	}
	return fmt.Sprintf("motor(%d)", int(m))
}

// ParseMotorEncoding parses a motor encoding name
func ParseMotorEncoding(name string) (MotorEncoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range motorEncodingNames {
		if n == name {
			return m, nil
		}
	}
	return MotorNone, fmt.Errorf("unknown motor encoding: %q", name)
}

// Opcodes carries the per-model command layout
type Opcodes struct {
	Motor         MotorEncoding
	RotateByAngle bool

	HasLED       bool
	LEDPort      uint8
	LEDColorMode uint8
	LEDRGBMode   uint8

	HasSound  bool
	SoundPort uint8
	SoundMode uint8
}

// PortSpec names one port of a hub model
type PortSpec struct {
	Name  string
	Index uint8
}

// Profile is the configuration table for one hub model.
// It is supplied at connection time and never mutated by the engine.
type Profile struct {
	Family     Family
	Name       string
	ButtonName string
	Ports      []PortSpec
	Devices    map[DeviceType]SensorKind
	Modes      map[DeviceType]uint8
	Telemetry  TelemetryTable
	Opcodes    Opcodes
}

// Clone returns a deep copy that can be modified independently
func (p *Profile) Clone() *Profile {
	c := *p
	c.Ports = append([]PortSpec(nil), p.Ports...)
	c.Devices = make(map[DeviceType]SensorKind, len(p.Devices))
	for k, v := range p.Devices {
		c.Devices[k] = v
	}
	c.Modes = make(map[DeviceType]uint8, len(p.Modes))
	for k, v := range p.Modes {
		c.Modes[k] = v
	}
	return &c
}

// Validate checks the table for duplicate names or indices
func (p *Profile) Validate() error {
	if p.Telemetry.VoltageIndex == p.Telemetry.CurrentIndex {
		return fmt.Errorf("profile %s: voltage and current share telemetry index 0x%02X", p.Name, p.Telemetry.VoltageIndex)
	}
	names := make(map[string]bool, len(p.Ports))
	indices := make(map[uint8]string, len(p.Ports))
	for _, spec := range p.Ports {
		if spec.Name == "" {
			return fmt.Errorf("profile %s: port with empty name at index 0x%02X", p.Name, spec.Index)
		}
		if names[spec.Name] {
			return fmt.Errorf("profile %s: duplicate port name %q", p.Name, spec.Name)
		}
		if other, ok := indices[spec.Index]; ok {
			return fmt.Errorf("profile %s: ports %q and %q share index 0x%02X", p.Name, other, spec.Name, spec.Index)
		}
		if spec.Index == p.Telemetry.VoltageIndex || spec.Index == p.Telemetry.CurrentIndex {
			return fmt.Errorf("profile %s: port %q uses reserved telemetry index 0x%02X", p.Name, spec.Name, spec.Index)
		}
		names[spec.Name] = true
		indices[spec.Index] = spec.Name
	}
	return nil
}

// ProfileForFamily returns a fresh copy of the built-in profile for a family
func ProfileForFamily(f Family) (*Profile, error) {
	switch f {
	case FamilyMoveHub:
		return MoveHubProfile(), nil
	case FamilyHub:
		return HubProfile(), nil
	case FamilyRemote:
		return RemoteProfile(), nil
	case FamilyDuploTrain:
		return DuploTrainProfile(), nil
	default:
		return nil, fmt.Errorf("no built-in profile for %s", f)
	}
}

var defaultTelemetry = TelemetryTable{
	CurrentIndex: TelemetryIndexA,
	VoltageIndex: TelemetryIndexB,
	CurrentScale: CurrentScaleRatio,
}

func defaultDevices() map[DeviceType]SensorKind {
	return map[DeviceType]SensorKind{
		DeviceWeDo2Distance:   SensorWeDoDistance,
		DeviceColorDistance:   SensorColorDistance,
		DeviceDuploTrainColor: SensorColor,
		DeviceWeDo2Tilt:       SensorWeDoTilt,
		DeviceMoveHubTilt:     SensorMoveHubTilt,
		DeviceTachoMotor:      SensorRotation,
		DeviceMoveHubMotor:    SensorRotation,
		DeviceRemoteButton:    SensorRemoteButton,
		DeviceDuploTrainSpeed: SensorSpeed,
	}
}

func defaultModes() map[DeviceType]uint8 {
	return map[DeviceType]uint8{
		DeviceWeDo2Distance:   0x00,
		DeviceColorDistance:   0x08,
		DeviceDuploTrainColor: 0x00,
		DeviceWeDo2Tilt:       0x00,
		DeviceMoveHubTilt:     0x00,
		DeviceTachoMotor:      0x02,
		DeviceMoveHubMotor:    0x02,
		DeviceRemoteButton:    0x00,
		DeviceDuploTrainSpeed: 0x01,
	}
}

// MoveHubProfile returns the BOOST Move Hub table
func MoveHubProfile() *Profile {
	return &Profile{
		Family:     FamilyMoveHub,
		Name:       "Move Hub",
		ButtonName: "GREEN",
		Ports: []PortSpec{
			{Name: "A", Index: 0x00},
			{Name: "B", Index: 0x01},
			{Name: "C", Index: 0x02},
			{Name: "D", Index: 0x03},
			{Name: "AB", Index: 0x10},
			{Name: "HUB_LED", Index: 0x32},
			{Name: "TILT", Index: 0x3A},
		},
		Devices:   defaultDevices(),
		Modes:     defaultModes(),
		Telemetry: defaultTelemetry,
		Opcodes: Opcodes{
			Motor:         MotorStartPower,
			RotateByAngle: true,
			HasLED:        true,
			LEDPort:       0x32,
			LEDColorMode:  0x00,
			LEDRGBMode:    0x01,
		},
	}
}

// HubProfile returns the Powered Up Hub (two-port city hub) table
func HubProfile() *Profile {
	return &Profile{
		Family:     FamilyHub,
		Name:       "Powered Up Hub",
		ButtonName: "GREEN",
		Ports: []PortSpec{
			{Name: "A", Index: 0x00},
			{Name: "B", Index: 0x01},
			{Name: "AB", Index: 0x10},
			{Name: "HUB_LED", Index: 0x32},
		},
		Devices:   defaultDevices(),
		Modes:     defaultModes(),
		Telemetry: defaultTelemetry,
		Opcodes: Opcodes{
			Motor:        MotorDirectMode,
			HasLED:       true,
			LEDPort:      0x32,
			LEDColorMode: 0x00,
			LEDRGBMode:   0x01,
		},
	}
}

// RemoteProfile returns the Powered Up Remote Control table.
// Its current telemetry is reported in raw/1000.
func RemoteProfile() *Profile {
	return &Profile{
		Family:     FamilyRemote,
		Name:       "Powered Up Remote",
		ButtonName: "GREEN",
		Ports: []PortSpec{
			{Name: "LEFT", Index: 0x00},
			{Name: "RIGHT", Index: 0x01},
			{Name: "HUB_LED", Index: 0x34},
		},
		Devices: defaultDevices(),
		Modes:   defaultModes(),
		Telemetry: TelemetryTable{
			CurrentIndex: TelemetryIndexA,
			VoltageIndex: TelemetryIndexB,
			CurrentScale: CurrentScaleMilli,
		},
		Opcodes: Opcodes{
			Motor:        MotorNone,
			HasLED:       true,
			LEDPort:      0x34,
			LEDColorMode: 0x00,
			LEDRGBMode:   0x01,
		},
	}
}

// DuploTrainProfile returns the DUPLO Train Base table
func DuploTrainProfile() *Profile {
	return &Profile{
		Family:     FamilyDuploTrain,
		Name:       "Duplo Train Base",
		ButtonName: "BUTTON",
		Ports: []PortSpec{
			{Name: "MOTOR", Index: 0x00},
			{Name: "SPEAKER", Index: 0x01},
			{Name: "HUB_LED", Index: 0x11},
			{Name: "COLOR", Index: 0x12},
			{Name: "SPEEDOMETER", Index: 0x13},
		},
		Devices:   defaultDevices(),
		Modes:     defaultModes(),
		Telemetry: defaultTelemetry,
		Opcodes: Opcodes{
			Motor:        MotorDirectMode,
			HasLED:       true,
			LEDPort:      0x11,
			LEDColorMode: 0x00,
			LEDRGBMode:   0x01,
			HasSound:     true,
			SoundPort:    0x01,
			SoundMode:    0x01,
		},
	}
}
