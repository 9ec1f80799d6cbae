// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hubconfig loads hub model tables from YAML files.
//
// A file names a built-in family and overrides parts of its table:
//
//	family: movehub
//	name: Crane
//	ports:
//	  - {name: A, index: 0x00}
//	  - {name: ARM, index: 0x02}
//	devices:
//	  COLOR_DISTANCE_SENSOR: color_distance
//	  "0x2E": rotation
//	modes:
//	  TACHO_MOTOR: 2
//	telemetry:
//	  current_index: 0x3B
//	  voltage_index: 0x3C
//	  current_scale: milli
//	opcodes:
//	  motor: direct_mode
//	  rotate_by_angle: false
//	  led: {port: 0x32, color_mode: 0, rgb_mode: 1}
//	  sound: {disabled: true}
//
// Sections left out keep the family defaults. A ports list replaces the
// family's ports; devices and modes entries are merged. Telemetry and
// opcode fields replace only the values they set.
package hubconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk profile layout
type File struct {
	Family     string            `yaml:"family"`
	Name       string            `yaml:"name,omitempty"`
	ButtonName string            `yaml:"button,omitempty"`
	Ports      []Port            `yaml:"ports,omitempty"`
	Devices    map[string]string `yaml:"devices,omitempty"`
	Modes      map[string]uint8  `yaml:"modes,omitempty"`
	Telemetry  *Telemetry        `yaml:"telemetry,omitempty"`
	Opcodes    *Opcodes          `yaml:"opcodes,omitempty"`
}

// Telemetry overrides the reserved voltage and current indices
type Telemetry struct {
	VoltageIndex *uint8 `yaml:"voltage_index,omitempty"`
	CurrentIndex *uint8 `yaml:"current_index,omitempty"`
	CurrentScale string `yaml:"current_scale,omitempty"`
}

// Opcodes overrides the command layout of the family
type Opcodes struct {
	Motor         string `yaml:"motor,omitempty"`
	RotateByAngle *bool  `yaml:"rotate_by_angle,omitempty"`
	LED           *LED   `yaml:"led,omitempty"`
	Sound         *Sound `yaml:"sound,omitempty"`
}

// LED locates the hub status light
type LED struct {
	Port      uint8 `yaml:"port"`
	ColorMode uint8 `yaml:"color_mode"`
	RGBMode   uint8 `yaml:"rgb_mode"`
	Disabled  bool  `yaml:"disabled,omitempty"`
}

// Sound locates the hub speaker
type Sound struct {
	Port     uint8 `yaml:"port"`
	Mode     uint8 `yaml:"mode"`
	Disabled bool  `yaml:"disabled,omitempty"`
}

// Port is one entry of the ports list
type Port struct {
	Name  string `yaml:"name"`
	Index uint8  `yaml:"index"`
}

// LoadFile reads and resolves a profile file
func LoadFile(path string) (*lpf2.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	profile, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profile, nil
}

// Load reads a profile from r and resolves it against its family defaults
func Load(r io.Reader) (*lpf2.Profile, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty profile")
		}
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return file.Resolve()
}

// Resolve applies the file's overrides to a copy of its family's table
func (f *File) Resolve() (*lpf2.Profile, error) {
	if f.Family == "" {
		return nil, errors.New("profile has no family")
	}
	family, err := lpf2.ParseFamily(f.Family)
	if err != nil {
		return nil, err
	}
	profile, err := lpf2.ProfileForFamily(family)
	if err != nil {
		return nil, err
	}

	if f.Name != "" {
		profile.Name = f.Name
	}
	if f.ButtonName != "" {
		profile.ButtonName = f.ButtonName
	}
	if len(f.Ports) > 0 {
		profile.Ports = make([]lpf2.PortSpec, 0, len(f.Ports))
		for _, p := range f.Ports {
			profile.Ports = append(profile.Ports, lpf2.PortSpec{Name: p.Name, Index: p.Index})
		}
	}
	for device, kind := range f.Devices {
		d, err := lpf2.ParseDeviceType(device)
		if err != nil {
			return nil, fmt.Errorf("devices: %w", err)
		}
		k, err := lpf2.ParseSensorKind(kind)
		if err != nil {
			return nil, fmt.Errorf("devices[%s]: %w", device, err)
		}
		profile.Devices[d] = k
	}
	for device, mode := range f.Modes {
		d, err := lpf2.ParseDeviceType(device)
		if err != nil {
			return nil, fmt.Errorf("modes: %w", err)
		}
		profile.Modes[d] = mode
	}
	if f.Telemetry != nil {
		if err := f.Telemetry.apply(&profile.Telemetry); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}
	if f.Opcodes != nil {
		if err := f.Opcodes.apply(&profile.Opcodes); err != nil {
			return nil, fmt.Errorf("opcodes: %w", err)
		}
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (t *Telemetry) apply(table *lpf2.TelemetryTable) error {
	if t.VoltageIndex != nil {
		table.VoltageIndex = *t.VoltageIndex
	}
	if t.CurrentIndex != nil {
		table.CurrentIndex = *t.CurrentIndex
	}
	if t.CurrentScale != "" {
		scale, err := lpf2.ParseCurrentScale(t.CurrentScale)
		if err != nil {
			return err
		}
		table.CurrentScale = scale
	}
	return nil
}

func (o *Opcodes) apply(ops *lpf2.Opcodes) error {
	if o.Motor != "" {
		motor, err := lpf2.ParseMotorEncoding(o.Motor)
		if err != nil {
			return err
		}
		ops.Motor = motor
	}
	if o.RotateByAngle != nil {
		ops.RotateByAngle = *o.RotateByAngle
	}
	if o.LED != nil {
		ops.HasLED = !o.LED.Disabled
		ops.LEDPort, ops.LEDColorMode, ops.LEDRGBMode = 0, 0, 0
		if ops.HasLED {
			ops.LEDPort = o.LED.Port
			ops.LEDColorMode = o.LED.ColorMode
			ops.LEDRGBMode = o.LED.RGBMode
		}
	}
	if o.Sound != nil {
		ops.HasSound = !o.Sound.Disabled
		ops.SoundPort, ops.SoundMode = 0, 0
		if ops.HasSound {
			ops.SoundPort = o.Sound.Port
			ops.SoundMode = o.Sound.Mode
		}
	}
	return nil
}

// Dump writes a profile in file form, listing every field of the table
func Dump(w io.Writer, profile *lpf2.Profile) error {
	file := File{
		Family:     profile.Family.String(),
		Name:       profile.Name,
		ButtonName: profile.ButtonName,
		Devices:    make(map[string]string, len(profile.Devices)),
		Modes:      make(map[string]uint8, len(profile.Modes)),
	}
	voltage, current := profile.Telemetry.VoltageIndex, profile.Telemetry.CurrentIndex
	file.Telemetry = &Telemetry{
		VoltageIndex: &voltage,
		CurrentIndex: &current,
		CurrentScale: profile.Telemetry.CurrentScale.String(),
	}
	rotate := profile.Opcodes.RotateByAngle
	file.Opcodes = &Opcodes{
		Motor:         profile.Opcodes.Motor.String(),
		RotateByAngle: &rotate,
		LED:           &LED{Disabled: true},
		Sound:         &Sound{Disabled: true},
	}
	if profile.Opcodes.HasLED {
		file.Opcodes.LED = &LED{
			Port:      profile.Opcodes.LEDPort,
			ColorMode: profile.Opcodes.LEDColorMode,
			RGBMode:   profile.Opcodes.LEDRGBMode,
		}
	}
	if profile.Opcodes.HasSound {
		file.Opcodes.Sound = &Sound{Port: profile.Opcodes.SoundPort, Mode: profile.Opcodes.SoundMode}
	}
	for _, p := range profile.Ports {
		file.Ports = append(file.Ports, Port{Name: p.Name, Index: p.Index})
	}
	for d, k := range profile.Devices {
		file.Devices[d.String()] = k.String()
	}
	for d, m := range profile.Modes {
		file.Modes[d.String()] = m
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
