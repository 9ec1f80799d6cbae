// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
)

// defaultRotateSpeed is used by rotate when no speed is given
const defaultRotateSpeed = 50

// hubController is the part of the hub the console drives
type hubController interface {
	SetMotorSpeed(port string, speed int) error
	SetMotorSpeedFor(port string, speed int, d time.Duration) (<-chan error, error)
	RampMotorSpeed(port string, from, to int, d time.Duration) (<-chan error, error)
	RotateByAngle(port string, degrees int, speed int) (<-chan error, error)
	SetLEDColor(color uint8) error
	SetLEDRGB(red, green, blue uint8) error
	PlaySound(sound uint8) error
	SetName(name string) error
	RequestBatteryUpdates() error
	Ports() []lpf2.PortState
}

// consoleResult is what a console command produced
type consoleResult struct {
	// Message is shown to the user once the command is sent
	Message string
	// Done receives the command's completion, or is nil
	Done <-chan error
}

var errUsage = errors.New("usage")

// consoleHelp lists the console commands
const consoleHelp = `motor <port> <speed> [duration]   set motor speed (-100..100)
ramp <port> <from> <to> <duration> ramp motor speed
rotate <port> <degrees> [speed]    rotate by angle
stop [port...]                     stop motors (all connected ports by default)
led <color>                        set hub LED color by name or number
rgb <r> <g> <b>                    set hub LED RGB
sound <n>                          play a built-in sound
name <text>                        rename the hub
battery                            request battery updates`

// runConsoleCommand parses one console line and issues it to the hub
func runConsoleCommand(h hubController, line string) (consoleResult, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return consoleResult{}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "help", "?":
		return consoleResult{Message: consoleHelp}, nil

	case "motor", "m":
		if len(args) < 2 || len(args) > 3 {
			return consoleResult{}, usageError("motor <port> <speed> [duration]")
		}
		speed, err := parseSpeed(args[1])
		if err != nil {
			return consoleResult{}, err
		}
		if len(args) == 2 {
			if err := h.SetMotorSpeed(args[0], speed); err != nil {
				return consoleResult{}, err
			}
			return consoleResult{Message: fmt.Sprintf("%s: speed %d", args[0], speed)}, nil
		}
		d, err := parseDuration(args[2])
		if err != nil {
			return consoleResult{}, err
		}
		done, err := h.SetMotorSpeedFor(args[0], speed, d)
		if err != nil {
			return consoleResult{}, err
		}
		return consoleResult{
			Message: fmt.Sprintf("%s: speed %d for %s", args[0], speed, d),
			Done:    done,
		}, nil

	case "ramp", "r":
		if len(args) != 4 {
			return consoleResult{}, usageError("ramp <port> <from> <to> <duration>")
		}
		from, err := parseSpeed(args[1])
		if err != nil {
			return consoleResult{}, err
		}
		to, err := parseSpeed(args[2])
		if err != nil {
			return consoleResult{}, err
		}
		d, err := parseDuration(args[3])
		if err != nil {
			return consoleResult{}, err
		}
		done, err := h.RampMotorSpeed(args[0], from, to, d)
		if err != nil {
			return consoleResult{}, err
		}
		return consoleResult{
			Message: fmt.Sprintf("%s: ramp %d to %d over %s", args[0], from, to, d),
			Done:    done,
		}, nil

	case "rotate":
		if len(args) < 2 || len(args) > 3 {
			return consoleResult{}, usageError("rotate <port> <degrees> [speed]")
		}
		degrees, err := strconv.Atoi(args[1])
		if err != nil {
			return consoleResult{}, fmt.Errorf("invalid degrees %q", args[1])
		}
		speed := defaultRotateSpeed
		if len(args) == 3 {
			if speed, err = parseSpeed(args[2]); err != nil {
				return consoleResult{}, err
			}
		}
		done, err := h.RotateByAngle(args[0], degrees, speed)
		if err != nil {
			return consoleResult{}, err
		}
		return consoleResult{
			Message: fmt.Sprintf("%s: rotate %d° at speed %d", args[0], degrees, speed),
			Done:    done,
		}, nil

	case "stop", "s":
		ports := args
		if len(ports) == 0 {
			for _, p := range h.Ports() {
				if p.Connected {
					ports = append(ports, p.Name)
				}
			}
		}
		var errs []error
		for _, port := range ports {
			if err := h.SetMotorSpeed(port, 0); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", port, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: fmt.Sprintf("stopped %s", strings.Join(ports, ", "))}, nil

	case "led":
		if len(args) == 0 {
			return consoleResult{}, usageError("led <color>")
		}
		color, err := lpf2.ParseColor(strings.Join(args, " "))
		if err != nil {
			return consoleResult{}, err
		}
		if err := h.SetLEDColor(color); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: "LED " + lpf2.ColorName(color)}, nil

	case "rgb":
		if len(args) != 3 {
			return consoleResult{}, usageError("rgb <r> <g> <b>")
		}
		var rgb [3]uint8
		for i, a := range args {
			v, err := strconv.ParseUint(a, 0, 8)
			if err != nil {
				return consoleResult{}, fmt.Errorf("invalid color component %q", a)
			}
			rgb[i] = uint8(v)
		}
		if err := h.SetLEDRGB(rgb[0], rgb[1], rgb[2]); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: fmt.Sprintf("LED rgb(%d, %d, %d)", rgb[0], rgb[1], rgb[2])}, nil

	case "sound":
		if len(args) != 1 {
			return consoleResult{}, usageError("sound <n>")
		}
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return consoleResult{}, fmt.Errorf("invalid sound %q", args[0])
		}
		if err := h.PlaySound(uint8(v)); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: fmt.Sprintf("sound %d", v)}, nil

	case "name":
		if len(args) == 0 {
			return consoleResult{}, usageError("name <text>")
		}
		newName := strings.Join(args, " ")
		if err := h.SetName(newName); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: fmt.Sprintf("renamed to %q", newName)}, nil

	case "battery":
		if err := h.RequestBatteryUpdates(); err != nil {
			return consoleResult{}, err
		}
		return consoleResult{Message: "battery updates requested"}, nil
	}

	return consoleResult{}, fmt.Errorf("unknown command %q (try help)", name)
}

func usageError(usage string) error {
	return fmt.Errorf("%w: %s", errUsage, usage)
}

// parseSpeed accepts a signed speed percentage
func parseSpeed(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < -100 || v > 100 {
		return 0, fmt.Errorf("invalid speed %q (must be -100..100)", s)
	}
	return v, nil
}

// parseDuration accepts Go durations or a bare number of milliseconds
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
