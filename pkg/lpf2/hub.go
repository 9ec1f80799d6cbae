// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Hub is one connection to a hub. It owns the receive buffer and the port
// registry; all access is serialized on the hub's mutex.
type Hub struct {
	mu            sync.Mutex
	profile       *Profile
	w             io.Writer
	decoder       *Decoder
	ports         *Registry
	stats         *Statistics
	listeners     []Listener
	pending       []Event
	autoSubscribe bool
	closed        bool

	voltage    int
	hasVoltage bool
	current    float64
	hasCurrent bool
	battery    uint8
	hasBattery bool

	clock Clock
}

// Option configures a Hub
type Option func(*Hub)

// WithClock sets the clock used for timed commands and ramps
func WithClock(c Clock) Option {
	return func(h *Hub) { h.clock = c }
}

// WithAutoSubscribe enables or disables subscribing to sensor values on attach
// (enabled by default)
func WithAutoSubscribe(on bool) Option {
	return func(h *Hub) { h.autoSubscribe = on }
}

// WithListener registers a listener at construction time
func WithListener(l Listener) Option {
	return func(h *Hub) { h.listeners = append(h.listeners, l) }
}

// NewHub creates a hub connection for the given model table.
// Outbound frames are written to w, which must not be shared with another hub.
func NewHub(profile *Profile, w io.Writer, opts ...Option) (*Hub, error) {
	if profile == nil {
		return nil, errors.New("lpf2: nil profile")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	h := &Hub{
		profile:       profile,
		w:             w,
		decoder:       NewDecoder(),
		stats:         NewStatistics(),
		autoSubscribe: true,
		clock:         SystemClock,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ports = NewRegistry(profile.Ports, h.clock, h.fire)
	return h, nil
}

// Profile returns the hub's model table
func (h *Hub) Profile() *Profile {
	return h.profile
}

// Subscribe adds an event listener
func (h *Hub) Subscribe(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// Accept feeds one transport delivery into the hub. Every complete frame is
// dispatched before Accept returns; partial frames wait for more bytes.
func (h *Hub) Accept(p []byte) {
	h.do(func() error {
		if h.closed {
			return nil
		}
		h.decoder.Write(p)
		for {
			f, ok := h.decoder.Next()
			if !ok {
				return nil
			}
			h.stats.Update(f, h.dispatch(f))
		}
	})
}

// Run reads deliveries from r and feeds them to Accept until r fails or ctx
// is cancelled. A cancelled context is only noticed between reads.
func (h *Hub) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			h.Accept(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}

// Close resets the connection: pending commands complete with ErrClosed,
// ports return to their defaults and the receive buffer is discarded.
// The transport itself is left to the caller.
func (h *Hub) Close() error {
	h.do(func() error {
		h.closed = true
		h.ports.Reset()
		h.decoder.Reset()
		return nil
	})
	return nil
}

// SetMotorSpeed sets a motor's speed (-100..100, or BrakeSpeed).
// Any timed command or ramp on the port is cancelled.
func (h *Hub) SetMotorSpeed(port string, speed int) error {
	return h.do(func() error {
		p, err := h.motorPort(port)
		if err != nil {
			return err
		}
		h.ports.IssueCommand(p, 0, nil)
		return h.writeMotorSpeed(p, speed)
	})
}

// SetMotorSpeedFor runs a motor for d, then stops it. The returned channel
// receives nil after the stop command is sent, or ErrCancelled if another
// command on the port supersedes this one.
func (h *Hub) SetMotorSpeedFor(port string, speed int, d time.Duration) (<-chan error, error) {
	ch, done := newDone()
	err := h.do(func() error {
		p, err := h.motorPort(port)
		if err != nil {
			return err
		}
		if err := h.writeMotorSpeed(p, speed); err != nil {
			return err
		}
		h.ports.IssueCommand(p, d, done)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// RampMotorSpeed changes a motor's speed linearly from one value to another
// over d. The first step is sent immediately; the channel receives nil once
// the final step has been sent.
func (h *Hub) RampMotorSpeed(port string, from, to int, d time.Duration) (<-chan error, error) {
	steps, interval := RampSteps(from, to, d)
	ch, done := newDone()
	err := h.do(func() error {
		p, err := h.motorPort(port)
		if err != nil {
			return err
		}
		h.ports.IssueCommand(p, 0, nil)
		if err := h.writeMotorSpeed(p, steps[0]); err != nil {
			return err
		}
		if len(steps) == 1 {
			h.ports.IssueCommand(p, 0, done)
			return nil
		}
		h.ports.arm(p, interval, done)
		p.ramp = &rampState{steps: steps, next: 1, interval: interval}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// RotateByAngle turns a tacho motor by degrees (negative reverses).
// The channel receives nil when the hub reports the command complete.
func (h *Hub) RotateByAngle(port string, degrees int, speed int) (<-chan error, error) {
	ch, done := newDone()
	err := h.do(func() error {
		if !h.profile.Opcodes.RotateByAngle {
			return fmt.Errorf("rotate by angle: %w", ErrUnsupported)
		}
		p, err := h.ports.Lookup(port)
		if err != nil {
			return err
		}
		if degrees < 0 {
			degrees = -degrees
			speed = -speed
		}
		if err := h.write(NewRotateByDegreesCommand(p.index, uint32(degrees), speed)); err != nil {
			return err
		}
		h.ports.ExpectAck(p, done)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// SetLEDColor sets the hub LED to a color code; ColorBlack turns it off
func (h *Hub) SetLEDColor(color uint8) error {
	return h.do(func() error {
		ops := h.profile.Opcodes
		if !ops.HasLED {
			return fmt.Errorf("LED: %w", ErrUnsupported)
		}
		if err := h.write(NewPortInputFormatCommand(ops.LEDPort, ops.LEDColorMode, 0, false)); err != nil {
			return err
		}
		return h.write(NewLEDColorCommand(ops.LEDPort, ops.LEDColorMode, color))
	})
}

// SetLEDRGB sets the hub LED to an RGB value
func (h *Hub) SetLEDRGB(red, green, blue uint8) error {
	return h.do(func() error {
		ops := h.profile.Opcodes
		if !ops.HasLED {
			return fmt.Errorf("LED: %w", ErrUnsupported)
		}
		if err := h.write(NewPortInputFormatCommand(ops.LEDPort, ops.LEDRGBMode, 0, false)); err != nil {
			return err
		}
		return h.write(NewLEDRGBCommand(ops.LEDPort, ops.LEDRGBMode, red, green, blue))
	})
}

// PlaySound plays one of the hub's built-in sounds
func (h *Hub) PlaySound(sound uint8) error {
	return h.do(func() error {
		ops := h.profile.Opcodes
		if !ops.HasSound {
			return fmt.Errorf("sound: %w", ErrUnsupported)
		}
		return h.write(NewSoundCommand(ops.SoundPort, ops.SoundMode, sound))
	})
}

// SetName changes the hub's advertising name (1-14 ASCII characters)
func (h *Hub) SetName(name string) error {
	cmd, err := NewSetNameCommand(name)
	if err != nil {
		return err
	}
	return h.do(func() error {
		return h.write(cmd)
	})
}

// RequestBatteryUpdates asks the hub to report its battery level on change
func (h *Hub) RequestBatteryUpdates() error {
	return h.do(func() error {
		return h.write(NewHubPropertyCommand(PropBatteryVoltage, PropOpEnableUpdates))
	})
}

// Port returns a snapshot of one port
func (h *Hub) Port(name string) (PortState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.ports.Lookup(name)
	if err != nil {
		return PortState{}, err
	}
	return p.state(), nil
}

// Ports returns snapshots of all ports in table order
func (h *Hub) Ports() []PortState {
	h.mu.Lock()
	defer h.mu.Unlock()
	states := make([]PortState, 0, len(h.ports.ports))
	for _, p := range h.ports.ports {
		states = append(states, p.state())
	}
	return states
}

// Voltage returns the last reported battery voltage percentage
func (h *Hub) Voltage() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.voltage, h.hasVoltage
}

// Current returns the last reported current draw
func (h *Hub) Current() (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.hasCurrent
}

// Battery returns the last battery level reported through hub properties
func (h *Hub) Battery() (uint8, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.battery, h.hasBattery
}

// Statistics returns a copy of the connection's frame statistics
func (h *Hub) Statistics() Statistics {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.CalculateRates()
	return h.stats.Clone()
}

// do runs fn under the hub lock, then delivers the events and completions
// it produced after unlocking.
func (h *Hub) do(fn func() error) error {
	h.mu.Lock()
	err := fn()
	events := h.pending
	h.pending = nil
	listeners := append([]Listener(nil), h.listeners...)
	completions := h.ports.takeCompletions()
	h.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l.HandleEvent(ev)
		}
	}
	for _, c := range completions {
		c.fn(c.err)
	}
	return err
}

// fire handles a port timer expiry: the next ramp step, or the stop at the
// end of a timed command
func (h *Hub) fire(p *Port, gen uint64) {
	h.do(func() error {
		if !h.ports.current(p, gen) {
			return nil
		}
		if rs := p.ramp; rs != nil {
			speed := rs.steps[rs.next]
			rs.next++
			err := h.writeMotorSpeed(p, speed)
			if err == nil && rs.next < len(rs.steps) {
				h.ports.rearm(p, gen, rs.interval)
				return nil
			}
			h.ports.finishTimer(p, gen, err)
			return nil
		}
		h.ports.finishTimer(p, gen, h.writeMotorSpeed(p, 0))
		return nil
	})
}

func (h *Hub) emit(ev Event) {
	h.stats.Events++
	h.pending = append(h.pending, ev)
}

func (h *Hub) motorPort(name string) (*Port, error) {
	if h.profile.Opcodes.Motor == MotorNone {
		return nil, fmt.Errorf("motor: %w", ErrUnsupported)
	}
	return h.ports.Lookup(name)
}

func (h *Hub) writeMotorSpeed(p *Port, speed int) error {
	cmd, err := NewMotorSpeedCommand(h.profile.Opcodes.Motor, p.index, speed)
	if err != nil {
		return err
	}
	return h.write(cmd)
}

func (h *Hub) write(frame []byte) error {
	if h.closed {
		return ErrClosed
	}
	if _, err := h.w.Write(frame); err != nil {
		h.stats.WriteErrors++
		return fmt.Errorf("write: %w", err)
	}
	h.stats.FramesSent++
	return nil
}

// writeQuiet sends a frame the caller cannot report errors for;
// failures only show up in the statistics
func (h *Hub) writeQuiet(frame []byte) {
	_ = h.write(frame)
}

func newDone() (<-chan error, func(error)) {
	ch := make(chan error, 1)
	return ch, func(err error) {
		ch <- err
		close(ch)
	}
}
