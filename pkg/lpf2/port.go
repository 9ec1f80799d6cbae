// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"fmt"
	"time"
)

// Timer is a cancellable pending callback
type Timer interface {
	Stop() bool
}

// Clock arms timers. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock arms real timers
var SystemClock Clock = systemClock{}

// Port is one logical motor/sensor slot of a connected hub.
// Name and index are fixed; everything else follows the wire.
type Port struct {
	name  string
	index uint8

	connected bool
	device    DeviceType
	busy      bool
	ackDone   func(error)

	// Single timer slot. timerGen invalidates callbacks from stopped timers
	// that had already started running.
	timer     Timer
	timerGen  uint64
	timerDone func(error)
	ramp      *rampState
}

// Name returns the logical port name
func (p *Port) Name() string { return p.name }

// Index returns the wire index
func (p *Port) Index() uint8 { return p.index }

// Connected returns true while a device is attached
func (p *Port) Connected() bool { return p.connected }

// Device returns the attached device type (DeviceUnknown when detached)
func (p *Port) Device() DeviceType { return p.device }

// Busy returns true while a command awaits its acknowledgement or timer
func (p *Port) Busy() bool { return p.busy }

// TimerActive returns true while a timed command or ramp is pending
func (p *Port) TimerActive() bool { return p.timer != nil }

// PortState is a copy of a port's state
type PortState struct {
	Name      string
	Index     uint8
	Connected bool
	Device    DeviceType
	Busy      bool
	Timed     bool
}

func (p *Port) state() PortState {
	return PortState{
		Name:      p.name,
		Index:     p.index,
		Connected: p.connected,
		Device:    p.device,
		Busy:      p.busy,
		Timed:     p.timer != nil,
	}
}

type completion struct {
	fn  func(error)
	err error
}

// Registry holds the ports of one hub connection.
//
// Completions are never invoked from inside a Registry method; they are
// queued and run by Flush, so the owner can release its lock first.
type Registry struct {
	ports   []*Port
	byName  map[string]*Port
	byIndex map[uint8]*Port
	clock   Clock
	fire    func(p *Port, gen uint64)
	queue   []completion
}

// NewRegistry creates the ports from a profile's port table.
// fire is called from the timer goroutine when a port timer expires; when nil,
// the timer simply completes the command (single-goroutine use only).
func NewRegistry(specs []PortSpec, clock Clock, fire func(p *Port, gen uint64)) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	r := &Registry{
		ports:   make([]*Port, 0, len(specs)),
		byName:  make(map[string]*Port, len(specs)),
		byIndex: make(map[uint8]*Port, len(specs)),
		clock:   clock,
		fire:    fire,
	}
	if r.fire == nil {
		r.fire = func(p *Port, gen uint64) {
			r.finishTimer(p, gen, nil)
			r.Flush()
		}
	}
	for _, spec := range specs {
		p := &Port{name: spec.Name, index: spec.Index}
		r.ports = append(r.ports, p)
		r.byName[spec.Name] = p
		r.byIndex[spec.Index] = p
	}
	return r
}

// Lookup returns the port with the given name.
// An unknown name is a caller error.
func (r *Registry) Lookup(name string) (*Port, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPort, name)
	}
	return p, nil
}

// LookupByIndex returns the port with the given wire index, or nil
func (r *Registry) LookupByIndex(index uint8) *Port {
	return r.byIndex[index]
}

// Ports returns the ports in table order
func (r *Registry) Ports() []*Port {
	return r.ports
}

// OnAttach records an attach (non-zero device type) or detach on a port.
// Returns the event to emit, or nil if the index is not configured.
func (r *Registry) OnAttach(index uint8, device DeviceType) Event {
	p := r.byIndex[index]
	if p == nil {
		return nil
	}

	if device != DeviceUnknown {
		p.connected = true
		p.device = device
		return AttachEvent{PortName: p.name, Device: device}
	}

	r.cancelTimer(p, ErrDetached)
	r.cancelAck(p, ErrDetached)
	p.connected = false
	p.device = DeviceUnknown
	p.busy = false
	return DetachEvent{PortName: p.name}
}

// IssueCommand records a command issued on a port. Any pending timer on the
// port is cancelled first. With d > 0 a new timer is armed; on expiry the
// owner's fire callback stops the motor and completes the command. With
// d <= 0 the command is fire-and-forget and completes immediately.
func (r *Registry) IssueCommand(p *Port, d time.Duration, onComplete func(error)) {
	r.cancelTimer(p, ErrCancelled)
	if d <= 0 {
		if onComplete != nil {
			r.queue = append(r.queue, completion{fn: onComplete})
		}
		return
	}
	r.arm(p, d, onComplete)
}

// ExpectAck marks the port busy until the hub acknowledges the command
func (r *Registry) ExpectAck(p *Port, onComplete func(error)) {
	r.cancelTimer(p, ErrCancelled)
	r.cancelAck(p, ErrCancelled)
	p.busy = true
	p.ackDone = onComplete
}

// OnAck clears the busy flag and completes the pending command.
// Acks for unknown or idle ports are ignored.
func (r *Registry) OnAck(index uint8) {
	p := r.byIndex[index]
	if p == nil {
		return
	}
	if p.timer == nil {
		p.busy = false
	}
	if p.ackDone != nil {
		r.queue = append(r.queue, completion{fn: p.ackDone})
		p.ackDone = nil
	}
}

// Reset returns every port to its initial state, completing any pending
// commands with ErrClosed
func (r *Registry) Reset() {
	for _, p := range r.ports {
		r.cancelTimer(p, ErrClosed)
		r.cancelAck(p, ErrClosed)
		p.connected = false
		p.device = DeviceUnknown
		p.busy = false
	}
}

// Flush runs queued completions
func (r *Registry) Flush() {
	for _, c := range r.takeCompletions() {
		c.fn(c.err)
	}
}

func (r *Registry) takeCompletions() []completion {
	q := r.queue
	r.queue = nil
	return q
}

func (r *Registry) arm(p *Port, d time.Duration, onComplete func(error)) uint64 {
	p.timerGen++
	gen := p.timerGen
	p.busy = true
	p.timerDone = onComplete
	p.timer = r.clock.AfterFunc(d, func() { r.fire(p, gen) })
	return gen
}

// rearm schedules the next tick of the current timer generation
func (r *Registry) rearm(p *Port, gen uint64, d time.Duration) bool {
	if !r.current(p, gen) {
		return false
	}
	p.timer = r.clock.AfterFunc(d, func() { r.fire(p, gen) })
	return true
}

// current reports whether gen is the live timer of p
func (r *Registry) current(p *Port, gen uint64) bool {
	return p.timer != nil && p.timerGen == gen
}

func (r *Registry) finishTimer(p *Port, gen uint64, err error) {
	if !r.current(p, gen) {
		return
	}
	p.timer = nil
	p.ramp = nil
	if p.ackDone == nil {
		p.busy = false
	}
	if p.timerDone != nil {
		r.queue = append(r.queue, completion{fn: p.timerDone, err: err})
		p.timerDone = nil
	}
}

func (r *Registry) cancelTimer(p *Port, err error) {
	if p.timer == nil {
		return
	}
	p.timer.Stop()
	p.timer = nil
	p.timerGen++
	p.ramp = nil
	if p.ackDone == nil {
		p.busy = false
	}
	if p.timerDone != nil {
		r.queue = append(r.queue, completion{fn: p.timerDone, err: err})
		p.timerDone = nil
	}
}

func (r *Registry) cancelAck(p *Port, err error) {
	if p.ackDone == nil {
		return
	}
	r.queue = append(r.queue, completion{fn: p.ackDone, err: err})
	p.ackDone = nil
	if p.timer == nil {
		p.busy = false
	}
}
