// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"math/rand"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"
)

// ============================================================
// Fuzz Helpers
// ============================================================

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================
// Manual Clock
// ============================================================

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	if !t.clock.ignoreStop {
		t.stopped = true
	}
	return active
}

// manualClock fires timers only when advanced. With ignoreStop set, Stop
// reports success but the callback still runs, like a timer whose goroutine
// had already started.
type manualClock struct {
	mu         sync.Mutex
	now        time.Duration
	seq        int
	timers     []*manualTimer
	ignoreStop bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, running due callbacks in order.
// Callbacks run without the clock lock so they may arm new timers.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of timers that have not fired or been stopped
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// ============================================================
// Transport and Listener Fakes
// ============================================================

// frameLog records every frame written by a hub
type frameLog struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (l *frameLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.frames = append(l.frames, append([]byte(nil), p...))
	return len(p), nil
}

func (l *frameLog) Frames() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.frames...)
}

func (l *frameLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = nil
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) HandleEvent(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type testHub struct {
	*Hub
	out    *frameLog
	events *eventLog
	clock  *manualClock
}

func newTestHub(t *testing.T, profile *Profile, opts ...Option) *testHub {
	t.Helper()
	th := &testHub{out: &frameLog{}, events: &eventLog{}, clock: &manualClock{}}
	opts = append([]Option{WithClock(th.clock), WithListener(th.events)}, opts...)
	h, err := NewHub(profile, th.out, opts...)
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	th.Hub = h
	return th
}

func (th *testHub) attach(port uint8, device DeviceType) {
	th.Accept(Encode(MsgHubAttachedIO, port, IOAttached, byte(device), byte(device>>8)))
}

func (th *testHub) detach(port uint8) {
	th.Accept(Encode(MsgHubAttachedIO, port, IODetached))
}

// receive reads a completion result without blocking
func receive(t *testing.T, ch <-chan error) (error, bool) {
	t.Helper()
	select {
	case err, ok := <-ch:
		if !ok {
			t.Fatal("completion channel closed without a result")
		}
		return err, true
	default:
		return nil, false
	}
}

// directSpeed extracts the speed byte of a direct-mode motor frame
func directSpeed(t *testing.T, frame []byte) int {
	t.Helper()
	if len(frame) != 8 || frame[2] != MsgPortOutputCommand || frame[5] != SubWriteDirectMode {
		t.Fatalf("not a direct-mode motor frame: % X", frame)
	}
	return int(int8(frame[7]))
}
