// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Statistics tracks frame counts and rates for one hub connection
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames   uint64
	TotalBytes    uint64
	HandledFrames uint64
	UnknownTypes  uint64
	UnknownPorts  uint64
	EmptyReadings uint64
	FramesSent    uint64
	WriteErrors   uint64
	Events        uint64
	ByType        map[uint8]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	EventRate float64 // events/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByType:         make(map[uint8]uint64),
	}
}

// Update records one received frame and what the dispatcher did with it
func (s *Statistics) Update(f Frame, outcome Outcome) {
	s.TotalFrames++
	s.TotalBytes += uint64(len(f))
	s.ByType[f.Type()]++

	switch outcome {
	case OutcomeHandled:
		s.HandledFrames++
	case OutcomeUnknownType:
		s.UnknownTypes++
	case OutcomeUnknownPort:
		s.UnknownPorts++
	case OutcomeNoReading:
		s.EmptyReadings++
	}
}

// CalculateRates updates the per-second rates
func (s *Statistics) CalculateRates() {
	now := time.Now()
	elapsed := now.Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.EventRate = float64(s.Events) / elapsed
	}
	s.LastUpdateTime = now
}

// Clone returns an independent copy
func (s *Statistics) Clone() Statistics {
	c := *s
	c.ByType = make(map[uint8]uint64, len(s.ByType))
	for k, v := range s.ByType {
		c.ByType[k] = v
	}
	return c
}

// Reset clears all statistics
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}

// FormatSummary returns a formatted summary of statistics
func (s *Statistics) FormatSummary() string {
	var b strings.Builder
	elapsed := time.Since(s.StartTime)

	fmt.Fprintf(&b, "=== Frame Statistics (%s) ===\n", elapsed.Truncate(time.Second))
	fmt.Fprintf(&b, "Frames:   %d received (%.1f/s), %d bytes\n", s.TotalFrames, s.FrameRate, s.TotalBytes)
	fmt.Fprintf(&b, "Handled:  %d\n", s.HandledFrames)
	fmt.Fprintf(&b, "Ignored:  %d unknown type, %d unknown port, %d no reading\n",
		s.UnknownTypes, s.UnknownPorts, s.EmptyReadings)
	fmt.Fprintf(&b, "Sent:     %d frames, %d write errors\n", s.FramesSent, s.WriteErrors)
	fmt.Fprintf(&b, "Events:   %d (%.1f/s)\n", s.Events, s.EventRate)

	types := make([]int, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, int(t))
	}
	sort.Ints(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %-22s (0x%02X): %d\n", FormatMessageType(uint8(t)), t, s.ByType[uint8(t)])
	}

	return b.String()
}
