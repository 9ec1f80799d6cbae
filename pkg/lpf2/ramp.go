// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import (
	"math"
	"time"
)

// MinRampInterval is the shortest time between two ramp steps.
// Faster ramps take larger speed increments instead.
const MinRampInterval = 50 * time.Millisecond

// rampState is the remainder of a ramp running in a port's timer slot
type rampState struct {
	steps    []int
	next     int
	interval time.Duration
}

// RampSteps computes the speed sequence for a linear ramp from one speed to
// another over d, and the interval between consecutive steps. The first
// value is from, the last is to, and the sequence is monotonic.
func RampSteps(from, to int, d time.Duration) ([]int, time.Duration) {
	from, to = clampSpeed(from), clampSpeed(to)
	if from == to {
		return []int{to}, 0
	}

	delta := to - from
	count := delta
	if count < 0 {
		count = -count
	}

	interval := d / time.Duration(count)
	increment := 1.0
	if interval < MinRampInterval {
		if interval > 0 {
			increment = float64(MinRampInterval) / float64(interval)
		} else {
			increment = float64(count)
		}
		interval = MinRampInterval
	}
	if delta < 0 {
		increment = -increment
	}

	steps := []int{from}
	for i := 1; ; i++ {
		speed := int(math.Round(float64(from) + float64(i)*increment))
		if (delta > 0 && speed > to) || (delta < 0 && speed < to) {
			speed = to
		}
		steps = append(steps, speed)
		if speed == to {
			return steps, interval
		}
	}
}

func clampSpeed(speed int) int {
	if speed > MaxSpeed {
		return MaxSpeed
	}
	if speed < -MaxSpeed {
		return -MaxSpeed
	}
	return speed
}
