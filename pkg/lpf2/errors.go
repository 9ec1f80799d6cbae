// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import "errors"

// Caller errors. These are returned synchronously and never tolerated.
var (
	ErrUnknownPort = errors.New("lpf2: unknown port")
	ErrInvalidName = errors.New("lpf2: invalid hub name")
	ErrUnsupported = errors.New("lpf2: not supported by this hub")
)

// Completion results for commands that did not run to the end.
var (
	ErrCancelled = errors.New("lpf2: command superseded")
	ErrDetached  = errors.New("lpf2: device detached")
	ErrClosed    = errors.New("lpf2: hub connection closed")
)
