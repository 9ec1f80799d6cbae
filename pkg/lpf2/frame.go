// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lpf2

import "fmt"

// Frame is one complete length-prefixed message: [length, reserved, type, payload...].
type Frame []byte

// Length returns the declared frame length (byte 0)
func (f Frame) Length() uint8 {
	if len(f) == 0 {
		return 0
	}
	return f[0]
}

// Type returns the message type (byte 2)
func (f Frame) Type() uint8 {
	if len(f) < FrameHeaderSize {
		return 0
	}
	return f[2]
}

// Subject returns byte 3: the port index for port messages,
// the property reference for hub property messages.
func (f Frame) Subject() uint8 {
	if len(f) <= FrameHeaderSize {
		return 0
	}
	return f[3]
}

// Payload returns the bytes after the type byte
func (f Frame) Payload() []byte {
	if len(f) <= FrameHeaderSize {
		return nil
	}
	return f[FrameHeaderSize:]
}

// PaddedPayload returns the bytes after the subject byte, right-padded with
// zeros to at least n bytes. The result never aliases the frame.
func (f Frame) PaddedPayload(n int) []byte {
	var body []byte
	if len(f) > FrameHeaderSize+1 {
		body = f[FrameHeaderSize+1:]
	}
	if len(body) < n {
		out := make([]byte, n)
		copy(out, body)
		return out
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out
}

// Encode builds a wire frame around body (type byte first).
// The length byte is filled in last. Bodies that cannot fit a one-byte
// length are a programming error and panic.
func Encode(body ...byte) []byte {
	total := 2 + len(body)
	if total > MaxFrameSize {
		panic(fmt.Sprintf("lpf2: frame too large: %d bytes (max %d)", total, MaxFrameSize))
	}

	frame := make([]byte, 2, total)
	frame = append(frame, body...)
	frame[0] = byte(total)
	frame[1] = ReservedByte
	return frame
}

// Decoder accumulates bytes from the transport and extracts complete frames.
// A single delivery may carry several frames, and one frame may span
// several deliveries.
type Decoder struct {
	buffer []byte
}

// NewDecoder creates a decoder with an empty receive buffer
func NewDecoder() *Decoder {
	return &Decoder{buffer: make([]byte, 0, 64)}
}

// Write appends transport bytes to the receive buffer
func (d *Decoder) Write(p []byte) (int, error) {
	d.buffer = append(d.buffer, p...)
	return len(p), nil
}

// Next extracts the next complete frame from the buffer.
// Returns false when the buffer is empty or holds only a partial frame.
// Frames too short to carry a type byte are dropped without being returned.
func (d *Decoder) Next() (Frame, bool) {
	for len(d.buffer) > 0 {
		length := int(d.buffer[0])
		if length == 0 {
			// A zero length can never complete; skip the byte to resync.
			d.advance(1)
			continue
		}
		if length > len(d.buffer) {
			return nil, false
		}

		frame := make(Frame, length)
		copy(frame, d.buffer)
		d.advance(length)
		if length < FrameHeaderSize {
			continue
		}
		return frame, true
	}
	return nil, false
}

// Buffered returns the number of bytes waiting for a frame to complete
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}

// Reset discards any buffered bytes
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
}

func (d *Decoder) advance(n int) {
	remaining := len(d.buffer) - n
	if remaining == 0 {
		d.buffer = d.buffer[:0]
		return
	}
	// Keep the buffer anchored at the front so it does not grow without bound.
	copy(d.buffer, d.buffer[n:])
	d.buffer = d.buffer[:remaining]
}
