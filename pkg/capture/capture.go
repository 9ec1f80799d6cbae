// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records and replays the raw byte traffic of a hub
// connection. A capture file is a sequence of CBOR-encoded records, one
// per transport delivery, so replaying it reproduces the original chunking.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a recorded delivery
type Direction uint8

const (
	Inbound  Direction = 0 // hub to host
	Outbound Direction = 1 // host to hub
)

// String returns a short direction label
func (d Direction) String() string {
	if d == Outbound {
		return "TX"
	}
	return "RX"
}

// Record is one transport delivery: {0: nanos, 1: direction, 2: bytes}
type Record struct {
	Nanos int64     `cbor:"0,keyasint"`
	Dir   Direction `cbor:"1,keyasint"`
	Data  []byte    `cbor:"2,keyasint"`
}

// Offset returns the record time relative to the start of the capture
func (r Record) Offset() time.Duration {
	return time.Duration(r.Nanos)
}

// Writer appends records to a capture stream
type Writer struct {
	mu    sync.Mutex
	enc   *cbor.Encoder
	start time.Time
	now   func() time.Time
}

// NewWriter creates a capture writer. Record times are measured from now.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		enc:   cbor.NewEncoder(w),
		start: time.Now(),
		now:   time.Now,
	}
}

// Write records one delivery in the given direction. Safe for concurrent use.
func (w *Writer) Write(dir Direction, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec := Record{
		Nanos: w.now().Sub(w.start).Nanoseconds(),
		Dir:   dir,
		Data:  append([]byte(nil), data...),
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode capture record: %w", err)
	}
	return nil
}

// Reader reads records from a capture stream
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a capture reader
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return rec, nil
}

// ReadAll returns every record in the stream
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Conn is the transport shape a Recorder wraps
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Recorder wraps a connection and records both directions of its traffic.
// Recording failures never interrupt the connection; the first one is kept
// and reported by Err.
type Recorder struct {
	conn Conn
	w    *Writer

	mu  sync.Mutex
	err error
}

// NewRecorder wraps conn, recording its traffic to w
func NewRecorder(conn Conn, w *Writer) *Recorder {
	return &Recorder{conn: conn, w: w}
}

// Read reads from the connection and records what was received
func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.conn.Read(p)
	if n > 0 {
		r.record(Inbound, p[:n])
	}
	return n, err
}

// Write records and forwards a frame to the connection
func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.conn.Write(p)
	if n > 0 {
		r.record(Outbound, p[:n])
	}
	return n, err
}

// Close closes the underlying connection
func (r *Recorder) Close() error {
	return r.conn.Close()
}

// Err returns the first recording error, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(dir Direction, data []byte) {
	if err := r.w.Write(dir, data); err != nil {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}
