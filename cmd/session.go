// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Thermoquad/hubctl/pkg/capture"
	"github.com/Thermoquad/hubctl/pkg/hubconfig"
	"github.com/Thermoquad/hubctl/pkg/lpf2"
)

// session is one open hub connection with its protocol engine running
type session struct {
	hub      *lpf2.Hub
	conn     Connection
	connInfo string
	record   *os.File
	recorder *capture.Recorder

	cancel context.CancelFunc
	done   chan error
}

// loadProfile resolves the hub model table from --profile or --hub
func loadProfile() (*lpf2.Profile, error) {
	if profilePath != "" {
		return hubconfig.LoadFile(profilePath)
	}
	family, err := lpf2.ParseFamily(hubFamily)
	if err != nil {
		return nil, err
	}
	return lpf2.ProfileForFamily(family)
}

// openConnection opens the transport and wraps it in a recorder when
// --record is set
func openConnection() (Connection, string, *os.File, *capture.Recorder, error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, "", nil, nil, err
	}
	if recordPath == "" {
		return conn, connInfo, nil, nil, nil
	}

	f, err := os.Create(recordPath)
	if err != nil {
		conn.Close()
		return nil, "", nil, nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	rec := capture.NewRecorder(conn, capture.NewWriter(f))
	return rec, connInfo, f, rec, nil
}

// openSession connects to the hub and starts reading. Options are applied
// after the session's own.
func openSession(opts ...lpf2.Option) (*session, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, err
	}

	conn, connInfo, record, recorder, err := openConnection()
	if err != nil {
		return nil, err
	}

	hub, err := lpf2.NewHub(profile, conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		hub:      hub,
		conn:     conn,
		connInfo: connInfo,
		record:   record,
		recorder: recorder,
		cancel:   cancel,
		done:     make(chan error, 1),
	}
	go func() {
		s.done <- hub.Run(ctx, conn)
	}()
	return s, nil
}

// Done reports the read loop's exit error once the connection fails
func (s *session) Done() <-chan error {
	return s.done
}

// Close stops the engine and closes the transport and capture file
func (s *session) Close() error {
	s.cancel()
	s.hub.Close()
	err := s.conn.Close()
	if s.recorder != nil {
		if recErr := s.recorder.Err(); recErr != nil {
			log.Printf("Capture error: %v", recErr)
		}
	}
	if s.record != nil {
		if cerr := s.record.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if errors.Is(err, ErrConnectionClosed) {
		return nil
	}
	return err
}
