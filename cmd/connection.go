// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection carries hub bytes over Bluetooth LE, serial or WebSocket.
// A Read never spans two transport deliveries, so the frame decoder sees
// the same chunking the hub produced.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned once the link to the hub is gone.
// Transport errors wrap it so callers can test with errors.Is.
var ErrConnectionClosed = errors.New("connection closed")

const (
	wsHandshakeTimeout = 10 * time.Second
	wsDialTimeout      = 15 * time.Second
	wsWriteTimeout     = 5 * time.Second
)

func closedError(err error) error {
	if err == nil || errors.Is(err, ErrConnectionClosed) {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
}

// SerialConnection is a BLE-UART bridge or a wired test rig.
// Reads return whatever the driver has buffered.
type SerialConnection struct {
	serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	n, err := s.Port.Read(p)
	if err != nil {
		return n, closedError(err)
	}
	return n, nil
}

// OpenSerialConnection opens portName at 8N1
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		if names, listErr := serial.GetPortsList(); listErr == nil && len(names) > 0 {
			return nil, fmt.Errorf("failed to open serial port %s (available: %s): %w",
				portName, strings.Join(names, ", "), err)
		}
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return &SerialConnection{Port: port}, nil
}

// WebSocketConnection is a bridge that relays hub notifications as binary
// messages. One message is one delivery; it may hold a partial frame or
// several frames. Text messages are bridge chatter and are skipped.
type WebSocketConnection struct {
	conn *websocket.Conn

	// Read side, single reader
	pending []byte
	readErr error

	// The hub writes from timer callbacks as well as from the caller
	writeMu sync.Mutex
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		if w.readErr != nil {
			return 0, w.readErr
		}
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.readErr = ErrConnectionClosed
			} else {
				w.readErr = closedError(err)
			}
			continue
		}
		if messageType == websocket.BinaryMessage {
			w.pending = data
		}
	}

	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, closedError(err)
	}
	return len(p), nil
}

// Close says goodbye to the bridge before dropping the socket
func (w *WebSocketConnection) Close() error {
	w.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	w.writeMu.Unlock()

	return w.conn.Close()
}

// OpenWebSocketConnection dials a ws:// or wss:// bridge. Credentials are
// sent as HTTP Basic auth when both are set.
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, u.String(), basicAuthHeader(username, password))
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &WebSocketConnection{conn: conn}, nil
}

func basicAuthHeader(username, password string) http.Header {
	header := http.Header{}
	if username == "" || password == "" {
		return header
	}
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	header.Set("Authorization", "Basic "+token)
	return header
}

// GetPassword reads the bridge password from HUBCTL_PASSWORD, the terminal
// without echo, or a line of piped stdin
func GetPassword() (string, error) {
	if pw := os.Getenv("HUBCTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens the transport selected by the root flags: --url,
// then --port, then Bluetooth LE
func OpenConnection() (Connection, string, error) {
	switch {
	case wsURL != "":
		var password string
		if wsUsername != "" {
			pw, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			password = pw
		}
		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, "WebSocket: " + wsURL, nil

	case portName != "":
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil

	default:
		conn, info, err := OpenBLEConnection(bleAddress, scanTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, "Bluetooth: " + info, nil
	}
}
