// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// LPF2 GATT service and characteristic
const (
	lpf2ServiceUUID        = "00001623-1212-efde-1623-785feabcd123"
	lpf2CharacteristicUUID = "00001624-1212-efde-1623-785feabcd123"
)

// notificationQueue bounds how many notifications may wait for Read
const notificationQueue = 256

// BLEConnection carries hub frames over the LPF2 characteristic.
// Every notification is one delivery; writes go out without response.
type BLEConnection struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic

	rx        chan []byte
	buf       []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (b *BLEConnection) Read(p []byte) (int, error) {
	if len(b.buf) == 0 {
		select {
		case data := <-b.rx:
			b.buf = data
		case <-b.done:
			return 0, ErrConnectionClosed
		}
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

func (b *BLEConnection) Write(p []byte) (int, error) {
	select {
	case <-b.done:
		return 0, ErrConnectionClosed
	default:
	}
	return b.char.WriteWithoutResponse(p)
}

func (b *BLEConnection) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.device.Disconnect()
	})
	return err
}

func (b *BLEConnection) notify(data []byte) {
	chunk := append([]byte(nil), data...)
	select {
	case b.rx <- chunk:
	case <-b.done:
	default:
		log.Printf("BLE: dropped %d byte notification (reader too slow)", len(chunk))
	}
}

// OpenBLEConnection scans for an LPF2 hub and connects to it. With an empty
// address the first hub advertising the LPF2 service is used.
func OpenBLEConnection(address string, timeout time.Duration) (Connection, string, error) {
	serviceUUID, err := bluetooth.ParseUUID(lpf2ServiceUUID)
	if err != nil {
		return nil, "", err
	}
	charUUID, err := bluetooth.ParseUUID(lpf2CharacteristicUUID)
	if err != nil {
		return nil, "", err
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, "", fmt.Errorf("failed to enable Bluetooth adapter: %w", err)
	}

	result, err := scanForHub(adapter, address, serviceUUID, timeout)
	if err != nil {
		return nil, "", err
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to %s: %w", result.Address.String(), err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return nil, "", fmt.Errorf("LPF2 service not found on %s: %v", result.Address.String(), err)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil || len(chars) == 0 {
		device.Disconnect()
		return nil, "", fmt.Errorf("LPF2 characteristic not found on %s: %v", result.Address.String(), err)
	}

	conn := &BLEConnection{
		device: device,
		char:   chars[0],
		rx:     make(chan []byte, notificationQueue),
		done:   make(chan struct{}),
	}
	if err := conn.char.EnableNotifications(conn.notify); err != nil {
		device.Disconnect()
		return nil, "", fmt.Errorf("failed to enable notifications: %w", err)
	}

	info := result.Address.String()
	if name := result.LocalName(); name != "" {
		info = fmt.Sprintf("%s [%s]", name, info)
	}
	return conn, info, nil
}

// scanForHub blocks until a matching hub is seen or the timeout expires
func scanForHub(adapter *bluetooth.Adapter, address string, service bluetooth.UUID, timeout time.Duration) (bluetooth.ScanResult, error) {
	var (
		found  bluetooth.ScanResult
		ok     bool
		mu     sync.Mutex
		stopAt = time.AfterFunc(timeout, func() { adapter.StopScan() })
	)
	defer stopAt.Stop()

	err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
		if address != "" {
			if !strings.EqualFold(result.Address.String(), address) {
				return
			}
		} else if !result.HasServiceUUID(service) {
			return
		}

		mu.Lock()
		if !ok {
			found, ok = result, true
		}
		mu.Unlock()
		a.StopScan()
	})
	if err != nil {
		return bluetooth.ScanResult{}, fmt.Errorf("scan failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !ok {
		if address != "" {
			return bluetooth.ScanResult{}, fmt.Errorf("hub %s not found within %s", address, timeout)
		}
		return bluetooth.ScanResult{}, fmt.Errorf("no LPF2 hub found within %s", timeout)
	}
	return found, nil
}
