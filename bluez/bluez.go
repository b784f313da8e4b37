// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package bluez drives Bluetooth device lifecycle operations through
// the BlueZ daemon on the system bus.
package bluez

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	zlog "github.com/rs/zerolog/log"
)

const (
	busName      = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"
	objManIface  = "org.freedesktop.DBus.ObjectManager"

	pairTimeout    = 30 * time.Second
	connectTimeout = 20 * time.Second
	opTimeout      = 10 * time.Second
)

// ErrOperationFailed wraps any failed scan/pair/connect operation.
var ErrOperationFailed = errors.New("bluetooth operation failed")

// ErrNoAdapter means no Bluetooth adapter is present on the bus.
var ErrNoAdapter = errors.New("no bluetooth adapter")

// Device is one remote Bluetooth device known to the adapter.
type Device struct {
	Path      dbus.ObjectPath
	Address   string
	Name      string
	Paired    bool
	Connected bool
}

// DisplayName returns the device name, or a short identifier derived
// from the address when the device never reported one.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	suffix := strings.ReplaceAll(d.Address, ":", "")
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "Device-" + strings.ToUpper(suffix)
}

// Client wraps the BlueZ adapter object.
type Client struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
}

func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect system bus")
	}

	c := &Client{conn: conn}
	adapter, err := c.findAdapter()
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.adapter = adapter
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) findAdapter() (dbus.ObjectPath, error) {
	objects, err := c.managedObjects()
	if err != nil {
		return "", err
	}
	for path, ifaces := range objects {
		if _, ok := ifaces[adapterIface]; ok {
			return path, nil
		}
	}
	return "", ErrNoAdapter
}

// Scan discovers devices for the given duration. Cancelling the
// context stops discovery early; known devices are still returned.
func (c *Client) Scan(ctx context.Context, duration time.Duration) ([]Device, error) {
	adapter := c.conn.Object(busName, c.adapter)
	if err := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0).Err; err != nil {
		return nil, errors.Wrap(ErrOperationFailed, err.Error())
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}

	if err := adapter.Call(adapterIface+".StopDiscovery", 0).Err; err != nil {
		zlog.Warn().Err(err).Msg("bluez: stop discovery failed")
	}
	return c.Devices()
}

// Devices lists every device BlueZ currently knows, sorted by name.
func (c *Client) Devices() ([]Device, error) {
	objects, err := c.managedObjects()
	if err != nil {
		return nil, err
	}

	var devices []Device
	for path, ifaces := range objects {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		d := Device{Path: path}
		if v, ok := props["Address"].Value().(string); ok {
			d.Address = v
		}
		if v, ok := props["Name"].Value().(string); ok {
			d.Name = v
		}
		if v, ok := props["Paired"].Value().(bool); ok {
			d.Paired = v
		}
		if v, ok := props["Connected"].Value().(bool); ok {
			d.Connected = v
		}
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.DisplayName() != b.DisplayName() {
			return strings.ToLower(a.DisplayName()) < strings.ToLower(b.DisplayName())
		}
		return a.Address < b.Address
	})
	return devices, nil
}

// Pair pairs with the device and, on success, immediately attempts a
// connection so the sink shows up without a second trip to the menu.
func (c *Client) Pair(ctx context.Context, path dbus.ObjectPath) error {
	ctx, cancel := context.WithTimeout(ctx, pairTimeout)
	defer cancel()
	if err := c.deviceCall(ctx, path, "Pair"); err != nil {
		return err
	}
	if err := c.Connect(ctx, path); err != nil {
		zlog.Warn().Err(err).Str("device", string(path)).Msg("bluez: paired but auto-connect failed")
	}
	return nil
}

func (c *Client) Connect(ctx context.Context, path dbus.ObjectPath) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return c.deviceCall(ctx, path, "Connect")
}

func (c *Client) Disconnect(ctx context.Context, path dbus.ObjectPath) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.deviceCall(ctx, path, "Disconnect")
}

// Forget removes the pairing entirely.
func (c *Client) Forget(ctx context.Context, path dbus.ObjectPath) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	adapter := c.conn.Object(busName, c.adapter)
	if err := adapter.CallWithContext(ctx, adapterIface+".RemoveDevice", 0, path).Err; err != nil {
		return errors.Wrap(ErrOperationFailed, err.Error())
	}
	return nil
}

func (c *Client) deviceCall(ctx context.Context, path dbus.ObjectPath, method string) error {
	obj := c.conn.Object(busName, path)
	if err := obj.CallWithContext(ctx, deviceIface+"."+method, 0).Err; err != nil {
		return errors.Wrapf(ErrOperationFailed, "%s: %s", method, err.Error())
	}
	return nil
}

func (c *Client) managedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := c.conn.Object(busName, "/")
	if err := obj.Call(objManIface+".GetManagedObjects", 0).Store(&objects); err != nil {
		return nil, errors.Wrap(err, "get managed objects")
	}
	return objects, nil
}
