// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package media

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	zlog "github.com/rs/zerolog/log"
)

const (
	udisksService = "org.freedesktop.UDisks2"
	udisksPath    = "/org/freedesktop/UDisks2"
	blockIface    = "org.freedesktop.UDisks2.Block"
	objManIface   = "org.freedesktop.DBus.ObjectManager"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// Monitor subscribes to UDisks2 device signals on the system bus and
// reports disc transitions. It owns the present/track-count record;
// repeated notifications for an already-known disc are absorbed here
// and never reach the app loop.
type Monitor struct {
	conn     *dbus.Conn
	toc      TOCReader
	notifier Notifier

	signals chan *dbus.Signal
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	present bool
	faulted bool // unreadable disc still in the drive
}

func NewMonitor(toc TOCReader, notifier Notifier) (*Monitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect system bus")
	}

	matches := [][]dbus.MatchOption{
		{dbus.WithMatchSender(udisksService), dbus.WithMatchInterface(objManIface), dbus.WithMatchMember("InterfacesAdded")},
		{dbus.WithMatchSender(udisksService), dbus.WithMatchInterface(objManIface), dbus.WithMatchMember("InterfacesRemoved")},
		{dbus.WithMatchSender(udisksService), dbus.WithMatchInterface(propsIface), dbus.WithMatchMember("PropertiesChanged")},
	}
	for _, m := range matches {
		if err := conn.AddMatchSignal(m...); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "add udisks match")
		}
	}

	return &Monitor{
		conn:     conn,
		toc:      toc,
		notifier: notifier,
		signals:  make(chan *dbus.Signal, 16),
	}, nil
}

// Start begins signal processing and probes for a disc that was
// already inserted when the appliance booted.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.conn.Signal(m.signals)
	m.wg.Add(1)
	go m.run(ctx)

	if m.probeStartupDisc() {
		zlog.Info().Msg("media: disc present at startup")
		m.onMediaAppeared(ctx)
	}
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.conn.RemoveSignal(m.signals)
	m.conn.Close()
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			m.handleSignal(ctx, sig)
		}
	}
}

func (m *Monitor) handleSignal(ctx context.Context, sig *dbus.Signal) {
	switch sig.Name {
	case objManIface + ".InterfacesAdded":
		if len(sig.Body) < 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		ifaces, _ := sig.Body[1].(map[string]map[string]dbus.Variant)
		if _, ok := ifaces[blockIface]; !ok {
			return
		}
		if m.isOpticalWithMedia(path) {
			m.onMediaAppeared(ctx)
		}

	case objManIface + ".InterfacesRemoved":
		if len(sig.Body) < 2 {
			return
		}
		removed, _ := sig.Body[1].([]string)
		for _, iface := range removed {
			if iface == blockIface {
				m.onMediaGone()
				return
			}
		}

	case propsIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return
		}
		iface, _ := sig.Body[0].(string)
		if iface != blockIface {
			return
		}
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		_, idType := changed["IdType"]
		_, size := changed["Size"]
		if !idType && !size {
			return
		}
		if m.isOpticalWithMedia(sig.Path) {
			m.onMediaAppeared(ctx)
		} else if m.isOpticalDrive(sig.Path) {
			m.onMediaGone()
		}
	}
}

// onMediaAppeared reads the TOC and reports the disc. The read runs on
// the monitor goroutine, never on the app's event-consumption path.
func (m *Monitor) onMediaAppeared(ctx context.Context) {
	m.mu.Lock()
	if m.present || m.faulted {
		// duplicate notification for a disc we already classified;
		// an unreadable disc stays latched until it is ejected
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	toc, err := m.toc.ReadTOC(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("media: TOC read failed")
		m.mu.Lock()
		m.faulted = true
		m.mu.Unlock()
		m.notifier.HandleMedia(Event{Type: EventReadError, Err: err})
		return
	}

	m.mu.Lock()
	m.present = true
	m.mu.Unlock()

	zlog.Info().Int("tracks", toc.TrackCount).Msg("media: disc inserted")
	m.notifier.HandleMedia(Event{
		Type:         EventInserted,
		TrackCount:   toc.TrackCount,
		TrackLengths: toc.TrackLengths,
	})
}

func (m *Monitor) onMediaGone() {
	m.mu.Lock()
	wasPresent := m.present
	m.present = false
	m.faulted = false
	m.mu.Unlock()

	if !wasPresent {
		return
	}
	zlog.Info().Msg("media: disc removed")
	m.notifier.HandleMedia(Event{Type: EventRemoved})
}

// probeStartupDisc enumerates UDisks2 block objects looking for an
// optical device that already has media.
func (m *Monitor) probeStartupDisc() bool {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := m.conn.Object(udisksService, udisksPath)
	if err := obj.Call(objManIface+".GetManagedObjects", 0).Store(&objects); err != nil {
		zlog.Warn().Err(err).Msg("media: startup probe failed")
		return false
	}

	for _, ifaces := range objects {
		props, ok := ifaces[blockIface]
		if !ok {
			continue
		}
		device := blockDeviceName(props["Device"])
		size, _ := props["Size"].Value().(uint64)
		if isOpticalDeviceName(device) && size > 0 {
			return true
		}
	}
	return false
}

func (m *Monitor) isOpticalWithMedia(path dbus.ObjectPath) bool {
	device, size, ok := m.blockProps(path)
	return ok && isOpticalDeviceName(device) && size > 0
}

func (m *Monitor) isOpticalDrive(path dbus.ObjectPath) bool {
	device, _, ok := m.blockProps(path)
	return ok && isOpticalDeviceName(device)
}

func (m *Monitor) blockProps(path dbus.ObjectPath) (device string, size uint64, ok bool) {
	obj := m.conn.Object(udisksService, path)
	devVar, err := obj.GetProperty(blockIface + ".Device")
	if err != nil {
		return "", 0, false
	}
	sizeVar, err := obj.GetProperty(blockIface + ".Size")
	if err != nil {
		return "", 0, false
	}
	size, _ = sizeVar.Value().(uint64)
	return blockDeviceName(devVar), size, true
}

// blockDeviceName decodes the NUL-terminated byte array UDisks2 uses
// for device paths.
func blockDeviceName(v dbus.Variant) string {
	raw, _ := v.Value().([]byte)
	return strings.TrimRight(string(raw), "\x00")
}

func isOpticalDeviceName(device string) bool {
	return strings.Contains(device, "/dev/sr") || strings.Contains(device, "/dev/cdrom")
}
