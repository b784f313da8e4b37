// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"

	zlog "github.com/rs/zerolog/log"

	"github.com/KollTHOR/cd-player/bluez"
	"github.com/KollTHOR/cd-player/input"
	"github.com/KollTHOR/cd-player/sinks"
)

type Screen int

const (
	ScreenPlayback Screen = iota
	ScreenMenuRoot
	ScreenTrackList
	ScreenAudioList
	ScreenBTList
	ScreenBTActions
)

func (s Screen) String() string {
	switch s {
	case ScreenMenuRoot:
		return "Menu"
	case ScreenTrackList:
		return "Tracks"
	case ScreenAudioList:
		return "Audio Out"
	case ScreenBTList:
		return "Bluetooth"
	case ScreenBTActions:
		return "Device"
	default:
		return "Playback"
	}
}

type btAction int

const (
	btActionPair btAction = iota
	btActionConnect
	btActionDisconnect
	btActionForget
)

func (a btAction) String() string {
	switch a {
	case btActionPair:
		return "Pair"
	case btActionConnect:
		return "Connect"
	case btActionDisconnect:
		return "Disconnect"
	default:
		return "Forget"
	}
}

// Controller is the command surface the navigator drives. Methods that
// name a *Msg type are asynchronous: they return immediately and their
// completion arrives later on the app queue.
type Controller interface {
	TogglePlayPause()
	NextTrack()
	PreviousTrack()
	PlayTrack(track int)

	TrackCount() int
	AudioSinks() []sinks.Sink
	ActivateSink(id string) // completion: sinkActivatedMsg

	KnownDevices() []bluez.Device
	StartScan()                                        // completion: scanDoneMsg
	RunDeviceAction(dev bluez.Device, action btAction) // completion: btOpDoneMsg

	ShowNotice(text string)
}

type itemKind int

const (
	itemSubmenu itemKind = iota
	itemTrack
	itemSink
	itemScan
	itemDevice
	itemBTAction
)

// navItem is one activatable entry of a menu screen. Screens are item
// lists, so adding an entry is a data change.
type navItem struct {
	label  string
	kind   itemKind
	screen Screen // itemSubmenu
	track  int    // itemTrack
	sinkID string // itemSink
	device bluez.Device
	action btAction
}

// Navigator is the single-threaded screen state machine. It must only
// be called from the control loop goroutine.
type Navigator struct {
	ctrl Controller

	screen Screen
	stack  []Screen
	sel    int
	items  []navItem

	btTarget bluez.Device
	scanning bool
}

func NewNavigator(ctrl Controller) *Navigator {
	return &Navigator{ctrl: ctrl, screen: ScreenPlayback}
}

func (n *Navigator) Screen() Screen { return n.screen }

func (n *Navigator) InMenu() bool { return n.screen != ScreenPlayback }

// View returns the current screen's item labels and selection for the
// projector. Empty on the playback screen.
func (n *Navigator) View() (items []string, sel int) {
	for _, it := range n.items {
		items = append(items, it.label)
	}
	return items, n.sel
}

func (n *Navigator) HandleButton(ev input.ButtonEvent) {
	if n.screen == ScreenPlayback {
		n.handlePlaybackButton(ev)
		return
	}

	switch {
	case ev.Kind == input.PressLong:
		// exit menu entirely
		n.reset()
	case ev.Kind == input.PressDouble:
		n.pop()
	case ev.Button == input.ButtonNext:
		n.moveSelection(1)
	case ev.Button == input.ButtonPrev:
		n.moveSelection(-1)
	case ev.Button == input.ButtonPlayPause:
		n.activateSelected()
	}
}

func (n *Navigator) handlePlaybackButton(ev input.ButtonEvent) {
	if ev.Kind == input.PressLong && ev.Button == input.ButtonPlayPause {
		n.enter(ScreenMenuRoot)
		return
	}
	if ev.Kind != input.PressShort {
		return
	}
	switch ev.Button {
	case input.ButtonPlayPause:
		n.ctrl.TogglePlayPause()
	case input.ButtonNext:
		n.ctrl.NextTrack()
	case input.ButtonPrev:
		n.ctrl.PreviousTrack()
	}
}

func (n *Navigator) moveSelection(delta int) {
	if len(n.items) == 0 {
		return
	}
	n.sel = (n.sel + delta + len(n.items)) % len(n.items)
}

func (n *Navigator) activateSelected() {
	if n.sel >= len(n.items) {
		return
	}
	it := n.items[n.sel]
	switch it.kind {
	case itemSubmenu:
		if it.screen == ScreenTrackList && n.ctrl.TrackCount() == 0 {
			// nothing to list; stay where we are
			n.ctrl.ShowNotice("No disc")
			return
		}
		n.enter(it.screen)

	case itemTrack:
		n.ctrl.PlayTrack(it.track)
		n.reset()

	case itemSink:
		n.ctrl.ActivateSink(it.sinkID)

	case itemScan:
		if n.scanning {
			return
		}
		n.scanning = true
		n.ctrl.ShowNotice("Scanning...")
		n.ctrl.StartScan()

	case itemDevice:
		n.btTarget = it.device
		n.enter(ScreenBTActions)

	case itemBTAction:
		n.ctrl.ShowNotice(it.action.String() + "...")
		n.ctrl.RunDeviceAction(n.btTarget, it.action)
	}
}

// enter pushes the current screen and snapshots the target's items.
// Selection always starts at the top.
func (n *Navigator) enter(target Screen) {
	n.stack = append(n.stack, n.screen)
	n.screen = target
	n.sel = 0
	n.items = n.buildItems(target)
}

// pop returns one level, re-snapshotting that screen's items.
func (n *Navigator) pop() {
	if len(n.stack) == 0 {
		n.reset()
		return
	}
	prev := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	n.screen = prev
	n.sel = 0
	n.items = n.buildItems(prev)
}

// reset drops the whole menu stack and returns to the playback screen.
func (n *Navigator) reset() {
	n.screen = ScreenPlayback
	n.stack = nil
	n.sel = 0
	n.items = nil
}

func (n *Navigator) buildItems(screen Screen) []navItem {
	switch screen {
	case ScreenMenuRoot:
		return []navItem{
			{label: "Tracks", kind: itemSubmenu, screen: ScreenTrackList},
			{label: "Audio Out", kind: itemSubmenu, screen: ScreenAudioList},
			{label: "Bluetooth", kind: itemSubmenu, screen: ScreenBTList},
		}

	case ScreenTrackList:
		count := n.ctrl.TrackCount()
		items := make([]navItem, 0, count)
		for t := 1; t <= count; t++ {
			items = append(items, navItem{
				label: fmt.Sprintf("Track %02d", t),
				kind:  itemTrack,
				track: t,
			})
		}
		return items

	case ScreenAudioList:
		var items []navItem
		for _, s := range n.ctrl.AudioSinks() {
			items = append(items, navItem{label: s.DisplayName, kind: itemSink, sinkID: s.ID})
		}
		return items

	case ScreenBTList:
		items := []navItem{{label: "Scan", kind: itemScan}}
		for _, d := range n.ctrl.KnownDevices() {
			label := d.DisplayName()
			if d.Connected {
				label = "*" + label
			}
			items = append(items, navItem{label: label, kind: itemDevice, device: d})
		}
		return items

	case ScreenBTActions:
		if !n.btTarget.Paired {
			return []navItem{{label: "Pair", kind: itemBTAction, action: btActionPair}}
		}
		items := []navItem{}
		if n.btTarget.Connected {
			items = append(items, navItem{label: "Disconnect", kind: itemBTAction, action: btActionDisconnect})
		} else {
			items = append(items, navItem{label: "Connect", kind: itemBTAction, action: btActionConnect})
		}
		return append(items, navItem{label: "Forget", kind: itemBTAction, action: btActionForget})

	default:
		return nil
	}
}

// HandleSinkActivated consumes the result of an audio-output switch.
// Failure keeps the list on screen so the user can pick another sink.
func (n *Navigator) HandleSinkActivated(id string, err error) {
	if err != nil {
		zlog.Warn().Err(err).Str("sink", id).Msg("nav: sink activation failed")
		n.ctrl.ShowNotice("Unavailable")
		return
	}
	if n.screen == ScreenAudioList {
		n.reset()
	}
}

// HandleScanResult refreshes the device list after a scan finishes.
func (n *Navigator) HandleScanResult(err error) {
	n.scanning = false
	if err != nil {
		zlog.Warn().Err(err).Msg("nav: scan failed")
		n.ctrl.ShowNotice("Scan failed")
		return
	}
	if n.screen == ScreenBTList {
		n.items = n.buildItems(ScreenBTList)
		if n.sel >= len(n.items) {
			n.sel = 0
		}
	}
}

// HandleBTOpDone consumes a pair/connect/disconnect/forget result.
// Errors keep the current Bluetooth screen.
func (n *Navigator) HandleBTOpDone(msg btOpDoneMsg) {
	if msg.err != nil {
		zlog.Warn().Err(msg.err).Stringer("action", msg.action).Msg("nav: bluetooth op failed")
		n.ctrl.ShowNotice(msg.action.String() + " failed")
		return
	}
	n.ctrl.ShowNotice(msg.action.String() + " OK")

	switch n.screen {
	case ScreenBTActions:
		// the device's action set changed (or it is gone); go back
		// to the refreshed device list
		n.pop()
	case ScreenBTList:
		n.items = n.buildItems(ScreenBTList)
		if n.sel >= len(n.items) {
			n.sel = 0
		}
	}
}

// HandleMediaRemoved forcibly leaves the track list when the disc it
// was browsing is ejected.
func (n *Navigator) HandleMediaRemoved() {
	if n.screen == ScreenTrackList {
		n.pop()
	}
}

// HandleSinkLost shows the loss notice; the screen itself is kept.
func (n *Navigator) HandleSinkLost(lost sinks.Sink) {
	n.ctrl.ShowNotice("Lost " + lost.DisplayName)
	if n.screen == ScreenAudioList {
		n.items = n.buildItems(ScreenAudioList)
		if n.sel >= len(n.items) {
			n.sel = 0
		}
	}
}

// HandleMenuTimeout returns to playback after menu inactivity.
func (n *Navigator) HandleMenuTimeout() {
	if n.InMenu() {
		zlog.Debug().Msg("nav: menu timeout")
		n.reset()
	}
}
