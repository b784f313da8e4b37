// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KollTHOR/cd-player/bluez"
	"github.com/KollTHOR/cd-player/input"
	"github.com/KollTHOR/cd-player/sinks"
)

type fakeController struct {
	trackCount int
	sinkList   []sinks.Sink
	devices    []bluez.Device

	played    []int
	toggles   int
	nexts     int
	prevs     int
	activated []string
	scans     int
	actions   []btAction
	notices   []string
}

func (f *fakeController) TogglePlayPause()      { f.toggles++ }
func (f *fakeController) NextTrack()            { f.nexts++ }
func (f *fakeController) PreviousTrack()        { f.prevs++ }
func (f *fakeController) PlayTrack(track int)   { f.played = append(f.played, track) }
func (f *fakeController) TrackCount() int       { return f.trackCount }
func (f *fakeController) AudioSinks() []sinks.Sink {
	return f.sinkList
}
func (f *fakeController) ActivateSink(id string)       { f.activated = append(f.activated, id) }
func (f *fakeController) KnownDevices() []bluez.Device { return f.devices }
func (f *fakeController) StartScan()                   { f.scans++ }
func (f *fakeController) RunDeviceAction(dev bluez.Device, action btAction) {
	f.actions = append(f.actions, action)
}
func (f *fakeController) ShowNotice(text string) { f.notices = append(f.notices, text) }

func press(n *Navigator, b input.Button, k input.PressKind) {
	n.HandleButton(input.ButtonEvent{Button: b, Kind: k})
}

func TestLongPressOpensMenu(t *testing.T) {
	n := NewNavigator(&fakeController{})

	press(n, input.ButtonPlayPause, input.PressLong)
	assert.Equal(t, ScreenMenuRoot, n.Screen())

	items, sel := n.View()
	assert.Equal(t, []string{"Tracks", "Audio Out", "Bluetooth"}, items)
	assert.Zero(t, sel)
}

func TestDoublePopsExactlyOneLevel(t *testing.T) {
	ctrl := &fakeController{trackCount: 5}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPlayPause, input.PressShort) // enter Tracks
	require.Equal(t, ScreenTrackList, n.Screen())

	press(n, input.ButtonPlayPause, input.PressDouble)
	assert.Equal(t, ScreenMenuRoot, n.Screen())

	press(n, input.ButtonPlayPause, input.PressDouble)
	assert.Equal(t, ScreenPlayback, n.Screen())
}

func TestPlaybackButtonsDriveTransport(t *testing.T) {
	ctrl := &fakeController{}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressShort)
	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonPrev, input.PressShort)

	assert.Equal(t, 1, ctrl.toggles)
	assert.Equal(t, 1, ctrl.nexts)
	assert.Equal(t, 1, ctrl.prevs)
	assert.Equal(t, ScreenPlayback, n.Screen())
}

func TestTrackSelectionStartsPlayback(t *testing.T) {
	ctrl := &fakeController{trackCount: 10}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPlayPause, input.PressShort) // enter Tracks

	items, _ := n.View()
	require.Len(t, items, 10)

	for i := 0; i < 6; i++ {
		press(n, input.ButtonNext, input.PressShort)
	}
	press(n, input.ButtonPlayPause, input.PressShort) // select track 7

	assert.Equal(t, []int{7}, ctrl.played)
	assert.Equal(t, ScreenPlayback, n.Screen())
}

func TestTrackListRefusedWithoutDisc(t *testing.T) {
	ctrl := &fakeController{trackCount: 0}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPlayPause, input.PressShort)

	assert.Equal(t, ScreenMenuRoot, n.Screen(), "entry must be refused, not entered empty")
	assert.Equal(t, []string{"No disc"}, ctrl.notices)
}

func TestSelectionWrapsAround(t *testing.T) {
	ctrl := &fakeController{sinkList: []sinks.Sink{
		{ID: "wired", DisplayName: "Wired Out"},
		{ID: "bt1", DisplayName: "JBL Flip"},
		{ID: "bt2", DisplayName: "Soundbar"},
	}}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonNext, input.PressShort)      // Audio Out
	press(n, input.ButtonPlayPause, input.PressShort) // enter
	require.Equal(t, ScreenAudioList, n.Screen())

	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonNext, input.PressShort)
	_, sel := n.View()
	require.Equal(t, 2, sel)

	press(n, input.ButtonNext, input.PressShort)
	_, sel = n.View()
	assert.Zero(t, sel, "NEXT past the last item wraps to the top")

	press(n, input.ButtonPrev, input.PressShort)
	_, sel = n.View()
	assert.Equal(t, 2, sel, "PREV from the top wraps to the bottom")
}

func TestSinkActivationFailureStaysOnList(t *testing.T) {
	ctrl := &fakeController{sinkList: []sinks.Sink{{ID: "wired", DisplayName: "Wired Out"}}}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonPlayPause, input.PressShort) // enter Audio Out
	press(n, input.ButtonPlayPause, input.PressShort) // pick the sink
	require.Equal(t, []string{"wired"}, ctrl.activated)

	n.HandleSinkActivated("wired", sinks.ErrSinkUnavailable)
	assert.Equal(t, ScreenAudioList, n.Screen())
	assert.Contains(t, ctrl.notices, "Unavailable")

	n.HandleSinkActivated("wired", nil)
	assert.Equal(t, ScreenPlayback, n.Screen(), "successful switch leaves the menu")
}

func TestSinkLostKeepsScreen(t *testing.T) {
	ctrl := &fakeController{}
	n := NewNavigator(ctrl)

	n.HandleSinkLost(sinks.Sink{ID: "bt1", DisplayName: "JBL Flip"})
	assert.Equal(t, ScreenPlayback, n.Screen())
	assert.Equal(t, []string{"Lost JBL Flip"}, ctrl.notices)
}

func TestMediaRemovalPopsTrackList(t *testing.T) {
	ctrl := &fakeController{trackCount: 3}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPlayPause, input.PressShort)
	require.Equal(t, ScreenTrackList, n.Screen())

	n.HandleMediaRemoved()
	assert.Equal(t, ScreenMenuRoot, n.Screen())

	// removal on any other screen is a no-op
	n.HandleMediaRemoved()
	assert.Equal(t, ScreenMenuRoot, n.Screen())
}

func TestMenuTimeoutReturnsToPlayback(t *testing.T) {
	n := NewNavigator(&fakeController{})

	press(n, input.ButtonPlayPause, input.PressLong)
	n.HandleMenuTimeout()
	assert.Equal(t, ScreenPlayback, n.Screen())

	n.HandleMenuTimeout()
	assert.Equal(t, ScreenPlayback, n.Screen())
}

func TestDeviceActionsFollowPairingState(t *testing.T) {
	unpaired := bluez.Device{Address: "AA:BB:CC:DD:EE:01", Name: "New Speaker"}
	paired := bluez.Device{Address: "AA:BB:CC:DD:EE:02", Name: "Old Speaker", Paired: true, Connected: true}
	ctrl := &fakeController{devices: []bluez.Device{unpaired, paired}}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPrev, input.PressShort)      // wrap to Bluetooth
	press(n, input.ButtonPlayPause, input.PressShort) // enter

	items, _ := n.View()
	require.Equal(t, []string{"Scan", "New Speaker", "*Old Speaker"}, items)

	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonPlayPause, input.PressShort) // open New Speaker
	items, _ = n.View()
	assert.Equal(t, []string{"Pair"}, items)

	press(n, input.ButtonPlayPause, input.PressDouble) // back to list
	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonNext, input.PressShort)
	press(n, input.ButtonPlayPause, input.PressShort) // open Old Speaker
	items, _ = n.View()
	assert.Equal(t, []string{"Disconnect", "Forget"}, items)

	press(n, input.ButtonPlayPause, input.PressShort)
	assert.Equal(t, []btAction{btActionDisconnect}, ctrl.actions)
}

func TestScanRefreshesDeviceList(t *testing.T) {
	ctrl := &fakeController{}
	n := NewNavigator(ctrl)

	press(n, input.ButtonPlayPause, input.PressLong)
	press(n, input.ButtonPrev, input.PressShort)
	press(n, input.ButtonPlayPause, input.PressShort) // enter Bluetooth
	press(n, input.ButtonPlayPause, input.PressShort) // Scan
	require.Equal(t, 1, ctrl.scans)

	// a second press while scanning must not start another scan
	press(n, input.ButtonPlayPause, input.PressShort)
	assert.Equal(t, 1, ctrl.scans)

	ctrl.devices = []bluez.Device{{Address: "AA:BB:CC:DD:EE:03", Name: "Found"}}
	n.HandleScanResult(nil)
	items, _ := n.View()
	assert.Equal(t, []string{"Scan", "Found"}, items)
}
