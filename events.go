// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"github.com/KollTHOR/cd-player/bluez"
	"github.com/KollTHOR/cd-player/input"
	"github.com/KollTHOR/cd-player/media"
	"github.com/KollTHOR/cd-player/mpvplayer"
	"github.com/KollTHOR/cd-player/sinks"
)

// Every producer wraps its payload in one of these message types and
// puts it on the app queue. The control loop is the only consumer, so
// all state transitions happen in strict arrival order.

type buttonMsg struct {
	ev input.ButtonEvent
}

type mediaMsg struct {
	ev media.Event
}

type sinkMsg struct {
	ev sinks.Event
}

type playerMsg struct {
	ev mpvplayer.Event
}

// menuTimeoutMsg fires when the menu sat untouched too long.
type menuTimeoutMsg struct{}

// noticeExpiredMsg clears a transient display notice. gen identifies
// which notice the expiry belongs to; a stale expiry already queued
// when a newer notice replaced the text must not clear it.
type noticeExpiredMsg struct {
	gen int
}

// Completions of blocking work done off the control loop. Each one
// re-enters the queue so the state machine stays single-threaded.

type sinkActivatedMsg struct {
	id  string
	err error
}

type scanDoneMsg struct {
	devices []bluez.Device
	err     error
}

type btOpDoneMsg struct {
	action  btAction
	device  bluez.Device
	devices []bluez.Device // refreshed list after the operation
	err     error
}
