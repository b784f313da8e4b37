// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package mpvplayer plays CD audio tracks through an embedded libmpv
// instance using the cdda:// protocol.
package mpvplayer

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrEngineFailed means libmpv rejected a command or shut down; the
// transport is forced to Stopped when this happens.
var ErrEngineFailed = errors.New("playback engine failed")

// ErrNoDisc is returned for transport commands issued without a disc.
var ErrNoDisc = errors.New("no disc loaded")

// State is the transport state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

type EventType int

const (
	// EventPlaying fires when a track actually starts in the engine.
	EventPlaying EventType = iota
	EventPaused
	EventUnpaused
	EventStopped
	// EventStatus is a periodic progress report while a track plays.
	EventStatus
	EventError
)

// StatusData is a playback progress report.
type StatusData struct {
	Track    int
	Position time.Duration
	Duration time.Duration
}

type Event struct {
	Type   EventType
	Track  int
	Status StatusData
	Err    error
}

// EventConsumer receives transport events. Events are sent from the
// player's engine goroutine; consumers must not block.
type EventConsumer interface {
	SendPlayerEvent(Event)
}
