// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package sinks tracks the available audio outputs, routes playback to
// one of them and remembers the user's last explicit choice.
package sinks

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrSinkUnavailable is returned when activation targets a sink that
// is not currently connected.
var ErrSinkUnavailable = errors.New("sink unavailable")

type Kind int

const (
	KindWired Kind = iota
	KindBluetooth
)

func (k Kind) String() string {
	if k == KindBluetooth {
		return "bluetooth"
	}
	return "wired"
}

// Sink is one audio output destination.
type Sink struct {
	ID          string
	Kind        Kind
	DisplayName string
	Connected   bool
}

type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	// EventLost means the *active* sink disappeared and playback was
	// routed back to the wired output.
	EventLost
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventLost:
		return "lost"
	default:
		return "unknown"
	}
}

type Event struct {
	Type EventType
	Sink Sink
}

// Notifier receives sink transitions. The app loop implements this.
type Notifier interface {
	HandleSink(ev Event)
}

// Backend abstracts the audio server. The production implementation
// shells out to pactl.
type Backend interface {
	ListSinks(ctx context.Context) ([]Sink, error)
	SetDefaultSink(ctx context.Context, id string) error
}

// Preference is the durable last-sink record.
type Preference interface {
	LastSinkID() (string, error)
	SetLastSinkID(id string) error
}
