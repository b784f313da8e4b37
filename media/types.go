// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package media watches the optical drive for disc insert and eject
// transitions and reads the disc table of contents.
package media

import "time"

type EventType int

const (
	// EventInserted carries the freshly read track count and lengths.
	EventInserted EventType = iota
	// EventRemoved invalidates everything known about the disc.
	EventRemoved
	// EventReadError means a disc appeared but its TOC was unreadable;
	// the disc is treated as absent.
	EventReadError
)

func (t EventType) String() string {
	switch t {
	case EventInserted:
		return "inserted"
	case EventRemoved:
		return "removed"
	case EventReadError:
		return "read_error"
	default:
		return "unknown"
	}
}

type Event struct {
	Type         EventType
	TrackCount   int
	TrackLengths []time.Duration
	Err          error
}

// Notifier receives media transitions. The app loop implements this.
type Notifier interface {
	HandleMedia(ev Event)
}
