// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package remote exposes the CD transport to desktop remote-control
// surfaces, currently MPRIS2 on the session bus.
package remote

// ControlledPlayer is the transport surface a remote may drive.
// Implementations must be safe to call from the D-Bus dispatch
// goroutine.
type ControlledPlayer interface {
	PlayPause() error
	NextTrack() error
	PreviousTrack() error
	Stop() error

	// IsPlaying reports whether audio is actively playing (not
	// paused, not stopped).
	IsPlaying() bool
	IsPaused() bool
}

// TrackInfo describes the playing track for remote metadata.
type TrackInfo struct {
	Number   int
	Total    int
	Duration int // seconds
}
