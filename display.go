// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/KollTHOR/cd-player/mpvplayer"
)

// displayWidth is the character width of each LCD line.
const displayWidth = 16

// DisplayState is everything the projector needs for one render. It
// is a snapshot; projecting the same state twice yields the same two
// lines.
type DisplayState struct {
	Screen    Screen
	Items     []string
	Selection int

	Transport  mpvplayer.State
	Track      int
	TrackCount int
	Position   time.Duration
	Duration   time.Duration

	MediaPresent bool
	Notice       string
}

// Project renders the display state into two fixed-width lines.
// Truncation only, never wrapping; both lines are always padded to
// full width so shorter strings fully overwrite previous content.
func Project(s DisplayState) (string, string) {
	top, bottom := project(s)
	if s.Notice != "" {
		bottom = s.Notice
	}
	return padLine(top), padLine(bottom)
}

func project(s DisplayState) (top, bottom string) {
	if s.Screen != ScreenPlayback {
		return projectMenu(s)
	}

	switch s.Transport {
	case mpvplayer.StatePlaying:
		return trackLine(s.Track, s.TrackCount, ">"), timeLine(s.Position, s.Duration)
	case mpvplayer.StatePaused:
		return trackLine(s.Track, s.TrackCount, "||"), timeLine(s.Position, s.Duration)
	default:
		if !s.MediaPresent {
			return "CD Player", "No Disc"
		}
		return "CD Ready", fmt.Sprintf("%d tracks", s.TrackCount)
	}
}

func projectMenu(s DisplayState) (top, bottom string) {
	top = s.Screen.String()
	if len(s.Items) == 0 {
		return top, "(empty)"
	}
	if len(s.Items) > 1 {
		top = fmt.Sprintf("%s %d/%d", s.Screen, s.Selection+1, len(s.Items))
	}
	return top, ">" + s.Items[s.Selection]
}

// trackLine right-aligns the transport indicator after the counter.
func trackLine(track, count int, indicator string) string {
	left := fmt.Sprintf("Track %02d/%02d", track, count)
	gap := displayWidth - len(left) - len(indicator)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + indicator
}

func timeLine(position, duration time.Duration) string {
	return fmt.Sprintf("%s / %s", formatDuration(position), formatDuration(duration))
}

func padLine(text string) string {
	if len(text) > displayWidth {
		return text[:displayWidth]
	}
	return text + strings.Repeat(" ", displayWidth-len(text))
}
