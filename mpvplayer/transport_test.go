// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepTrackClampsAtBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		track      int
		trackCount int
		delta      int
		wantTarget int
		wantOK     bool
	}{
		{"mid-disc next", 5, 10, 1, 6, true},
		{"mid-disc previous", 5, 10, -1, 4, true},
		{"next at last track is a no-op", 10, 10, 1, 10, false},
		{"previous at track 1 is a no-op", 1, 10, -1, 1, false},
		{"single-track disc next", 1, 1, 1, 1, false},
		{"single-track disc previous", 1, 1, -1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := stepTrack(tt.track, tt.trackCount, tt.delta)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNextAfterEndFile(t *testing.T) {
	tests := []struct {
		name              string
		track, trackCount int
		wrap              bool
		stopped           bool
		replaceInProgress bool
		wantNext          int
		wantOutcome       endFileOutcome
	}{
		{name: "mid-disc advances", track: 3, trackCount: 10, wantNext: 4, wantOutcome: endFileAdvance},
		{name: "last track stops, no wraparound", track: 10, trackCount: 10, wantNext: 0, wantOutcome: endFileStop},
		{name: "last track wraps when configured", track: 10, trackCount: 10, wrap: true, wantNext: 1, wantOutcome: endFileAdvance},
		{name: "user stop is feedback only", track: 3, trackCount: 10, stopped: true, wantOutcome: endFileStop},
		{name: "replacement in flight is ignored", track: 3, trackCount: 10, replaceInProgress: true, wantOutcome: endFileIgnore},
		{name: "empty disc stops even with wrap", track: 0, trackCount: 0, wrap: true, wantOutcome: endFileStop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, outcome := nextAfterEndFile(tt.track, tt.trackCount, tt.wrap, tt.stopped, tt.replaceInProgress)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}
