// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"
	"time"
)

func secondsToMinAndSec(d time.Duration) (int, int) {
	seconds := int(d / time.Second)
	return seconds / 60, seconds % 60
}

// formatDuration renders M:SS, clamping negatives to 0:00.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m, s := secondsToMinAndSec(d)
	return fmt.Sprintf("%d:%02d", m, s)
}
