// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCdparanoia = `cdparanoia III release 10.2 (September 11, 2008)

Table of contents (audio tracks only):
track        length               begin        copy pre ch
===========================================================
  1.    16352 [03:38.02]        0 [00:00.00]    no   no  2
  2.    18805 [04:10.55]    16352 [03:38.02]    no   no  2
  3.     8830 [01:57.55]    35157 [07:48.57]    no   no  2
TOTAL   43987 [09:46.37]    (audio only)
`

func TestParseTOC(t *testing.T) {
	toc, ok := parseTOC(sampleCdparanoia)
	require.True(t, ok)
	assert.Equal(t, 3, toc.TrackCount)
	require.Len(t, toc.TrackLengths, 3)
	assert.Equal(t, 3*time.Minute+38*time.Second, toc.TrackLengths[0])
	assert.Equal(t, 4*time.Minute+10*time.Second, toc.TrackLengths[1])
	assert.Equal(t, 1*time.Minute+57*time.Second, toc.TrackLengths[2])
}

func TestParseTOCNoTracks(t *testing.T) {
	_, ok := parseTOC("Unable to open disc.  Is there an audio CD in the drive?\n")
	assert.False(t, ok)
}

func TestParseTOCClampsZeroLength(t *testing.T) {
	toc, ok := parseTOC("  1.        0 [00:00.00]        0 [00:00.00]    no   no  2\n")
	require.True(t, ok)
	assert.Equal(t, time.Second, toc.TrackLengths[0], "zero-length entries clamp to one second")
}
