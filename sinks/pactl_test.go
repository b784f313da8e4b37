// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortSinks = "0\talsa_output.platform-sound.stereo-fallback\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tRUNNING\n" +
	"14\tbluez_sink.AA_BB_CC_DD_EE_FF.a2dp_sink\tmodule-bluez5-device.c\ts16le 2ch 44100Hz\tIDLE\n"

const longSinks = `Sink #0
	State: RUNNING
	Name: alsa_output.platform-sound.stereo-fallback
	Description: Built-in Audio Stereo
Sink #14
	State: IDLE
	Name: bluez_sink.AA_BB_CC_DD_EE_FF.a2dp_sink
	Description: JBL Flip 5
`

func TestParseShortSinks(t *testing.T) {
	sinks := parseShortSinks(shortSinks, parseSinkDescriptions(longSinks))
	require.Len(t, sinks, 2)

	assert.Equal(t, "alsa_output.platform-sound.stereo-fallback", sinks[0].ID)
	assert.Equal(t, KindWired, sinks[0].Kind)
	assert.Equal(t, "Built-in Audio Stereo", sinks[0].DisplayName)

	assert.Equal(t, KindBluetooth, sinks[1].Kind)
	assert.Equal(t, "JBL Flip 5", sinks[1].DisplayName)
}

func TestParseShortSinksWithoutDescriptions(t *testing.T) {
	sinks := parseShortSinks(shortSinks, nil)
	require.Len(t, sinks, 2)
	assert.Equal(t, sinks[0].ID, sinks[0].DisplayName, "missing description falls back to the sink name")
}
