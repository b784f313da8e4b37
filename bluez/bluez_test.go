// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package bluez

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameFallsBackToAddress(t *testing.T) {
	named := Device{Address: "AA:BB:CC:DD:EE:FF", Name: "JBL Flip 5"}
	assert.Equal(t, "JBL Flip 5", named.DisplayName())

	anon := Device{Address: "aa:bb:cc:dd:ee:ff"}
	assert.Equal(t, "Device-EEFF", anon.DisplayName())

	empty := Device{}
	assert.Equal(t, "Device-", empty.DisplayName())
}
