// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package lcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitLine(t *testing.T) {
	assert.Equal(t, "abc             ", fitLine("abc", 16))
	assert.Equal(t, "0123456789abcdef", fitLine("0123456789abcdefgh", 16))
	assert.Equal(t, "                ", fitLine("", 16))
}
