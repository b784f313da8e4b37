// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaleNoticeExpiryKeepsNewerNotice(t *testing.T) {
	app := NewApp(nil, nil, nil, nil)
	app.noticeTTL = time.Hour // expiries are injected by hand below

	app.ShowNotice("first")
	stale := noticeExpiredMsg{gen: app.noticeGen}

	app.ShowNotice("second")
	app.dispatch(stale)
	assert.Equal(t, "second", app.notice, "an expiry queued for the old notice must not clear the new one")

	app.dispatch(noticeExpiredMsg{gen: app.noticeGen})
	assert.Empty(t, app.notice)
}

func TestButtonPressClearsPendingNotice(t *testing.T) {
	app := NewApp(nil, nil, nil, nil)
	app.noticeTTL = time.Hour

	app.ShowNotice("transient")
	stale := noticeExpiredMsg{gen: app.noticeGen}
	app.clearNotice()
	assert.Empty(t, app.notice)

	app.ShowNotice("after")
	app.dispatch(stale)
	assert.Equal(t, "after", app.notice, "expiry of a user-cleared notice is stale")
}
