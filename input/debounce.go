// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package input

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Config holds the classification thresholds.
type Config struct {
	// DebounceMin is the minimum press duration; shorter presses are
	// treated as contact bounce and discarded.
	DebounceMin time.Duration
	// DoubleClickWindow is the maximum gap between two releases that
	// still counts as a double click.
	DoubleClickWindow time.Duration
	// LongPressThreshold is how long a button must be held to fire a
	// long press.
	LongPressThreshold time.Duration
	// MaxEventsPerSecond caps raw edges accepted per button. A stuck or
	// oscillating line must not starve the event queue.
	MaxEventsPerSecond int
}

func DefaultConfig() Config {
	return Config{
		DebounceMin:        30 * time.Millisecond,
		DoubleClickWindow:  400 * time.Millisecond,
		LongPressThreshold: 2 * time.Second,
		MaxEventsPerSecond: 20,
	}
}

type buttonState struct {
	pressed   bool
	pressedAt time.Time
	longFired bool

	longTimer    *time.Timer
	pendingClick *time.Timer
	lastRelease  time.Time

	// rate limiter window
	windowStart time.Time
	windowEdges int
}

// Debouncer classifies raw edges into at most one ButtonEvent per
// press-release cycle. A long press never also produces a short press.
type Debouncer struct {
	mu      sync.Mutex
	cfg     Config
	handler Handler
	states  map[Button]*buttonState
}

func NewDebouncer(cfg Config, handler Handler) *Debouncer {
	return &Debouncer{
		cfg:     cfg,
		handler: handler,
		states:  make(map[Button]*buttonState),
	}
}

// OnRawEdge feeds one hardware edge into the classifier. pressed is
// true for the press edge, false for the release edge.
func (d *Debouncer) OnRawEdge(b Button, pressed bool, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(b)
	if !d.admitLocked(st, now) {
		return
	}

	if pressed {
		d.onPressLocked(b, st, now)
	} else {
		d.onReleaseLocked(b, st, now)
	}
}

// Close cancels all pending timers. No events fire afterwards.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.states {
		if st.longTimer != nil {
			st.longTimer.Stop()
			st.longTimer = nil
		}
		if st.pendingClick != nil {
			st.pendingClick.Stop()
			st.pendingClick = nil
		}
	}
}

func (d *Debouncer) state(b Button) *buttonState {
	st, ok := d.states[b]
	if !ok {
		st = &buttonState{}
		d.states[b] = st
	}
	return st
}

// admitLocked enforces the per-button edge rate cap. Excess edges are
// dropped silently, per the input fault taxonomy.
func (d *Debouncer) admitLocked(st *buttonState, now time.Time) bool {
	if d.cfg.MaxEventsPerSecond <= 0 {
		return true
	}
	if st.windowStart.IsZero() || now.Sub(st.windowStart) >= time.Second {
		st.windowStart = now
		st.windowEdges = 0
	}
	st.windowEdges++
	return st.windowEdges <= d.cfg.MaxEventsPerSecond
}

func (d *Debouncer) onPressLocked(b Button, st *buttonState, now time.Time) {
	if st.pressed {
		// repeated press edge without a release, likely noise
		return
	}
	st.pressed = true
	st.pressedAt = now
	st.longFired = false

	if st.longTimer != nil {
		st.longTimer.Stop()
	}
	st.longTimer = time.AfterFunc(d.cfg.LongPressThreshold, func() {
		d.fireLong(b)
	})
}

func (d *Debouncer) onReleaseLocked(b Button, st *buttonState, now time.Time) {
	if !st.pressed {
		return
	}
	st.pressed = false
	if st.longTimer != nil {
		st.longTimer.Stop()
		st.longTimer = nil
	}

	held := now.Sub(st.pressedAt)
	if held < d.cfg.DebounceMin {
		// contact bounce, not a press
		return
	}
	if st.longFired {
		// release after a long press already fired
		return
	}

	if st.pendingClick != nil && now.Sub(st.lastRelease) <= d.cfg.DoubleClickWindow {
		st.pendingClick.Stop()
		st.pendingClick = nil
		st.lastRelease = time.Time{} // avoid a triple click counting twice
		d.emit(ButtonEvent{Button: b, Kind: PressDouble})
		return
	}

	st.lastRelease = now
	st.pendingClick = time.AfterFunc(d.cfg.DoubleClickWindow, func() {
		d.fireShort(b)
	})
}

func (d *Debouncer) fireShort(b Button) {
	d.mu.Lock()
	st := d.state(b)
	if st.pendingClick == nil {
		d.mu.Unlock()
		return
	}
	st.pendingClick = nil
	d.mu.Unlock()

	d.emit(ButtonEvent{Button: b, Kind: PressShort})
}

func (d *Debouncer) fireLong(b Button) {
	d.mu.Lock()
	st := d.state(b)
	if !st.pressed || st.longFired {
		d.mu.Unlock()
		return
	}
	st.longFired = true
	if st.pendingClick != nil {
		// a pending single click loses to the long press
		st.pendingClick.Stop()
		st.pendingClick = nil
	}
	d.mu.Unlock()

	d.emit(ButtonEvent{Button: b, Kind: PressLong})
}

func (d *Debouncer) emit(ev ButtonEvent) {
	zlog.Debug().Stringer("button", ev.Button).Stringer("kind", ev.Kind).Msg("input: button event")
	d.handler.HandleButton(ev)
}
