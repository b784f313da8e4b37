// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package sinks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// activateTimeout bounds a single activation attempt so a dead sink
// cannot hang the UI.
const activateTimeout = 5 * time.Second

// Registry owns the set of known sinks and the active selection.
// The synthetic wired sink is always present and always connected.
type Registry struct {
	backend  Backend
	prefs    Preference
	notifier Notifier
	wired    Sink

	mu       sync.Mutex
	sinks    map[string]Sink // server-reported sinks, wired excluded
	activeID string
}

func NewRegistry(backend Backend, prefs Preference, notifier Notifier, wired Sink) *Registry {
	wired.Kind = KindWired
	wired.Connected = true
	return &Registry{
		backend:  backend,
		prefs:    prefs,
		notifier: notifier,
		wired:    wired,
		sinks:    make(map[string]Sink),
		activeID: wired.ID,
	}
}

// Startup scans the server and restores the persisted sink. A saved
// sink that is gone is expected steady state: fall back to wired with
// no event and leave the preference untouched.
func (r *Registry) Startup(ctx context.Context) {
	if err := r.Resync(ctx); err != nil {
		zlog.Warn().Err(err).Msg("sinks: initial scan failed")
	}

	last, err := r.prefs.LastSinkID()
	if err != nil {
		zlog.Warn().Err(err).Msg("sinks: preference read failed")
		return
	}
	if last == "" || last == r.wired.ID {
		return
	}
	if err := r.Activate(ctx, last, false); err != nil {
		zlog.Info().Str("sink", last).Msg("sinks: saved sink not available, using wired")
	} else {
		zlog.Info().Str("sink", last).Msg("sinks: restored saved sink")
	}
}

// ListSinks returns the wired entry followed by the server-reported
// sinks in stable name order.
func (r *Registry) ListSinks() []Sink {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Sink, 0, len(r.sinks)+1)
	out = append(out, r.wired)
	for _, s := range r.sinks {
		if s.ID == r.wired.ID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out[1:], func(i, j int) bool {
		return out[i+1].DisplayName < out[j+1].DisplayName
	})
	return out
}

// ActiveSink returns the sink audio is currently routed to.
func (r *Registry) ActiveSink() Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(r.activeID)
}

// Activate routes audio to the given sink. Only user-initiated
// activations are persisted; automatic restores and fallbacks are not.
func (r *Registry) Activate(ctx context.Context, id string, userInitiated bool) error {
	r.mu.Lock()
	target := r.lookupLocked(id)
	r.mu.Unlock()

	if !target.Connected {
		return errors.Wrapf(ErrSinkUnavailable, "%s", id)
	}

	ctx, cancel := context.WithTimeout(ctx, activateTimeout)
	defer cancel()
	if err := r.backend.SetDefaultSink(ctx, target.ID); err != nil {
		return errors.Wrap(err, "set default sink")
	}

	r.mu.Lock()
	r.activeID = target.ID
	r.mu.Unlock()
	zlog.Info().Str("sink", target.ID).Bool("user", userInitiated).Msg("sinks: activated")

	if userInitiated {
		if err := r.prefs.SetLastSinkID(target.ID); err != nil {
			zlog.Warn().Err(err).Msg("sinks: preference write failed")
		}
	}
	return nil
}

// Resync re-reads the server sink list and emits connect/disconnect
// transitions for the delta. If the active sink vanished, audio falls
// back to wired and an EventLost is raised; the preference is kept so
// the device is picked up again next time it connects.
func (r *Registry) Resync(ctx context.Context) error {
	fresh, err := r.backend.ListSinks(ctx)
	if err != nil {
		return errors.Wrap(err, "list sinks")
	}

	freshByID := make(map[string]Sink, len(fresh))
	for _, s := range fresh {
		if s.ID == r.wired.ID {
			continue
		}
		s.Connected = true
		freshByID[s.ID] = s
	}

	r.mu.Lock()
	var connected, disconnected []Sink
	for id, s := range freshByID {
		if _, known := r.sinks[id]; !known {
			connected = append(connected, s)
		}
	}
	for id, s := range r.sinks {
		if _, still := freshByID[id]; !still {
			disconnected = append(disconnected, s)
		}
	}
	r.sinks = freshByID

	var lost Sink
	lostActive := false
	if r.activeID != r.wired.ID {
		if _, still := freshByID[r.activeID]; !still {
			lost = r.lookupLocked(r.activeID)
			lostActive = true
		}
	}
	r.mu.Unlock()

	for _, s := range connected {
		zlog.Info().Str("sink", s.ID).Msg("sinks: connected")
		r.notifier.HandleSink(Event{Type: EventConnected, Sink: s})
	}
	for _, s := range disconnected {
		if lostActive && s.ID == lost.ID {
			continue // reported as EventLost below
		}
		zlog.Info().Str("sink", s.ID).Msg("sinks: disconnected")
		r.notifier.HandleSink(Event{Type: EventDisconnected, Sink: s})
	}

	if lostActive {
		zlog.Warn().Str("sink", lost.ID).Msg("sinks: active sink lost, falling back to wired")
		r.mu.Lock()
		r.activeID = r.wired.ID
		r.mu.Unlock()
		if err := r.backend.SetDefaultSink(ctx, r.wired.ID); err != nil {
			zlog.Warn().Err(err).Msg("sinks: wired fallback failed")
		}
		r.notifier.HandleSink(Event{Type: EventLost, Sink: lost})
	}
	return nil
}

func (r *Registry) lookupLocked(id string) Sink {
	if id == r.wired.ID {
		return r.wired
	}
	if s, ok := r.sinks[id]; ok {
		return s
	}
	return Sink{ID: id, DisplayName: id}
}
