// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package sinks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	sinks       []Sink
	defaultSink string
	failSet     error
}

func (f *fakeBackend) ListSinks(ctx context.Context) ([]Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sink, len(f.sinks))
	copy(out, f.sinks)
	return out, nil
}

func (f *fakeBackend) SetDefaultSink(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.defaultSink = id
	return nil
}

func (f *fakeBackend) setSinks(sinks ...Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = sinks
}

type fakePrefs struct {
	lastSink string
	writes   int
}

func (f *fakePrefs) LastSinkID() (string, error) { return f.lastSink, nil }
func (f *fakePrefs) SetLastSinkID(id string) error {
	f.lastSink = id
	f.writes++
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeNotifier) HandleSink(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) snapshot() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

var (
	wiredSink = Sink{ID: "alsa_output.hw0", DisplayName: "Wired Out"}
	btSink    = Sink{ID: "bluez_sink.AA_BB.a2dp_sink", Kind: KindBluetooth, DisplayName: "JBL Flip"}
)

func newTestRegistry(backend *fakeBackend, prefs *fakePrefs) (*Registry, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewRegistry(backend, prefs, n, wiredSink), n
}

func TestListAlwaysIncludesWired(t *testing.T) {
	r, _ := newTestRegistry(&fakeBackend{}, &fakePrefs{})

	list := r.ListSinks()
	require.Len(t, list, 1)
	assert.Equal(t, wiredSink.ID, list[0].ID)
	assert.True(t, list[0].Connected)
}

func TestStartupRestoresSavedSink(t *testing.T) {
	backend := &fakeBackend{}
	backend.setSinks(btSink)
	prefs := &fakePrefs{lastSink: btSink.ID}
	r, _ := newTestRegistry(backend, prefs)

	r.Startup(context.Background())

	assert.Equal(t, btSink.ID, r.ActiveSink().ID)
	assert.Equal(t, btSink.ID, backend.defaultSink)
	assert.Zero(t, prefs.writes, "automatic restore must not rewrite the preference")
}

func TestStartupFallsBackSilently(t *testing.T) {
	prefs := &fakePrefs{lastSink: btSink.ID}
	r, n := newTestRegistry(&fakeBackend{}, prefs)

	r.Startup(context.Background())

	assert.Equal(t, wiredSink.ID, r.ActiveSink().ID)
	assert.Equal(t, btSink.ID, prefs.lastSink, "preference survives the fallback")
	for _, ev := range n.snapshot() {
		assert.NotEqual(t, EventLost, ev.Type, "missing saved sink is not an error")
	}
}

func TestActivatePersistsOnlyUserChoices(t *testing.T) {
	backend := &fakeBackend{}
	backend.setSinks(btSink)
	prefs := &fakePrefs{}
	r, _ := newTestRegistry(backend, prefs)
	require.NoError(t, r.Resync(context.Background()))

	require.NoError(t, r.Activate(context.Background(), btSink.ID, true))
	assert.Equal(t, btSink.ID, prefs.lastSink)
	assert.Equal(t, 1, prefs.writes)

	require.NoError(t, r.Activate(context.Background(), wiredSink.ID, false))
	assert.Equal(t, btSink.ID, prefs.lastSink, "non-user activation must not persist")
}

func TestActivateUnknownSinkFails(t *testing.T) {
	r, _ := newTestRegistry(&fakeBackend{}, &fakePrefs{})

	err := r.Activate(context.Background(), "bluez_sink.gone", true)
	assert.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, wiredSink.ID, r.ActiveSink().ID, "selection unchanged on failure")
}

func TestActiveSinkLossFallsBackToWired(t *testing.T) {
	backend := &fakeBackend{}
	backend.setSinks(btSink)
	prefs := &fakePrefs{}
	r, n := newTestRegistry(backend, prefs)
	require.NoError(t, r.Resync(context.Background()))
	require.NoError(t, r.Activate(context.Background(), btSink.ID, true))

	backend.setSinks() // device dropped off the server
	require.NoError(t, r.Resync(context.Background()))

	assert.Equal(t, wiredSink.ID, r.ActiveSink().ID)
	assert.Equal(t, wiredSink.ID, backend.defaultSink)
	assert.Equal(t, btSink.ID, prefs.lastSink, "fallback must not overwrite the preference")

	events := n.snapshot()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventLost, last.Type)
	assert.Equal(t, btSink.ID, last.Sink.ID)
}

func TestResyncEmitsConnectAndDisconnect(t *testing.T) {
	backend := &fakeBackend{}
	r, n := newTestRegistry(backend, &fakePrefs{})

	backend.setSinks(btSink)
	require.NoError(t, r.Resync(context.Background()))
	backend.setSinks()
	require.NoError(t, r.Resync(context.Background()))

	events := n.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, EventConnected, events[0].Type)
	assert.Equal(t, EventDisconnected, events[1].Type, "inactive sink loss is a plain disconnect")
}
