// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package input

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Watcher owns the button pins and feeds their edges into a Debouncer.
// Buttons are wired active-low with internal pull-ups.
type Watcher struct {
	debouncer *Debouncer
	pins      map[Button]gpio.PinIO

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher resolves and configures the named pins. Pin names are
// whatever gpioreg understands for the board ("GPIO2", "P1_13", ...).
func NewWatcher(pinNames map[Button]string, debouncer *Debouncer) (*Watcher, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "init periph host")
	}

	w := &Watcher{
		debouncer: debouncer,
		pins:      make(map[Button]gpio.PinIO, len(pinNames)),
		stop:      make(chan struct{}),
	}
	for button, name := range pinNames {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, errors.Newf("no such GPIO pin: %q", name)
		}
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, errors.Wrapf(err, "configure pin %q", name)
		}
		w.pins[button] = pin
	}
	return w, nil
}

// Start launches one watch goroutine per button.
func (w *Watcher) Start() {
	for button, pin := range w.pins {
		w.wg.Add(1)
		go w.watch(button, pin)
	}
	zlog.Info().Int("pins", len(w.pins)).Msg("input: button monitoring started")
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()
	w.debouncer.Close()
}

func (w *Watcher) watch(button Button, pin gpio.PinIO) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		// bounded wait so Stop is honored on idle lines
		if !pin.WaitForEdge(500 * time.Millisecond) {
			continue
		}
		pressed := pin.Read() == gpio.Low
		w.debouncer.OnRawEdge(button, pressed, time.Now())
	}
}
