// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/supersonic-app/go-mpv"
)

// Player is the CD transport. Track numbers are 1-based; track 0 means
// no track selected. All public methods are safe for concurrent use.
type Player struct {
	instance      *mpv.Mpv
	mpvEvents     chan *mpv.Event
	eventConsumer EventConsumer
	device        string
	wrap          bool

	mu         sync.Mutex
	state      State
	track      int
	trackCount int

	replaceInProgress bool
	stopped           bool
}

// NewPlayer initializes libmpv for audio-only cdda playback from the
// given device. The wrap flag lets auto-advance loop back to track 1
// after the last track instead of stopping.
func NewPlayer(device string, wrap bool) (*Player, error) {
	instance := mpv.Create()

	for opt, val := range map[string]string{
		"audio-display": "no",
		"video":         "no",
		"cdda-device":   device,
	} {
		if err := instance.SetOptionString(opt, val); err != nil {
			instance.TerminateDestroy()
			return nil, errors.Wrapf(err, "mpv option %s", opt)
		}
	}

	if err := instance.Initialize(); err != nil {
		instance.TerminateDestroy()
		return nil, errors.Wrap(err, "mpv initialize")
	}

	p := &Player{
		instance:  instance,
		mpvEvents: make(chan *mpv.Event),
		device:    device,
		wrap:      wrap,
		stopped:   true,
	}

	go p.mpvEngineEventHandler(instance)
	return p, nil
}

func (p *Player) mpvEngineEventHandler(instance *mpv.Mpv) {
	for {
		evt := instance.WaitEvent(1)
		p.mpvEvents <- evt
	}
}

func (p *Player) RegisterEventConsumer(consumer EventConsumer) {
	p.eventConsumer = consumer
}

func (p *Player) Quit() {
	p.mpvEvents <- nil
	p.instance.TerminateDestroy()
}

// SetDisc tells the transport how many tracks the inserted disc has.
// Passing 0 clears the disc and stops playback.
func (p *Player) SetDisc(trackCount int) {
	p.mu.Lock()
	p.trackCount = trackCount
	p.track = 0
	mustStop := trackCount == 0 && p.state != StateStopped
	p.mu.Unlock()

	if mustStop {
		if err := p.Stop(); err != nil {
			zlog.Warn().Err(err).Msg("mpv: stop on disc removal")
		}
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTrack returns the 1-based playing track and the disc size.
func (p *Player) CurrentTrack() (track, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track, p.trackCount
}

// Play starts the given 1-based track from the beginning.
func (p *Player) Play(track int) error {
	p.mu.Lock()
	if p.trackCount == 0 {
		p.mu.Unlock()
		return ErrNoDisc
	}
	if track < 1 {
		track = 1
	} else if track > p.trackCount {
		track = p.trackCount
	}
	p.track = track
	p.replaceInProgress = p.state != StateStopped
	p.stopped = false
	p.mu.Unlock()

	return p.loadTrack(track)
}

func (p *Player) loadTrack(track int) error {
	if err := p.instance.SetProperty("pause", mpv.FORMAT_FLAG, false); err != nil {
		zlog.Warn().Err(err).Msg("mpv: clear pause flag")
	}
	if err := p.instance.Command([]string{"loadfile", fmt.Sprintf("cdda://%d", track)}); err != nil {
		p.engineFailure(errors.Wrapf(ErrEngineFailed, "loadfile track %d: %s", track, err.Error()))
		return errors.Wrapf(ErrEngineFailed, "loadfile track %d", track)
	}
	return nil
}

// TogglePlayPause pauses a playing track or resumes a paused one. It
// is a no-op when stopped; starting from stopped is an explicit Play.
func (p *Player) TogglePlayPause() error {
	p.mu.Lock()
	state := p.state
	track := p.track
	p.mu.Unlock()

	if state == StateStopped {
		return nil
	}

	if err := p.instance.Command([]string{"cycle", "pause"}); err != nil {
		p.engineFailure(errors.Wrap(ErrEngineFailed, err.Error()))
		return errors.Wrap(ErrEngineFailed, "cycle pause")
	}

	p.mu.Lock()
	if p.state == StatePlaying {
		p.state = StatePaused
	} else {
		p.state = StatePlaying
	}
	state = p.state
	p.mu.Unlock()

	if state == StatePaused {
		p.sendEvent(Event{Type: EventPaused, Track: track})
	} else {
		p.sendEvent(Event{Type: EventUnpaused, Track: track})
	}
	return nil
}

// Next moves to the following track. At the last track it is a no-op;
// the playing track keeps going instead of restarting.
func (p *Player) Next() error {
	return p.step(1)
}

// Previous moves to the preceding track. At track 1 it is a no-op.
func (p *Player) Previous() error {
	return p.step(-1)
}

func (p *Player) step(delta int) error {
	p.mu.Lock()
	if p.trackCount == 0 {
		p.mu.Unlock()
		return ErrNoDisc
	}
	if p.state == StateStopped {
		p.mu.Unlock()
		return nil
	}
	target, ok := stepTrack(p.track, p.trackCount, delta)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Play(target)
}

// stepTrack returns the adjacent 1-based track in the given direction,
// or ok false when already at the boundary.
func stepTrack(track, trackCount, delta int) (target int, ok bool) {
	target = track + delta
	if target < 1 || target > trackCount {
		return track, false
	}
	return target, true
}

func (p *Player) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.state = StateStopped
	p.track = 0
	p.mu.Unlock()

	zlog.Debug().Msg("mpv: stopping")
	if err := p.instance.Command([]string{"stop"}); err != nil {
		return errors.Wrap(ErrEngineFailed, err.Error())
	}
	return nil
}

// engineFailure forces the transport to Stopped and reports the error.
func (p *Player) engineFailure(err error) {
	zlog.Error().Err(err).Msg("mpv: engine failure")
	p.mu.Lock()
	p.stopped = true
	p.state = StateStopped
	track := p.track
	p.track = 0
	p.mu.Unlock()
	p.sendEvent(Event{Type: EventError, Track: track, Err: err})
	p.sendEvent(Event{Type: EventStopped})
}

func (p *Player) sendEvent(ev Event) {
	if p.eventConsumer != nil {
		p.eventConsumer.SendPlayerEvent(ev)
	}
}
