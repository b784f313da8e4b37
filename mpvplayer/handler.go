// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/supersonic-app/go-mpv"
)

// EventLoop drains engine events and turns them into transport events.
// Run it in its own goroutine; it exits when Quit is called.
func (p *Player) EventLoop() {
	if err := p.instance.ObserveProperty(0, "playback-time", mpv.FORMAT_INT64); err != nil {
		zlog.Error().Err(err).Msg("mpv: observe playback-time")
	}
	if err := p.instance.ObserveProperty(0, "duration", mpv.FORMAT_INT64); err != nil {
		zlog.Error().Err(err).Msg("mpv: observe duration")
	}

	for evt := range p.mpvEvents {
		if evt == nil {
			// quit signal
			break
		}

		switch evt.Event_Id {
		case mpv.EVENT_PROPERTY_CHANGE:
			p.reportStatus()

		case mpv.EVENT_START_FILE:
			p.mu.Lock()
			p.replaceInProgress = false
			p.stopped = false
			p.state = StatePlaying
			track := p.track
			p.mu.Unlock()
			p.sendEvent(Event{Type: EventPlaying, Track: track})

		case mpv.EVENT_END_FILE:
			p.onEndFile()

		case mpv.EVENT_SHUTDOWN:
			p.engineFailure(ErrEngineFailed)
			return

		case mpv.EVENT_IDLE, mpv.EVENT_NONE:
			continue

		default:
			zlog.Debug().Str("event", evt.Event_Id.String()).Msg("mpv: unhandled event")
		}
	}
}

type endFileOutcome int

const (
	// endFileIgnore: a replacement loadfile is already on its way.
	endFileIgnore endFileOutcome = iota
	// endFileStop: nothing left to play, or feedback for a user stop.
	endFileStop
	// endFileAdvance: load the returned next track.
	endFileAdvance
)

// nextAfterEndFile decides how the transport reacts to the engine
// reporting end of file. Natural end of the last track stops rather
// than wrapping unless wrap is configured.
func nextAfterEndFile(track, trackCount int, wrap, stopped, replaceInProgress bool) (next int, outcome endFileOutcome) {
	if replaceInProgress {
		return 0, endFileIgnore
	}
	if stopped {
		return 0, endFileStop
	}
	next = track + 1
	if next > trackCount {
		if wrap && trackCount > 0 {
			return 1, endFileAdvance
		}
		return 0, endFileStop
	}
	return next, endFileAdvance
}

// onEndFile advances to the next track when a track runs out on its
// own, or reports the stop when there is nothing left to play.
func (p *Player) onEndFile() {
	p.mu.Lock()
	next, outcome := nextAfterEndFile(p.track, p.trackCount, p.wrap, p.stopped, p.replaceInProgress)
	switch outcome {
	case endFileIgnore:
		p.mu.Unlock()
		return

	case endFileStop:
		endOfDisc := !p.stopped
		p.stopped = true
		p.state = StateStopped
		p.track = 0
		p.mu.Unlock()
		if endOfDisc {
			zlog.Info().Msg("mpv: end of disc")
		}
		p.sendEvent(Event{Type: EventStopped})

	case endFileAdvance:
		p.track = next
		p.mu.Unlock()
		zlog.Debug().Int("track", next).Msg("mpv: auto-advance")
		if err := p.loadTrack(next); err != nil {
			zlog.Error().Err(err).Msg("mpv: auto-advance failed")
		}
	}
}

func (p *Player) reportStatus() {
	p.mu.Lock()
	state := p.state
	track := p.track
	p.mu.Unlock()
	if state == StateStopped {
		return
	}

	position, err := p.instance.GetProperty("playback-time", mpv.FORMAT_INT64)
	if err != nil || position == nil {
		position = int64(0)
	}
	duration, err := p.instance.GetProperty("duration", mpv.FORMAT_INT64)
	if err != nil || duration == nil {
		duration = int64(0)
	}

	p.sendEvent(Event{
		Type:  EventStatus,
		Track: track,
		Status: StatusData{
			Track:    track,
			Position: time.Duration(position.(int64)) * time.Second,
			Duration: time.Duration(duration.(int64)) * time.Second,
		},
	})
}
