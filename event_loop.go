// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/KollTHOR/cd-player/bluez"
	"github.com/KollTHOR/cd-player/input"
	"github.com/KollTHOR/cd-player/lcd"
	"github.com/KollTHOR/cd-player/media"
	"github.com/KollTHOR/cd-player/mpvplayer"
	"github.com/KollTHOR/cd-player/remote"
	"github.com/KollTHOR/cd-player/sinks"
)

const queueDepth = 64

// App owns the single-consumer event queue. Every producer callback
// enqueues a message; Run drains them one at a time, so all state
// below the mutex-free line is touched only by the control loop.
type App struct {
	queue chan interface{}
	quit  chan struct{}
	done  sync.WaitGroup

	player   *mpvplayer.Player
	registry *sinks.Registry
	bt       *bluez.Client
	display  lcd.Display
	mpris    *remote.MprisPlayer

	menuTimeout  time.Duration
	noticeTTL    time.Duration
	scanDuration time.Duration

	// control-loop state, no locking needed
	navigator    *Navigator
	mediaPresent bool
	trackCount   int
	trackLengths []time.Duration
	position     time.Duration
	duration     time.Duration
	notice       string
	noticeGen    int
	btDevices    []bluez.Device

	noticeTimer *time.Timer
	menuTimer   *time.Timer

	scanMu     sync.Mutex
	scanCancel context.CancelFunc
}

func NewApp(player *mpvplayer.Player, registry *sinks.Registry, bt *bluez.Client, display lcd.Display) *App {
	app := &App{
		queue:        make(chan interface{}, queueDepth),
		quit:         make(chan struct{}),
		player:       player,
		registry:     registry,
		bt:           bt,
		display:      display,
		menuTimeout:  30 * time.Second,
		noticeTTL:    2 * time.Second,
		scanDuration: 10 * time.Second,
	}
	app.navigator = NewNavigator(app)
	return app
}

// post enqueues without blocking the producer. A full queue means the
// control loop is wedged; dropping is better than deadlocking a D-Bus
// dispatch goroutine.
func (app *App) post(msg interface{}) {
	select {
	case app.queue <- msg:
	default:
		zlog.Warn().Msgf("app: queue full, dropping %T", msg)
	}
}

// Producer callbacks. These run on the producers' goroutines.

func (app *App) HandleButton(ev input.ButtonEvent) {
	app.post(buttonMsg{ev: ev})
}

func (app *App) HandleMedia(ev media.Event) {
	if ev.Type == media.EventRemoved {
		// playback must not outlive the disc; stop before the
		// removal is processed
		if err := app.player.Stop(); err != nil {
			zlog.Warn().Err(err).Msg("app: stop on eject")
		}
	}
	app.post(mediaMsg{ev: ev})
}

func (app *App) HandleSink(ev sinks.Event) {
	app.post(sinkMsg{ev: ev})
}

func (app *App) SendPlayerEvent(ev mpvplayer.Event) {
	app.post(playerMsg{ev: ev})
}

// Run is the control loop. It renders after every message and returns
// when Quit is called.
func (app *App) Run() {
	app.done.Add(1)
	defer app.done.Done()

	app.render()
	for {
		select {
		case <-app.quit:
			return
		case msg := <-app.queue:
			app.dispatch(msg)
			app.render()
		}
	}
}

func (app *App) Quit() {
	close(app.quit)
	app.done.Wait()
	app.cancelScan()
}

func (app *App) dispatch(msg interface{}) {
	switch m := msg.(type) {
	case buttonMsg:
		// any user action clears a pending notice
		app.clearNotice()
		app.navigator.HandleButton(m.ev)
		app.touchMenuTimer()

	case mediaMsg:
		app.onMedia(m.ev)

	case sinkMsg:
		if m.ev.Type == sinks.EventLost {
			app.navigator.HandleSinkLost(m.ev.Sink)
		}

	case playerMsg:
		app.onPlayer(m.ev)

	case sinkActivatedMsg:
		app.navigator.HandleSinkActivated(m.id, m.err)
		app.touchMenuTimer()

	case scanDoneMsg:
		if m.err == nil {
			app.btDevices = m.devices
		}
		app.navigator.HandleScanResult(m.err)
		app.touchMenuTimer()

	case btOpDoneMsg:
		if m.devices != nil {
			app.btDevices = m.devices
		}
		app.navigator.HandleBTOpDone(m)
		app.touchMenuTimer()

	case menuTimeoutMsg:
		app.navigator.HandleMenuTimeout()
		app.touchMenuTimer()

	case noticeExpiredMsg:
		if m.gen == app.noticeGen {
			app.notice = ""
		}

	default:
		zlog.Warn().Msgf("app: unhandled message %T", msg)
	}
}

func (app *App) onMedia(ev media.Event) {
	switch ev.Type {
	case media.EventInserted:
		app.mediaPresent = true
		app.trackCount = ev.TrackCount
		app.trackLengths = ev.TrackLengths
		app.player.SetDisc(ev.TrackCount)
		zlog.Info().Int("tracks", ev.TrackCount).Msg("app: disc ready")

	case media.EventRemoved:
		app.mediaPresent = false
		app.trackCount = 0
		app.trackLengths = nil
		app.position, app.duration = 0, 0
		app.player.SetDisc(0)
		app.navigator.HandleMediaRemoved()

	case media.EventReadError:
		app.mediaPresent = false
		app.trackCount = 0
		app.trackLengths = nil
		app.ShowNotice("Disc Error")
	}
}

func (app *App) onPlayer(ev mpvplayer.Event) {
	switch ev.Type {
	case mpvplayer.EventStatus:
		app.position = ev.Status.Position
		app.duration = ev.Status.Duration

	case mpvplayer.EventStopped:
		app.position, app.duration = 0, 0
		app.updateMpris("Stopped")

	case mpvplayer.EventPlaying, mpvplayer.EventUnpaused:
		app.updateMpris("Playing")

	case mpvplayer.EventPaused:
		app.updateMpris("Paused")

	case mpvplayer.EventError:
		zlog.Error().Err(ev.Err).Msg("app: playback failed")
		app.ShowNotice("Play Error")
	}
}

func (app *App) updateMpris(status string) {
	if app.mpris == nil {
		return
	}
	track, total := app.player.CurrentTrack()
	app.mpris.OnTrackChange(remote.TrackInfo{
		Number:   track,
		Total:    total,
		Duration: int(app.duration / time.Second),
	}, status)
}

func (app *App) render() {
	items, sel := app.navigator.View()
	track, _ := app.player.CurrentTrack()
	duration := app.duration
	if duration == 0 && track >= 1 && track <= len(app.trackLengths) {
		// engine status has not arrived yet; use the TOC length
		duration = app.trackLengths[track-1]
	}
	top, bottom := Project(DisplayState{
		Screen:       app.navigator.Screen(),
		Items:        items,
		Selection:    sel,
		Transport:    app.player.State(),
		Track:        track,
		TrackCount:   app.trackCount,
		Position:     app.position,
		Duration:     duration,
		MediaPresent: app.mediaPresent,
		Notice:       app.notice,
	})
	if err := app.display.WriteLines(top, bottom); err != nil {
		zlog.Warn().Err(err).Msg("app: display write failed")
	}
}

// Menu inactivity timer. Armed while a menu screen is up; any handled
// message restarts it.

func (app *App) touchMenuTimer() {
	if app.menuTimer != nil {
		app.menuTimer.Stop()
		app.menuTimer = nil
	}
	if app.navigator.InMenu() {
		app.menuTimer = time.AfterFunc(app.menuTimeout, func() {
			app.post(menuTimeoutMsg{})
		})
	}
}

func (app *App) clearNotice() {
	app.notice = ""
	app.noticeGen++
	if app.noticeTimer != nil {
		app.noticeTimer.Stop()
		app.noticeTimer = nil
	}
}

// Controller implementation: the command surface the navigator calls.
// All of these run on the control loop goroutine.

func (app *App) TogglePlayPause() {
	if app.player.State() == mpvplayer.StateStopped {
		// pressing play while stopped starts the disc from track 1
		app.PlayTrack(1)
		return
	}
	if err := app.player.TogglePlayPause(); err != nil {
		zlog.Warn().Err(err).Msg("app: toggle play-pause")
	}
}

func (app *App) NextTrack() {
	if err := app.player.Next(); err != nil {
		zlog.Warn().Err(err).Msg("app: next track")
	}
}

func (app *App) PreviousTrack() {
	if err := app.player.Previous(); err != nil {
		zlog.Warn().Err(err).Msg("app: previous track")
	}
}

func (app *App) PlayTrack(track int) {
	if err := app.player.Play(track); err != nil {
		zlog.Warn().Err(err).Int("track", track).Msg("app: play track")
		if errors.Is(err, mpvplayer.ErrNoDisc) {
			app.ShowNotice("No Disc")
		}
	}
}

func (app *App) TrackCount() int { return app.trackCount }

func (app *App) AudioSinks() []sinks.Sink { return app.registry.ListSinks() }

func (app *App) ActivateSink(id string) {
	go func() {
		err := app.registry.Activate(context.Background(), id, true)
		app.post(sinkActivatedMsg{id: id, err: err})
	}()
}

func (app *App) KnownDevices() []bluez.Device { return app.btDevices }

// StartScan begins a discovery run; a new scan cancels a running one.
func (app *App) StartScan() {
	if app.bt == nil {
		app.post(scanDoneMsg{err: bluez.ErrNoAdapter})
		return
	}
	app.cancelScan()

	ctx, cancel := context.WithCancel(context.Background())
	app.scanMu.Lock()
	app.scanCancel = cancel
	app.scanMu.Unlock()

	go func() {
		devices, err := app.bt.Scan(ctx, app.scanDuration)
		app.post(scanDoneMsg{devices: devices, err: err})
	}()
}

func (app *App) cancelScan() {
	app.scanMu.Lock()
	if app.scanCancel != nil {
		app.scanCancel()
		app.scanCancel = nil
	}
	app.scanMu.Unlock()
}

func (app *App) RunDeviceAction(dev bluez.Device, action btAction) {
	if app.bt == nil {
		app.post(btOpDoneMsg{action: action, device: dev, err: bluez.ErrNoAdapter})
		return
	}
	go func() {
		var err error
		ctx := context.Background()
		switch action {
		case btActionPair:
			err = app.bt.Pair(ctx, dev.Path)
		case btActionConnect:
			err = app.bt.Connect(ctx, dev.Path)
		case btActionDisconnect:
			err = app.bt.Disconnect(ctx, dev.Path)
		case btActionForget:
			err = app.bt.Forget(ctx, dev.Path)
		}

		devices, listErr := app.bt.Devices()
		if listErr != nil {
			zlog.Warn().Err(listErr).Msg("app: device list refresh failed")
			devices = nil
		}
		app.post(btOpDoneMsg{action: action, device: dev, devices: devices, err: err})
	}()
}

// ShowNotice displays a transient message until the TTL elapses or
// the next button press. Only runs on the control loop goroutine.
func (app *App) ShowNotice(text string) {
	app.notice = text
	app.noticeGen++
	gen := app.noticeGen
	if app.noticeTimer != nil {
		app.noticeTimer.Stop()
	}
	app.noticeTimer = time.AfterFunc(app.noticeTTL, func() {
		app.post(noticeExpiredMsg{gen: gen})
	})
}
