// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/KollTHOR/cd-player/bluez"
	"github.com/KollTHOR/cd-player/input"
	"github.com/KollTHOR/cd-player/lcd"
	"github.com/KollTHOR/cd-player/logger"
	"github.com/KollTHOR/cd-player/media"
	"github.com/KollTHOR/cd-player/mpvplayer"
	"github.com/KollTHOR/cd-player/remote"
	"github.com/KollTHOR/cd-player/sinks"
	"github.com/KollTHOR/cd-player/store"
)

var osExit = os.Exit // mockable for tests

const DEVELOPMENT = "development"

// Version is usually set from BuildInfo.
var Version string = DEVELOPMENT

func readConfig(configFile string) error {
	viper.SetDefault("media.device", "/dev/sr0")
	viper.SetDefault("playback.wrap", false)

	viper.SetDefault("pins.play_pause", "GPIO17")
	viper.SetDefault("pins.next", "GPIO27")
	viper.SetDefault("pins.prev", "GPIO22")
	viper.SetDefault("input.debounce_ms", 30)
	viper.SetDefault("input.double_click_ms", 400)
	viper.SetDefault("input.long_press_ms", 2000)
	viper.SetDefault("input.max_events_per_second", 20)

	viper.SetDefault("lcd.bus", "")
	viper.SetDefault("lcd.address", 0x27)
	viper.SetDefault("lcd.width", 16)

	viper.SetDefault("audio.wired_sink", "alsa_output.platform-bcm2835_audio.analog-stereo")
	viper.SetDefault("audio.wired_name", "Wired Out")

	viper.SetDefault("storage.path", "/var/lib/cd-player/prefs.db")
	viper.SetDefault("ui.menu_timeout_s", 30)
	viper.SetDefault("ui.notice_s", 2)
	viper.SetDefault("bluetooth.scan_s", 10)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("cd-player")
		viper.SetConfigType("toml")
		viper.AddConfigPath("/etc/cd-player")
		viper.AddConfigPath("$HOME/.config/cd-player")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		// the appliance runs fine on defaults alone
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && configFile == "" {
			return nil
		}
		return fmt.Errorf("config file error: %w", err)
	}
	return nil
}

func inputConfig() input.Config {
	return input.Config{
		DebounceMin:        time.Duration(viper.GetInt("input.debounce_ms")) * time.Millisecond,
		DoubleClickWindow:  time.Duration(viper.GetInt("input.double_click_ms")) * time.Millisecond,
		LongPressThreshold: time.Duration(viper.GetInt("input.long_press_ms")) * time.Millisecond,
		MaxEventsPerSecond: viper.GetInt("input.max_events_per_second"),
	}
}

// transportAdapter exposes the player to the MPRIS remote. Calls come
// in on the D-Bus dispatch goroutine; the player is safe for that.
type transportAdapter struct {
	player *mpvplayer.Player
}

func (t transportAdapter) PlayPause() error     { return t.player.TogglePlayPause() }
func (t transportAdapter) NextTrack() error     { return t.player.Next() }
func (t transportAdapter) PreviousTrack() error { return t.player.Previous() }
func (t transportAdapter) Stop() error          { return t.player.Stop() }
func (t transportAdapter) IsPlaying() bool      { return t.player.State() == mpvplayer.StatePlaying }
func (t transportAdapter) IsPaused() bool       { return t.player.State() == mpvplayer.StatePaused }

// return codes:
// 0 - OK
// 1 - generic errors
// 2 - config errors
func main() {
	enableMpris := flag.Bool("mpris", false, "expose an MPRIS2 remote on the session bus")
	configFile := flag.String("config", "", "use config `file`")
	version := flag.Bool("version", false, "print the cd-player version and exit")
	flag.Parse()

	if Version == DEVELOPMENT {
		if bi, ok := debug.ReadBuildInfo(); ok {
			Version = bi.Main.Version
		}
	}
	if *version {
		fmt.Printf("cd-player %s\n", Version)
		osExit(0)
	}

	if err := readConfig(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read configuration: %v\n", err)
		osExit(2)
	}

	if err := logger.Init(logger.Config{
		Level: viper.GetString("log.level"),
		File:  viper.GetString("log.file"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		osExit(2)
	}

	prefs, err := store.Open(viper.GetString("storage.path"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open preference storage: %v\n", err)
		osExit(1)
	}
	defer prefs.Close()

	device := viper.GetString("media.device")
	player, err := mpvplayer.NewPlayer(device, viper.GetBool("playback.wrap"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to initialize mpv. Is libmpv installed?")
		osExit(1)
	}
	defer player.Quit()

	display, err := lcd.NewHD44780(
		viper.GetString("lcd.bus"),
		uint16(viper.GetUint("lcd.address")),
		viper.GetInt("lcd.width"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open the LCD: %v\n", err)
		osExit(1)
	}
	defer display.Close()

	// a missing Bluetooth stack only disables the Bluetooth menu
	bt, err := bluez.NewClient()
	if err != nil {
		zlog.Warn().Err(err).Msg("bluetooth unavailable")
		bt = nil
	} else {
		defer bt.Close()
	}

	app := NewApp(player, nil, bt, display)
	app.menuTimeout = time.Duration(viper.GetInt("ui.menu_timeout_s")) * time.Second
	app.noticeTTL = time.Duration(viper.GetInt("ui.notice_s")) * time.Second
	app.scanDuration = time.Duration(viper.GetInt("bluetooth.scan_s")) * time.Second

	wired := sinks.Sink{
		ID:          viper.GetString("audio.wired_sink"),
		DisplayName: viper.GetString("audio.wired_name"),
	}
	registry := sinks.NewRegistry(&sinks.PactlBackend{}, prefs, app, wired)
	app.registry = registry

	player.RegisterEventConsumer(app)
	go player.EventLoop()

	monitor, err := media.NewMonitor(&media.CdparanoiaReader{Device: device}, app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to watch the optical drive: %v\n", err)
		osExit(1)
	}
	monitor.Start()
	defer monitor.Stop()

	registry.Startup(context.Background())
	subscriber := sinks.NewSubscriber(registry)
	subscriber.Start()
	defer subscriber.Stop()

	debouncer := input.NewDebouncer(inputConfig(), app)
	watcher, err := input.NewWatcher(map[input.Button]string{
		input.ButtonPlayPause: viper.GetString("pins.play_pause"),
		input.ButtonNext:      viper.GetString("pins.next"),
		input.ButtonPrev:      viper.GetString("pins.prev"),
	}, debouncer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to configure buttons: %v\n", err)
		osExit(1)
	}
	watcher.Start()
	defer watcher.Stop()

	if *enableMpris {
		mprisPlayer, err := remote.RegisterMprisPlayer(transportAdapter{player: player})
		if err != nil {
			zlog.Warn().Err(err).Msg("MPRIS registration failed, continuing without remote")
		} else {
			app.mpris = mprisPlayer
			defer mprisPlayer.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		zlog.Info().Stringer("signal", s).Msg("shutting down")
		app.Quit()
	}()

	zlog.Info().Str("version", Version).Str("device", device).Msg("cd-player started")
	app.Run()
}
