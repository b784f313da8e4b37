// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package remote

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	zlog "github.com/rs/zerolog/log"
)

const (
	mprisPath       = "/org/mpris/MediaPlayer2"
	mprisName       = "org.mpris.MediaPlayer2.cdplayer"
	playerInterface = "org.mpris.MediaPlayer2.Player"
)

type MprisPlayer struct {
	dbus   *dbus.Conn
	player ControlledPlayer
}

// RegisterMprisPlayer publishes the transport on the session bus so
// desktop media keys and playerctl can drive it.
func RegisterMprisPlayer(player ControlledPlayer) (*MprisPlayer, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect session bus")
	}

	mpp := &MprisPlayer{dbus: conn, player: player}

	if err := conn.ExportAll(mpp, mprisPath, playerInterface); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "export player")
	}

	emptyMetadata := map[string]interface{}{
		"mpris:trackid":     "",
		"mpris:length":      int64(0),
		"xesam:title":       "",
		"xesam:trackNumber": int(0),
	}

	playerProps := map[string]*prop.Prop{
		"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanGoNext":      {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanGoPrevious":  {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanSeek":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"Metadata":       {Value: emptyMetadata, Writable: false, Emit: prop.EmitTrue, Callback: nil},
		"PlaybackStatus": {Value: "Stopped", Writable: false, Emit: prop.EmitTrue, Callback: nil},
	}

	rootProps := map[string]*prop.Prop{
		"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"Identity":            {Value: "cd-player", Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"SupportedUriSchemes": {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
	}

	props, err := prop.Export(conn, mprisPath, map[string]map[string]*prop.Prop{
		"org.mpris.MediaPlayer2": rootProps,
		playerInterface:          playerProps,
	})
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "export properties")
	}

	node := &introspect.Node{
		Name: mprisPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       playerInterface,
				Methods:    introspect.Methods(mpp),
				Properties: props.Introspection(playerInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), mprisPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "export introspection")
	}

	reply, err := conn.RequestName(mprisName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "request name")
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.Newf("bus name %s already owned", mprisName)
	}
	return mpp, nil
}

func (m *MprisPlayer) Close() {
	if err := m.dbus.Close(); err != nil {
		zlog.Warn().Err(err).Msg("mpris: close")
	}
}

// Mandatory org.mpris.MediaPlayer2.Player methods.

func (m *MprisPlayer) PlayPause() {
	if err := m.player.PlayPause(); err != nil {
		zlog.Warn().Err(err).Msg("mpris: play-pause")
	}
}

func (m *MprisPlayer) Play() {
	if !m.player.IsPlaying() {
		m.PlayPause()
	}
}

func (m *MprisPlayer) Pause() {
	if m.player.IsPlaying() {
		m.PlayPause()
	}
}

func (m *MprisPlayer) Stop() {
	if err := m.player.Stop(); err != nil {
		zlog.Warn().Err(err).Msg("mpris: stop")
	}
}

func (m *MprisPlayer) Next() {
	if err := m.player.NextTrack(); err != nil {
		zlog.Warn().Err(err).Msg("mpris: next")
	}
}

func (m *MprisPlayer) Previous() {
	if err := m.player.PreviousTrack(); err != nil {
		zlog.Warn().Err(err).Msg("mpris: previous")
	}
}

func (m *MprisPlayer) OpenUri(string)          {}
func (m *MprisPlayer) Seek(int64)              {}
func (m *MprisPlayer) SetPosition(string, int) {}

// OnTrackChange refreshes Metadata and PlaybackStatus after any
// transport transition. Called from the control loop.
func (m *MprisPlayer) OnTrackChange(track TrackInfo, status string) {
	metadata := map[string]interface{}{
		"mpris:trackid":     fmt.Sprintf("/track/%d", track.Number),
		"mpris:length":      int64(track.Duration) * 1000000,
		"xesam:title":       fmt.Sprintf("Track %d", track.Number),
		"xesam:trackNumber": track.Number,
	}

	err := m.dbus.Emit(mprisPath, "org.freedesktop.DBus.Properties.PropertiesChanged",
		playerInterface, map[string]interface{}{
			"Metadata":       metadata,
			"PlaybackStatus": status,
		}, []string{})
	if err != nil {
		zlog.Warn().Err(err).Msg("mpris: emit properties changed")
	}
}
