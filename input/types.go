// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package input turns raw button edges into debounced semantic events.
package input

// Button identifies one of the three physical buttons.
type Button int

const (
	ButtonPlayPause Button = iota
	ButtonNext
	ButtonPrev
)

func (b Button) String() string {
	switch b {
	case ButtonPlayPause:
		return "play_pause"
	case ButtonNext:
		return "next"
	case ButtonPrev:
		return "prev"
	default:
		return "unknown"
	}
}

// PressKind classifies a complete press-release cycle.
type PressKind int

const (
	PressShort PressKind = iota
	PressDouble
	PressLong
)

func (k PressKind) String() string {
	switch k {
	case PressShort:
		return "short"
	case PressDouble:
		return "double"
	case PressLong:
		return "long"
	default:
		return "unknown"
	}
}

// ButtonEvent is a classified press, consumed once by the app loop.
type ButtonEvent struct {
	Button Button
	Kind   PressKind
}

// Handler receives classified events. The app loop implements this.
type Handler interface {
	HandleButton(ev ButtonEvent)
}
