// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package lcd drives a character LCD behind a PCF8574 I2C backpack.
package lcd

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Display is a fixed-width two-line character display.
type Display interface {
	// WriteLines replaces both lines. Overlong lines are truncated,
	// short ones padded; unchanged lines are not rewritten.
	WriteLines(top, bottom string) error
	Clear() error
	Close() error
}

// PCF8574 pin assignment of the common HD44780 backpack.
const (
	pinRS        = 0x01
	pinEN        = 0x04
	pinBacklight = 0x08
)

// HD44780 controller commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // cursor moves right, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off, blink off
	cmdFunctionSet = 0x28 // 4-bit, two lines, 5x8 font
	cmdSetDDRAM    = 0x80
)

var rowOffsets = [2]byte{0x00, 0x40}

// HD44780 is a 16x2 (or 20x2) HD44780 on an I2C expander.
type HD44780 struct {
	dev   *i2c.Dev
	bus   i2c.BusCloser
	width int

	mu    sync.Mutex
	cache [2]string
}

// NewHD44780 opens the I2C bus and initializes the controller in
// 4-bit mode. Pass an empty busName for the platform default bus.
func NewHD44780(busName string, addr uint16, width int) (*HD44780, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "host init")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", busName)
	}

	d := &HD44780{
		dev:   &i2c.Dev{Addr: addr, Bus: bus},
		bus:   bus,
		width: width,
	}
	if err := d.init(); err != nil {
		bus.Close()
		return nil, err
	}
	return d, nil
}

// init runs the HD44780 4-bit wakeup dance.
func (d *HD44780) init() error {
	time.Sleep(50 * time.Millisecond)
	for _, nib := range []byte{0x30, 0x30, 0x30, 0x20} {
		if err := d.writeNibble(nib, 0); err != nil {
			return errors.Wrap(err, "lcd wakeup")
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, cmd := range []byte{cmdFunctionSet, cmdDisplayOn, cmdEntryMode, cmdClear} {
		if err := d.command(cmd); err != nil {
			return errors.Wrap(err, "lcd setup")
		}
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (d *HD44780) WriteLines(top, bottom string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for row, text := range [2]string{top, bottom} {
		line := fitLine(text, d.width)
		if line == d.cache[row] {
			continue
		}
		if err := d.writeRow(row, line); err != nil {
			return err
		}
		d.cache[row] = line
	}
	return nil
}

func (d *HD44780) writeRow(row int, line string) error {
	if err := d.command(cmdSetDDRAM | rowOffsets[row]); err != nil {
		return err
	}
	for i := 0; i < len(line); i++ {
		if err := d.writeByte(line[i], pinRS); err != nil {
			return errors.Wrapf(err, "write row %d", row)
		}
	}
	return nil
}

func (d *HD44780) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = [2]string{}
	if err := d.command(cmdClear); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (d *HD44780) Close() error {
	if err := d.Clear(); err != nil {
		zlog.Warn().Err(err).Msg("lcd: clear on close")
	}
	// leave the backlight off when the appliance shuts down
	if _, err := d.dev.Write([]byte{0x00}); err != nil {
		zlog.Warn().Err(err).Msg("lcd: backlight off")
	}
	return d.bus.Close()
}

func (d *HD44780) command(cmd byte) error {
	return d.writeByte(cmd, 0)
}

// writeByte sends one byte as two nibbles with the given control bits.
func (d *HD44780) writeByte(b, ctrl byte) error {
	if err := d.writeNibble(b&0xF0, ctrl); err != nil {
		return err
	}
	return d.writeNibble((b<<4)&0xF0, ctrl)
}

// writeNibble latches the high nibble of val by pulsing EN.
func (d *HD44780) writeNibble(val, ctrl byte) error {
	out := val | ctrl | pinBacklight
	for _, b := range []byte{out | pinEN, out} {
		if _, err := d.dev.Write([]byte{b}); err != nil {
			return errors.Wrap(err, "i2c write")
		}
	}
	time.Sleep(50 * time.Microsecond)
	return nil
}

// fitLine pads or truncates to exactly width characters.
func fitLine(text string, width int) string {
	if len(text) > width {
		return text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}
