// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package sinks

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// PactlBackend talks to PulseAudio/PipeWire through the pactl tool,
// the same interface the audio server exposes to shell users.
type PactlBackend struct{}

func (b *PactlBackend) ListSinks(ctx context.Context) ([]Sink, error) {
	short, err := exec.CommandContext(ctx, "pactl", "list", "short", "sinks").Output()
	if err != nil {
		return nil, errors.Wrap(err, "pactl list short sinks")
	}

	// best effort: missing descriptions degrade to sink names
	var descriptions map[string]string
	if long, err := exec.CommandContext(ctx, "pactl", "list", "sinks").Output(); err == nil {
		descriptions = parseSinkDescriptions(string(long))
	}

	return parseShortSinks(string(short), descriptions), nil
}

func (b *PactlBackend) SetDefaultSink(ctx context.Context, id string) error {
	if out, err := exec.CommandContext(ctx, "pactl", "set-default-sink", id).CombinedOutput(); err != nil {
		return errors.Wrapf(err, "pactl set-default-sink %s: %s", id, strings.TrimSpace(string(out)))
	}
	return nil
}

func parseShortSinks(output string, descriptions map[string]string) []Sink {
	var sinks []Sink
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSpace(fields[1])
		if name == "" {
			continue
		}

		kind := KindWired
		if strings.Contains(strings.ToLower(name), "bluez") {
			kind = KindBluetooth
		}
		display := descriptions[name]
		if display == "" {
			display = name
		}
		sinks = append(sinks, Sink{ID: name, Kind: kind, DisplayName: display, Connected: true})
	}
	return sinks
}

func parseSinkDescriptions(output string) map[string]string {
	descriptions := make(map[string]string)
	var current string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, "Name: "); ok {
			current = name
		} else if desc, ok := strings.CutPrefix(line, "Description: "); ok && current != "" {
			descriptions[current] = desc
		}
	}
	return descriptions
}

// Subscriber follows `pactl subscribe` and triggers a registry resync
// whenever the server reports a sink change. Bluetooth connects and
// disconnects surface here as sink add/remove.
type Subscriber struct {
	registry *Registry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSubscriber(registry *Registry) *Subscriber {
	return &Subscriber{registry: registry}
}

func (s *Subscriber) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Subscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Subscriber) run(ctx context.Context) {
	defer s.wg.Done()

	cmd := exec.CommandContext(ctx, "pactl", "subscribe")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		zlog.Error().Err(err).Msg("sinks: subscribe pipe failed")
		return
	}
	if err := cmd.Start(); err != nil {
		zlog.Error().Err(err).Msg("sinks: pactl subscribe failed to start")
		return
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "on sink ") {
			continue
		}
		if err := s.registry.Resync(ctx); err != nil && ctx.Err() == nil {
			zlog.Warn().Err(err).Msg("sinks: resync failed")
		}
	}
	_ = cmd.Wait()
	if ctx.Err() == nil {
		zlog.Warn().Msg("sinks: pactl subscribe stream ended")
	}
}
