// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

package media

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrUnreadableDisc is returned when the drive reports media but the
// table of contents cannot be read.
var ErrUnreadableDisc = errors.New("unreadable disc")

const tocTimeout = 15 * time.Second

// cdparanoia -Q prints one line per track on stderr:
//
//	 1.    16352 [03:38.02]        0 [00:00.00]    no   no  2
var tocLine = regexp.MustCompile(`^\s*(\d+)\.\s+(\d+)\s+\[(\d+):(\d+)\.(\d+)\]`)

// TOC is the disc table of contents.
type TOC struct {
	TrackCount   int
	TrackLengths []time.Duration
}

// TOCReader reads the table of contents of the inserted disc.
type TOCReader interface {
	ReadTOC(ctx context.Context) (TOC, error)
}

// CdparanoiaReader shells out to cdparanoia, which is the external
// tool the appliance ships with for disc probing.
type CdparanoiaReader struct {
	Device string
}

func (r *CdparanoiaReader) ReadTOC(ctx context.Context) (TOC, error) {
	ctx, cancel := context.WithTimeout(ctx, tocTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "cdparanoia", "-Q", "-d", r.Device)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return TOC{}, errors.Wrap(ErrUnreadableDisc, err.Error())
	}

	toc, ok := parseTOC(string(out))
	if !ok {
		return TOC{}, errors.Wrap(ErrUnreadableDisc, "no tracks in cdparanoia output")
	}
	return toc, nil
}

func parseTOC(output string) (TOC, bool) {
	var toc TOC
	for _, line := range strings.Split(output, "\n") {
		m := tocLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		minutes, _ := strconv.Atoi(m[3])
		seconds, _ := strconv.Atoi(m[4])
		length := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
		if length < time.Second {
			length = time.Second
		}
		toc.TrackCount++
		toc.TrackLengths = append(toc.TrackLengths, length)
	}
	return toc, toc.TrackCount > 0
}
