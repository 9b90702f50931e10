// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package media turns links sent by users into something a voice chat can
// play.
//
// Two strategies exist. [Downloader] fetches and transcodes the media to a
// local file before streaming; [Passthrough] hands the link to the call
// client as is. [FeedResolver] sits in front of either and turns podcast
// feeds into their newest episode.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/vcbot/internal/logger"
)

// Track is media ready to be streamed.
type Track struct {
	// ID identifies the media at its origin. Empty in stream mode.
	ID string
	// Title is shown to users.
	Title string
	// Source is a local file path or URL the call client can play.
	Source string
	// Link is the link the user sent.
	Link string
}

// Acquirer prepares a link for streaming.
type Acquirer interface {
	Acquire(ctx context.Context, link string) (*Track, error)
}

// AcquirerFunc is a function that implements [Acquirer].
type AcquirerFunc func(ctx context.Context, link string) (*Track, error)

// Acquire calls f(ctx, link).
func (f AcquirerFunc) Acquire(ctx context.Context, link string) (*Track, error) {
	return f(ctx, link)
}

// Mode selects the acquisition strategy.
type Mode string

// Available modes.
const (
	ModeDownload Mode = "download"
	ModeStream   Mode = "stream"
)

// ErrUnknownMode is returned by [ParseMode] for unsupported values.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode parses s as a [Mode].
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDownload, ModeStream:
		return m, nil
	}
	return "", fmt.Errorf("%w %q (want %q or %q)", ErrUnknownMode, s, ModeDownload, ModeStream)
}

// Config configures [New].
type Config struct {
	// Dir is where downloaded media are stored. Used in download mode.
	Dir string
	// YtDlp is the name or path of the yt-dlp executable.
	YtDlp string
	// HTTPClient fetches feeds. If nil, request.DefaultClient is used.
	HTTPClient *http.Client
	// Scrubber hides secrets in errors.
	Scrubber *strings.Replacer
	// Logf logs feeds that couldn't be resolved.
	Logf logger.Logf
}

// New returns the [Acquirer] for mode, wrapped in a [FeedResolver].
func New(mode Mode, c Config) (Acquirer, error) {
	var next Acquirer
	switch mode {
	case ModeDownload:
		d, err := NewDownloader(c.Dir, c.YtDlp)
		if err != nil {
			return nil, err
		}
		next = d
	case ModeStream:
		next = Passthrough{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
	return &FeedResolver{
		Next:       next,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
		Logf:       c.Logf,
	}, nil
}

// Passthrough hands links to the call client unchanged.
type Passthrough struct{}

// Acquire returns a track that streams link directly. Its title is the link
// itself.
func (Passthrough) Acquire(ctx context.Context, link string) (*Track, error) {
	return &Track{Title: link, Source: link, Link: link}, nil
}
