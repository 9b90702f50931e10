// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package calls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.astrophena.name/vcbot/internal/logger"
	"go.astrophena.name/vcbot/internal/request"

	"github.com/amarnathcjd/gogram/telegram"
)

// GogramConfig configures [NewGogram].
type GogramConfig struct {
	// URL and Key, if both set, are used for every chat instead of asking
	// Telegram for the RTMP endpoint. Bot accounts can't ask.
	URL string
	Key string
	// OnError is called when a running stream fails, e.g. ffmpeg exits.
	OnError func(chatID int64, err error)
	// HTTPClient fetches http(s) sources. If nil, request.StreamClient is
	// used.
	HTTPClient *http.Client
	// Scrubber hides secrets in errors about http(s) sources.
	Scrubber *strings.Replacer
	// Logf logs non-fatal problems.
	Logf logger.Logf
}

// NewGogram returns an [RTMP] client whose streams are gogram RTMP streams
// driven by ffmpeg.
func NewGogram(client *telegram.Client, c GogramConfig) *RTMP {
	open := func(chatID int64, onError func(error)) (Stream, error) {
		s, err := client.NewRTMPStream(chatID)
		if err != nil {
			return nil, mapGogramErr(err)
		}

		if c.URL != "" && c.Key != "" {
			s.SetURL(c.URL)
			s.SetKey(c.Key)
		} else if err := s.FetchRTMPURL(); err != nil {
			return nil, mapGogramErr(err)
		}

		s.OnError(onError)
		return newGogramStream(s, c, onError), nil
	}
	return NewRTMP(open, c.OnError, c.Logf)
}

// rtmpStream is the part of [telegram.RTMPStream] used here.
type rtmpStream interface {
	Play(source any) error
	StartPipe() error
	FeedReader(r io.Reader) error
	ClosePipe() error
	Pause() error
	Resume() error
	Stop() error
}

var _ rtmpStream = (*telegram.RTMPStream)(nil)

// gogramStream plays local files directly. gogram only plays files that
// exist on disk, so http(s) sources are downloaded into its ffmpeg pipe.
type gogramStream struct {
	s        rtmpStream
	httpc    *http.Client
	scrubber *strings.Replacer
	onError  func(error)

	cancel context.CancelFunc // stops feeding the pipe
}

func newGogramStream(s rtmpStream, c GogramConfig, onError func(error)) *gogramStream {
	return &gogramStream{
		s:        s,
		httpc:    c.HTTPClient,
		scrubber: c.Scrubber,
		onError:  onError,
	}
}

func (g *gogramStream) Play(source string) error {
	if !isRemote(source) {
		return mapGogramErr(g.s.Play(source))
	}

	ctx, cancel := context.WithCancel(context.Background())
	body, err := request.Open(ctx, request.Params{
		URL:        source,
		HTTPClient: g.httpc,
		Scrubber:   g.scrubber,
	})
	if err != nil {
		cancel()
		return err
	}
	if err := g.s.StartPipe(); err != nil {
		cancel()
		body.Close()
		return mapGogramErr(err)
	}
	g.cancel = cancel

	go func() {
		defer body.Close()
		err := g.s.FeedReader(body)
		if err == nil {
			// ffmpeg finishes the track once it sees EOF.
			err = g.s.ClosePipe()
		}
		// Stop cancels ctx, and the failure that follows is expected.
		if err != nil && ctx.Err() == nil && g.onError != nil {
			g.onError(fmt.Errorf("feeding %s: %w", source, err))
		}
	}()
	return nil
}

func (g *gogramStream) Pause() error  { return mapGogramErr(g.s.Pause()) }
func (g *gogramStream) Resume() error { return mapGogramErr(g.s.Resume()) }

func (g *gogramStream) Stop() error {
	if g.cancel != nil {
		g.cancel()
	}
	return mapGogramErr(g.s.Stop())
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Telegram RPC errors meaning the chat has no group call running.
var noCallRPCErrors = []string{
	"GROUPCALL_NOT_FOUND",
	"GROUPCALL_INVALID",
	"GROUPCALL_FORBIDDEN",
}

func mapGogramErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, telegram.ErrNoRTMPURL):
		return fmt.Errorf("%w: %w", ErrNoActiveCall, err)
	case errors.Is(err, telegram.ErrStreamNotPaused):
		return fmt.Errorf("%w: %w", ErrNotPaused, err)
	}
	msg := err.Error()
	for _, code := range noCallRPCErrors {
		if strings.Contains(msg, code) {
			return fmt.Errorf("%w: %w", ErrNoActiveCall, err)
		}
	}
	return err
}
