// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"

	"go.astrophena.name/vcbot/internal/bot"
	"go.astrophena.name/vcbot/internal/calls"
	"go.astrophena.name/vcbot/internal/cli"
	"go.astrophena.name/vcbot/internal/cli/envflag"
	"go.astrophena.name/vcbot/internal/logger"
	"go.astrophena.name/vcbot/internal/media"
	"go.astrophena.name/vcbot/internal/session"
	"go.astrophena.name/vcbot/internal/systemd"
	"go.astrophena.name/vcbot/internal/tg"
	"go.astrophena.name/vcbot/internal/web"

	"github.com/amarnathcjd/gogram/telegram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() { cli.Main(new(engine)) }

type engine struct {
	apiID     *int64
	apiHash   *string
	token     *string
	mode      *string
	downloads *string
	ytdlp     *string
	addr      *string
	rtmpURL   *string
	rtmpKey   *string
	session   *string

	// for tests
	dial func(context.Context, tg.Config) (*telegram.Client, error)
}

func (e *engine) EnvFlags(fs *flag.FlagSet, getenv func(string) string) {
	e.apiID = envflag.Value("api-id", "API_ID", int64(0), "Telegram application `ID`.", fs, getenv)
	e.apiHash = envflag.Value("api-hash", "API_HASH", "", "Telegram application `hash`.", fs, getenv)
	e.token = envflag.Value("token", "TELEGRAM_BOT_TOKEN", "", "Telegram bot `token`.", fs, getenv)
	e.mode = envflag.Value("mode", "MODE", string(media.ModeDownload), "How to get media: \"download\" or \"stream\".", fs, getenv)
	e.downloads = envflag.Value("downloads", "DOWNLOADS_DIR", "downloads", "`Directory` for downloaded media.", fs, getenv)
	e.ytdlp = envflag.Value("ytdlp", "YTDLP", "yt-dlp", "Path to the yt-dlp `executable`.", fs, getenv)
	e.addr = envflag.Value("addr", "ADDR", "", "Listen on `host:port` for debug HTTP requests. Disabled if empty.", fs, getenv)
	e.rtmpURL = envflag.Value("rtmp-url", "RTMP_URL", "", "RTMP `URL` of voice chats, when it can't be fetched.", fs, getenv)
	e.rtmpKey = envflag.Value("rtmp-key", "RTMP_KEY", "", "RTMP stream `key` of voice chats, when it can't be fetched.", fs, getenv)
	e.session = envflag.Value("session", "SESSION_NAME", "vc_bot", "Telegram session `name`.", fs, getenv)
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrInvalidArgs, env.Args)
	}
	mode, err := media.ParseMode(*e.mode)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrInvalidArgs, err)
	}
	if *e.apiID < 0 || *e.apiID > math.MaxInt32 {
		return fmt.Errorf("%w: application ID %d is out of range", cli.ErrInvalidArgs, *e.apiID)
	}

	scrubber := newScrubber(*e.token, *e.apiHash)
	logs := logger.NewStreamer(1000)
	logf := logger.Logf(log.New(io.MultiWriter(env.Stderr, logs), "", log.LstdFlags).Printf).Scrub(scrubber)

	acq, err := media.New(mode, media.Config{
		Dir:      *e.downloads,
		YtDlp:    *e.ytdlp,
		Scrubber: scrubber,
		Logf:     logf,
	})
	if err != nil {
		return err
	}

	dial := e.dial
	if dial == nil {
		dial = tg.Dial
	}
	client, err := dial(ctx, tg.Config{
		AppID:       int32(*e.apiID),
		AppHash:     *e.apiHash,
		Token:       *e.token,
		SessionName: *e.session,
		Logf:        logf,
	})
	if err != nil {
		return fmt.Errorf("starting Telegram client: %w", err)
	}

	var username string
	if me := client.Me(); me != nil {
		username = me.Username
	}
	logf("logged in as @%s, %s mode", username, mode)

	var b *bot.Bot
	rtmp := calls.NewGogram(client, calls.GogramConfig{
		URL: *e.rtmpURL,
		Key: *e.rtmpKey,
		// Failures may be reported while the chat is locked by a command.
		OnError: func(chatID int64, err error) {
			go b.StreamFailed(chatID, err)
		},
		Scrubber: scrubber,
		Logf:     logf,
	})
	defer func() {
		if err := rtmp.Close(); err != nil {
			logf("stopping streams: %v", err)
		}
	}()

	sessions := session.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	b = bot.New(bot.Config{
		Calls:    rtmp,
		Media:    acq,
		Sessions: sessions,
		Username: username,
		Logf:     logf,
		Scrubber: scrubber,
		Metrics:  bot.NewMetrics(reg, sessions),
	})

	if *e.addr != "" {
		mux := http.NewServeMux()
		registerHealthChecks(web.Health(mux), client, sessions, rtmp)
		go func() {
			if err := web.ListenAndServe(ctx, &web.ListenAndServeConfig{
				Addr:     *e.addr,
				Mux:      mux,
				Logf:     logf,
				Gatherer: reg,
				Logs:     logs,
			}); err != nil {
				logf("debug server: %v", err)
			}
		}()
	}

	systemd.Notify(ctx, logf, systemd.Ready)
	systemd.Notify(ctx, logf, systemd.Status("logged in as @%s, %s mode", username, mode))
	go systemd.WatchdogLoop(ctx, logf)
	defer systemd.Notify(context.WithoutCancel(ctx), logf, systemd.Stopping)

	return tg.Serve(ctx, client, b, logf)
}

// newScrubber returns a replacer that hides the given secrets.
func newScrubber(secrets ...string) *strings.Replacer {
	var oldnew []string
	for _, s := range secrets {
		if s != "" {
			oldnew = append(oldnew, s, "[EXPUNGED]")
		}
	}
	return strings.NewReplacer(oldnew...)
}

// connection is the part of the Telegram client the health check looks at.
type connection interface {
	IsConnected() bool
}

func registerHealthChecks(h *web.HealthHandler, conn connection, sessions *session.Table, rtmp *calls.RTMP) {
	h.RegisterFunc("telegram", func() (string, bool) {
		if conn.IsConnected() {
			return "connected", true
		}
		return "disconnected", false
	})
	h.RegisterFunc("sessions", func() (string, bool) {
		return fmt.Sprintf("%d active", sessions.Len()), true
	})
	h.RegisterFunc("streams", func() (string, bool) {
		return fmt.Sprintf("%d running", rtmp.Count()), true
	})
}
