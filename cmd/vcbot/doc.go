// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Vcbot is a Telegram bot that plays music in group voice chats.

# Usage

	$ vcbot [flags...]

Add the bot to a group, start a voice chat there and send one of the
commands:

  - /join <link>: download (or stream) the song or video behind link and play
    it in the voice chat. Podcast feeds play their newest episode.
  - /leave: stop playing and leave the voice chat.
  - /pause: pause playback.
  - /resume: resume playback.

# Configuration

Every flag can also be set with an environment variable, which in turn can be
set in a .env file in the working directory:

  - API_ID and API_HASH: Telegram application credentials from
    https://my.telegram.org.
  - TELEGRAM_BOT_TOKEN: bot token from @BotFather.
  - MODE: "download" fetches and transcodes media with yt-dlp before playing,
    "stream" passes the link to ffmpeg directly.
  - DOWNLOADS_DIR: where downloaded media is kept. Files are never deleted.
  - RTMP_URL and RTMP_KEY: RTMP endpoint of the voice chat. Bot accounts
    can't look it up themselves, so set these when the lookup fails.
  - ADDR: address of the debug HTTP server serving /health, /metrics and
    /debug/log. Disabled when empty.

yt-dlp and ffmpeg must be installed.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/vcbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
