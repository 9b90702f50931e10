// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the chat commands of the voice chat bot.
//
// The bot understands four commands, all of them only in groups:
//
//	/join <link>  acquire the media behind link and stream it into the voice chat
//	/leave        stop streaming and leave the voice chat
//	/pause        pause the stream
//	/resume       resume the stream
//
// Commands addressed to another bot (/join@other_bot) are ignored.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.astrophena.name/vcbot/internal/calls"
	"go.astrophena.name/vcbot/internal/logger"
	"go.astrophena.name/vcbot/internal/media"
	"go.astrophena.name/vcbot/internal/session"
)

// Message is an incoming chat message the bot can answer.
type Message interface {
	// ChatID returns the ID of the chat the message was sent to.
	ChatID() int64
	// InGroup reports whether the message was sent to a group.
	InGroup() bool
	// Text returns the message text.
	Text() string
	// Reply sends text to the chat as a reply to the message.
	Reply(ctx context.Context, text string) error
	// Typing shows the "typing" status in the chat.
	Typing(ctx context.Context) error
}

// Replies sent by the bot.
const (
	replyUsage      = "Please provide a link to a song or video."
	replyPlaying    = "🎧 Playing: %s"
	replyNoCall     = "There is no active voice chat. Please start one and then try again."
	replyJoinFailed = "Oops! I couldn't join the voice chat. Error: %s"
	replyLeft       = "Left the voice chat."
	replyPaused     = "🎵 Music paused."
	replyResumed    = "▶️ Music resumed."
	replyError      = "Error: %s"
)

// Config configures a [Bot].
type Config struct {
	// Calls controls group calls. Required.
	Calls calls.Client
	// Media prepares links for streaming. Required.
	Media media.Acquirer
	// Sessions records what plays where. If nil, a new table is created.
	Sessions *session.Table
	// Username is the bot username without "@", used to recognize commands
	// addressed to this bot in groups with several bots.
	Username string
	// Logf logs handled commands and failures. If nil, nothing is logged.
	Logf logger.Logf
	// Scrubber removes secrets from errors echoed to chats and logs.
	Scrubber *strings.Replacer
	// Metrics, if set, counts handled commands.
	Metrics *Metrics
}

// Bot handles chat commands.
type Bot struct {
	calls    calls.Client
	media    media.Acquirer
	sessions *session.Table
	username string
	logf     logger.Logf
	scrubber *strings.Replacer
	metrics  *Metrics
	commands map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, msg Message, args []string) error

// New returns a new Bot.
func New(c Config) *Bot {
	b := &Bot{
		calls:    c.Calls,
		media:    c.Media,
		sessions: c.Sessions,
		username: strings.TrimPrefix(c.Username, "@"),
		logf:     c.Logf,
		scrubber: c.Scrubber,
		metrics:  c.Metrics,
	}
	if b.sessions == nil {
		b.sessions = session.New()
	}
	if b.logf == nil {
		b.logf = func(string, ...any) {}
	}
	b.logf = b.logf.Scrub(b.scrubber)
	b.commands = map[string]handlerFunc{
		"join":   b.join,
		"leave":  b.leave,
		"pause":  b.pause,
		"resume": b.resume,
	}
	return b
}

// Sessions returns the session table of the bot.
func (b *Bot) Sessions() *session.Table { return b.sessions }

// Handle dispatches msg to the matching command handler. Messages that aren't
// commands for this bot, or weren't sent to a group, are ignored. The returned
// error is only about sending the reply; command failures are reported to the
// chat.
func (b *Bot) Handle(ctx context.Context, msg Message) error {
	if !msg.InGroup() {
		return nil
	}
	cmd, ok := parseCommand(msg.Text())
	if !ok {
		return nil
	}
	if cmd.target != "" && !strings.EqualFold(cmd.target, b.username) {
		return nil
	}
	h, ok := b.commands[cmd.name]
	if !ok {
		return nil
	}

	// Commands for one chat run one at a time, so overlapping joins can't
	// race on the session table or the call.
	unlock := b.sessions.Lock(msg.ChatID())
	defer unlock()

	return h(ctx, msg, cmd.args)
}

func (b *Bot) join(ctx context.Context, msg Message, args []string) error {
	chatID := msg.ChatID()
	if len(args) == 0 {
		b.metrics.observe("join", resultUsage)
		return msg.Reply(ctx, replyUsage)
	}
	link := args[0]

	if err := msg.Typing(ctx); err != nil {
		b.logf("[%d] sending typing action: %v", chatID, err)
	}

	start := time.Now()
	track, err := b.media.Acquire(ctx, link)
	b.metrics.observeAcquire(time.Since(start), err)
	if err == nil {
		err = b.calls.Join(ctx, chatID, track.Source)
		// A failed join may have stopped what was playing before.
		if err != nil && !b.calls.Active(chatID) {
			b.sessions.Delete(chatID)
		}
	}

	if errors.Is(err, calls.ErrNoActiveCall) {
		b.metrics.observe("join", resultNoCall)
		b.logf("[%d] no active voice chat for %s", chatID, link)
		return msg.Reply(ctx, replyNoCall)
	}
	if err != nil {
		b.metrics.observe("join", resultError)
		b.logf("[%d] error joining voice chat or playing %s: %v", chatID, link, err)
		return msg.Reply(ctx, fmt.Sprintf(replyJoinFailed, b.scrub(err)))
	}

	b.sessions.Set(chatID, track.Title)
	b.metrics.observe("join", resultOK)
	b.logf("[%d] started playing: %s", chatID, track.Title)
	return msg.Reply(ctx, fmt.Sprintf(replyPlaying, track.Title))
}

// StreamFailed forgets what chatID was playing after its stream died on its
// own, e.g. because ffmpeg exited. It is a no-op if another stream has been
// started in the chat since.
func (b *Bot) StreamFailed(chatID int64, err error) {
	unlock := b.sessions.Lock(chatID)
	defer unlock()

	if b.calls.Active(chatID) {
		return
	}
	if title, ok := b.sessions.Get(chatID); ok {
		b.sessions.Delete(chatID)
		b.logf("[%d] stopped playing %s: %v", chatID, title, err)
	}
}

func (b *Bot) leave(ctx context.Context, msg Message, args []string) error {
	chatID := msg.ChatID()
	if err := b.calls.Leave(ctx, chatID); err != nil {
		if !b.calls.Active(chatID) {
			b.sessions.Delete(chatID)
		}
		return b.fail(ctx, msg, "leave", err)
	}
	b.sessions.Delete(chatID)
	b.metrics.observe("leave", resultOK)
	b.logf("[%d] left the voice chat", chatID)
	return msg.Reply(ctx, replyLeft)
}

func (b *Bot) pause(ctx context.Context, msg Message, args []string) error {
	chatID := msg.ChatID()
	if err := b.calls.Pause(ctx, chatID); err != nil {
		return b.fail(ctx, msg, "pause", err)
	}
	b.metrics.observe("pause", resultOK)
	b.logf("[%d] music paused", chatID)
	return msg.Reply(ctx, replyPaused)
}

func (b *Bot) resume(ctx context.Context, msg Message, args []string) error {
	chatID := msg.ChatID()
	if err := b.calls.Resume(ctx, chatID); err != nil {
		return b.fail(ctx, msg, "resume", err)
	}
	b.metrics.observe("resume", resultOK)
	b.logf("[%d] music resumed", chatID)
	return msg.Reply(ctx, replyResumed)
}

func (b *Bot) fail(ctx context.Context, msg Message, command string, err error) error {
	b.metrics.observe(command, resultError)
	b.logf("[%d] /%s failed: %v", msg.ChatID(), command, err)
	return msg.Reply(ctx, fmt.Sprintf(replyError, b.scrub(err)))
}

func (b *Bot) scrub(err error) string {
	if b.scrubber == nil {
		return err.Error()
	}
	return b.scrubber.Replace(err.Error())
}
