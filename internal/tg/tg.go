// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package tg connects the bot to Telegram over MTProto with gogram.
package tg

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.astrophena.name/vcbot/internal/bot"
	"go.astrophena.name/vcbot/internal/logger"

	"github.com/amarnathcjd/gogram/telegram"
)

// Config configures [Dial].
type Config struct {
	AppID       int32
	AppHash     string
	Token       string
	SessionName string
	Logf        logger.Logf
}

// Errors returned by [Dial] for missing configuration.
var (
	ErrNoAppID = errors.New("application ID is not set")
	ErrNoToken = errors.New("bot token is not set")
)

// Dial connects to Telegram and logs in as a bot.
func Dial(ctx context.Context, c Config) (*telegram.Client, error) {
	if c.AppID == 0 {
		return nil, ErrNoAppID
	}
	if c.Token == "" {
		return nil, ErrNoToken
	}
	if c.Logf == nil {
		c.Logf = func(string, ...any) {}
	}

	client, err := telegram.NewClient(telegram.ClientConfig{
		AppID:         c.AppID,
		AppHash:       c.AppHash,
		MemorySession: true,
		SessionName:   cmp.Or(c.SessionName, "vc_bot"),
		FloodHandler:  floodHandler(c.Logf, time.Sleep),
		LogLevel:      telegram.LogInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	if _, err := client.Conn(); err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if err := client.LoginBot(c.Token); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return client, nil
}

// floodHandler sleeps through flood waits, telling gogram to retry.
func floodHandler(logf logger.Logf, sleep func(time.Duration)) func(error) bool {
	return func(err error) bool {
		wait := telegram.GetFloodWait(err)
		if wait <= 0 {
			return false
		}
		logf("tg: flood wait detected, sleeping for %ds", wait)
		sleep(time.Duration(wait) * time.Second)
		return true
	}
}

// Handler handles incoming messages.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) error
}

// Serve passes every incoming message to h until ctx is canceled, then
// disconnects the client.
func Serve(ctx context.Context, client *telegram.Client, h Handler, logf logger.Logf) error {
	client.On("message", func(m *telegram.NewMessage) error {
		if err := h.Handle(ctx, &message{m: m, client: client}); err != nil {
			logf("tg: [%d] replying: %v", m.ChatID(), err)
		}
		return nil
	})

	<-ctx.Done()
	return client.Stop()
}

// message adapts a gogram message to [bot.Message].
type message struct {
	m      *telegram.NewMessage
	client *telegram.Client
}

func (msg *message) ChatID() int64 { return msg.m.ChatID() }
func (msg *message) InGroup() bool { return msg.m.IsGroup() }
func (msg *message) Text() string  { return msg.m.Text() }

func (msg *message) Reply(ctx context.Context, text string) error {
	_, err := msg.m.Reply(text)
	return err
}

func (msg *message) Typing(ctx context.Context) error {
	_, err := msg.client.SendAction(msg.m.ChatID(), "typing")
	return err
}

var _ bot.Message = (*message)(nil)
