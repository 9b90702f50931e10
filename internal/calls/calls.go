// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package calls joins group voice chats and controls playback in them.
package calls

import (
	"context"
	"errors"
)

// Client joins and leaves group calls and controls the stream playing there.
type Client interface {
	// Join joins the group call of chatID and starts streaming source, a
	// local file or URL. Anything already playing in that chat is stopped
	// once the call is known to exist, so a chat without a call keeps
	// playing. If starting the new stream fails after that, nothing plays.
	Join(ctx context.Context, chatID int64, source string) error
	// Leave stops streaming and leaves the group call of chatID.
	Leave(ctx context.Context, chatID int64) error
	// Pause pauses the stream in chatID.
	Pause(ctx context.Context, chatID int64) error
	// Resume resumes a paused stream in chatID.
	Resume(ctx context.Context, chatID int64) error
	// Active reports whether something is streaming in chatID.
	Active(chatID int64) bool
}

// Errors returned by a [Client]. They may be wrapped.
var (
	// ErrNoActiveCall means the chat has no group call to join.
	ErrNoActiveCall = errors.New("no active voice chat")
	// ErrNotInCall means the bot isn't streaming in the chat.
	ErrNotInCall = errors.New("not in a voice chat")
	// ErrNotPaused means resume was requested for a stream that isn't paused.
	ErrNotPaused = errors.New("stream is not paused")
)
