// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package calls

import (
	"context"
	"errors"
	"fmt"

	"go.astrophena.name/vcbot/internal/logger"
	"go.astrophena.name/vcbot/internal/util/syncmap"
)

// Stream is a single live stream into a group call.
type Stream interface {
	Play(source string) error
	Pause() error
	Resume() error
	Stop() error
}

// Opener prepares a [Stream] for the group call of chatID. It returns an
// error wrapping [ErrNoActiveCall] when the chat has no call to stream into.
// The stream must report failures that end playback to onError.
type Opener func(chatID int64, onError func(error)) (Stream, error)

// RTMP is a [Client] that keeps one [Stream] per chat.
type RTMP struct {
	open    Opener
	onError func(chatID int64, err error)
	logf    logger.Logf
	streams *syncmap.Map[int64, *entry]
}

// entry wraps a stream so that a failure report can be matched against the
// stream currently stored for the chat.
type entry struct{ Stream }

// NewRTMP returns an RTMP client that opens streams with open. onError, if
// not nil, is called after a running stream fails and has been forgotten.
func NewRTMP(open Opener, onError func(chatID int64, err error), logf logger.Logf) *RTMP {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &RTMP{
		open:    open,
		onError: onError,
		logf:    logf,
		streams: syncmap.NewMap[int64, *entry](),
	}
}

// Join implements [Client].
func (c *RTMP) Join(ctx context.Context, chatID int64, source string) error {
	e := new(entry)
	s, err := c.open(chatID, func(err error) { c.failed(chatID, e, err) })
	if err != nil {
		return err
	}
	e.Stream = s

	if old, ok := c.streams.LoadAndDelete(chatID); ok {
		if err := old.Stop(); err != nil {
			c.logf("calls: stopping previous stream in %d: %v", chatID, err)
		}
	}

	if err := s.Play(source); err != nil {
		if stopErr := s.Stop(); stopErr != nil {
			c.logf("calls: cleaning up failed stream in %d: %v", chatID, stopErr)
		}
		return err
	}
	c.streams.Store(chatID, e)
	return nil
}

func (c *RTMP) failed(chatID int64, e *entry, err error) {
	// Failures of streams that were already replaced or stopped don't
	// matter.
	if !c.streams.CompareAndDelete(chatID, e) {
		return
	}
	c.logf("calls: stream in %d failed: %v", chatID, err)
	if c.onError != nil {
		c.onError(chatID, err)
	}
}

// Leave implements [Client].
func (c *RTMP) Leave(ctx context.Context, chatID int64) error {
	s, ok := c.streams.LoadAndDelete(chatID)
	if !ok {
		return ErrNotInCall
	}
	return s.Stop()
}

// Pause implements [Client].
func (c *RTMP) Pause(ctx context.Context, chatID int64) error {
	s, ok := c.streams.Load(chatID)
	if !ok {
		return ErrNotInCall
	}
	return s.Pause()
}

// Resume implements [Client].
func (c *RTMP) Resume(ctx context.Context, chatID int64) error {
	s, ok := c.streams.Load(chatID)
	if !ok {
		return ErrNotInCall
	}
	return s.Resume()
}

// Active implements [Client].
func (c *RTMP) Active(chatID int64) bool {
	_, ok := c.streams.Load(chatID)
	return ok
}

// Count returns the number of chats being streamed to.
func (c *RTMP) Count() int { return c.streams.Len() }

// Close stops every stream.
func (c *RTMP) Close() error {
	var errs []error
	c.streams.Range(func(chatID int64, s *entry) bool {
		if !c.streams.CompareAndDelete(chatID, s) {
			return true
		}
		if err := s.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
		return true
	})
	return errors.Join(errs...)
}

var _ Client = (*RTMP)(nil)
