// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package session tracks which track is playing in which chat.
//
// An entry exists for a chat if and only if a join succeeded there and no
// leave followed it. The table lives in memory only.
package session

import (
	"maps"

	"go.astrophena.name/vcbot/internal/util/syncx"
)

// Table maps chat IDs to the title of the track currently streaming in that
// chat's voice chat. The zero value is not usable, use [New].
type Table struct {
	chats *syncx.Protected[map[int64]string]
	locks syncx.KeyedMutex[int64]
}

// New returns an empty Table.
func New() *Table {
	return &Table{chats: syncx.Protect(make(map[int64]string))}
}

// Lock serializes work on a single chat. Callers must call the returned
// function when done.
func (t *Table) Lock(chatID int64) (unlock func()) { return t.locks.Lock(chatID) }

// Set records title as playing in chatID, replacing any previous title.
func (t *Table) Set(chatID int64, title string) {
	t.chats.Access(func(m map[int64]string) { m[chatID] = title })
}

// Delete forgets chatID and reports whether it was present.
func (t *Table) Delete(chatID int64) (deleted bool) {
	t.chats.Access(func(m map[int64]string) {
		_, deleted = m[chatID]
		delete(m, chatID)
	})
	return deleted
}

// Get returns the title playing in chatID.
func (t *Table) Get(chatID int64) (title string, ok bool) {
	t.chats.RAccess(func(m map[int64]string) { title, ok = m[chatID] })
	return title, ok
}

// Len returns the number of chats with something playing.
func (t *Table) Len() (n int) {
	t.chats.RAccess(func(m map[int64]string) { n = len(m) })
	return n
}

// Snapshot returns a copy of the table.
func (t *Table) Snapshot() (s map[int64]string) {
	t.chats.RAccess(func(m map[int64]string) { s = maps.Clone(m) })
	return s
}
