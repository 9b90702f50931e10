// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package syncx

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/vcbot/internal/testutil"
)

func TestProtected(t *testing.T) {
	t.Parallel()

	t.Run("read access", func(t *testing.T) {
		p := Protect(42)
		var result int
		p.RAccess(func(val int) {
			result = val
		})
		testutil.AssertEqual(t, result, 42)
	})

	t.Run("write access", func(t *testing.T) {
		var i int
		p := Protect(&i)
		p.Access(func(val *int) {
			*val = 43 // Modify the value.
		})
		var result int
		p.RAccess(func(val *int) { result = *val }) // Verify change.
		testutil.AssertEqual(t, result, 43)
	})

	t.Run("concurrent access", func(t *testing.T) {
		var i int
		p := Protect(&i)
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Access(func(val *int) {
					*val += 1
				})
			}()
		}
		wg.Wait()

		var result int
		p.RAccess(func(val *int) { result = *val })
		testutil.AssertEqual(t, result, 100)
	})
}

func TestLazy(t *testing.T) {
	t.Parallel()

	var l Lazy[int]
	var count int
	var mu sync.Mutex

	f := func() int {
		mu.Lock()
		defer mu.Unlock()
		count++
		return count
	}

	v1 := l.Get(f)
	testutil.AssertEqual(t, v1, 1)

	v2 := l.Get(f)
	testutil.AssertEqual(t, v2, 1)

	testutil.AssertEqual(t, count, 1)
}

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	t.Run("serializes same key", func(t *testing.T) {
		var (
			km      KeyedMutex[int64]
			wg      sync.WaitGroup
			running atomic.Int32
			maxSeen atomic.Int32
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock(100)
				defer unlock()
				n := running.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
			}()
		}
		wg.Wait()
		testutil.AssertEqual(t, maxSeen.Load(), int32(1))
		testutil.AssertEqual(t, len(km.locks), 0)
	})

	t.Run("different keys do not block", func(t *testing.T) {
		var km KeyedMutex[int64]
		unlockA := km.Lock(1)
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlock := km.Lock(2)
			unlock()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different key blocked")
		}
	})

	t.Run("unlock twice is harmless", func(t *testing.T) {
		var km KeyedMutex[string]
		unlock := km.Lock("a")
		unlock()
		unlock()
		testutil.AssertEqual(t, len(km.locks), 0)
	})
}
