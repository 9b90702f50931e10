// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package tg

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.astrophena.name/vcbot/internal/testutil"
)

func TestDialValidatesConfig(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		c       Config
		wantErr error
	}{
		"no app id": {c: Config{AppHash: "hash", Token: "token"}, wantErr: ErrNoAppID},
		"no token":  {c: Config{AppID: 12345, AppHash: "hash"}, wantErr: ErrNoToken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Dial(context.Background(), tc.c)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFloodHandlerIgnoresOtherErrors(t *testing.T) {
	t.Parallel()

	var slept bool
	h := floodHandler(t.Logf, func(time.Duration) { slept = true })
	testutil.AssertEqual(t, h(errors.New("CHAT_ADMIN_REQUIRED")), false)
	testutil.AssertEqual(t, slept, false)
}
