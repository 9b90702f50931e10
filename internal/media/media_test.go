// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/vcbot/internal/testutil"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in      string
		want    Mode
		wantErr bool
	}{
		"download": {in: "download", want: ModeDownload},
		"stream":   {in: "stream", want: ModeStream},
		"empty":    {in: "", wantErr: true},
		"unknown":  {in: "torrent", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Fatalf("want ErrUnknownMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	const link = "https://example.com/track"
	tr, err := Passthrough{}.Acquire(context.Background(), link)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, tr, &Track{Title: link, Source: link, Link: link})
}

func TestNewStreamMode(t *testing.T) {
	t.Parallel()

	a, err := New(ModeStream, Config{})
	if err != nil {
		t.Fatal(err)
	}
	fr, ok := a.(*FeedResolver)
	if !ok {
		t.Fatalf("want *FeedResolver, got %T", a)
	}
	if _, ok := fr.Next.(Passthrough); !ok {
		t.Fatalf("want Passthrough behind the resolver, got %T", fr.Next)
	}
}

func TestNewDownloadModeCreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "downloads")
	if _, err := New(ModeDownload, Config{Dir: dir}); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, fi.IsDir(), true)
}

func TestNewUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := New(Mode("nope"), Config{}); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("want ErrUnknownMode, got %v", err)
	}
}
