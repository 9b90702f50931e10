// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.astrophena.name/vcbot/internal/testutil"
)

func testDownloader(t *testing.T, out string, err error) (*Downloader, *[]string) {
	t.Helper()
	d, derr := NewDownloader(filepath.Join(t.TempDir(), "downloads"), "")
	if derr != nil {
		t.Fatal(derr)
	}
	var gotArgs []string
	d.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		testutil.AssertEqual(t, name, "yt-dlp")
		gotArgs = args
		return []byte(out), err
	}
	return d, &gotArgs
}

func TestDownloaderAcquire(t *testing.T) {
	t.Parallel()

	const link = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	t.Run("title from downloader", func(t *testing.T) {
		t.Parallel()
		d, args := testDownloader(t, `[info] something
{"id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", "filepath": "/tmp/dQw4w9WgXcQ.mp3"}
`, nil)
		tr, err := d.Acquire(context.Background(), link)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, tr, &Track{
			ID:     "dQw4w9WgXcQ",
			Title:  "Never Gonna Give You Up",
			Source: "/tmp/dQw4w9WgXcQ.mp3",
			Link:   link,
		})
		got := *args
		testutil.AssertEqual(t, got[len(got)-1], link)
		testutil.AssertEqual(t, got[len(got)-2], "--")
		testutil.AssertContains(t, got, filepath.Join(d.Dir(), "%(id)s.%(ext)s"))
	})

	t.Run("missing title and path", func(t *testing.T) {
		t.Parallel()
		d, _ := testDownloader(t, `{"id": "abc"}`, nil)
		tr, err := d.Acquire(context.Background(), link)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, tr.Title, UnknownTitle)
		testutil.AssertEqual(t, tr.Source, filepath.Join(d.Dir(), "abc.mp3"))
	})

	t.Run("downloader fails", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("yt-dlp: exit status 1: ERROR: Unsupported URL")
		d, _ := testDownloader(t, "", wantErr)
		if _, err := d.Acquire(context.Background(), link); !errors.Is(err, wantErr) {
			t.Fatalf("want %v, got %v", wantErr, err)
		}
	})

	t.Run("no output", func(t *testing.T) {
		t.Parallel()
		d, _ := testDownloader(t, "[download] 100%\n", nil)
		if _, err := d.Acquire(context.Background(), link); !errors.Is(err, errNoDownloadInfo) {
			t.Fatalf("want errNoDownloadInfo, got %v", err)
		}
	})
}

func TestParseDownloadInfo(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in      string
		want    *downloadInfo
		wantErr bool
	}{
		"single line": {
			in:   `{"id":"a","title":"A","filepath":"a.mp3"}`,
			want: &downloadInfo{ID: "a", Title: "A", Filepath: "a.mp3"},
		},
		"last json line wins": {
			in:   "{\"id\":\"a\"}\nnoise\n{\"id\":\"b\"}\n",
			want: &downloadInfo{ID: "b"},
		},
		"broken json": {
			in:      `{"id":`,
			wantErr: true,
		},
		"empty object": {
			in:      `{}`,
			wantErr: true,
		},
		"empty": {
			in:      "",
			wantErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := parseDownloadInfo([]byte(tc.in))
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
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

func TestTitleFromTagsMissingFile(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, titleFromTags(filepath.Join(t.TempDir(), "missing.mp3")), "")
}

func TestLastLine(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, lastLine("a\nb\nERROR: boom\n"), "ERROR: boom")
	testutil.AssertEqual(t, lastLine("single"), "single")
	testutil.AssertEqual(t, lastLine(""), "")
}
