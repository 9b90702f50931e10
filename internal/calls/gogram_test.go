// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package calls

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.astrophena.name/vcbot/internal/testutil"
)

type fakeRTMPStream struct {
	played  []string
	piped   bool
	stopped bool

	fed     chan string
	feedErr error
	closed  chan struct{}
}

func (s *fakeRTMPStream) Play(source any) error {
	s.played = append(s.played, source.(string))
	return nil
}

func (s *fakeRTMPStream) ClosePipe() error {
	if s.closed != nil {
		close(s.closed)
	}
	return nil
}

func (s *fakeRTMPStream) StartPipe() error {
	s.piped = true
	return nil
}

func (s *fakeRTMPStream) FeedReader(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.fed <- string(b)
	return s.feedErr
}

func (s *fakeRTMPStream) Pause() error  { return nil }
func (s *fakeRTMPStream) Resume() error { return nil }

func (s *fakeRTMPStream) Stop() error {
	s.stopped = true
	return nil
}

func audioServer() *http.Client {
	mux := http.NewServeMux()
	mux.HandleFunc("GET example.com/track.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ID3 audio bytes"))
	})
	return testutil.MockHTTPClient(mux)
}

func TestGogramStreamPlaysLocalFiles(t *testing.T) {
	t.Parallel()

	fs := &fakeRTMPStream{fed: make(chan string, 1)}
	g := newGogramStream(fs, GogramConfig{HTTPClient: audioServer()}, nil)

	if err := g.Play("downloads/dQw4w9WgXcQ.mp3"); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, fs.played, []string{"downloads/dQw4w9WgXcQ.mp3"})
	testutil.AssertEqual(t, fs.piped, false)
}

func TestGogramStreamPipesURLs(t *testing.T) {
	t.Parallel()

	fs := &fakeRTMPStream{fed: make(chan string, 1), closed: make(chan struct{})}
	g := newGogramStream(fs, GogramConfig{HTTPClient: audioServer()}, func(err error) {
		t.Errorf("unexpected stream error: %v", err)
	})

	if err := g.Play("https://example.com/track.mp3"); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, fs.piped, true)
	testutil.AssertEqual(t, len(fs.played), 0)

	select {
	case got := <-fs.fed:
		testutil.AssertEqual(t, got, "ID3 audio bytes")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the pipe to be fed")
	}
	select {
	case <-fs.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("pipe wasn't closed after the whole track was fed")
	}

	if err := g.Stop(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, fs.stopped, true)
}

func TestGogramStreamURLNotFound(t *testing.T) {
	t.Parallel()

	fs := &fakeRTMPStream{fed: make(chan string, 1)}
	g := newGogramStream(fs, GogramConfig{HTTPClient: audioServer()}, nil)

	if err := g.Play("https://example.com/missing.mp3"); err == nil {
		t.Fatal("want error for a missing track")
	}
	testutil.AssertEqual(t, fs.piped, false)
}

func TestGogramStreamFeedFailure(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got error
	)
	reported := make(chan struct{})
	fs := &fakeRTMPStream{fed: make(chan string, 1), feedErr: errors.New("ffmpeg: broken pipe")}
	g := newGogramStream(fs, GogramConfig{HTTPClient: audioServer()}, func(err error) {
		mu.Lock()
		got = err
		mu.Unlock()
		close(reported)
	})

	if err := g.Play("https://example.com/track.mp3"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reported:
	case <-time.After(5 * time.Second):
		t.Fatal("feed failure wasn't reported")
	}
	mu.Lock()
	defer mu.Unlock()
	if got == nil || !strings.Contains(got.Error(), "broken pipe") {
		t.Fatalf("want broken pipe error, got %v", got)
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://example.com/track": true,
		"http://example.com/a.mp3":  true,
		"downloads/dQw4w9WgXcQ.mp3": false,
		"/srv/music/a.mp3":          false,
		"rtmp://example.com/live":   false,
		"https:///no-host":          false,
	}
	for source, want := range cases {
		testutil.AssertEqual(t, isRemote(source), want)
	}
}
