// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package media

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// UnknownTitle is used when neither the downloader nor the file tags know the
// title.
const UnknownTitle = "Unknown Title"

// Downloader downloads links with yt-dlp and transcodes them to MP3 files
// named after the media ID. Files are never removed.
type Downloader struct {
	dir   string
	ytdlp string

	// run executes a command and returns its standard output. Mocked in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDownloader returns a Downloader that stores files in dir, creating it if
// needed. If ytdlp is empty, "yt-dlp" from PATH is used.
func NewDownloader(dir, ytdlp string) (*Downloader, error) {
	dir = cmp.Or(dir, "downloads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating downloads directory: %w", err)
	}
	return &Downloader{
		dir:   dir,
		ytdlp: cmp.Or(ytdlp, "yt-dlp"),
		run:   runCommand,
	}, nil
}

// Dir returns the directory with downloaded files.
func (d *Downloader) Dir() string { return d.dir }

// downloadInfo is what yt-dlp prints once the file is in its final place.
type downloadInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filepath string `json:"filepath"`
}

// Acquire downloads link and returns the local file.
func (d *Downloader) Acquire(ctx context.Context, link string) (*Track, error) {
	out, err := d.run(ctx, d.ytdlp, d.args(link)...)
	if err != nil {
		return nil, err
	}

	info, err := parseDownloadInfo(out)
	if err != nil {
		return nil, err
	}

	path := info.Filepath
	if path == "" {
		path = filepath.Join(d.dir, info.ID+".mp3")
	}

	title := info.Title
	if title == "" {
		title = titleFromTags(path)
	}

	return &Track{
		ID:     info.ID,
		Title:  cmp.Or(title, UnknownTitle),
		Source: path,
		Link:   link,
	}, nil
}

func (d *Downloader) args(link string) []string {
	return []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--output", filepath.Join(d.dir, "%(id)s.%(ext)s"),
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"--print", "after_move:%(.{id,title,filepath})j",
		"--",
		link,
	}
}

var errNoDownloadInfo = errors.New("downloader printed no media information")

// parseDownloadInfo takes the last JSON line from out, skipping anything else
// the downloader may have printed.
func parseDownloadInfo(out []byte) (*downloadInfo, error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info downloadInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("parsing downloader output: %w", err)
		}
		if info.ID == "" && info.Filepath == "" {
			return nil, errNoDownloadInfo
		}
		return &info, nil
	}
	return nil, errNoDownloadInfo
}

func titleFromTags(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	if m.Artist() != "" && m.Title() != "" {
		return m.Artist() + " - " + m.Title()
	}
	return m.Title()
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
