// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package media

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.astrophena.name/vcbot/internal/logger"
	"go.astrophena.name/vcbot/internal/request"

	"github.com/mmcdole/gofeed"
)

// maxFeedBytes limits how much of a feed is read.
const maxFeedBytes = 5 << 20

// errNoEpisodes is returned for feeds without playable items.
var errNoEpisodes = errors.New("feed has no audio episodes")

// FeedResolver resolves podcast and other RSS, Atom or JSON feed links to
// their newest audio enclosure and passes it on to Next. Links that don't
// look like feeds, or don't parse as one, go to Next untouched.
type FeedResolver struct {
	Next       Acquirer
	HTTPClient *http.Client
	// Scrubber hides secrets in fetch errors.
	Scrubber *strings.Replacer
	// Logf, if set, is told why a feed link was passed on untouched.
	Logf logger.Logf
}

// Acquire implements [Acquirer].
func (r *FeedResolver) Acquire(ctx context.Context, link string) (*Track, error) {
	if !looksLikeFeed(link) {
		return r.Next.Acquire(ctx, link)
	}

	feed, ok := r.fetch(ctx, link)
	if !ok {
		return r.Next.Acquire(ctx, link)
	}

	item, enclosure := newestEpisode(feed)
	if item == nil {
		return nil, errNoEpisodes
	}

	tr, err := r.Next.Acquire(ctx, enclosure)
	if err != nil {
		return nil, err
	}
	if item.Title != "" && (tr.Title == "" || tr.Title == enclosure || tr.Title == UnknownTitle) {
		tr.Title = item.Title
	}
	tr.Link = link
	return tr, nil
}

func (r *FeedResolver) fetch(ctx context.Context, link string) (*gofeed.Feed, bool) {
	res, err := request.Make(ctx, request.Params{
		Method:     http.MethodGet,
		URL:        link,
		HTTPClient: r.HTTPClient,
		MaxBytes:   maxFeedBytes,
		Scrubber:   r.Scrubber,
	})
	if err != nil {
		r.logf("fetching feed: %v", err)
		return nil, false
	}
	feed, err := gofeed.NewParser().ParseString(string(res.Body))
	if err != nil {
		r.logf("parsing feed %s: %v", link, err)
		return nil, false
	}
	return feed, true
}

func (r *FeedResolver) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf.Scrub(r.Scrubber)(format, args...)
	}
}

var feedExts = map[string]bool{
	".xml":  true,
	".rss":  true,
	".atom": true,
}

var feedWords = []string{"feed", "rss", "podcast", "atom"}

func looksLikeFeed(link string) bool {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	p := strings.ToLower(u.Path)
	if feedExts[path.Ext(p)] {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		for _, w := range feedWords {
			if seg == w || seg == w+"s" {
				return true
			}
		}
	}
	return false
}

var audioExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".flac": true,
	".wav":  true,
}

func audioEnclosure(item *gofeed.Item) string {
	for _, e := range item.Enclosures {
		if e == nil || e.URL == "" {
			continue
		}
		if strings.HasPrefix(e.Type, "audio/") {
			return e.URL
		}
		if u, err := url.Parse(e.URL); err == nil && audioExts[strings.ToLower(path.Ext(u.Path))] {
			return e.URL
		}
	}
	return ""
}

// newestEpisode returns the most recently published item with an audio
// enclosure. Items without a date count as older than dated ones; among
// undated items, feed order wins.
func newestEpisode(feed *gofeed.Feed) (*gofeed.Item, string) {
	var (
		best    *gofeed.Item
		bestURL string
		bestAt  time.Time
	)
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		enc := audioEnclosure(item)
		if enc == "" {
			continue
		}
		var at time.Time
		if item.PublishedParsed != nil {
			at = *item.PublishedParsed
		}
		if best == nil || at.After(bestAt) {
			best, bestURL, bestAt = item, enc, at
		}
	}
	return best, bestURL
}
