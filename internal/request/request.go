// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package request provides utilities for making HTTP requests.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/vcbot/internal/version"
)

// DefaultClient is a [http.Client] with nice defaults.
var DefaultClient = &http.Client{
	Timeout: 10 * time.Second,
}

// DefaultMaxBytes limits response bodies read by [Make] when
// Params.MaxBytes is zero.
const DefaultMaxBytes = 10 << 20

// Params defines the parameters needed for making an HTTP request.
type Params struct {
	// Method is the HTTP method (GET, POST, etc.) for the request.
	Method string
	// URL is the target URL of the request.
	URL string
	// Headers is a map of key-value pairs for additional request headers.
	Headers map[string]string
	// Body is any data to be sent in the request body. It will be marshaled to
	// JSON.
	Body any
	// HTTPClient is an optional custom HTTP client object to use for the request.
	// If not provided, DefaultClient will be used.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
	// MaxBytes caps the number of response body bytes read. Longer bodies are
	// truncated. Zero means DefaultMaxBytes.
	MaxBytes int64
}

func (p Params) method() string {
	if p.Method == "" {
		return http.MethodGet
	}
	return p.Method
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned by [Make] when the server responds with a status
// other than 200 OK.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %q: want 200, got %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string {
	if se.scrubber != nil {
		return se.scrubber.Replace(se.err.Error())
	}
	return se.err.Error()
}

func (se *scrubbedError) Unwrap() error { return se.err }

func scrubErr(err error, scrubber *strings.Replacer) error {
	return &scrubbedError{err: err, scrubber: scrubber}
}

// Make makes an HTTP request with the provided parameters and reads the
// response body.
func Make(ctx context.Context, p Params) (*Response, error) {
	res, err := do(ctx, p, DefaultClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	limit := p.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, limit))
	if err != nil {
		return nil, scrubErr(err, p.Scrubber)
	}

	if res.StatusCode != http.StatusOK {
		return nil, scrubErr(&StatusError{
			Method:     p.method(),
			URL:        p.URL,
			StatusCode: res.StatusCode,
			Body:       b,
		}, p.Scrubber)
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       b,
	}, nil
}

// StreamClient is the [http.Client] used by [Open] when Params.HTTPClient is
// nil. It has no timeout, since streamed bodies are read for as long as they
// play.
var StreamClient = &http.Client{}

// Open makes an HTTP request and returns the response body unread, for
// reading as a stream. Params.MaxBytes is ignored. The caller must close the
// body; canceling ctx also aborts reading it.
func Open(ctx context.Context, p Params) (io.ReadCloser, error) {
	res, err := do(ctx, p, StreamClient)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return nil, scrubErr(&StatusError{
			Method:     p.method(),
			URL:        p.URL,
			StatusCode: res.StatusCode,
			Body:       b,
		}, p.Scrubber)
	}
	return res.Body, nil
}

func do(ctx context.Context, p Params, defaultClient *http.Client) (*http.Response, error) {
	var br io.Reader
	if p.Body != nil {
		data, err := json.Marshal(p.Body)
		if err != nil {
			return nil, scrubErr(err, p.Scrubber)
		}
		br = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, p.method(), p.URL, br)
	if err != nil {
		return nil, scrubErr(err, p.Scrubber)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if br != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpc := defaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return nil, scrubErr(err, p.Scrubber)
	}
	return res, nil
}
