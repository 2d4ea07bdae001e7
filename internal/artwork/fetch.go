// Package artwork fetches cover-art images and applies raster effects
// to them before they are composed into a card.
package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Image is fetched cover art. It is owned by the request that fetched
// it and discarded once the response is sent.
type Image struct {
	Bytes []byte
	MIME  string
}

// FetchError reports a failed image retrieval: a transport failure or a
// non-2xx upstream status. The caller decides whether to render a
// fallback or fail the request.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("artwork: fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("artwork: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

const (
	// defaultMIME is assumed when the upstream declares no content type.
	defaultMIME = "image/jpeg"

	// maxImageBytes bounds how much image data is held in memory for
	// one request.
	maxImageBytes = 10 << 20
)

// Fetcher retrieves cover-art bytes over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   zerolog.Logger
}

// NewFetcher creates a Fetcher whose requests time out after the given
// duration (10s if zero).
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxImageBytes,
		logger:   logger.With().Str("component", "artwork").Logger(),
	}
}

// Open performs the GET and returns the raw response, for callers that
// need the upstream headers (cover proxy mode). The response body is
// owned by the caller. Non-2xx statuses are returned as *FetchError
// with the body already closed.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	return resp, nil
}

// Fetch retrieves the image into memory. The MIME type comes from the
// upstream Content-Type header, defaulting to image/jpeg when absent.
// Responses larger than the in-memory cap fail rather than grow without
// bound.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	resp, err := f.Open(ctx, rawURL)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return Image{}, &FetchError{
			URL: rawURL,
			Err: fmt.Errorf("response exceeds %d byte limit", f.maxBytes),
		}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMIME
	}

	f.logger.Debug().Str("url", rawURL).Int("bytes", len(body)).Str("mime", mimeType).Msg("Fetched image")
	return Image{Bytes: body, MIME: mimeType}, nil
}
