// Package backend declares the interfaces the player core consumes from the
// outside world: the network fetcher, the audio registry, and the image
// decoder. Production implementations live in internal/fetch, internal/audio,
// and internal/imaging; tests substitute in-memory fakes.
package backend

import (
	"context"
	"image"
	"net/http"
)

// Request describes one fetch. Body is only set for POST-style loads.
type Request struct {
	URL    string
	Method string
	Body   []byte
	Header http.Header
}

// Get builds a GET request for the given URL.
func Get(url string) Request {
	return Request{URL: url, Method: http.MethodGet}
}

// Response is a completed fetch. URL is the post-redirect address and may
// differ from the requested one. The body arrives as a single buffer; there
// is no incremental delivery.
type Response struct {
	URL    string
	Body   []byte
	Status int
}

// Fetcher resolves requests to responses. Implementations own their timeout
// and retry policy; the loader only observes success or failure.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// SoundHandle identifies a sound registered with the audio backend.
type SoundHandle uint32

// Audio is the registry the loader hands fetched MP3 bodies to.
type Audio interface {
	// RegisterMP3 decodes and registers an MP3 buffer, returning its handle.
	RegisterMP3(data []byte) (SoundHandle, error)

	// SoundDuration returns the duration of a registered sound in
	// milliseconds, if known.
	SoundDuration(h SoundHandle) (float64, bool)
}

// Bitmap is a decoded image ready for installation on the display tree.
type Bitmap struct {
	Width  int
	Height int
	Pixels *image.RGBA
}

// Imaging decodes fetched image bodies. The single entry point handles JPEG,
// PNG, and GIF; the name mirrors the tag the bytes would occupy in a movie.
type Imaging interface {
	DecodeDefineBitsJPEG(data []byte) (*Bitmap, error)
}
