// Package sniff classifies raw load bodies by content type.
package sniff

import (
	"bytes"
	"fmt"

	"github.com/jmylchreest/swfplayer/internal/swf"
)

// ContentType is the set of body formats the loader can handle.
type ContentType int

const (
	// Unknown is returned only when no recognizer matches.
	Unknown ContentType = iota
	// Swf is a movie container (any compression variant).
	Swf
	// Jpeg is a JPEG image.
	Jpeg
	// Png is a PNG image.
	Png
	// Gif is a GIF image.
	Gif
)

// String returns the display name of the content type.
func (c ContentType) String() string {
	switch c {
	case Swf:
		return "SWF"
	case Jpeg:
		return "JPEG"
	case Png:
		return "PNG"
	case Gif:
		return "GIF"
	default:
		return "Unknown"
	}
}

// Image magic prefixes.
var (
	jpegMagic  = []byte{0xFF, 0xD8, 0xFF}
	pngMagic   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	gif87Magic = []byte("GIF87a")
	gif89Magic = []byte("GIF89a")
)

// Sniff classifies a byte buffer. Movie signature recognition runs first,
// then image magic probing. Unknown means no recognizer matched; it does not
// mean the buffer is empty or invalid per se.
func Sniff(data []byte) ContentType {
	if _, err := swf.ReadCompressionType(data); err == nil {
		return Swf
	}
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return Jpeg
	case bytes.HasPrefix(data, pngMagic):
		return Png
	case bytes.HasPrefix(data, gif87Magic), bytes.HasPrefix(data, gif89Magic):
		return Gif
	default:
		return Unknown
	}
}

// UnexpectedDataError reports a body whose sniffed type does not match what
// the load site requires (e.g. root-movie replacement requires SWF).
type UnexpectedDataError struct {
	Expected ContentType
	Got      ContentType
}

// Error implements the error interface.
func (e *UnexpectedDataError) Error() string {
	return fmt.Sprintf("unexpected content of type %s, expected %s", e.Got, e.Expected)
}

// Expect asserts that actual is of the expected type and returns it, or an
// UnexpectedDataError on mismatch.
func Expect(actual, expected ContentType) (ContentType, error) {
	if actual != expected {
		return actual, &UnexpectedDataError{Expected: expected, Got: actual}
	}
	return actual, nil
}
