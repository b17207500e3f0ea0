// Package imaging implements the player's image decoder for externally
// loaded JPEG, PNG, and GIF bodies.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	// Register the stdlib decoders with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"golang.org/x/image/draw"
)

// Decoder implements backend.Imaging.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeDefineBitsJPEG implements backend.Imaging. Despite the tag-derived
// name it accepts JPEG, PNG, and GIF; the sniffer has already vouched for
// the format.
func (d *Decoder) DecodeDefineBitsJPEG(data []byte) (*backend.Bitmap, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	return &backend.Bitmap{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba,
	}, nil
}
