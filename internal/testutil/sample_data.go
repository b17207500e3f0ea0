// Package testutil provides test utilities including sample movie and image
// generation.
package testutil

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/ulikunitz/xz/lzma"
)

// SwfOptions shapes a generated movie.
type SwfOptions struct {
	// Version is the container version byte.
	Version uint8

	// FrameRate in frames per second.
	FrameRate float64

	// Frames is the declared frame count.
	Frames uint16

	// Tags is how many ShowFrame tags the body carries before End.
	Tags int
}

// DefaultSwfOptions returns the options used by most tests: a tiny movie
// that preloads within a handful of operations.
func DefaultSwfOptions() SwfOptions {
	return SwfOptions{Version: 6, FrameRate: 12, Frames: 1, Tags: 3}
}

// SampleSwf builds a valid uncompressed movie (FWS signature).
func SampleSwf(opts SwfOptions) []byte {
	body := sampleBody(opts)

	var buf bytes.Buffer
	buf.WriteString("FWS")
	buf.WriteByte(opts.Version)
	binary.Write(&buf, binary.LittleEndian, uint32(8+len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// SampleSwfZlib builds a zlib-compressed movie (CWS signature).
func SampleSwfZlib(opts SwfOptions) []byte {
	body := sampleBody(opts)

	var buf bytes.Buffer
	buf.WriteString("CWS")
	buf.WriteByte(opts.Version)
	binary.Write(&buf, binary.LittleEndian, uint32(8+len(body)))

	zw := zlib.NewWriter(&buf)
	zw.Write(body)
	zw.Close()
	return buf.Bytes()
}

// SampleSwfLzma builds an LZMA-compressed movie (ZWS signature): common
// header, u32 compressed length, 5 property bytes, raw stream.
func SampleSwfLzma(opts SwfOptions) []byte {
	body := sampleBody(opts)

	var compressed bytes.Buffer
	cfg := lzma.WriterConfig{Size: int64(len(body))}
	lw, err := cfg.NewWriter(&compressed)
	if err != nil {
		panic(err)
	}
	lw.Write(body)
	lw.Close()

	// The writer emits classic framing: 5 property bytes, a u64 size, then
	// the stream. The container keeps the properties but drops the size.
	raw := compressed.Bytes()
	props, stream := raw[:5], raw[13:]

	var buf bytes.Buffer
	buf.WriteString("ZWS")
	buf.WriteByte(opts.Version)
	binary.Write(&buf, binary.LittleEndian, uint32(8+len(body)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(stream)))
	buf.Write(props)
	buf.Write(stream)
	return buf.Bytes()
}

// sampleBody builds the movie body: a zero rect, the frame rate in 8.8
// fixed point, the frame count, N ShowFrame tags, and an End tag.
func sampleBody(opts SwfOptions) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x00) // RECT with nbits=0
	binary.Write(&buf, binary.LittleEndian, uint16(opts.FrameRate*256))
	binary.Write(&buf, binary.LittleEndian, opts.Frames)
	for i := 0; i < opts.Tags; i++ {
		// ShowFrame: code 1, length 0.
		binary.Write(&buf, binary.LittleEndian, uint16(1<<6))
	}
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // End tag
	return buf.Bytes()
}

// SamplePNG encodes a solid-color PNG of the given size.
func SamplePNG(width, height int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage(width, height)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SampleJPEG encodes a solid-color JPEG of the given size.
func SampleJPEG(width, height int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sampleImage(width, height), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SampleGIF encodes a solid-color GIF of the given size.
func SampleGIF(width, height int) []byte {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, sampleImage(width, height), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func sampleImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 0x20, G: 0x60, B: 0xA0, A: 0xFF})
		}
	}
	return img
}
