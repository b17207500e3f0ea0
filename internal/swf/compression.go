package swf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// CompressionType identifies how a movie body is compressed.
type CompressionType int

const (
	// CompressionNone is an uncompressed body (FWS signature).
	CompressionNone CompressionType = iota
	// CompressionZlib is a zlib-compressed body (CWS signature).
	CompressionZlib
	// CompressionLzma is an LZMA-compressed body (ZWS signature).
	CompressionLzma
)

// String returns the signature name for the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "FWS"
	case CompressionZlib:
		return "CWS"
	case CompressionLzma:
		return "ZWS"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// headerLen is the fixed prefix shared by all signatures: 3 signature bytes,
// 1 version byte, and a little-endian u32 uncompressed length.
const headerLen = 8

// ReadCompressionType inspects the movie signature. It is the first-stage
// recognizer used by content sniffing: an error here means the buffer is not
// a movie at all.
func ReadCompressionType(data []byte) (CompressionType, error) {
	if len(data) < 3 {
		return 0, ErrTruncated
	}
	if data[1] != 'W' || data[2] != 'S' {
		return 0, ErrInvalidSignature
	}
	switch data[0] {
	case 'F':
		return CompressionNone, nil
	case 'C':
		return CompressionZlib, nil
	case 'Z':
		return CompressionLzma, nil
	default:
		return 0, ErrInvalidSignature
	}
}

// decompressBody returns the uncompressed tag stream that follows the
// 8-byte header, along with the declared uncompressed total length.
func decompressBody(data []byte) (body []byte, uncompressedLen uint32, compression CompressionType, err error) {
	compression, err = ReadCompressionType(data)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(data) < headerLen {
		return nil, 0, compression, ErrTruncated
	}

	// The declared length covers the 8-byte header plus the decompressed body.
	uncompressedLen = binary.LittleEndian.Uint32(data[4:8])

	switch compression {
	case CompressionNone:
		body = data[headerLen:]

	case CompressionZlib:
		zr, zerr := zlib.NewReader(bytes.NewReader(data[headerLen:]))
		if zerr != nil {
			return nil, 0, compression, &DecompressError{Compression: compression, Err: zerr}
		}
		defer zr.Close()
		body, err = io.ReadAll(io.LimitReader(zr, int64(uncompressedLen)))
		if err != nil {
			return nil, 0, compression, &DecompressError{Compression: compression, Err: err}
		}

	case CompressionLzma:
		body, err = decompressLzmaBody(data, uncompressedLen)
		if err != nil {
			return nil, 0, compression, err
		}
	}

	return body, uncompressedLen, compression, nil
}

// decompressLzmaBody handles the ZWS layout: after the common header there is
// a u32 compressed length, 5 LZMA property bytes, and a raw LZMA stream with
// no size field. The classic .lzma framing expected by the decoder is
// reconstructed by splicing the known uncompressed size between the
// properties and the stream.
func decompressLzmaBody(data []byte, uncompressedLen uint32) ([]byte, error) {
	const propsLen = 5
	if len(data) < headerLen+4+propsLen {
		return nil, ErrTruncated
	}
	stream := data[headerLen+4+propsLen:]
	props := data[headerLen+4 : headerLen+4+propsLen]

	bodyLen := uint64(uncompressedLen) - headerLen
	framed := make([]byte, 0, propsLen+8+len(stream))
	framed = append(framed, props...)
	framed = binary.LittleEndian.AppendUint64(framed, bodyLen)
	framed = append(framed, stream...)

	lr, err := lzma.NewReader(bytes.NewReader(framed))
	if err != nil {
		return nil, &DecompressError{Compression: CompressionLzma, Err: err}
	}
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, &DecompressError{Compression: CompressionLzma, Err: err}
	}
	return body, nil
}
