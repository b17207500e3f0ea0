// Package swf parses movie containers: signatures, compressed bodies, header
// fields, and the SWZ library wrapper. It deliberately stops at the header
// plus raw tag stream; tag execution belongs to the display side.
package swf

// Parameter is one flashvars-style key/value pair. Order is preserved.
type Parameter struct {
	Key   string
	Value string
}

// Movie is a parsed movie: header fields plus the decompressed tag stream.
// A Movie is immutable after construction except for AppendParameters, which
// only ever runs before the movie is handed to the player.
type Movie struct {
	header     HeaderExt
	body       []byte
	url        string
	loaderURL  string
	parameters []Parameter

	compressedLen int
	imageStub     bool
}

// FromData parses a movie out of a byte buffer. url is the address the body
// was fetched from (or a sentinel for in-memory loads); loaderURL, when
// non-empty, records the movie that requested the load.
func FromData(data []byte, url string, loaderURL string) (*Movie, error) {
	body, _, _, err := decompressBody(data)
	if err != nil {
		return nil, err
	}
	header, err := parseHeaderExt(data, body)
	if err != nil {
		return nil, err
	}
	return &Movie{
		header:        *header,
		body:          body,
		url:           url,
		loaderURL:     loaderURL,
		compressedLen: len(data),
	}, nil
}

// FromLoadedImage synthesizes a stub movie for an image load of the declared
// byte length. The stub carries no tag stream; it exists so the display side
// has a movie to attach the decoded bitmap to and so byte counters report the
// image size.
func FromLoadedImage(url string, length int) *Movie {
	return &Movie{
		header: HeaderExt{
			Version:         6,
			FrameRate:       12,
			NumFrames:       1,
			UncompressedLen: uint32(length) + headerLen,
		},
		url:           url,
		compressedLen: length,
		imageStub:     true,
	}
}

// Header returns the parsed header fields.
func (m *Movie) Header() *HeaderExt { return &m.header }

// Data returns the decompressed body that follows the 8-byte header: the
// stage rectangle, frame rate and frame count, then the tag stream (empty for
// image stubs).
func (m *Movie) Data() []byte { return m.body }

// URL returns the address this movie was loaded from.
func (m *Movie) URL() string { return m.url }

// LoaderURL returns the URL of the movie that requested this load, or "".
func (m *Movie) LoaderURL() string { return m.loaderURL }

// CompressedLen returns the on-wire byte length of the movie.
func (m *Movie) CompressedLen() int { return m.compressedLen }

// UncompressedLen returns the declared uncompressed length, header included.
func (m *Movie) UncompressedLen() int { return int(m.header.UncompressedLen) }

// IsImageStub reports whether this movie was synthesized for an image load.
func (m *Movie) IsImageStub() bool { return m.imageStub }

// Parameters returns the movie's flashvars-style parameters in order.
func (m *Movie) Parameters() []Parameter { return m.parameters }

// AppendParameters appends key/value pairs to the movie's parameter list.
func (m *Movie) AppendParameters(params []Parameter) {
	m.parameters = append(m.parameters, params...)
}
