package sniff_test

import (
	"testing"

	"github.com/jmylchreest/swfplayer/internal/sniff"
	"github.com/jmylchreest/swfplayer/internal/swf"
	"github.com/jmylchreest/swfplayer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want sniff.ContentType
	}{
		{name: "uncompressed movie", data: testutil.SampleSwf(testutil.DefaultSwfOptions()), want: sniff.Swf},
		{name: "zlib movie", data: testutil.SampleSwfZlib(testutil.DefaultSwfOptions()), want: sniff.Swf},
		{name: "lzma movie", data: testutil.SampleSwfLzma(testutil.DefaultSwfOptions()), want: sniff.Swf},
		{name: "png", data: testutil.SamplePNG(4, 4), want: sniff.Png},
		{name: "jpeg", data: testutil.SampleJPEG(4, 4), want: sniff.Jpeg},
		{name: "gif", data: testutil.SampleGIF(4, 4), want: sniff.Gif},
		{name: "random bytes", data: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}, want: sniff.Unknown},
		{name: "empty", data: nil, want: sniff.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniff.Sniff(tt.data))
		})
	}
}

// An SWZ container is opaque to the sniffer; only the unwrap path reveals
// the movie inside.
func TestSniff_SwzIsUnknownUntilUnwrapped(t *testing.T) {
	payload := testutil.SampleSwf(testutil.DefaultSwfOptions())
	container := swf.WrapSwz(payload)

	assert.Equal(t, sniff.Unknown, sniff.Sniff(container))

	inner, err := swf.ExtractSwz(container)
	require.NoError(t, err)
	assert.Equal(t, sniff.Swf, sniff.Sniff(inner))
}

func TestExpect(t *testing.T) {
	got, err := sniff.Expect(sniff.Swf, sniff.Swf)
	require.NoError(t, err)
	assert.Equal(t, sniff.Swf, got)

	_, err = sniff.Expect(sniff.Png, sniff.Swf)
	require.Error(t, err)

	var unexpected *sniff.UnexpectedDataError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, sniff.Swf, unexpected.Expected)
	assert.Equal(t, sniff.Png, unexpected.Got)
	assert.Equal(t, "unexpected content of type PNG, expected SWF", err.Error())
}
