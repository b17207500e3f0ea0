package player_test

import (
	"context"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/imaging"
	"github.com/jmylchreest/swfplayer/internal/loader"
	"github.com/jmylchreest/swfplayer/internal/player"
	"github.com/jmylchreest/swfplayer/internal/stage"
	"github.com/jmylchreest/swfplayer/internal/swf"
	"github.com/jmylchreest/swfplayer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayer(overrides func(*player.Options)) *player.Player {
	opts := player.Options{
		Imaging: imaging.NewDecoder(),
		Bitmaps: stage.BitmapFactory{},
		Stage:   stage.NewStage(),
		Library: stage.NewLibrary(),
		Log:     slog.New(slog.DiscardHandler),
	}
	if overrides != nil {
		overrides(&opts)
	}
	return player.New(opts)
}

func TestPlayer_RewriteSwfURL(t *testing.T) {
	p := testPlayer(func(o *player.Options) {
		o.RewriteRules = []player.RewriteRule{
			{Prefix: "http://old.example/", Replacement: "http://new.example/"},
		}
	})

	assert.Equal(t, "http://new.example/m.swf", p.RewriteSwfURL("http://old.example/m.swf"))
	assert.Equal(t, "http://other.example/m.swf", p.RewriteSwfURL("http://other.example/m.swf"))
}

func TestPlayer_SpoofedURL(t *testing.T) {
	p := testPlayer(nil)
	_, ok := p.SpoofedURL()
	assert.False(t, ok)

	spoofing := testPlayer(func(o *player.Options) { o.SpoofedURL = "http://spoof/" })
	url, ok := spoofing.SpoofedURL()
	require.True(t, ok)
	assert.Equal(t, "http://spoof/", url)
}

func TestPlayer_SetRootMovieAdoptsFrameRate(t *testing.T) {
	var hooked *swf.Movie
	p := testPlayer(func(o *player.Options) {
		o.FrameRate = 12
		o.OnRootMovie = func(m *swf.Movie) { hooked = m }
	})

	movie, err := swf.FromData(testutil.SampleSwf(testutil.SwfOptions{
		Version: 6, FrameRate: 24, Frames: 1, Tags: 1,
	}), "http://x/m.swf", "")
	require.NoError(t, err)

	p.SetRootMovie(movie)

	assert.Same(t, movie, p.RootMovie())
	assert.Same(t, movie, hooked)
	assert.InDelta(t, 24.0, p.FrameRate(), 0.01)
	assert.InDelta(t, float64(time.Second/24), float64(p.FrameInterval()), float64(time.Millisecond))
}

func TestPlayer_LoadRootMovieEndToEnd(t *testing.T) {
	data := testutil.SampleSwfZlib(testutil.DefaultSwfOptions())
	st := stage.NewStage()

	p := testPlayer(func(o *player.Options) {
		o.Stage = st
		o.SpoofedURL = "http://spoof/"
		o.Navigator = backend.FetcherFunc(func(context.Context, backend.Request) (*backend.Response, error) {
			return &backend.Response{URL: "http://x/y.swf", Body: data, Status: 200}, nil
		})
		o.OnRootMovie = func(m *swf.Movie) {
			clip := stage.NewMovieClip()
			clip.ReplaceWithMovie(m, nil)
			st.SetRoot(clip)
		}
	})

	fut := p.LoadRootMovie(backend.Get("http://x/y.swf"), []swf.Parameter{{Key: "a", Value: "1"}}, nil)
	require.NoError(t, fut(context.Background()))

	movie := p.RootMovie()
	require.NotNil(t, movie)
	assert.Equal(t, "http://spoof/", movie.URL())
	assert.Equal(t, []swf.Parameter{{Key: "a", Value: "1"}}, movie.Parameters())

	_, ok := st.RootClip()
	assert.True(t, ok, "root movie hook installs the root clip")
}

func TestPlayer_UpdateSectionsSeeLoadManager(t *testing.T) {
	p := testPlayer(nil)

	err := p.Update(func(uc *loader.UpdateContext) error {
		require.NotNil(t, uc.Loads)
		assert.Equal(t, 0, uc.Loads.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestPlayer_RunFrameWithNoLoads(t *testing.T) {
	p := testPlayer(nil)
	assert.True(t, p.RunFrame())
}

func TestWeakRef_FailsAfterCollection(t *testing.T) {
	p := testPlayer(nil)
	ref := player.NewWeakRef(p)

	got, ok := ref.TryUpgrade()
	require.True(t, ok)
	require.NotNil(t, got)

	// Drop the strong references and push the collector. The weak
	// reference must eventually fail to upgrade; GC timing is not exact,
	// so allow a few cycles.
	got = nil
	p = nil
	_, _ = got, p
	upgraded := true
	for i := 0; i < 10 && upgraded; i++ {
		runtime.GC()
		_, upgraded = ref.TryUpgrade()
	}
	assert.False(t, upgraded, "weak reference must die with the player")
}
