package runtime

import (
	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/limits"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// DisplayObject is a node in the display tree. Implementations must be
// pointer-like: the loader compares DisplayObjects with == to detect the
// root clip.
type DisplayObject interface {
	// AsMovieClip narrows to a movie clip when the node is one.
	AsMovieClip() (MovieClip, bool)

	// ScriptObject returns the node's legacy-dialect script object, used as
	// the event argument in broadcast calls.
	ScriptObject() Value
}

// ClipEvent is a legacy-dialect clip event kind.
type ClipEvent int

const (
	// ClipEventLoad fires when a clip finishes loading.
	ClipEventLoad ClipEvent = iota
	// ClipEventUnload fires when a clip's content is removed.
	ClipEventUnload
	// ClipEventData fires when externally loaded data arrives.
	ClipEventData
)

// MovieClip is the display node a movie load targets.
type MovieClip interface {
	DisplayObject

	// Preload advances tag processing under the given budget and reports
	// whether preloading finished.
	Preload(limit *limits.ExecutionLimit) bool

	// CompressedLoadedBytes returns how many on-wire bytes have been
	// processed so far.
	CompressedLoadedBytes() uint32

	// CompressedTotalBytes returns the movie's total on-wire byte length.
	CompressedTotalBytes() uint32

	// ReplaceWithMovie swaps the clip's content for the given movie, or for
	// an empty movie when movie is nil. loaderInfo, when non-nil, is
	// attached so the clip can report through it.
	ReplaceWithMovie(movie *swf.Movie, loaderInfo LoaderInfoObject)

	// Avm1Unload runs the legacy unload hook on the clip's current content.
	Avm1Unload()

	// PostInstantiation finishes object construction after a replace.
	PostInstantiation()

	// CatchupToFrame advances the clip's display state to the current frame.
	CatchupToFrame()

	// SetSkipNextEnterFrame marks the clip to sit out the next enter-frame.
	SetSkipNextEnterFrame(skip bool)

	// ReplaceAtDepth installs a child at the given depth, replacing any
	// existing occupant.
	ReplaceAtDepth(child DisplayObject, depth int)

	// Movie returns the clip's current movie.
	Movie() *swf.Movie

	// DispatchClipEvent delivers a legacy clip event to the clip.
	DispatchClipEvent(e ClipEvent)
}

// Container is a display node that holds ordered children.
type Container interface {
	// InsertAtIndex places child at the given child index. This is the
	// internal insertion path; it must not be routed through the public
	// script-visible addChild.
	InsertAtIndex(child DisplayObject, index int)
}

// Stage is the display tree root.
type Stage interface {
	// RootClip returns the root display object, if one is installed.
	RootClip() (DisplayObject, bool)
}

// BitmapFactory adapts decoded bitmaps into display objects. The display
// side provides it; the loader only plumbs it through.
type BitmapFactory interface {
	NewBitmap(bmp *backend.Bitmap) (DisplayObject, error)
}

// LoaderStreamKind distinguishes the two info-object snapshot states.
type LoaderStreamKind int

const (
	// StreamNotYetLoaded means the movie is parsed but the display object
	// is not live yet.
	StreamNotYetLoaded LoaderStreamKind = iota
	// StreamSwf means the load is fully live.
	StreamSwf
)

// LoaderStream is the snapshot an info object exposes to script: which movie
// is loading, optionally which clip carries it, and whether initialization
// completed.
type LoaderStream struct {
	Kind        LoaderStreamKind
	Movie       *swf.Movie
	Clip        DisplayObject
	Initialized bool
}

// NotYetLoadedStream builds the pre-live snapshot.
func NotYetLoadedStream(movie *swf.Movie, clip DisplayObject, initialized bool) LoaderStream {
	return LoaderStream{Kind: StreamNotYetLoaded, Movie: movie, Clip: clip, Initialized: initialized}
}

// SwfStream builds the fully-live snapshot.
func SwfStream(movie *swf.Movie, clip DisplayObject) LoaderStream {
	return LoaderStream{Kind: StreamSwf, Movie: movie, Clip: clip}
}

// LoaderInfoObject is the script-visible info object of an info-object-sink
// movie load. It doubles as the dispatch target for that load's events.
type LoaderInfoObject interface {
	// SetLoaderStream installs a stream snapshot, updating what bytesTotal
	// and friends report.
	SetLoaderStream(s LoaderStream)

	// LoaderContainer resolves the script-visible loader display container
	// through the given activation.
	LoaderContainer(act Avm2Activation) (Container, error)
}

// NetStream is the buffering target of a stream load.
type NetStream interface {
	// LoadBuffer appends a fetched body to the stream's buffer.
	LoadBuffer(data []byte)

	// ReportError surfaces a fetch failure through the stream's own error
	// reporting.
	ReportError(err error)
}

// Library tracks per-movie symbol libraries.
type Library interface {
	// LibraryForMovie returns the library for a movie, creating it on
	// first use.
	LibraryForMovie(m *swf.Movie) MovieLibrary
}

// MovieLibrary is one movie's symbol library.
type MovieLibrary interface {
	// SetAvm2Domain binds the application domain the movie's classes load
	// into.
	SetAvm2Domain(d Avm2Domain)

	// Avm2Domain returns the bound domain.
	Avm2Domain() Avm2Domain
}
