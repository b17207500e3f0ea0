package loader

import (
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/swf"
	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of a movie load. It progresses monotonically
// along one of three paths: Pending→Parsing→Succeeded for movie content,
// Pending→Succeeded for image and unknown content (which never enter
// Parsing), or Pending→Failed.
type Status int

const (
	// StatusPending means no bytes have arrived yet.
	StatusPending Status = iota
	// StatusParsing means the movie arrived and is being preloaded.
	StatusParsing
	// StatusSucceeded means the load completed.
	StatusSucceeded
	// StatusFailed means the load errored.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusParsing:
		return "parsing"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// EventSink selects which script-visible event protocol a movie load speaks.
// A nil EventSink means no events are delivered. The sink is chosen at
// registration and never changes; the two dialects are never interleaved.
type EventSink interface {
	sealedSink()
}

// LegacyBroadcaster delivers events by calling broadcastMessage on a
// legacy-dialect broadcaster object.
type LegacyBroadcaster struct {
	Broadcaster runtime.Avm1Object
}

func (LegacyBroadcaster) sealedSink() {}

// InfoObject delivers events by dispatching constructed event objects to the
// load's info object.
type InfoObject struct {
	Object runtime.LoaderInfoObject
}

func (InfoObject) sealedSink() {}

// LoaderData carries the info-object dialect's per-load script context: an
// optional LoaderContext object and the default application domain for the
// loaded movie.
type LoaderData struct {
	Context       runtime.Avm2Object
	DefaultDomain runtime.Avm2Domain
}

// DataFormat selects how a URL loader body is materialized for script.
type DataFormat int

const (
	// FormatBinary materializes the body as a byte-array object.
	FormatBinary DataFormat = iota
	// FormatText materializes the body as a string.
	FormatText
	// FormatVariables is intentionally unimplemented; applying it logs a
	// warning and yields undefined.
	FormatVariables
)

// Record is one in-flight load. The concrete type is the load kind; the set
// of kinds is sealed so dispatch sites can be exhaustive. A record is created
// by a Load* entry point, mutated only inside update sections, and removed
// either after its terminal callback (non-movie kinds) or by the per-frame
// sweep (movie kinds).
type Record interface {
	// Self returns the handle this record lives under. ok is false only
	// transiently, between allocation and registration.
	Self() (Handle, bool)

	// LoadID returns the record's log-correlation ID.
	LoadID() ulid.ULID

	setSelf(h Handle)
	sealedRecord()
}

// recordBase carries the fields common to every load kind.
type recordBase struct {
	self    Handle
	selfSet bool
	loadID  ulid.ULID
}

// Self returns the handle this record lives under.
func (b *recordBase) Self() (Handle, bool) {
	return b.self, b.selfSet
}

// LoadID returns the record's log-correlation ID.
func (b *recordBase) LoadID() ulid.ULID {
	return b.loadID
}

func (b *recordBase) setSelf(h Handle) {
	b.self = h
	b.selfSet = true
}

func (b *recordBase) sealedRecord() {}

// RootMovieRecord tracks the bootstrap load of the player's root movie.
type RootMovieRecord struct {
	recordBase
}

// MovieRecord tracks a movie load into a display clip. It is the only kind
// that participates in preload ticking and the only kind that outlives its
// fetch callback: the record stays until the per-frame sweep sees a terminal
// status, so the post-first-frame init event can still find it.
type MovieRecord struct {
	recordBase

	// TargetClip is the display object the movie loads into.
	TargetClip runtime.DisplayObject

	// Sink selects the event dialect; nil delivers no events.
	Sink EventSink

	// Status is the load's lifecycle state.
	Status Status

	// Movie is the parsed movie. It is set when Status enters Parsing and
	// kept through Succeeded; image and unknown-content loads, which go
	// straight from Pending to Succeeded, leave it nil.
	Movie *swf.Movie

	// Data is the info-object dialect's per-load context, if any.
	Data *LoaderData
}

// FormRecord tracks a form-urlencoded load into a legacy object.
type FormRecord struct {
	recordBase
	Target runtime.Avm1Object
}

// LoadVarsRecord tracks a text load into a legacy LoadVars-style object.
type LoadVarsRecord struct {
	recordBase
	Target runtime.Avm1Object
}

// URLLoaderRecord tracks a data load into an info-object-dialect URL loader.
type URLLoaderRecord struct {
	recordBase
	Target runtime.Avm2Object
}

// SoundAvm1Record tracks an MP3 load into a legacy sound object.
type SoundAvm1Record struct {
	recordBase
	Target runtime.SoundObject
}

// SoundAvm2Record tracks an MP3 load into an info-object-dialect sound.
type SoundAvm2Record struct {
	recordBase
	Target runtime.Avm2Object
}

// NetStreamRecord tracks a media load buffering into a net stream.
type NetStreamRecord struct {
	recordBase
	Target runtime.NetStream
}
