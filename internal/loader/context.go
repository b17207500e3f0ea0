package loader

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// Future is one load's async process. It is returned synchronously at
// registration and must be handed to an executor; the loader never spawns it
// itself. A Future suspends only on the fetch and re-enters player state
// exclusively through update sections. It returns ErrCancelled when its
// record vanished before the callback ran; the executor treats that as a
// no-op.
type Future func(ctx context.Context) error

// UpdateContext is the view of player state handed to code running inside an
// update section. Everything reachable from here is protected by the
// player's top-level lock for the duration of the section.
type UpdateContext struct {
	// Loads is the load manager itself.
	Loads *Manager

	// Avm1 and Avm2 are the two script VMs.
	Avm1 runtime.Avm1
	Avm2 runtime.Avm2

	// Stage is the display tree root.
	Stage runtime.Stage

	// Library resolves per-movie symbol libraries.
	Library runtime.Library

	// Actions is the deferred method-call queue, drained by the player at the
	// end of each update section.
	Actions *runtime.ActionQueue

	// Audio, Imaging, and Bitmaps are the decoding backends.
	Audio   backend.Audio
	Imaging backend.Imaging
	Bitmaps runtime.BitmapFactory

	// ActionScript3 reports whether the player runs in the info-object VM
	// mode. The legacy unload hook only fires when it is false.
	ActionScript3 bool

	// Log is the structured logger for this update section.
	Log *slog.Logger
}

// Logger returns the context logger, falling back to the default.
func (uc *UpdateContext) Logger() *slog.Logger {
	if uc.Log != nil {
		return uc.Log
	}
	return slog.Default()
}

// Player is the loader's view of the player that owns it. Update runs f as
// one update section under the player's top-level lock; no two sections run
// concurrently.
type Player interface {
	Update(f func(uc *UpdateContext) error) error

	// Navigator returns the fetch backend. The returned fetcher is safe to
	// call without holding the player lock.
	Navigator() backend.Fetcher

	// SetRootMovie tears down and rebuilds top-level state around a new
	// root movie.
	SetRootMovie(m *swf.Movie)

	// RewriteSwfURL applies per-site compatibility rules to a fetched URL.
	RewriteSwfURL(url string) string

	// SpoofedURL returns the configured spoofed root URL, if any. It takes
	// precedence over both the rewritten and the response URL.
	SpoofedURL() (string, bool)

	// DisplayRootMovieDownloadFailedMessage tells the UI the bootstrap
	// load failed.
	DisplayRootMovieDownloadFailedMessage()
}

// PlayerRef is a weak reference to a Player. Futures hold one of these, never
// a strong reference, so that player teardown drops in-flight loads: when
// TryUpgrade fails the future exits silently.
type PlayerRef interface {
	TryUpgrade() (Player, bool)
}
