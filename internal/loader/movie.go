package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/limits"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/sniff"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// inMemoryURL is the sentinel source URL reported for byte-blob loads.
const inMemoryURL = "file:///"

// Tiny movies must appear to load synchronously: the data path runs one
// preload tick under this budget before returning. Test content depends on
// the exact values.
const (
	fastPathOps  = 10000
	fastPathTime = time.Millisecond
)

// LoadRootMovie kicks off the bootstrap load of the player's root movie. The
// root movie determines top-level player state (stage size, frame rate), so
// this must only be called once per player. onMetadata, when non-nil, runs
// with the parsed header before the movie is installed.
func (m *Manager) LoadRootMovie(ref PlayerRef, req backend.Request, params []swf.Parameter, onMetadata func(*swf.HeaderExt)) Future {
	if m.rootRequested {
		return func(context.Context) error { return ErrRootMovieLoaded }
	}
	m.rootRequested = true

	rec := &RootMovieRecord{recordBase{loadID: newLoadID()}}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		// The root record retires once the bootstrap load is over.
		success := false
		defer func() {
			if p, ok := ref.TryUpgrade(); ok {
				_ = p.Update(func(uc *UpdateContext) error {
					uc.Loads.finish(h, success)
					return nil
				})
			}
		}()
		resp, err := p.Navigator().Fetch(ctx, req)
		if err != nil {
			if p, ok := ref.TryUpgrade(); ok {
				p.DisplayRootMovieDownloadFailedMessage()
			}
			return &FetchError{Err: err}
		}

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}

		// The spoofed root movie URL takes precedence over the rewritten
		// actual URL.
		swfURL := p.RewriteSwfURL(resp.URL)
		if spoofed, ok := p.SpoofedURL(); ok {
			swfURL = spoofed
		}

		movie, err := swf.FromData(resp.Body, swfURL, "")
		if err != nil {
			return err
		}
		if onMetadata != nil {
			onMetadata(movie.Header())
		}
		movie.AppendParameters(params)
		p.SetRootMovie(movie)
		success = true
		return nil
	}
}

// LoadMovieIntoClip registers a movie load into a display clip and returns
// its future. loaderURL, when non-empty, records the movie that requested
// the load; sink selects the event dialect; data carries the info-object
// dialect's per-load context.
func (m *Manager) LoadMovieIntoClip(ref PlayerRef, clip runtime.DisplayObject, req backend.Request, loaderURL string, sink EventSink, data *LoaderData) Future {
	rec := &MovieRecord{
		recordBase: recordBase{loadID: newLoadID()},
		TargetClip: clip,
		Sink:       sink,
		Status:     StatusPending,
		Data:       data,
	}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}

		var replacingRoot bool
		if err := p.Update(func(uc *UpdateContext) error {
			rec, ok := uc.Loads.movieAt(h)
			if !ok {
				return ErrCancelled
			}
			replacingRoot = uc.Loads.prepareClipForLoad(uc, rec)
			return emitterFor(rec).start(uc)
		}); err != nil {
			return err
		}

		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}

		switch {
		case ferr == nil && replacingRoot:
			if _, err := sniff.Expect(sniff.Sniff(resp.Body), sniff.Swf); err != nil {
				return err
			}
			movie, err := swf.FromData(resp.Body, resp.URL, loaderURL)
			if err != nil {
				return err
			}
			p.SetRootMovie(movie)
			return nil

		case ferr == nil:
			return m.movieLoaderData(h, p, resp.Body, resp.URL, loaderURL, false)

		default:
			m.log.Error("error during movie loading",
				slog.String("load_id", rec.LoadID().String()),
				slog.String("error", ferr.Error()),
			)
			return p.Update(func(uc *UpdateContext) error {
				return uc.Loads.movieLoaderError(h, uc)
			})
		}
	}
}

// LoadMovieIntoClipBytes is the in-memory twin of LoadMovieIntoClip. It
// differs in exactly two observable ways: no start/open event is emitted,
// and the reported source URL is the file:/// sentinel.
func (m *Manager) LoadMovieIntoClipBytes(ref PlayerRef, clip runtime.DisplayObject, bytes []byte, sink EventSink, data *LoaderData) Future {
	rec := &MovieRecord{
		recordBase: recordBase{loadID: newLoadID()},
		TargetClip: clip,
		Sink:       sink,
		Status:     StatusPending,
		Data:       data,
	}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}

		var replacingRoot bool
		if err := p.Update(func(uc *UpdateContext) error {
			rec, ok := uc.Loads.movieAt(h)
			if !ok {
				return ErrCancelled
			}
			replacingRoot = uc.Loads.prepareClipForLoad(uc, rec)
			// loadBytes does not emit open, so there is no start call here.
			return nil
		}); err != nil {
			return err
		}

		if replacingRoot {
			if _, err := sniff.Expect(sniff.Sniff(bytes), sniff.Swf); err != nil {
				return err
			}
			movie, err := swf.FromData(bytes, inMemoryURL, "")
			if err != nil {
				return err
			}
			p.SetRootMovie(movie)
			return nil
		}

		return m.movieLoaderData(h, p, bytes, inMemoryURL, "", true)
	}
}

// prepareClipForLoad unloads the clip's current content ahead of the new
// movie and reports whether this load replaces the root movie. The legacy
// unload hook runs only outside info-object VM mode, and runs before the
// clip is reset; scripts observe that ordering through side effects.
func (m *Manager) prepareClipForLoad(uc *UpdateContext, rec *MovieRecord) (replacingRoot bool) {
	clip := rec.TargetClip
	if root, ok := uc.Stage.RootClip(); ok && clip == root {
		replacingRoot = true
	}
	if mc, ok := clip.AsMovieClip(); ok {
		if !uc.ActionScript3 {
			mc.Avm1Unload()
		}
		mc.ReplaceWithMovie(nil, nil)
	}
	return replacingRoot
}

// movieLoaderData routes a fetched (or in-memory) body into the target clip
// according to its sniffed content type. When sniffing fails, the body is
// given one chance to unwrap as an SWZ container; the extracted movie is
// re-submitted through this path exactly once.
func (m *Manager) movieLoaderData(h Handle, p Player, data []byte, url, loaderURL string, inMemory bool) error {
	return m.movieLoaderDataInner(h, p, data, url, loaderURL, inMemory, true)
}

func (m *Manager) movieLoaderDataInner(h Handle, p Player, data []byte, url, loaderURL string, inMemory bool, allowSwz bool) error {
	sniffed := sniff.Sniff(data)

	if sniffed == sniff.Unknown && allowSwz {
		if inner, err := swf.ExtractSwz(data); err == nil {
			return m.movieLoaderDataInner(h, p, inner, url, loaderURL, inMemory, false)
		}
	}

	return p.Update(func(uc *UpdateContext) error {
		rec, ok := uc.Loads.movieAt(h)
		if !ok {
			return ErrCancelled
		}
		em := emitterFor(rec)

		length := len(data)
		if sniffed == sniff.Unknown {
			length = 0
		}

		switch sniffed {
		case sniff.Swf:
			return uc.Loads.applySwf(uc, rec, data, url, loaderURL, inMemory, length)

		case sniff.Jpeg, sniff.Png, sniff.Gif:
			if err := uc.Loads.applyImage(uc, rec, data, url, length); err != nil {
				return err
			}

		case sniff.Unknown:
			// Nothing is installed; script still sees a deterministic
			// terminal below.
		}

		if err := em.progress(uc, length, length); err != nil {
			return err
		}
		return uc.Loads.movieLoaderComplete(h, uc)
	})
}

// applySwf parses a movie body, transitions the record to Parsing, binds the
// movie's application domain, installs the movie on the clip, and runs the
// synchronous tiny-movie preload fast path.
func (m *Manager) applySwf(uc *UpdateContext, rec *MovieRecord, data []byte, url, loaderURL string, inMemory bool, length int) error {
	h, _ := rec.Self()
	em := emitterFor(rec)

	movie, err := swf.FromData(data, url, loaderURL)
	if err != nil {
		return err
	}

	rec.advance(StatusParsing)
	rec.Movie = movie

	if sink, ok := rec.Sink.(InfoObject); ok {
		if inMemory {
			// The stream snapshot goes in before any event so bytesTotal
			// reports the real total from the first progress event on.
			sink.Object.SetLoaderStream(runtime.NotYetLoadedStream(movie, rec.TargetClip, false))
		}

		// Flash always fires an initial progress event with bytesLoaded=0
		// and bytesTotal set to the proper value. Only this sink flavor
		// does; the quirk is script-visible.
		if err := em.progress(uc, 0, length); err != nil {
			return err
		}
	}

	m.bindMovieDomain(uc, rec, movie)

	if mc, ok := rec.TargetClip.AsMovieClip(); ok {
		var info runtime.LoaderInfoObject
		if sink, ok := rec.Sink.(InfoObject); ok {
			info = sink.Object
		}
		mc.ReplaceWithMovie(movie, info)
	}

	// Small movies are expected to finish preloading right here.
	_, err = m.preloadTickRecord(h, uc, limits.WithMaxOpsAndTime(fastPathOps, fastPathTime))
	return err
}

// bindMovieDomain resolves the application domain the loaded movie's classes
// live in: the LoaderContext's applicationDomain if the script supplied one,
// else a fresh movie domain under the load's default domain. Loads with no
// info-object data still materialize the movie's library.
func (m *Manager) bindMovieDomain(uc *UpdateContext, rec *MovieRecord, movie *swf.Movie) {
	if rec.Data == nil {
		uc.Library.LibraryForMovie(movie)
		return
	}

	act := uc.Avm2.NewActivation()
	var domain runtime.Avm2Domain
	if rec.Data.Context != nil {
		if v, err := act.GetPublicProperty(rec.Data.Context, "applicationDomain"); err == nil {
			if d, ok := act.ApplicationDomainOf(v); ok {
				domain = d
			}
		}
	}
	if domain == nil {
		domain = act.MovieDomain(rec.Data.DefaultDomain)
	}
	uc.Library.LibraryForMovie(movie).SetAvm2Domain(domain)
}

// applyImage decodes an image body, installs the decoded bitmap at depth 1
// on the clip, and attaches a synthetic image movie of the declared length.
func (m *Manager) applyImage(uc *UpdateContext, rec *MovieRecord, data []byte, url string, length int) error {
	em := emitterFor(rec)

	if _, ok := rec.Sink.(InfoObject); ok {
		// Same initial progress quirk as the movie path.
		if err := em.progress(uc, 0, length); err != nil {
			return err
		}
	}

	movie := swf.FromLoadedImage(url, length)

	bmp, err := uc.Imaging.DecodeDefineBitsJPEG(data)
	if err != nil {
		return &InvalidBitmapError{Err: err}
	}
	bitmapObj, err := uc.Bitmaps.NewBitmap(bmp)
	if err != nil {
		return err
	}

	if mc, ok := rec.TargetClip.AsMovieClip(); ok {
		mc.ReplaceWithMovie(movie, nil)
		mc.ReplaceAtDepth(bitmapObj, 1)
	}
	return nil
}

// preloadTickRecord advances one movie load's preloading under the given
// budget. It reports whether preloading is finished. Ticking a record that
// already reached a terminal state is a no-op.
func (m *Manager) preloadTickRecord(h Handle, uc *UpdateContext, limit *limits.ExecutionLimit) (bool, error) {
	rec, ok := m.movieAt(h)
	if !ok {
		return false, ErrCancelled
	}
	if rec.Status.Terminal() {
		return rec.Status == StatusSucceeded, nil
	}
	if rec.Movie == nil {
		// Non-movie content or bytes not arrived yet.
		return false, nil
	}
	mc, ok := rec.TargetClip.AsMovieClip()
	if !ok {
		uc.Logger().Error("cannot preload non-movie-clip loader",
			slog.String("load_id", rec.LoadID().String()))
		return false, nil
	}

	didFinish := mc.Preload(limit)

	// Progress always reports compressed byte counters, both current and
	// total; that is the wire-visible contract.
	if err := emitterFor(rec).progress(uc, int(mc.CompressedLoadedBytes()), int(mc.CompressedTotalBytes())); err != nil {
		return false, err
	}

	if !didFinish {
		return false, nil
	}

	if sink, ok := rec.Sink.(InfoObject); ok {
		// Swap the real movie into the stream so bytesTotal reports the
		// correct value, but keep the not-yet-loaded state: the display
		// object has not run its first frame.
		sink.Object.SetLoaderStream(runtime.NotYetLoadedStream(rec.Movie, rec.TargetClip, false))
	}

	// These run after the stream install but before the clip joins its
	// parent: the frame constructor must observe parent == null and
	// stage == null.
	mc.PostInstantiation()
	mc.CatchupToFrame()

	// Clips instantiated from script lag the timeline by one frame; loaded
	// clips are observed to do the same.
	mc.SetSkipNextEnterFrame(true)

	if sink, ok := rec.Sink.(InfoObject); ok {
		domain := uc.Library.LibraryForMovie(mc.Movie()).Avm2Domain()
		act := uc.Avm2.NewActivationInDomain(domain)
		container, err := sink.Object.LoaderContainer(act)
		if err != nil {
			return false, &ScriptError{VM: "avm2", Msg: err.Error()}
		}
		if container != nil {
			// Not the public addChild path: that one always throws for
			// these inserts. Children added inside the frame constructor
			// see added synchronously and addedToStage only after the
			// constructor returns.
			container.InsertAtIndex(rec.TargetClip, 0)
		}
	}

	if err := m.movieLoaderComplete(h, uc); err != nil {
		return false, err
	}
	return true, nil
}

// movieLoaderComplete records the success transition and lets the emitter
// deliver it per dialect.
func (m *Manager) movieLoaderComplete(h Handle, uc *UpdateContext) error {
	rec, ok := m.movieAt(h)
	if !ok {
		return ErrCancelled
	}
	if err := emitterFor(rec).complete(uc); err != nil {
		return err
	}
	rec.advance(StatusSucceeded)
	return nil
}

// movieLoaderError records the failure transition and lets the emitter
// deliver it per dialect.
func (m *Manager) movieLoaderError(h Handle, uc *UpdateContext) error {
	rec, ok := m.movieAt(h)
	if !ok {
		return ErrCancelled
	}
	if err := emitterFor(rec).loadError(uc); err != nil {
		return err
	}
	rec.advance(StatusFailed)
	loadsFailedTotal.WithLabelValues("movie").Inc()
	return nil
}

// advance moves the record's status forward. Transitions outside the two
// legal paths are core bugs.
func (r *MovieRecord) advance(to Status) {
	legal := false
	switch r.Status {
	case StatusPending:
		// Image and unknown-content loads complete without a parsing
		// phase, so Pending may go straight to Succeeded.
		legal = to == StatusParsing || to == StatusSucceeded || to == StatusFailed
	case StatusParsing:
		legal = to == StatusSucceeded
	}
	if !legal {
		panic(fmt.Sprintf("loader: illegal movie status transition %s -> %s", r.Status, to))
	}
	r.Status = to
}
