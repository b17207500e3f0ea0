// Package player owns the top-level lock and the update-section entry point
// that serialize every mutation of runtime state, and hosts the load manager
// behind them.
package player

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/limits"
	"github.com/jmylchreest/swfplayer/internal/loader"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// RewriteRule replaces a URL prefix, for per-site compatibility.
type RewriteRule struct {
	Prefix      string
	Replacement string
}

// Options configures a Player. The two VMs are optional: embeddings without
// script support can run the bootstrap path, which never enters script.
type Options struct {
	Navigator backend.Fetcher
	Audio     backend.Audio
	Imaging   backend.Imaging
	Bitmaps   runtime.BitmapFactory
	Stage     runtime.Stage
	Library   runtime.Library
	Avm1      runtime.Avm1
	Avm2      runtime.Avm2

	// ActionScript3 selects the info-object VM mode.
	ActionScript3 bool

	// SpoofedURL, when non-empty, overrides the root movie's reported URL.
	SpoofedURL string

	// RewriteRules are applied to fetched root URLs, after redirects and
	// before spoofing.
	RewriteRules []RewriteRule

	// FrameRate is the fallback frame rate before a root movie arrives.
	FrameRate float64

	// LoadBehavior selects the per-frame preload budget policy.
	LoadBehavior LoadBehavior

	// OnRootMovie runs inside SetRootMovie with the lock held, letting the
	// embedding rebuild its display tree around the new movie.
	OnRootMovie func(m *swf.Movie)

	// OnRootLoadFailed is the UI hook for a failed bootstrap load.
	OnRootLoadFailed func()

	Log *slog.Logger
}

// Player is the runtime core shared by every execution context. All state
// behind mu is only reachable through Update.
type Player struct {
	mu sync.Mutex

	loads   *loader.Manager
	actions runtime.ActionQueue
	opts    Options

	rootMovie *swf.Movie
	frameRate float64

	log *slog.Logger
}

// New creates a Player.
func New(opts Options) *Player {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "player"))

	if opts.FrameRate <= 0 {
		opts.FrameRate = 12
	}

	return &Player{
		loads:     loader.NewManager(log),
		opts:      opts,
		frameRate: opts.FrameRate,
		log:       log,
	}
}

// Update runs f as one update section under the top-level lock, then drains
// the action queue. No two update sections execute concurrently; everything
// reachable from the UpdateContext is exclusive to f for its duration.
func (p *Player) Update(f func(uc *loader.UpdateContext) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateLocked(f)
}

func (p *Player) updateLocked(f func(uc *loader.UpdateContext) error) error {
	uc := &loader.UpdateContext{
		Loads:         p.loads,
		Avm1:          p.opts.Avm1,
		Avm2:          p.opts.Avm2,
		Stage:         p.opts.Stage,
		Library:       p.opts.Library,
		Actions:       &p.actions,
		Audio:         p.opts.Audio,
		Imaging:       p.opts.Imaging,
		Bitmaps:       p.opts.Bitmaps,
		ActionScript3: p.opts.ActionScript3,
		Log:           p.log,
	}
	err := f(uc)
	p.drainActionsLocked()
	return err
}

// drainActionsLocked runs queued method calls at the end of the update.
func (p *Player) drainActionsLocked() {
	if p.opts.Avm1 == nil {
		if p.actions.Len() > 0 {
			p.log.Warn("dropping queued script actions: no avm1 runtime",
				slog.Int("count", p.actions.Len()))
			p.actions.Drain()
		}
		return
	}
	for _, qm := range p.actions.Drain() {
		p.opts.Avm1.RunMethodFrame(qm.Clip, qm.Object, qm.Name, qm.Args)
	}
}

// Navigator implements loader.Player.
func (p *Player) Navigator() backend.Fetcher {
	return p.opts.Navigator
}

// SetRootMovie implements loader.Player: it installs the root movie, adopts
// its frame rate, and hands the display rebuild to the embedding hook.
func (p *Player) SetRootMovie(m *swf.Movie) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rootMovie = m
	if rate := m.Header().FrameRate; rate > 0 {
		p.frameRate = rate
	}
	p.log.Info("root movie set",
		slog.String("url", m.URL()),
		slog.Float64("frame_rate", p.frameRate),
		slog.Int("frames", int(m.Header().NumFrames)),
	)
	if p.opts.OnRootMovie != nil {
		p.opts.OnRootMovie(m)
	}
}

// RootMovie returns the installed root movie, if any.
func (p *Player) RootMovie() *swf.Movie {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rootMovie
}

// RewriteSwfURL implements loader.Player.
func (p *Player) RewriteSwfURL(url string) string {
	for _, rule := range p.opts.RewriteRules {
		if strings.HasPrefix(url, rule.Prefix) {
			return rule.Replacement + url[len(rule.Prefix):]
		}
	}
	return url
}

// SpoofedURL implements loader.Player.
func (p *Player) SpoofedURL() (string, bool) {
	if p.opts.SpoofedURL == "" {
		return "", false
	}
	return p.opts.SpoofedURL, true
}

// DisplayRootMovieDownloadFailedMessage implements loader.Player.
func (p *Player) DisplayRootMovieDownloadFailedMessage() {
	p.log.Error("root movie download failed")
	if p.opts.OnRootLoadFailed != nil {
		p.opts.OnRootLoadFailed()
	}
}

// FrameRate returns the current frame rate.
func (p *Player) FrameRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameRate
}

// FrameInterval returns the wall time of one frame.
func (p *Player) FrameInterval() time.Duration {
	rate := p.FrameRate()
	if rate <= 0 {
		rate = 12
	}
	return time.Duration(float64(time.Second) / rate)
}

// LoadRootMovie registers the bootstrap load and returns its future for the
// executor. It must be called at most once.
func (p *Player) LoadRootMovie(req backend.Request, params []swf.Parameter, onMetadata func(*swf.HeaderExt)) loader.Future {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads.LoadRootMovie(NewWeakRef(p), req, params, onMetadata)
}

// WeakRef returns a weak reference suitable for load registration by
// embedding runtimes.
func (p *Player) WeakRef() loader.PlayerRef {
	return NewWeakRef(p)
}

// RunFrame advances one frame: movie preloading under the behavior-derived
// budget, then the post-tick load sweep. It reports whether every in-flight
// movie load has finished preloading.
func (p *Player) RunFrame() bool {
	allDone := true
	_ = p.Update(func(uc *loader.UpdateContext) error {
		allDone = uc.Loads.PreloadTick(uc, p.frameBudget())
		uc.Loads.MovieClipOnLoad(uc.Actions)
		return nil
	})
	return allDone
}

// frameBudget returns the per-frame preload budget. Streaming keeps frames
// responsive with a small budget; delayed and blocking modes preload without
// bound.
func (p *Player) frameBudget() *limits.ExecutionLimit {
	switch p.opts.LoadBehavior {
	case BehaviorDelayed, BehaviorBlocking:
		return limits.Unbounded()
	default:
		return limits.WithMaxOpsAndTime(10000, time.Millisecond)
	}
}
