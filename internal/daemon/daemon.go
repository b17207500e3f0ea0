// Package daemon wires the player process together: config, logging,
// backends, the player core, and the services that drive it, supervised as
// one tree.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thejerf/suture/v4"

	"github.com/jmylchreest/swfplayer/internal/audio"
	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/config"
	"github.com/jmylchreest/swfplayer/internal/executor"
	"github.com/jmylchreest/swfplayer/internal/fetch"
	"github.com/jmylchreest/swfplayer/internal/imaging"
	"github.com/jmylchreest/swfplayer/internal/loader"
	"github.com/jmylchreest/swfplayer/internal/player"
	"github.com/jmylchreest/swfplayer/internal/stage"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// Daemon is one fully wired player process.
type Daemon struct {
	cfg      *config.Config
	log      *slog.Logger
	player   *player.Player
	executor *executor.Executor
	stage    *stage.Stage
}

// New builds a daemon from configuration.
func New(cfg *config.Config, log *slog.Logger) (*Daemon, error) {
	if log == nil {
		log = slog.Default()
	}

	behavior, err := player.ParseLoadBehavior(cfg.Player.LoadBehavior)
	if err != nil {
		return nil, err
	}

	navigator := fetch.New(fetch.Config{
		Timeout:           cfg.Fetch.Timeout,
		RetryAttempts:     cfg.Fetch.RetryAttempts,
		RetryDelay:        cfg.Fetch.RetryDelay,
		RetryMaxDelay:     fetch.DefaultRetryMaxDelay,
		BackoffMultiplier: fetch.DefaultBackoff,
		UserAgent:         cfg.Fetch.UserAgent,
		MaxResponseSize:   cfg.Fetch.MaxResponseSize,
		Logger:            log,
	})

	var rules []player.RewriteRule
	for prefix, replacement := range cfg.Player.RewriteRules {
		rules = append(rules, player.RewriteRule{Prefix: prefix, Replacement: replacement})
	}

	st := stage.NewStage()
	p := player.New(player.Options{
		Navigator:    navigator,
		Audio:        audio.NewRegistry(log),
		Imaging:      imaging.NewDecoder(),
		Bitmaps:      stage.BitmapFactory{},
		Stage:        st,
		Library:      stage.NewLibrary(),
		SpoofedURL:   cfg.Player.SpoofedURL,
		RewriteRules: rules,
		FrameRate:    cfg.Player.FrameRate,
		LoadBehavior: behavior,
		OnRootMovie: func(m *swf.Movie) {
			clip := stage.NewMovieClip()
			clip.ReplaceWithMovie(m, nil)
			st.SetRoot(clip)
		},
		Log: log,
	})

	if err := registerCollectors(); err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:      cfg,
		log:      log.With(slog.String("component", "daemon")),
		player:   p,
		executor: executor.New(log, cfg.Player.ExecutorQueue),
		stage:    st,
	}, nil
}

// registerCollectors registers the loader's metrics, tolerating re-runs.
func registerCollectors() error {
	for _, c := range loader.Collectors() {
		if err := prometheus.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Player returns the daemon's player core.
func (d *Daemon) Player() *player.Player {
	return d.player
}

// Run starts the supervision tree and blocks until ctx is cancelled. When
// movieURL is non-empty, the bootstrap load is spawned immediately.
func (d *Daemon) Run(ctx context.Context, movieURL string, params []swf.Parameter) error {
	sup := suture.NewSimple("swfplayer")
	sup.Add(d.executor)
	sup.Add(&frameLoop{player: d.player, log: d.log})

	if movieURL != "" {
		fut := d.player.LoadRootMovie(backend.Get(movieURL), params, func(h *swf.HeaderExt) {
			d.log.Info("root movie metadata",
				slog.Int("version", int(h.Version)),
				slog.Float64("frame_rate", h.FrameRate),
				slog.Int("frames", int(h.NumFrames)),
			)
		})
		d.executor.Spawn(fut)
	}

	return sup.Serve(ctx)
}

// frameLoop ticks the player at its frame rate. It implements
// suture.Service.
type frameLoop struct {
	player *player.Player
	log    *slog.Logger
}

// Serve implements suture.Service.
func (f *frameLoop) Serve(ctx context.Context) error {
	for {
		interval := f.player.FrameInterval()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			f.player.RunFrame()
		}
	}
}
