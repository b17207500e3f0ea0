// Package loader owns every in-flight load of the player: it registers
// loads, drives each one's lifecycle state machine, delivers script-visible
// events in the correct order, and integrates movie preloading with the
// player's per-frame execution budget.
//
// Loads are futures driven by an external executor, but every effect of a
// load is applied inside a single-threaded update section under the player's
// top-level lock. See the Future and Player types for the exact contract.
package loader

import (
	"log/slog"

	"github.com/jmylchreest/swfplayer/internal/limits"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/oklog/ulid/v2"
)

// Manager is the public façade over the record table. It is owned by the
// player and, like the table, only touched inside update sections — with the
// single exception of load registration, which the player serializes the
// same way.
type Manager struct {
	table Table
	log   *slog.Logger

	rootRequested bool
}

// NewManager creates an empty load manager.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log.With(slog.String("component", "loader"))}
}

// Add inserts a record, stamps its self-handle, and returns the handle. Every
// observer after Add sees the self-handle populated.
func (m *Manager) Add(r Record) Handle {
	h := m.table.Insert(r)
	r.setSelf(h)
	loadsStartedTotal.WithLabelValues(kindLabel(r)).Inc()
	activeLoads.Set(float64(m.table.Len()))
	m.log.Debug("load registered",
		slog.String("kind", kindLabel(r)),
		slog.String("load_id", r.LoadID().String()),
	)
	return h
}

// Get returns the record at h, if present.
func (m *Manager) Get(h Handle) (Record, bool) {
	return m.table.Get(h)
}

// Remove deletes the record at h. Any future still holding h observes a
// cancelled load from then on.
func (m *Manager) Remove(h Handle) (Record, bool) {
	r, ok := m.table.Remove(h)
	if ok {
		activeLoads.Set(float64(m.table.Len()))
	}
	return r, ok
}

// Len returns the number of in-flight records.
func (m *Manager) Len() int {
	return m.table.Len()
}

// newLoadID mints a log-correlation ID for a new record.
func newLoadID() ulid.ULID {
	return ulid.Make()
}

// movieAt returns the movie record at h. A present record of any other kind
// is a core bug.
func (m *Manager) movieAt(h Handle) (*MovieRecord, bool) {
	r, ok := m.table.Get(h)
	if !ok {
		return nil, false
	}
	rec, ok := r.(*MovieRecord)
	if !ok {
		wrongKind("movie", r)
	}
	return rec, true
}

// MovieClipOnLoad is called by the player after every frame tick. For each
// terminal movie record it queues the deferred init broadcast and removes the
// record. Non-movie records and live movie loads are left alone.
func (m *Manager) MovieClipOnLoad(queue *runtime.ActionQueue) {
	var done []Handle

	m.table.EachReverse(func(h Handle, r Record) {
		rec, ok := r.(*MovieRecord)
		if !ok {
			return
		}
		if m.movieClipLoaded(rec, queue) {
			done = append(done, h)
		}
	})

	for _, h := range done {
		if r, ok := m.table.Remove(h); ok {
			if rec, isMovie := r.(*MovieRecord); isMovie && rec.Status == StatusSucceeded {
				loadsCompletedTotal.WithLabelValues(kindLabel(r)).Inc()
			}
		}
	}
	activeLoads.Set(float64(m.table.Len()))
}

// movieClipLoaded decides whether a movie record is finished with the
// per-frame sweep. Succeeded records queue their init broadcast (legacy sink
// only; the info-object dialect handles init through the clip's frame
// lifecycle) and report done; failed records report done silently; live
// records stay.
func (m *Manager) movieClipLoaded(rec *MovieRecord, queue *runtime.ActionQueue) bool {
	switch rec.Status {
	case StatusPending, StatusParsing:
		return false
	case StatusFailed:
		return true
	case StatusSucceeded:
		emitterFor(rec).queueInit(queue)
		return true
	default:
		return false
	}
}

// PreloadTick advances every movie load currently in Parsing under the given
// budget. Errors are logged and do not stop the sweep. It reports true iff
// every movie load either finished preloading or was not in Parsing.
func (m *Manager) PreloadTick(uc *UpdateContext, limit *limits.ExecutionLimit) bool {
	didFinish := true

	for _, h := range m.table.Handles() {
		rec, ok := m.movieRecordIfParsing(h)
		if !ok {
			continue
		}
		finished, err := m.preloadTickRecord(h, uc, limit)
		if err != nil {
			uc.Logger().Error("error while preloading movie",
				slog.String("load_id", rec.LoadID().String()),
				slog.String("error", err.Error()),
			)
			didFinish = false
			continue
		}
		didFinish = didFinish && finished
	}

	return didFinish
}

func (m *Manager) movieRecordIfParsing(h Handle) (*MovieRecord, bool) {
	r, ok := m.table.Get(h)
	if !ok {
		return nil, false
	}
	rec, isMovie := r.(*MovieRecord)
	if !isMovie || rec.Status != StatusParsing {
		return nil, false
	}
	return rec, true
}
