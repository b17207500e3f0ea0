package loader

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collectors for the load manager. Registration is left to the
// daemon so tests can construct managers freely without collector collisions.
var (
	loadsStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swfplayer",
		Subsystem: "loader",
		Name:      "loads_started_total",
		Help:      "Total loads registered, by kind.",
	}, []string{"kind"})

	loadsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swfplayer",
		Subsystem: "loader",
		Name:      "loads_completed_total",
		Help:      "Total loads that reached a successful terminal state, by kind.",
	}, []string{"kind"})

	loadsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swfplayer",
		Subsystem: "loader",
		Name:      "loads_failed_total",
		Help:      "Total loads that failed, by kind.",
	}, []string{"kind"})

	activeLoads = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "swfplayer",
		Subsystem: "loader",
		Name:      "active_loads",
		Help:      "Number of records currently held by the load manager.",
	})
)

// Collectors returns every collector the loader exposes, for registration by
// the hosting process.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		loadsStartedTotal,
		loadsCompletedTotal,
		loadsFailedTotal,
		activeLoads,
	}
}

// kindLabel names a record's kind for metric labels.
func kindLabel(r Record) string {
	switch r.(type) {
	case *RootMovieRecord:
		return "root_movie"
	case *MovieRecord:
		return "movie"
	case *FormRecord:
		return "form"
	case *LoadVarsRecord:
		return "load_vars"
	case *URLLoaderRecord:
		return "url_loader"
	case *SoundAvm1Record:
		return "sound_avm1"
	case *SoundAvm2Record:
		return "sound_avm2"
	case *NetStreamRecord:
		return "netstream"
	default:
		return "unknown"
	}
}
