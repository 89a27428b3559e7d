// Package metrics expone los contadores Prometheus del sync layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whaleterm"

// Metrics agrupa los contadores del feed. Un puntero nil es un no-op válido:
// los componentes no necesitan chequear si las métricas están habilitadas.
type Metrics struct {
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheJoins  *prometheus.CounterVec

	backfillPages    prometheus.Counter
	backfillTerminal *prometheus.CounterVec

	prefetchScheduled prometheus.Counter
	prefetchSkipped   prometheus.Counter

	liveEvents     prometheus.Counter
	liveDuplicates prometheus.Counter
}

// New registra los contadores en el registerer dado.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache reads served from a fresh entry.",
		}, []string{"cache"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache reads that started a new fetch.",
		}, []string{"cache"}),
		cacheJoins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "joins_total",
			Help: "Cache reads coalesced into an existing in-flight fetch.",
		}, []string{"cache"}),
		backfillPages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "pages_total",
			Help: "History pages requested.",
		}),
		backfillTerminal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "terminal_total",
			Help: "Backfill transitions into a terminal state.",
		}, []string{"state"}),
		prefetchScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "prefetch", Name: "scheduled_total",
			Help: "Keys queued by the prefetch scheduler.",
		}),
		prefetchSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "prefetch", Name: "skipped_total",
			Help: "Keys skipped because they were already attempted this session.",
		}),
		liveEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "live", Name: "events_total",
			Help: "Events ingested from the live push source.",
		}),
		liveDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "live", Name: "duplicates_total",
			Help: "Live events dropped as duplicates by id.",
		}),
	}
}

func (m *Metrics) CacheHit(cache string) {
	if m != nil {
		m.cacheHits.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) CacheMiss(cache string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) CacheJoin(cache string) {
	if m != nil {
		m.cacheJoins.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) BackfillPage() {
	if m != nil {
		m.backfillPages.Inc()
	}
}

func (m *Metrics) BackfillTerminal(state string) {
	if m != nil {
		m.backfillTerminal.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) PrefetchScheduled(n int) {
	if m != nil {
		m.prefetchScheduled.Add(float64(n))
	}
}

func (m *Metrics) PrefetchSkipped(n int) {
	if m != nil {
		m.prefetchSkipped.Add(float64(n))
	}
}

func (m *Metrics) LiveEvents(n int) {
	if m != nil {
		m.liveEvents.Add(float64(n))
	}
}

func (m *Metrics) LiveDuplicates(n int) {
	if m != nil {
		m.liveDuplicates.Add(float64(n))
	}
}
