package feed

// backfill.go — máquina de estados del backfill histórico.
//
// IDLE → FETCHING → (IDLE | EXHAUSTED | STALLED)
//
// EXHAUSTED y STALLED son terminales para el par (registro más viejo cargado,
// fingerprint del filtro); un cambio de filtro resetea a IDLE con cursor
// fresco. El loop guard: si el cursor candidato es igual al último usado, la
// petición sería idéntica — repetirla no produciría nada, así que se declara
// STALLED en vez de reintentar. Cualquier fallo de request termina en
// EXHAUSTED: el feed debe seguir usable con lo que haya cargado.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/metrics"
	"github.com/alejandrodnm/whaleterm/internal/ports"
)

// BackfillState es el estado de la máquina de backfill.
type BackfillState int

const (
	StateIdle BackfillState = iota
	StateFetching
	StateExhausted
	StateStalled
)

// String devuelve el nombre del estado para logging y métricas.
func (s BackfillState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateStalled:
		return "stalled"
	}
	return "unknown"
}

// BackfillConfig controla la paginación y el trigger por inanición.
type BackfillConfig struct {
	PageLimit    int
	MinVisible   int // por debajo de esto, el controller auto-dispara backfill
	MaxAutoPages int // tope de páginas automáticas por fingerprint de filtro
}

// Backfiller pagina la historia hacia atrás bajo el filtro activo.
// Serializa sus propias páginas: nunca pide la N+1 antes de asentar la N.
type Backfiller struct {
	cfg     BackfillConfig
	history ports.HistoryProvider
	window  *Window
	clock   Clock
	stats   *metrics.Metrics

	mu         sync.Mutex
	state      BackfillState
	filter     domain.FilterState
	lastCursor domain.HistoryCursor
	autoPages  int
	lastErr    error
}

// NewBackfiller crea la máquina en IDLE con el filtro dado.
func NewBackfiller(cfg BackfillConfig, history ports.HistoryProvider, window *Window, clock Clock, stats *metrics.Metrics) *Backfiller {
	if clock == nil {
		clock = RealClock()
	}
	return &Backfiller{
		cfg:     cfg,
		history: history,
		window:  window,
		clock:   clock,
		stats:   stats,
		state:   StateIdle,
	}
}

// SetFilter cambia el filtro activo. Si el fingerprint cambió, los estados
// terminales dejan de aplicar: se resetea a IDLE con cursor y presupuesto
// de auto-páginas frescos.
func (b *Backfiller) SetFilter(f domain.FilterState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.Fingerprint() == b.filter.Fingerprint() {
		return
	}
	b.filter = f
	b.state = StateIdle
	b.lastCursor = domain.HistoryCursor{}
	b.autoPages = 0
	b.lastErr = nil
}

// RequestPage dispara una página de backfill si el estado lo permite.
// manual indica un trigger de usuario (scroll cerca del final cargado), que
// además resetea el presupuesto de páginas automáticas.
//
// Devuelve true si efectivamente se pidió una página.
func (b *Backfiller) RequestPage(ctx context.Context, manual bool) bool {
	b.mu.Lock()
	if manual {
		b.autoPages = 0
	}
	if b.state != StateIdle {
		b.mu.Unlock()
		return false
	}

	cursor := b.candidateCursor()
	if !b.lastCursor.IsZero() && cursor.Equal(b.lastCursor) {
		// Loop guard: repetir una petición improductiva es inaceptable.
		b.state = StateStalled
		b.stats.BackfillTerminal(StateStalled.String())
		b.mu.Unlock()
		slog.Warn("backfill stalled: cursor repeated",
			"oldest_id", cursor.OldestID,
			"oldest_ts", cursor.OldestTimestamp,
		)
		return false
	}

	b.state = StateFetching
	b.lastCursor = cursor
	filter := b.filter
	b.mu.Unlock()

	b.stats.BackfillPage()
	records, err := b.history.FetchPage(ctx, b.cfg.PageLimit, cursor.OldestTimestamp, cursor.OldestID, filter)
	b.settle(records, err)
	return true
}

// candidateCursor computa el cursor desde el registro más viejo cargado.
// Con la ventana vacía, el cursor arranca en "ahora". Requiere b.mu tomado.
func (b *Backfiller) candidateCursor() domain.HistoryCursor {
	fingerprint := b.filter.Fingerprint()
	oldest, ok := b.window.Oldest()
	if !ok {
		return domain.HistoryCursor{
			OldestTimestamp:   b.clock.Now(),
			FilterFingerprint: fingerprint,
		}
	}
	return domain.HistoryCursor{
		OldestTimestamp:   oldest.DetectedAt,
		OldestID:          oldest.ID,
		FilterFingerprint: fingerprint,
	}
}

// settle procesa la respuesta de una página y decide el siguiente estado.
func (b *Backfiller) settle(records []domain.SignalEvent, err error) {
	now := b.clock.Now()
	cutoff := now.Add(-b.window.Horizon())

	if err != nil {
		// Fail-safe: el feed sigue usable con lo cargado; nunca reintento
		// sin bound. La UI lo muestra como "history unavailable".
		b.mu.Lock()
		b.state = StateExhausted
		b.lastErr = err
		b.mu.Unlock()
		b.stats.BackfillTerminal(StateExhausted.String())
		slog.Warn("backfill page failed, marking exhausted", "err", err)
		return
	}

	// Merge descartando lo anterior al horizonte — el descarte es parte de
	// la detección de agotamiento, no solo higiene de memoria.
	pastHorizon := false
	inHorizon := make([]domain.SignalEvent, 0, len(records))
	for _, r := range records {
		if r.DetectedAt.Before(cutoff) {
			pastHorizon = true
			continue
		}
		inHorizon = append(inHorizon, r)
	}
	added, dups := b.window.Merge(inHorizon)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case len(records) < b.cfg.PageLimit:
		// Página corta: no queda más historia que pedir.
		b.state = StateExhausted
		b.stats.BackfillTerminal(StateExhausted.String())
	case pastHorizon:
		// El final de la página ya cruzó el horizonte de retención.
		b.state = StateExhausted
		b.stats.BackfillTerminal(StateExhausted.String())
	default:
		// Página llena dentro del horizonte: puede haber más datos.
		b.state = StateIdle
	}

	slog.Debug("backfill page settled",
		"received", len(records),
		"added", added,
		"duplicates", dups,
		"state", b.state.String(),
	)
}

// FillToMinimum auto-dispara backfills mientras el conteo visible esté por
// debajo del mínimo, hasta alcanzarlo, llegar a un estado terminal o agotar
// el presupuesto de páginas automáticas del filtro actual.
func (b *Backfiller) FillToMinimum(ctx context.Context, visibleCount func() int) {
	for {
		if ctx.Err() != nil {
			return
		}
		b.mu.Lock()
		if b.state != StateIdle || b.autoPages >= b.cfg.MaxAutoPages {
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		if visibleCount() >= b.cfg.MinVisible {
			return
		}

		b.mu.Lock()
		b.autoPages++
		b.mu.Unlock()

		if !b.RequestPage(ctx, false) {
			return
		}
	}
}

// State devuelve el estado actual.
func (b *Backfiller) State() BackfillState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Exhausted devuelve true si el backfill agotó la historia disponible.
func (b *Backfiller) Exhausted() bool { return b.State() == StateExhausted }

// Stalled devuelve true si el loop guard detuvo el backfill.
func (b *Backfiller) Stalled() bool { return b.State() == StateStalled }

// LastErr devuelve el error que llevó a EXHAUSTED, si lo hubo.
func (b *Backfiller) LastErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}
