package feed

// controller.go — orquestador del sync layer.
//
// El Controller es el dueño de la ventana de retención, la máquina de
// backfill, las dos cachés de enriquecimiento y el prefetcher. Es un
// singleton de sesión: cada vista montada de la misma clave comparte estas
// estructuras — así es como una card compacta y el inspector abierto del
// mismo evento coalescen en un solo fetch.

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/metrics"
	"github.com/alejandrodnm/whaleterm/internal/ports"
)

// ControllerConfig agrupa la configuración de todos los componentes.
type ControllerConfig struct {
	Horizon   time.Duration
	BookDepth int

	Backfill  BackfillConfig
	Analytics CacheConfig
	Books     CacheConfig
	Retry     RetryConfig
	Prefetch  PrefetchConfig
}

// Deps son los colaboradores externos del controller.
type Deps struct {
	History   ports.HistoryProvider
	Analytics ports.AnalyticsProvider
	Books     ports.BookProvider
	Executor  ports.TradeExecutor
	Clock     Clock            // nil = reloj real
	Stats     *metrics.Metrics // nil = sin métricas
}

// Controller expone la superficie que consume la UI.
type Controller struct {
	window    *Window
	backfill  *Backfiller
	analytics *Cache[string, domain.WalletStats]
	books     *Cache[string, domain.BookSnapshot]
	prefetch  *Prefetcher
	executor  ports.TradeExecutor
	stats     *metrics.Metrics

	mu          sync.Mutex
	filter      domain.FilterState
	prefetchSig string
}

// NewController construye el controller con cachés explícitas de sesión —
// nada de mapas a nivel de paquete.
func NewController(cfg ControllerConfig, deps Deps) *Controller {
	clock := deps.Clock
	if clock == nil {
		clock = RealClock()
	}

	window := NewWindow(cfg.Horizon, clock)

	retrying := NewRetryingFetcher(cfg.Retry, clock,
		func(ctx context.Context, wallet string, force bool) (domain.WalletStats, error) {
			return deps.Analytics.FetchWalletStats(ctx, wallet, force)
		})
	analytics := NewCache(cfg.Analytics, clock, retrying.Fetch, deps.Stats)

	books := NewCache(cfg.Books, clock,
		func(ctx context.Context, assetID string, _ bool) (domain.BookSnapshot, error) {
			return deps.Books.FetchSnapshot(ctx, assetID, cfg.BookDepth)
		}, deps.Stats)

	c := &Controller{
		window:    window,
		backfill:  NewBackfiller(cfg.Backfill, deps.History, window, clock, deps.Stats),
		analytics: analytics,
		books:     books,
		executor:  deps.Executor,
		stats:     deps.Stats,
	}
	c.prefetch = NewPrefetcher(cfg.Prefetch, func(ctx context.Context, wallet string) {
		_, _ = analytics.Get(ctx, wallet, false)
	}, deps.Stats)

	return c
}

// IngestLive mergea un batch del push en vivo en la ventana (dedup por ID)
// y reprograma el prefetch si el subconjunto visible cambió. El merge puede
// evictar registros al borde del horizonte: si eso deja el feed por debajo
// del mínimo visible, la inanición rellena sin esperar a una acción de usuario.
func (c *Controller) IngestLive(ctx context.Context, batch []domain.SignalEvent) {
	added, dups := c.window.Merge(batch)
	c.stats.LiveEvents(added)
	c.stats.LiveDuplicates(dups)
	c.backfill.FillToMinimum(ctx, c.visibleCount)
	if added > 0 {
		c.reschedulePrefetch(ctx)
	}
}

// SetFilter cambia el filtro activo. Invalida el cursor de backfill si el
// fingerprint cambió y auto-rellena si el nuevo filtro deja el feed famélico.
func (c *Controller) SetFilter(ctx context.Context, f domain.FilterState) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()

	c.backfill.SetFilter(f)
	c.backfill.FillToMinimum(ctx, c.visibleCount)
	c.reschedulePrefetch(ctx)
}

// Filter devuelve el filtro activo.
func (c *Controller) Filter() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// VisibleRecords devuelve el subconjunto visible bajo el filtro activo,
// recomputado por lectura sobre la ventana acotada.
func (c *Controller) VisibleRecords() []domain.SignalEvent {
	return domain.Visible(c.window.Records(), c.Filter())
}

func (c *Controller) visibleCount() int {
	return len(c.VisibleRecords())
}

// RequestBackfillIfNeeded es el trigger manual (scroll cerca del final
// cargado). Tras la página pedida, deja que la inanición siga rellenando
// hasta el mínimo visible.
func (c *Controller) RequestBackfillIfNeeded(ctx context.Context) {
	c.backfill.RequestPage(ctx, true)
	c.backfill.FillToMinimum(ctx, c.visibleCount)
}

// BackfillExhausted devuelve true si no queda más historia que cargar.
func (c *Controller) BackfillExhausted() bool { return c.backfill.Exhausted() }

// BackfillStalled devuelve true si el loop guard detuvo el backfill.
func (c *Controller) BackfillStalled() bool { return c.backfill.Stalled() }

// BackfillErr devuelve el error que agotó el backfill, si lo hubo.
// La UI lo muestra como un indicador neutro, nunca como pantalla de error.
func (c *Controller) BackfillErr() error { return c.backfill.LastErr() }

// WalletStats devuelve las analíticas de la wallet, de caché o coalesciendo
// en el fetch en vuelo. force salta el TTL (fuera de la gracia, relanza).
func (c *Controller) WalletStats(ctx context.Context, wallet string, force bool) (domain.WalletStats, error) {
	return c.analytics.Get(ctx, wallet, force)
}

// Book devuelve el snapshot del libro para el asset.
func (c *Controller) Book(ctx context.Context, assetID string, force bool) (domain.BookSnapshot, error) {
	return c.books.Get(ctx, assetID, force)
}

// IsWalletLoading indica si hay un fetch de analytics en vuelo para la wallet.
func (c *Controller) IsWalletLoading(wallet string) bool { return c.analytics.IsLoading(wallet) }

// IsBookLoading indica si hay un fetch de book en vuelo para el asset.
func (c *Controller) IsBookLoading(assetID string) bool { return c.books.IsLoading(assetID) }

// ResolveEnrichment reemplaza el evento entero con su estado de
// enriquecimiento resuelto. Devuelve false si el evento ya fue evictado.
func (c *Controller) ResolveEnrichment(id string, status domain.EnrichmentStatus) bool {
	e, ok := c.window.Get(id)
	if !ok {
		return false
	}
	return c.window.Replace(e.WithEnrichment(status))
}

// SubmitTrade pasa la orden verbatim al endpoint de trading — sin caching.
func (c *Controller) SubmitTrade(ctx context.Context, req ports.OrderRequest) (ports.OrderResult, error) {
	return c.executor.SubmitOrder(ctx, req)
}

// Window expone la ventana para el warm start desde el journal.
func (c *Controller) Window() *Window { return c.window }

// reschedulePrefetch deriva las wallets candidatas del subconjunto visible
// y reprograma el warmer solo si el conjunto cambió de forma significativa.
func (c *Controller) reschedulePrefetch(ctx context.Context) {
	visible := c.VisibleRecords()
	keys := make([]string, 0, len(visible))
	for _, e := range visible {
		if wallet, ok := e.WalletKey(); ok {
			keys = append(keys, wallet)
		}
	}

	sig := strings.Join(keys, "|")
	c.mu.Lock()
	if sig == c.prefetchSig {
		c.mu.Unlock()
		return
	}
	c.prefetchSig = sig
	c.mu.Unlock()

	c.prefetch.Schedule(ctx, keys)
}

// Clear vacía cachés y sesión de prefetch (logout, teardown de tests).
func (c *Controller) Clear() {
	c.analytics.Clear()
	c.books.Clear()
	c.prefetch.ResetSession()
}

// Close detiene el trabajo en background. Los fetches en vuelo terminan
// solos; sus resultados se cachean o descartan, nunca se aplican a una
// vista muerta.
func (c *Controller) Close() {
	c.prefetch.Stop()
	slog.Debug("feed controller closed")
}
