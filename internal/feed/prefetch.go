package feed

// prefetch.go — warmer de caché en background, best-effort.
//
// Del subconjunto visible se deriva una lista deduplicada de claves candidatas
// y un pool fijo de workers las va pidiendo a la caché. Es puramente una
// optimización: los errores se tragan en silencio y solo la acción explícita
// del usuario reintenta una clave que ya falló en esta sesión.

import (
	"context"
	"sync"

	"github.com/alejandrodnm/whaleterm/internal/metrics"
)

// PrefetchConfig dimensiona el scheduler.
type PrefetchConfig struct {
	Workers  int
	BatchCap int // máximo de claves por schedule
}

// Prefetcher calienta entradas de caché para las claves visibles más
// relevantes. Es el único componente que se cancela a mitad de vuelo:
// un nuevo Schedule cancela el trabajo pendiente del anterior.
type Prefetcher struct {
	cfg   PrefetchConfig
	warm  func(ctx context.Context, key string)
	stats *metrics.Metrics

	mu        sync.Mutex
	attempted map[string]bool // claves ya intentadas en esta sesión
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPrefetcher crea el scheduler. warm hace el fetch real (normalmente
// un cache.Get con el resultado ignorado).
func NewPrefetcher(cfg PrefetchConfig, warm func(ctx context.Context, key string), stats *metrics.Metrics) *Prefetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.BatchCap <= 0 {
		cfg.BatchCap = 20
	}
	return &Prefetcher{
		cfg:       cfg,
		warm:      warm,
		stats:     stats,
		attempted: make(map[string]bool),
	}
}

// Schedule encola las claves dadas y lanza el pool de workers, cancelando
// cualquier trabajo pendiente del schedule anterior. Deduplica y descarta
// claves ya intentadas esta sesión; el batch se trunca a BatchCap.
func (p *Prefetcher) Schedule(ctx context.Context, keys []string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}

	queue := make([]string, 0, min(len(keys), p.cfg.BatchCap))
	seen := make(map[string]bool, len(keys))
	skipped := 0
	for _, k := range keys {
		if len(queue) >= p.cfg.BatchCap {
			break
		}
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if p.attempted[k] {
			skipped++
			continue
		}
		queue = append(queue, k)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.stats.PrefetchSkipped(skipped)
	if len(queue) == 0 {
		return
	}
	p.stats.PrefetchScheduled(len(queue))

	ch := make(chan string, len(queue))
	for _, k := range queue {
		ch <- k
	}
	close(ch)

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				// Cancelación cooperativa: chequeada antes de cada pop.
				if runCtx.Err() != nil {
					return
				}
				key, ok := <-ch
				if !ok {
					return
				}
				p.mu.Lock()
				p.attempted[key] = true
				p.mu.Unlock()
				// Fire-and-forget: el resultado (y cualquier error) se ignora.
				p.warm(runCtx, key)
			}
		}()
	}
}

// Stop cancela el trabajo pendiente y espera a que los workers terminen.
func (p *Prefetcher) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// ResetSession olvida las claves intentadas (logout o reconexión).
func (p *Prefetcher) ResetSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempted = make(map[string]bool)
}
