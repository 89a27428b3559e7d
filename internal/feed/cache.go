package feed

// cache.go — caché genérica con coalescing de fetches concurrentes.
//
// El invariante que sostiene todo el layer: como máximo UN fetch en vuelo
// por clave en cualquier instante. N widgets visibles pidiendo la misma
// wallet comparten un único request; el que llega tarde se une al vuelo
// existente esperando su canal done. Un force fuera del período de gracia
// es la única excepción: relanza y reemplaza el slot en vuelo.

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/metrics"
)

// FetchFunc es el fetch subyacente de una caché. El flag force se propaga
// al endpoint para que pueda recomputar en vez de servir su propio caché.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K, force bool) (V, error)

// CacheConfig es la configuración por instancia. Analytics y orderbooks
// usan valores distintos: la tolerancia a staleness de un book es mucho menor.
type CacheConfig struct {
	Name  string
	TTL   time.Duration
	Grace time.Duration // ventana desde el inicio del vuelo en la que un force se une igual
}

type cacheEntry[V any] struct {
	value     V
	fetchedAt time.Time
}

// inflightEntry es el handle compartido de una operación pendiente.
// Los joiners esperan done y leen value/err ya asentados.
type inflightEntry[V any] struct {
	startedAt time.Time
	done      chan struct{}
	value     V
	err       error
}

// Cache es una caché keyed con TTL y at-most-one-in-flight por clave.
// Los fallos nunca se cachean; los éxitos se promueven a entrada.
type Cache[K comparable, V any] struct {
	cfg   CacheConfig
	clock Clock
	fetch FetchFunc[K, V]
	stats *metrics.Metrics

	mu       sync.Mutex
	entries  map[K]cacheEntry[V]
	inflight map[K]*inflightEntry[V]
}

// NewCache crea una caché con el fetch dado. stats puede ser nil.
func NewCache[K comparable, V any](cfg CacheConfig, clock Clock, fetch FetchFunc[K, V], stats *metrics.Metrics) *Cache[K, V] {
	if clock == nil {
		clock = RealClock()
	}
	return &Cache[K, V]{
		cfg:      cfg,
		clock:    clock,
		fetch:    fetch,
		stats:    stats,
		entries:  make(map[K]cacheEntry[V]),
		inflight: make(map[K]*inflightEntry[V]),
	}
}

// Get devuelve el valor para key, suspendiendo al caller hasta resolverlo.
//
//   - Entrada fresca (now - fetchedAt <= TTL) y sin force: se devuelve directo.
//   - Vuelo existente y (sin force, o force dentro de la gracia): join.
//   - Si no: fetch nuevo. Éxito promueve a entrada; fallo se propaga a todos
//     los joiners y no deja nada cacheado.
func (c *Cache[K, V]) Get(ctx context.Context, key K, force bool) (V, error) {
	var zero V

	c.mu.Lock()
	if !force {
		if e, ok := c.entries[key]; ok && c.clock.Now().Sub(e.fetchedAt) <= c.cfg.TTL {
			c.mu.Unlock()
			c.stats.CacheHit(c.cfg.Name)
			return e.value, nil
		}
	}

	if fl, ok := c.inflight[key]; ok {
		if !force || c.clock.Now().Sub(fl.startedAt) <= c.cfg.Grace {
			c.mu.Unlock()
			c.stats.CacheJoin(c.cfg.Name)
			select {
			case <-fl.done:
				return fl.value, fl.err
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		// Force pasada la gracia: el vuelo viejo sigue hasta asentarse (sus
		// joiners reciben su resultado) pero pierde el slot — no promueve.
	}

	fl := &inflightEntry[V]{startedAt: c.clock.Now(), done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()
	c.stats.CacheMiss(c.cfg.Name)

	value, err := c.fetch(ctx, key, force)

	c.mu.Lock()
	fl.value, fl.err = value, err
	superseded := c.inflight[key] != fl
	if !superseded {
		delete(c.inflight, key)
		if err == nil {
			c.entries[key] = cacheEntry[V]{value: value, fetchedAt: c.clock.Now()}
		}
	}
	c.mu.Unlock()
	close(fl.done)

	return value, err
}

// Peek devuelve la entrada cacheada si existe y está fresca, sin disparar fetch.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.clock.Now().Sub(e.fetchedAt) > c.cfg.TTL {
		var zero V
		return zero, false
	}
	return e.value, true
}

// IsLoading devuelve true si hay un fetch en vuelo para key.
func (c *Cache[K, V]) IsLoading(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Clear vacía la caché entera (logout, teardown de tests). Los fetches en
// vuelo terminan y entregan a sus joiners, pero no promueven a entrada.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]cacheEntry[V])
	c.inflight = make(map[K]*inflightEntry[V])
}

// Len devuelve el número de entradas cacheadas (para tests y debug).
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
