package feed

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig acota los reintentos de la firma blanda "still computing".
type RetryConfig struct {
	MaxRetries int           // reintentos tras el intento inicial
	Delay      time.Duration // espera fija entre intentos
}

// RetryingFetcher envuelve un fetch con reintento acotado para SoftBusyError.
// Los errores duros cortan inmediatamente. Se comparte la clave de caché, así
// que los callers concurrentes se unen a la secuencia de reintentos a través
// del slot in-flight de la caché — el fetcher en sí no coordina callers.
type RetryingFetcher[K comparable, V any] struct {
	cfg   RetryConfig
	clock Clock
	fetch FetchFunc[K, V]
}

// NewRetryingFetcher crea el wrapper. El resultado es a su vez una FetchFunc,
// pensado para inyectarse como fetch de una Cache.
func NewRetryingFetcher[K comparable, V any](cfg RetryConfig, clock Clock, fetch FetchFunc[K, V]) *RetryingFetcher[K, V] {
	if clock == nil {
		clock = RealClock()
	}
	return &RetryingFetcher[K, V]{cfg: cfg, clock: clock, fetch: fetch}
}

// Fetch ejecuta el fetch con hasta MaxRetries reintentos ante SoftBusyError.
// Cada llamada arranca con el contador a cero: un force-refresh (que dispara
// un fetch nuevo vía la caché) resetea los intentos por construcción.
func (r *RetryingFetcher[K, V]) Fetch(ctx context.Context, key K, force bool) (V, error) {
	var zero V
	for attempt := 0; ; attempt++ {
		value, err := r.fetch(ctx, key, force)
		if err == nil {
			return value, nil
		}
		if !IsSoftBusy(err) {
			return zero, err
		}
		if attempt >= r.cfg.MaxRetries {
			// Sigue computando tras agotar el presupuesto: aflora etiquetado
			// como blando para que la UI distinga "computing" de un fallo.
			return zero, fmt.Errorf("feed.RetryingFetcher: gave up after %d retries: %w", r.cfg.MaxRetries, err)
		}
		if sleepErr := r.clock.Sleep(ctx, r.cfg.Delay); sleepErr != nil {
			return zero, sleepErr
		}
	}
}
