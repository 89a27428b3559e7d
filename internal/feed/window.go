package feed

// window.go — ventana de retención de eventos.
//
// Los eventos llegan por dos caminos que escriben la misma ventana: el push
// en vivo y las páginas de backfill. El merge es idempotente por ID — un
// evento que llega por ambos caminos se guarda una sola vez. La eviction por
// horizonte es perezosa: ocurre al extender la ventana, nunca en una lectura.

import (
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// Window es la ventana acotada de SignalEvents retenidos.
// Todo evento retenido cumple now - DetectedAt <= horizon.
type Window struct {
	horizon time.Duration
	clock   Clock

	mu     sync.RWMutex
	byID   map[string]domain.SignalEvent
	sorted []domain.SignalEvent // DetectedAt descendente, recalculado por merge
}

// NewWindow crea una ventana con el horizonte dado.
func NewWindow(horizon time.Duration, clock Clock) *Window {
	if clock == nil {
		clock = RealClock()
	}
	return &Window{
		horizon: horizon,
		clock:   clock,
		byID:    make(map[string]domain.SignalEvent),
	}
}

// Merge ingesta un batch de eventos. Deduplica por ID: un ID ya presente solo
// se reemplaza (entero) si trae una EnrichmentVersion mayor. Eventos más
// viejos que el horizonte se descartan, y la ventana existente se poda.
// Devuelve cuántos eventos se añadieron y cuántos se descartaron por duplicado.
func (w *Window) Merge(batch []domain.SignalEvent) (added, duplicates int) {
	cutoff := w.clock.Now().Add(-w.horizon)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range batch {
		if e.ID == "" || e.DetectedAt.Before(cutoff) {
			continue
		}
		existing, ok := w.byID[e.ID]
		if ok {
			duplicates++
			if e.EnrichmentVersion > existing.EnrichmentVersion {
				w.byID[e.ID] = e
			}
			continue
		}
		w.byID[e.ID] = e
		added++
	}

	// Eviction perezosa al extender la ventana.
	for id, e := range w.byID {
		if e.DetectedAt.Before(cutoff) {
			delete(w.byID, id)
		}
	}

	w.rebuild()
	return added, duplicates
}

// Replace sustituye un evento entero por su versión enriquecida.
// Devuelve false si el ID ya no está retenido.
func (w *Window) Replace(e domain.SignalEvent) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[e.ID]; !ok {
		return false
	}
	w.byID[e.ID] = e
	w.rebuild()
	return true
}

// rebuild recalcula el slice ordenado. Requiere w.mu tomado.
func (w *Window) rebuild() {
	sorted := make([]domain.SignalEvent, 0, len(w.byID))
	for _, e := range w.byID {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].DetectedAt.Equal(sorted[j].DetectedAt) {
			return sorted[i].DetectedAt.After(sorted[j].DetectedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	w.sorted = sorted
}

// Records devuelve los eventos retenidos, más recientes primero.
func (w *Window) Records() []domain.SignalEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.SignalEvent, len(w.sorted))
	copy(out, w.sorted)
	return out
}

// Get devuelve el evento con el ID dado, si sigue retenido.
func (w *Window) Get(id string) (domain.SignalEvent, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.byID[id]
	return e, ok
}

// Oldest devuelve el evento más viejo retenido.
func (w *Window) Oldest() (domain.SignalEvent, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.sorted) == 0 {
		return domain.SignalEvent{}, false
	}
	return w.sorted[len(w.sorted)-1], true
}

// Len devuelve el número de eventos retenidos.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.byID)
}

// Horizon devuelve el horizonte de retención configurado.
func (w *Window) Horizon() time.Duration { return w.horizon }
