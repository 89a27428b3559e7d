package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// HistoryProvider es el endpoint paginado de historia de eventos.
// Debe ser estable (idempotente) para un cursor idéntico — el loop guard
// del backfill depende de ello.
type HistoryProvider interface {
	// FetchPage devuelve hasta limit eventos estrictamente anteriores a
	// (beforeTS, beforeID), más recientes primero. hints se pasa al servidor
	// para que pueda pre-filtrar; el filtrado autoritativo sigue siendo local.
	FetchPage(ctx context.Context, limit int, beforeTS time.Time, beforeID string, hints domain.FilterState) ([]domain.SignalEvent, error)
}
