package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// Journal persiste los eventos retenidos para arrancar la sesión siguiente
// con la ventana caliente en vez de vacía.
type Journal interface {
	// LoadRecent devuelve los eventos persistidos dentro del horizonte.
	LoadRecent(ctx context.Context, horizon time.Duration) ([]domain.SignalEvent, error)

	// SaveEvents hace upsert de los eventos por ID.
	SaveEvents(ctx context.Context, events []domain.SignalEvent) error

	// Close cierra la conexión limpiamente.
	Close() error
}
