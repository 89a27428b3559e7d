package ports

import (
	"context"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// LiveSource es la fuente push de eventos en vivo. Entrega batches
// posiblemente desordenados y con duplicados — la deduplicación es
// responsabilidad de la ventana, no del transporte.
type LiveSource interface {
	// Run consume la fuente hasta que el contexto se cancele o el transporte
	// falle, entregando cada batch al sink.
	Run(ctx context.Context, sink func(batch []domain.SignalEvent)) error
}
