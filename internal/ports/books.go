package ports

import (
	"context"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// BookProvider obtiene snapshots del libro de órdenes de un asset.
// Se asume barato y rápido; el TTL corto lo pone la caché, no el provider.
type BookProvider interface {
	// FetchSnapshot devuelve el book del asset truncado a depth niveles por lado.
	FetchSnapshot(ctx context.Context, assetID string, depth int) (domain.BookSnapshot, error)
}
