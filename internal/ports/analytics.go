package ports

import (
	"context"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// AnalyticsProvider es el endpoint de analíticas de performance por wallet.
// Puede devolver la firma blanda "still computing" (feed.SoftBusyError).
type AnalyticsProvider interface {
	// FetchWalletStats obtiene las analíticas de la wallet. Con force el
	// servidor recomputa en vez de servir su propio caché.
	FetchWalletStats(ctx context.Context, wallet string, force bool) (domain.WalletStats, error)
}
