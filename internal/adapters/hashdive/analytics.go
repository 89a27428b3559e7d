package hashdive

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/feed"
)

const walletStatsPath = "/wallet_stats"

// FetchWalletStats implementa ports.AnalyticsProvider. El backend computa las
// analíticas en background: una respuesta con status "computing" se traduce a
// feed.SoftBusyError para que el RetryingFetcher la reintente con bound.
func (c *Client) FetchWalletStats(ctx context.Context, wallet string, force bool) (domain.WalletStats, error) {
	q := url.Values{}
	q.Set("user_address", wallet)
	q.Set("format", "json")
	if force {
		q.Set("force_refresh", "true")
	}

	var raw rawWalletStats
	if err := c.get(ctx, c.base+walletStatsPath+"?"+q.Encode(), &raw); err != nil {
		return domain.WalletStats{}, fmt.Errorf("hashdive.FetchWalletStats: %w", err)
	}

	if raw.Status == "computing" {
		return domain.WalletStats{}, &feed.SoftBusyError{Key: wallet}
	}
	if raw.Wallet == "" {
		return domain.WalletStats{}, &feed.ValidationError{
			Op:     "hashdive.FetchWalletStats",
			Reason: "response missing wallet address",
		}
	}

	return domain.WalletStats{
		Wallet:         raw.Wallet,
		TradeCount:     raw.TradeCount,
		WinRate:        raw.WinRate,
		RealizedPnLUSD: raw.RealizedPnLUSD,
		VolumeUSD:      raw.VolumeUSD,
		AvgTradeUSD:    raw.AvgTradeUSD,
		ComputedAt:     parseEventTimestamp(raw.ComputedAt),
	}, nil
}
