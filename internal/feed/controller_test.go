package feed_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/feed"
	"github.com/alejandrodnm/whaleterm/internal/ports"
)

func newTestController(t *testing.T, clock *fakeClock, history *stubHistory) (*feed.Controller, *stubAnalytics, *stubBooks) {
	t.Helper()
	analytics := &stubAnalytics{}
	books := &stubBooks{}
	ctrl := feed.NewController(feed.ControllerConfig{
		Horizon:   24 * time.Hour,
		BookDepth: 10,
		Backfill:  feed.BackfillConfig{PageLimit: 20, MinVisible: 10, MaxAutoPages: 5},
		Analytics: feed.CacheConfig{Name: "analytics", TTL: 5 * time.Minute, Grace: 5 * time.Second},
		Books:     feed.CacheConfig{Name: "books", TTL: 10 * time.Second, Grace: 2 * time.Second},
		Retry:     feed.RetryConfig{MaxRetries: 6, Delay: time.Second},
		Prefetch:  feed.PrefetchConfig{Workers: 2, BatchCap: 20},
	}, feed.Deps{
		History:   history,
		Analytics: analytics,
		Books:     books,
		Executor:  &stubExecutor{},
		Clock:     clock,
	})
	t.Cleanup(ctrl.Close)
	return ctrl, analytics, books
}

func TestControllerIngestLiveDeduplicates(t *testing.T) {
	clock := newFakeClock()
	ctrl, _, _ := newTestController(t, clock, &stubHistory{})
	now := clock.Now()

	e := makeTrade("ev-1", now.Add(-time.Minute), 0.8, 50_000)
	ctrl.IngestLive(context.Background(), []domain.SignalEvent{e})
	ctrl.IngestLive(context.Background(), []domain.SignalEvent{e}) // redelivery del push

	assert.Equal(t, 1, ctrl.Window().Len())
}

func TestControllerIngestLiveRefillsAfterEviction(t *testing.T) {
	clock := newFakeClock()
	history := &stubHistory{gen: genPage(0.9)}
	ctrl := feed.NewController(feed.ControllerConfig{
		Horizon:   time.Hour,
		BookDepth: 10,
		Backfill:  feed.BackfillConfig{PageLimit: 10, MinVisible: 5, MaxAutoPages: 5},
		Analytics: feed.CacheConfig{Name: "analytics", TTL: 5 * time.Minute, Grace: 5 * time.Second},
		Books:     feed.CacheConfig{Name: "books", TTL: 10 * time.Second, Grace: 2 * time.Second},
		Retry:     feed.RetryConfig{MaxRetries: 6, Delay: time.Second},
		Prefetch:  feed.PrefetchConfig{Workers: 2, BatchCap: 20},
	}, feed.Deps{
		History:   history,
		Analytics: &stubAnalytics{},
		Books:     &stubBooks{},
		Executor:  &stubExecutor{},
		Clock:     clock,
	})
	t.Cleanup(ctrl.Close)

	now := clock.Now()
	seed := make([]domain.SignalEvent, 0, 6)
	for i := 0; i < 6; i++ {
		seed = append(seed, makeTrade(fmt.Sprintf("edge-%d", i), now.Add(-50*time.Minute), 0.9, 50_000))
	}
	ctrl.IngestLive(context.Background(), seed)
	require.Equal(t, 0, history.callCount(), "con el mínimo cubierto no hay auto-backfill")

	// 20 minutos después, el batch en vivo evicta los registros al borde del
	// horizonte y deja el feed famélico: el relleno dispara solo.
	clock.Advance(20 * time.Minute)
	ctrl.IngestLive(context.Background(), []domain.SignalEvent{
		makeTrade("fresh", clock.Now(), 0.9, 50_000),
	})

	assert.GreaterOrEqual(t, history.callCount(), 1, "la eviction por horizonte dispara el relleno")
	assert.GreaterOrEqual(t, len(ctrl.VisibleRecords()), 5)
}

func TestControllerVisibleRecordsApplyFilter(t *testing.T) {
	clock := newFakeClock()
	ctrl, _, _ := newTestController(t, clock, &stubHistory{})
	now := clock.Now()

	ctrl.IngestLive(context.Background(), []domain.SignalEvent{
		makeTrade("hi", now.Add(-time.Minute), 0.9, 50_000),
		makeTrade("lo", now.Add(-2*time.Minute), 0.2, 50_000),
		makeTrade("small", now.Add(-3*time.Minute), 0.9, 500),
	})

	ctrl.SetFilter(context.Background(), domain.FilterState{MinConfidence: 0.5, LargeOnly: true})

	visible := ctrl.VisibleRecords()
	require.Len(t, visible, 1)
	assert.Equal(t, "hi", visible[0].ID)
	assert.Equal(t, 3, ctrl.Window().Len(), "el filtro no borra eventos, solo los oculta")
}

func TestControllerWalletStatsCachesAcrossViews(t *testing.T) {
	clock := newFakeClock()
	ctrl, analytics, _ := newTestController(t, clock, &stubHistory{})

	// Card compacta e inspector abierto piden la misma wallet.
	s1, err := ctrl.WalletStats(context.Background(), "0xwhale", false)
	require.NoError(t, err)
	s2, err := ctrl.WalletStats(context.Background(), "0xwhale", false)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, analytics.callCount())
	assert.False(t, ctrl.IsWalletLoading("0xwhale"))
}

func TestControllerBookSnapshot(t *testing.T) {
	clock := newFakeClock()
	ctrl, _, books := newTestController(t, clock, &stubHistory{})

	snap, err := ctrl.Book(context.Background(), "asset-1", false)
	require.NoError(t, err)
	assert.Equal(t, "asset-1", snap.AssetID)
	require.NotEmpty(t, snap.Bids)

	_, err = ctrl.Book(context.Background(), "asset-1", false)
	require.NoError(t, err)
	books.mu.Lock()
	calls := books.calls
	books.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestControllerResolveEnrichment(t *testing.T) {
	clock := newFakeClock()
	ctrl, _, _ := newTestController(t, clock, &stubHistory{})
	now := clock.Now()

	ctrl.IngestLive(context.Background(), []domain.SignalEvent{
		makeTrade("ev-1", now.Add(-time.Minute), 0.8, 50_000),
	})

	require.True(t, ctrl.ResolveEnrichment("ev-1", domain.EnrichmentOK))
	got, ok := ctrl.Window().Get("ev-1")
	require.True(t, ok)
	assert.Equal(t, domain.EnrichmentOK, got.EnrichmentStatus)
	assert.Equal(t, 1, got.EnrichmentVersion)

	assert.False(t, ctrl.ResolveEnrichment("gone", domain.EnrichmentOK))
}

func TestControllerManualBackfillThenAutoFill(t *testing.T) {
	clock := newFakeClock()
	history := &stubHistory{gen: genPage(0.9)}
	ctrl, _, _ := newTestController(t, clock, history)

	ctrl.RequestBackfillIfNeeded(context.Background())

	// La página manual más la inanición dejan al menos el mínimo visible.
	assert.GreaterOrEqual(t, len(ctrl.VisibleRecords()), 10)
	assert.False(t, ctrl.BackfillExhausted())
	assert.False(t, ctrl.BackfillStalled())
	assert.NoError(t, ctrl.BackfillErr())
}

func TestControllerSubmitTradePassthrough(t *testing.T) {
	clock := newFakeClock()
	ctrl, _, _ := newTestController(t, clock, &stubHistory{})

	res, err := ctrl.SubmitTrade(context.Background(), ports.OrderRequest{
		AssetID: "asset-1",
		Side:    "BUY",
		Price:   0.62,
		SizeUSD: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-asset-1", res.OrderID)
	assert.Equal(t, "live", res.Status)
}

func TestControllerClearResetsCaches(t *testing.T) {
	clock := newFakeClock()
	ctrl, analytics, _ := newTestController(t, clock, &stubHistory{})

	_, err := ctrl.WalletStats(context.Background(), "0xwhale", false)
	require.NoError(t, err)

	ctrl.Clear()

	_, err = ctrl.WalletStats(context.Background(), "0xwhale", false)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.callCount(), "tras el clear la clave vuelve a fetchearse")
}
