package feed_test

// Helpers compartidos: reloj fake para TTLs y timers observables, y stubs
// de los providers externos.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep avanza el reloj en vez de esperar: los retries corren instantáneos.
func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// makeTrade crea un evento whale_trade con los campos mínimos.
func makeTrade(id string, detectedAt time.Time, confidence, sizeUSD float64) domain.SignalEvent {
	return domain.SignalEvent{
		ID:         id,
		DetectedAt: detectedAt,
		Kind:       domain.KindWhaleTrade,
		Confidence: confidence,
		Trade: &domain.WhaleTradePayload{
			Wallet:      "0xwallet-" + id,
			AssetID:     "asset-" + id,
			MarketSlug:  "will-x-happen",
			MarketTitle: "Will X happen?",
			Category:    "politics",
			Outcome:     "Yes",
			Side:        "BUY",
			Price:       0.62,
			SizeUSD:     sizeUSD,
		},
		EnrichmentStatus: domain.EnrichmentPending,
	}
}

// stubHistory devuelve páginas pregrabadas o generadas, en orden.
type stubHistory struct {
	mu    sync.Mutex
	pages [][]domain.SignalEvent
	errs  []error
	gen   func(call int, limit int, beforeTS time.Time) []domain.SignalEvent
	calls int
}

func (s *stubHistory) FetchPage(_ context.Context, limit int, beforeTS time.Time, _ string, _ domain.FilterState) ([]domain.SignalEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	if s.gen != nil {
		return s.gen(call, limit, beforeTS), nil
	}
	if call < len(s.pages) {
		return s.pages[call], nil
	}
	return nil, nil
}

func (s *stubHistory) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubAnalytics cuenta llamadas y devuelve stats fijas.
type stubAnalytics struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubAnalytics) FetchWalletStats(_ context.Context, wallet string, _ bool) (domain.WalletStats, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return domain.WalletStats{}, s.err
	}
	return domain.WalletStats{Wallet: wallet, WinRate: 0.66, VolumeUSD: 600_000, TradeCount: 42}, nil
}

func (s *stubAnalytics) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubBooks devuelve un book mínimo.
type stubBooks struct {
	mu    sync.Mutex
	calls int
}

func (s *stubBooks) FetchSnapshot(_ context.Context, assetID string, _ int) (domain.BookSnapshot, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return domain.BookSnapshot{
		AssetID: assetID,
		Bids:    []domain.BookLevel{{Price: 0.61, Size: 100}},
		Asks:    []domain.BookLevel{{Price: 0.63, Size: 80}},
	}, nil
}

// stubExecutor registra la última orden enviada.
type stubExecutor struct {
	mu   sync.Mutex
	last ports.OrderRequest
}

func (s *stubExecutor) SubmitOrder(_ context.Context, req ports.OrderRequest) (ports.OrderResult, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	return ports.OrderResult{OrderID: fmt.Sprintf("ord-%s", req.AssetID), Status: "live"}, nil
}
