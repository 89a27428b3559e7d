package hashdive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/feed"
)

func TestFetchPageSendsCursorAndHints(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"id": "ev-1", "type": "whale_trade", "detected_at": 1700000000,
			 "confidence": 0.9, "user_address": "0xwhale", "asset_id": "42",
			 "side": "SELL", "price": "0.31", "size_usd": 12000}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	beforeTS := time.Unix(1_700_000_100, 0)
	events, err := c.FetchPage(context.Background(), 500, beforeTS, "ev-0", domain.FilterState{
		MinConfidence: 0.5,
		ExcludeSports: true,
		LargeOnly:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, "500", gotQuery["limit"])
	assert.Equal(t, "1700000100000", gotQuery["timestamp_lte"])
	assert.Equal(t, "ev-0", gotQuery["before_id"])
	assert.Equal(t, "0.500", gotQuery["min_confidence"])
	assert.Equal(t, "sports", gotQuery["exclude_category"])
	assert.Equal(t, "10000", gotQuery["min_usd"])

	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
	assert.Equal(t, "SELL", events[0].Trade.Side)
}

func TestFetchWalletStatsOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xwhale", r.URL.Query().Get("user_address"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "wallet": "0xwhale", "trade_count": 42,
			"win_rate": 0.66, "realized_pnl_usd": 125000, "volume_usd": 600000,
			"avg_trade_usd": 14285.7, "computed_at": 1700000000}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	stats, err := c.FetchWalletStats(context.Background(), "0xwhale", false)
	require.NoError(t, err)
	assert.Equal(t, "0xwhale", stats.Wallet)
	assert.Equal(t, 42, stats.TradeCount)
	assert.InDelta(t, 0.66, stats.WinRate, 1e-9)
	assert.Equal(t, domain.WalletElite, stats.Classification())
}

func TestFetchWalletStatsComputingIsSoftBusy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "computing"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	_, err := c.FetchWalletStats(context.Background(), "0xwhale", false)
	require.Error(t, err)
	assert.True(t, feed.IsSoftBusy(err), "status computing debe traducirse a la firma blanda")
}

func TestFetchWalletStatsForcePropagates(t *testing.T) {
	var forced string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forced = r.URL.Query().Get("force_refresh")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "wallet": "0xwhale"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	_, err := c.FetchWalletStats(context.Background(), "0xwhale", true)
	require.NoError(t, err)
	assert.Equal(t, "true", forced)
}

func TestFetchWalletStatsMissingWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	_, err := c.FetchWalletStats(context.Background(), "0xghost", false)
	require.Error(t, err)
	var verr *feed.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.False(t, feed.IsSoftBusy(err))
}

func TestGetClientErrorDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL, "wrong")
	_, err := c.FetchWalletStats(context.Background(), "0xwhale", false)
	require.Error(t, err)
	var terr *feed.TransportError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, 1, calls, "los 4xx no se reintentan")
}
