package hashdive

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

func TestMapEventWhaleTrade(t *testing.T) {
	raw := rawEvent{
		ID:          "ev-1",
		Type:        "whale_trade",
		DetectedAt:  json.Number("1700000000"),
		Confidence:  0.87,
		UserAddress: "0xwhale",
		AssetID:     "123456",
		MarketSlug:  "will-x-happen",
		MarketTitle: "Will X happen?",
		Category:    "politics",
		Outcome:     "Yes",
		Side:        "BUY",
		Price:       json.Number("0.62"),
		SizeUSD:     45_000,
	}

	e, ok := mapEvent(raw)
	require.True(t, ok)
	assert.Equal(t, "ev-1", e.ID)
	assert.Equal(t, domain.KindWhaleTrade, e.Kind)
	assert.Equal(t, time.Unix(1_700_000_000, 0), e.DetectedAt)
	assert.Equal(t, domain.EnrichmentPending, e.EnrichmentStatus)
	require.NotNil(t, e.Trade)
	assert.Equal(t, "0xwhale", e.Trade.Wallet)
	assert.InDelta(t, 0.62, e.Trade.Price, 1e-9)
	assert.InDelta(t, 45_000, e.Trade.SizeUSD, 1e-9)
	assert.Nil(t, e.Transfer)
	assert.Nil(t, e.Resolved)
}

func TestMapEventTransferAndResolved(t *testing.T) {
	transfer, ok := mapEvent(rawEvent{
		ID:          "tx-1",
		Type:        "wallet_transfer",
		DetectedAt:  json.Number("1700000000000"), // millis
		UserAddress: "0xmover",
		Direction:   "OUT",
		AmountUSD:   90_000,
	})
	require.True(t, ok)
	assert.Equal(t, domain.KindWalletTransfer, transfer.Kind)
	require.NotNil(t, transfer.Transfer)
	assert.Equal(t, "OUT", transfer.Transfer.Direction)
	assert.Equal(t, time.Unix(1_700_000_000, 0), transfer.DetectedAt)

	resolved, ok := mapEvent(rawEvent{
		ID:         "res-1",
		Type:       "market_resolved",
		DetectedAt: json.Number("1700000000"),
		AssetID:    "123456",
		Outcome:    "No",
	})
	require.True(t, ok)
	assert.Equal(t, domain.KindMarketResolved, resolved.Kind)
	require.NotNil(t, resolved.Resolved)
	assert.Equal(t, "No", resolved.Resolved.Outcome)
}

func TestMapEventsDropsMalformed(t *testing.T) {
	events := mapEvents([]rawEvent{
		{ID: "", Type: "whale_trade", DetectedAt: json.Number("1700000000")},
		{ID: "ev-1", Type: "alien_signal", DetectedAt: json.Number("1700000000")},
		{ID: "ev-2", Type: "whale_trade", DetectedAt: json.Number("1700000000")},
	})
	require.Len(t, events, 1)
	assert.Equal(t, "ev-2", events[0].ID)
}

func TestParseEventTimestampFormats(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"unix seconds", "1700000000", time.Unix(1_700_000_000, 0)},
		{"unix millis", "1700000000500", time.Unix(1_700_000_000, 500*int64(time.Millisecond))},
		{"float seconds", "1700000000.25", time.Unix(1_700_000_000, 250_000_000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseEventTimestamp(json.Number(tc.in))
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
		})
	}

	assert.True(t, parseEventTimestamp(json.Number("garbage")).IsZero())
}
