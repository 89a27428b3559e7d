package hashdive

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

const eventsPath = "/get_events"

// FetchPage implementa ports.HistoryProvider contra el endpoint paginado de
// eventos. El par (timestamp_lte, before_id) es el cursor: para un cursor
// idéntico el endpoint devuelve la misma página — el loop guard del backfill
// cuenta con esa estabilidad.
func (c *Client) FetchPage(ctx context.Context, limit int, beforeTS time.Time, beforeID string, hints domain.FilterState) ([]domain.SignalEvent, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("timestamp_lte", strconv.FormatInt(beforeTS.UnixMilli(), 10))
	if beforeID != "" {
		q.Set("before_id", beforeID)
	}
	// Hints de filtro: el servidor pre-filtra lo que puede; el filtrado
	// autoritativo sigue siendo local.
	if hints.MinConfidence > 0 {
		q.Set("min_confidence", fmt.Sprintf("%.3f", hints.MinConfidence))
	}
	if hints.ExcludeSports {
		q.Set("exclude_category", "sports")
	}
	if hints.LargeOnly {
		q.Set("min_usd", fmt.Sprintf("%.0f", domain.LargeTradeUSD))
	}

	var resp eventsResponse
	if err := c.get(ctx, c.base+eventsPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("hashdive.FetchPage: %w", err)
	}

	events := mapEvents(resp.Data)
	slog.Debug("fetched history page",
		"requested", limit,
		"received", len(resp.Data),
		"mapped", len(events),
		"before_ts", beforeTS,
	)
	return events, nil
}
