package hashdive

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// mapEvents convierte eventos crudos de la API al modelo de dominio,
// descartando los de tipo desconocido o sin ID.
func mapEvents(raws []rawEvent) []domain.SignalEvent {
	out := make([]domain.SignalEvent, 0, len(raws))
	for _, r := range raws {
		e, ok := mapEvent(r)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func mapEvent(r rawEvent) (domain.SignalEvent, bool) {
	if r.ID == "" {
		return domain.SignalEvent{}, false
	}
	kind, err := domain.ParseEventKind(r.Type)
	if err != nil {
		return domain.SignalEvent{}, false
	}

	e := domain.SignalEvent{
		ID:               r.ID,
		DetectedAt:       parseEventTimestamp(r.DetectedAt),
		Kind:             kind,
		Confidence:       r.Confidence,
		EnrichmentStatus: domain.EnrichmentPending,
	}

	switch kind {
	case domain.KindWhaleTrade:
		price, _ := r.Price.Float64()
		e.Trade = &domain.WhaleTradePayload{
			Wallet:      r.UserAddress,
			AssetID:     r.AssetID,
			MarketSlug:  r.MarketSlug,
			MarketTitle: r.MarketTitle,
			Category:    r.Category,
			Outcome:     r.Outcome,
			Side:        r.Side,
			Price:       price,
			SizeUSD:     r.SizeUSD,
		}
	case domain.KindWalletTransfer:
		e.Transfer = &domain.WalletTransferPayload{
			Wallet:    r.UserAddress,
			Direction: r.Direction,
			AmountUSD: r.AmountUSD,
		}
	case domain.KindMarketResolved:
		e.Resolved = &domain.MarketResolvedPayload{
			AssetID:     r.AssetID,
			MarketSlug:  r.MarketSlug,
			MarketTitle: r.MarketTitle,
			Category:    r.Category,
			Outcome:     r.Outcome,
		}
	}
	return e, true
}

// parseEventTimestamp acepta unix en segundos o milisegundos, enteros o con
// fracción. La API solo emite timestamps numéricos: un string ISO ya habría
// fallado al decodificar el json.Number.
func parseEventTimestamp(n json.Number) time.Time {
	s := n.String()
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.Unix(sec/1000, (sec%1000)*int64(time.Millisecond))
		}
		return time.Unix(sec, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec)
	}
	return time.Time{}
}
