// Package push conecta la fuente de eventos en vivo por websocket.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/whaleterm/internal/domain"
)

// Source implementa ports.LiveSource sobre un websocket. La reconexión es
// responsabilidad del caller: Run entrega batches hasta que el transporte
// falle o el contexto se cancele, y devuelve el error de lectura tal cual.
type Source struct {
	url    string
	dialer *websocket.Dialer
}

// NewSource crea una fuente apuntando al URL dado.
func NewSource(url string) *Source {
	return &Source{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// rawPushEvent es el shape de cable del feed en vivo. Mismo contrato que la
// API de historia, pero empujado en batches posiblemente desordenados y con
// duplicados.
type rawPushEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	DetectedAt json.Number     `json:"detected_at"`
	Confidence float64         `json:"confidence"`
	Payload    json.RawMessage `json:"payload"`
}

// Run consume el websocket entregando cada batch decodificado al sink.
func (s *Source) Run(ctx context.Context, sink func(batch []domain.SignalEvent)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("push.Run: dial %s: %w", s.url, err)
	}
	defer conn.Close()

	// Contexto por conexión: el watcher muere con la conexión, no con la
	// sesión — un Run que retorna por error de lectura no deja goroutines.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cerrar la conexión al cancelar el contexto desbloquea ReadMessage.
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	slog.Info("live push source connected", "url", s.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("push.Run: read: %w", err)
		}

		batch, err := decodeBatch(data)
		if err != nil {
			// Un frame malformado no tira la conexión entera.
			slog.Warn("dropping malformed push frame", "err", err)
			continue
		}
		if len(batch) > 0 {
			sink(batch)
		}
	}
}

// decodeBatch decodifica un frame (array de eventos) al modelo de dominio.
func decodeBatch(data []byte) ([]domain.SignalEvent, error) {
	var raws []rawPushEvent
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("push.decodeBatch: %w", err)
	}

	out := make([]domain.SignalEvent, 0, len(raws))
	for _, r := range raws {
		e, ok := decodeEvent(r)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeEvent(r rawPushEvent) (domain.SignalEvent, bool) {
	if r.ID == "" {
		return domain.SignalEvent{}, false
	}
	kind, err := domain.ParseEventKind(r.Type)
	if err != nil {
		return domain.SignalEvent{}, false
	}

	e := domain.SignalEvent{
		ID:               r.ID,
		DetectedAt:       parsePushTimestamp(r.DetectedAt),
		Kind:             kind,
		Confidence:       r.Confidence,
		EnrichmentStatus: domain.EnrichmentPending,
	}

	switch kind {
	case domain.KindWhaleTrade:
		var p rawTradePayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return domain.SignalEvent{}, false
		}
		e.Trade = &domain.WhaleTradePayload{
			Wallet:      p.UserAddress,
			AssetID:     p.AssetID,
			MarketSlug:  p.MarketSlug,
			MarketTitle: p.MarketTitle,
			Category:    p.Category,
			Outcome:     p.Outcome,
			Side:        p.Side,
			Price:       p.Price,
			SizeUSD:     p.SizeUSD,
		}
	case domain.KindWalletTransfer:
		var p rawTransferPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return domain.SignalEvent{}, false
		}
		e.Transfer = &domain.WalletTransferPayload{
			Wallet:    p.UserAddress,
			Direction: p.Direction,
			AmountUSD: p.AmountUSD,
		}
	case domain.KindMarketResolved:
		var p rawResolvedPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return domain.SignalEvent{}, false
		}
		e.Resolved = &domain.MarketResolvedPayload{
			AssetID:     p.AssetID,
			MarketSlug:  p.MarketSlug,
			MarketTitle: p.MarketTitle,
			Category:    p.Category,
			Outcome:     p.Outcome,
		}
	}
	return e, true
}

type rawTradePayload struct {
	UserAddress string  `json:"user_address"`
	AssetID     string  `json:"asset_id"`
	MarketSlug  string  `json:"market_slug"`
	MarketTitle string  `json:"market_title"`
	Category    string  `json:"category"`
	Outcome     string  `json:"outcome"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	SizeUSD     float64 `json:"size_usd"`
}

type rawTransferPayload struct {
	UserAddress string  `json:"user_address"`
	Direction   string  `json:"direction"`
	AmountUSD   float64 `json:"amount_usd"`
}

type rawResolvedPayload struct {
	AssetID     string `json:"asset_id"`
	MarketSlug  string `json:"market_slug"`
	MarketTitle string `json:"market_title"`
	Category    string `json:"category"`
	Outcome     string `json:"outcome"`
}

func parsePushTimestamp(n json.Number) time.Time {
	ms, err := n.Int64()
	if err != nil {
		return time.Time{}
	}
	if ms > 1e12 {
		return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond))
	}
	return time.Unix(ms, 0)
}
