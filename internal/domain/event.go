package domain

import (
	"fmt"
	"time"
)

// EventKind discrimina el payload de un SignalEvent.
type EventKind int

const (
	KindWhaleTrade EventKind = iota
	KindWalletTransfer
	KindMarketResolved
)

// String devuelve el nombre del kind para logging y persistencia.
func (k EventKind) String() string {
	switch k {
	case KindWhaleTrade:
		return "whale_trade"
	case KindWalletTransfer:
		return "wallet_transfer"
	case KindMarketResolved:
		return "market_resolved"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseEventKind convierte el nombre persistido de vuelta al kind.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "whale_trade":
		return KindWhaleTrade, nil
	case "wallet_transfer":
		return KindWalletTransfer, nil
	case "market_resolved":
		return KindMarketResolved, nil
	}
	return 0, fmt.Errorf("domain.ParseEventKind: unknown kind %q", s)
}

// EnrichmentStatus indica el estado del enriquecimiento secundario de un evento.
type EnrichmentStatus string

const (
	EnrichmentPending EnrichmentStatus = "pending"
	EnrichmentOK      EnrichmentStatus = "ok"
	EnrichmentPartial EnrichmentStatus = "partial"
	EnrichmentError   EnrichmentStatus = "error"
)

// SignalEvent es una observación inmutable del feed de señales.
// Cuando el enriquecimiento se resuelve, el evento se reemplaza entero
// (nunca se mutan campos) para que la detección de cambios por referencia
// del lado UI siga funcionando.
type SignalEvent struct {
	ID         string
	DetectedAt time.Time
	Kind       EventKind
	Confidence float64 // 0..1, asignado por el backend de señales

	// Exactamente un payload es no-nil según Kind.
	Trade    *WhaleTradePayload
	Transfer *WalletTransferPayload
	Resolved *MarketResolvedPayload

	EnrichmentStatus  EnrichmentStatus
	EnrichmentVersion int // invalida derivaciones memoizadas al incrementarse
}

// WhaleTradePayload es un trade grande detectado en un mercado.
type WhaleTradePayload struct {
	Wallet      string
	AssetID     string
	MarketSlug  string
	MarketTitle string
	Category    string // "sports", "politics", ... puede venir vacío
	Outcome     string // "Yes" | "No"
	Side        string // "BUY" | "SELL"
	Price       float64
	SizeUSD     float64
}

// WalletTransferPayload es un movimiento on-chain de una wallet trackeada.
type WalletTransferPayload struct {
	Wallet    string
	Direction string // "IN" | "OUT"
	AmountUSD float64
}

// MarketResolvedPayload es la resolución de un mercado observado.
type MarketResolvedPayload struct {
	AssetID     string
	MarketSlug  string
	MarketTitle string
	Category    string
	Outcome     string
}

// WalletKey devuelve la wallet asociada al evento para el lookup de analytics.
// El switch es exhaustivo sobre Kind: un kind nuevo sin rama aquí es un bug,
// no un campo opcional que se prueba a ciegas.
func (e SignalEvent) WalletKey() (string, bool) {
	switch e.Kind {
	case KindWhaleTrade:
		if e.Trade == nil || e.Trade.Wallet == "" {
			return "", false
		}
		return e.Trade.Wallet, true
	case KindWalletTransfer:
		if e.Transfer == nil || e.Transfer.Wallet == "" {
			return "", false
		}
		return e.Transfer.Wallet, true
	case KindMarketResolved:
		return "", false
	}
	return "", false
}

// BookKey devuelve el asset ID asociado al evento para el snapshot de orderbook.
func (e SignalEvent) BookKey() (string, bool) {
	switch e.Kind {
	case KindWhaleTrade:
		if e.Trade == nil || e.Trade.AssetID == "" {
			return "", false
		}
		return e.Trade.AssetID, true
	case KindMarketResolved:
		if e.Resolved == nil || e.Resolved.AssetID == "" {
			return "", false
		}
		return e.Resolved.AssetID, true
	case KindWalletTransfer:
		return "", false
	}
	return "", false
}

// SizeUSD devuelve el tamaño monetario del evento (0 si el kind no tiene tamaño).
func (e SignalEvent) SizeUSD() float64 {
	switch e.Kind {
	case KindWhaleTrade:
		if e.Trade != nil {
			return e.Trade.SizeUSD
		}
	case KindWalletTransfer:
		if e.Transfer != nil {
			return e.Transfer.AmountUSD
		}
	case KindMarketResolved:
	}
	return 0
}

// WithEnrichment devuelve una copia del evento con el enriquecimiento resuelto
// y la versión incrementada. El original queda intacto.
func (e SignalEvent) WithEnrichment(status EnrichmentStatus) SignalEvent {
	out := e
	out.EnrichmentStatus = status
	out.EnrichmentVersion = e.EnrichmentVersion + 1
	return out
}
