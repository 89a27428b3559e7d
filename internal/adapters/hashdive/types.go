package hashdive

import "encoding/json"

// rawEvent es un evento del feed tal como lo devuelve la API.
// Los campos de payload son opcionales según type.
type rawEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"` // "whale_trade" | "wallet_transfer" | "market_resolved"
	DetectedAt json.Number `json:"detected_at"`
	Confidence float64     `json:"confidence"`

	UserAddress string      `json:"user_address"`
	AssetID     string      `json:"asset_id"`
	MarketSlug  string      `json:"market_slug"`
	MarketTitle string      `json:"market_title"`
	Category    string      `json:"category"`
	Outcome     string      `json:"outcome"`
	Side        string      `json:"side"`
	Price       json.Number `json:"price"`
	SizeUSD     float64     `json:"size_usd"`
	Direction   string      `json:"direction"`
	AmountUSD   float64     `json:"amount_usd"`
}

type eventsResponse struct {
	Data []rawEvent `json:"data"`
}

// rawWalletStats es la respuesta de /wallet_stats. Status "computing" es la
// firma blanda: el backend aceptó pero el resultado aún no existe.
type rawWalletStats struct {
	Status         string      `json:"status"` // "ok" | "computing"
	Wallet         string      `json:"wallet"`
	TradeCount     int         `json:"trade_count"`
	WinRate        float64     `json:"win_rate"`
	RealizedPnLUSD float64     `json:"realized_pnl_usd"`
	VolumeUSD      float64     `json:"volume_usd"`
	AvgTradeUSD    float64     `json:"avg_trade_usd"`
	ComputedAt     json.Number `json:"computed_at"`
}
