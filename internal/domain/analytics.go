package domain

import "time"

// WalletClass clasifica una wallet según sus métricas de performance.
type WalletClass string

const (
	WalletElite   WalletClass = "ELITE"   // alto volumen + alto win rate
	WalletInsider WalletClass = "INSIDER" // win rate anómalo con poco volumen
	WalletWhale   WalletClass = "WHALE"   // alto volumen sin edge demostrado
)

// WalletStats son las analíticas de performance de una wallet, computadas
// por el backend. Son caras de calcular: el endpoint puede responder
// "still computing" y este layer las cachea agresivamente.
type WalletStats struct {
	Wallet         string
	TradeCount     int
	WinRate        float64 // 0..1 sobre mercados resueltos
	RealizedPnLUSD float64
	VolumeUSD      float64
	AvgTradeUSD    float64
	ComputedAt     time.Time
}

// Classification deriva la clase de la wallet a partir de sus métricas.
func (w WalletStats) Classification() WalletClass {
	const (
		eliteVolume  = 500_000
		eliteWinRate = 0.62
		insiderRate  = 0.75
	)
	switch {
	case w.VolumeUSD >= eliteVolume && w.WinRate >= eliteWinRate:
		return WalletElite
	case w.WinRate >= insiderRate && w.TradeCount >= 10:
		return WalletInsider
	default:
		return WalletWhale
	}
}
