package domain

import (
	"fmt"
	"strings"
)

// LargeTradeUSD es el umbral fijo del predicado "solo tamaño grande".
const LargeTradeUSD = 10_000.0

// sportsKeywords son los marcadores que identifican un mercado deportivo
// en cualquiera de los campos de texto libre del evento.
var sportsKeywords = []string{
	"sports", "nba", "nfl", "mlb", "nhl", "ufc", "soccer", "premier-league",
	"champions-league", "tennis", "f1", "grand-prix",
}

// FilterState es el filtro activo de la UI. Es un value object: se compara
// por valor y cambiarlo invalida el cursor de backfill.
type FilterState struct {
	MinConfidence float64
	ExcludeSports bool
	LargeOnly     bool
}

// Fingerprint devuelve una clave estable del filtro para atar el cursor
// de backfill al filtro que lo produjo.
func (f FilterState) Fingerprint() string {
	return fmt.Sprintf("c=%.3f|xs=%t|lg=%t", f.MinConfidence, f.ExcludeSports, f.LargeOnly)
}

// Visible aplica el filtro sobre los eventos y devuelve el subconjunto visible.
// Función pura: sin estado, sin caché — la ventana está acotada y recomputar
// por lectura es más barato que invalidar.
//
// Los predicados son conjunciones independientes; el check numérico más barato
// va primero.
func Visible(events []SignalEvent, f FilterState) []SignalEvent {
	out := make([]SignalEvent, 0, len(events))
	for _, e := range events {
		if passes(e, f) {
			out = append(out, e)
		}
	}
	return out
}

func passes(e SignalEvent, f FilterState) bool {
	if e.Confidence < f.MinConfidence {
		return false
	}
	if f.LargeOnly && e.SizeUSD() < LargeTradeUSD {
		return false
	}
	if f.ExcludeSports && isSportsEvent(e) {
		return false
	}
	return true
}

// isSportsEvent normaliza los campos de texto candidatos del evento
// (case-insensitive, primer match gana) en un único booleano.
func isSportsEvent(e SignalEvent) bool {
	for _, field := range categoryFields(e) {
		if field == "" {
			continue
		}
		lower := strings.ToLower(field)
		for _, kw := range sportsKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// categoryFields devuelve los campos de texto donde puede aparecer la categoría,
// en orden de prioridad según el kind.
func categoryFields(e SignalEvent) []string {
	switch e.Kind {
	case KindWhaleTrade:
		if e.Trade == nil {
			return nil
		}
		return []string{e.Trade.Category, e.Trade.MarketSlug, e.Trade.MarketTitle}
	case KindMarketResolved:
		if e.Resolved == nil {
			return nil
		}
		return []string{e.Resolved.Category, e.Resolved.MarketSlug, e.Resolved.MarketTitle}
	case KindWalletTransfer:
		// Las transferencias no pertenecen a un mercado — nunca son "sports".
		return nil
	}
	return nil
}
