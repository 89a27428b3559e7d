package domain

import "strconv"

// BookSnapshot es una foto puntual del libro de órdenes de un asset.
// Se asume barata de obtener y con tolerancia a staleness corta — el TTL
// de su caché es mucho menor que el de analytics.
type BookSnapshot struct {
	AssetID string
	Bids    []BookLevel // ordenados mayor a menor precio
	Asks    []BookLevel // ordenados menor a mayor precio
}

// BookLevel es un nivel de precio del libro.
type BookLevel struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si el book está vacío.
func (b BookSnapshot) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si el book está vacío.
func (b BookSnapshot) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (b BookSnapshot) Midpoint() float64 {
	bid := b.BestBid()
	ask := b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread devuelve el spread del book (ask - bid).
func (b BookSnapshot) Spread() float64 {
	bid := b.BestBid()
	ask := b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// DepthWithinUSDC calcula el valor en USDC (size × price) de las órdenes
// dentro de un spread dado respecto al midpoint. El inspector lo usa para
// mostrar la liquidez real alrededor del precio.
func (b BookSnapshot) DepthWithinUSDC(maxSpread float64) float64 {
	mid := b.Midpoint()
	if mid == 0 {
		return 0
	}
	var total float64
	for _, lvl := range b.Bids {
		if mid-lvl.Price <= maxSpread {
			total += lvl.Size * lvl.Price
		}
	}
	for _, lvl := range b.Asks {
		if lvl.Price-mid <= maxSpread {
			total += lvl.Size * lvl.Price
		}
	}
	return total
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping de la API.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
