package polymarket

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/feed"
)

const bookPath = "/book"

// rawBook es el book tal como lo devuelve el CLOB (precios como strings).
type rawBook struct {
	AssetID string     `json:"asset_id"`
	Bids    []rawLevel `json:"bids"`
	Asks    []rawLevel `json:"asks"`
}

type rawLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// FetchSnapshot implementa ports.BookProvider contra GET /book.
// Trunca a depth niveles por lado — el inspector no necesita más.
func (c *Client) FetchSnapshot(ctx context.Context, assetID string, depth int) (domain.BookSnapshot, error) {
	url := fmt.Sprintf("%s%s?token_id=%s", c.base, bookPath, assetID)

	var raw rawBook
	if err := c.get(ctx, c.booksLimiter, url, &raw); err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("polymarket.FetchSnapshot: %w", err)
	}
	if raw.AssetID == "" {
		return domain.BookSnapshot{}, &feed.ValidationError{
			Op:     "polymarket.FetchSnapshot",
			Reason: "response missing asset_id",
		}
	}

	return domain.BookSnapshot{
		AssetID: raw.AssetID,
		Bids:    mapLevels(raw.Bids, depth),
		Asks:    mapLevels(raw.Asks, depth),
	}, nil
}

func mapLevels(raws []rawLevel, depth int) []domain.BookLevel {
	if depth > 0 && len(raws) > depth {
		raws = raws[:depth]
	}
	out := make([]domain.BookLevel, 0, len(raws))
	for _, r := range raws {
		out = append(out, domain.BookLevel{
			Price: domain.ParsePrice(r.Price),
			Size:  domain.ParsePrice(r.Size),
		})
	}
	return out
}
