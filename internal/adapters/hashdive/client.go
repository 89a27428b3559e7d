package hashdive

// client.go — HTTP client de la API de Hashdive con rate limiting y retries.
//
// Hashdive limita a ~1 query/segundo; el limiter va por debajo del límite
// documentado. Los retries cubren solo fallos de transporte (429/5xx) con
// backoff exponencial — la firma blanda "still computing" NO se reintenta
// aquí: eso es trabajo del RetryingFetcher del feed, que comparte la clave
// de caché con los callers coalescidos.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/whaleterm/internal/feed"
)

const (
	defaultBase = "https://hashdive.com/api"

	// 1 req/s documentado → 0.5 req/s para no rozar el límite.
	requestsPerSec = 0.5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el cliente HTTP de Hashdive.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío usa el URL de producción.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		base:    base,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(requestsPerSec, 2),
	}
}

// get hace un GET con rate limiting y retries, decodificando JSON en out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	op := "hashdive.get"
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &feed.TransportError{Op: op, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &feed.TransportError{Op: op, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return &feed.TransportError{Op: op, Err: fmt.Errorf("after %d retries: %w", maxRetries, err)}
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by hashdive", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return &feed.TransportError{Op: op, Err: fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)}
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &feed.TransportError{Op: op, Err: fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &feed.ValidationError{Op: op, Reason: err.Error()}
		}
		return nil
	}
	return &feed.TransportError{Op: op, Err: fmt.Errorf("exhausted %d retries", maxRetries)}
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
