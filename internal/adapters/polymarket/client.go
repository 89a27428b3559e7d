package polymarket

// client.go — HTTP client del CLOB de Polymarket con rate limiting y retries.
//
// Este layer solo toca dos endpoints: /book (snapshots, frecuente y barato)
// y /order (envío passthrough, esporádico). Cada uno con su limiter — los
// snapshots no deben poder desplazar a un envío de orden.

import (
	"bytes"
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
	defaultCLOBBase = "https://clob.polymarket.com"

	// CLOB /book: 500/10s documentado → 60% → 30/s.
	booksRatePerSec  = 30
	ordersRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el cliente HTTP del CLOB.
type Client struct {
	http          *http.Client
	base          string
	booksLimiter  *rate.Limiter
	ordersLimiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío usa el URL de producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultCLOBBase
	}
	return &Client{
		http:          &http.Client{Timeout: 10 * time.Second},
		base:          base,
		booksLimiter:  rate.NewLimiter(booksRatePerSec, 5),
		ordersLimiter: rate.NewLimiter(ordersRatePerSec, 1),
	}
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, limiter *rate.Limiter, url string, body, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	op := "polymarket.request"
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return &feed.TransportError{Op: op, Err: err}
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return &feed.TransportError{Op: op, Err: fmt.Errorf("after %d retries: %w", maxRetries, err)}
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by CLOB", "attempt", attempt+1)
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
