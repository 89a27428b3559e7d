package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whaleterm/internal/feed"
)

func TestRetryGivesUpAfterBudget(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	calls := 0

	r := feed.NewRetryingFetcher(feed.RetryConfig{MaxRetries: 6, Delay: 1500 * time.Millisecond}, clock,
		func(_ context.Context, key string, _ bool) (string, error) {
			calls++
			return "", &feed.SoftBusyError{Key: key}
		})

	_, err := r.Fetch(context.Background(), "0xwhale", false)
	require.Error(t, err)
	assert.Equal(t, 7, calls, "intento inicial + 6 reintentos, ni uno más")
	assert.True(t, feed.IsSoftBusy(err), "el error final conserva la etiqueta blanda")
	assert.Equal(t, 6*1500*time.Millisecond, clock.Now().Sub(start))
}

func TestRetryRecoversAfterSoftBusy(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	r := feed.NewRetryingFetcher(feed.RetryConfig{MaxRetries: 6, Delay: time.Second}, clock,
		func(_ context.Context, key string, _ bool) (string, error) {
			calls++
			if calls <= 2 {
				return "", &feed.SoftBusyError{Key: key}
			}
			return "computed", nil
		})

	v, err := r.Fetch(context.Background(), "0xwhale", false)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 3, calls)
}

func TestRetryHardErrorCutsImmediately(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	hard := &feed.TransportError{Op: "hashdive.WalletStats", Err: errors.New("503")}

	r := feed.NewRetryingFetcher(feed.RetryConfig{MaxRetries: 6, Delay: time.Second}, clock,
		func(_ context.Context, _ string, _ bool) (string, error) {
			calls++
			return "", hard
		})

	_, err := r.Fetch(context.Background(), "0xwhale", false)
	assert.ErrorIs(t, err, hard)
	assert.Equal(t, 1, calls, "un error duro no consume reintentos")
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())

	r := feed.NewRetryingFetcher(feed.RetryConfig{MaxRetries: 6, Delay: time.Second}, clock,
		func(_ context.Context, key string, _ bool) (string, error) {
			calls++
			cancel() // cancelado mientras el backend sigue computando
			return "", &feed.SoftBusyError{Key: key}
		})

	_, err := r.Fetch(ctx, "0xwhale", false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
