package feed

import (
	"context"
	"time"
)

// Clock abstrae el tiempo para que TTLs y timers de retry sean observables
// en tests sin esperas de reloj real.
type Clock interface {
	Now() time.Time
	// Sleep espera la duración dada respetando la cancelación del contexto.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock devuelve el reloj de producción.
func RealClock() Clock { return realClock{} }
