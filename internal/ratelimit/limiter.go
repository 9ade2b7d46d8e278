// Package ratelimit implementa el límite de envío de órdenes: como máximo
// maxOrders dentro de cualquier ventana deslizante de window segundos.
//
// La política es bloqueante, no de descarte: toda orden acaba saliendo, el
// límite solo la retrasa. Es distinto de golang.org/x/time/rate (token
// bucket), que sí se usa para el throttling de las APIs HTTP: aquí la ventana
// es estrictamente deslizante sobre timestamps de envíos reales.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// OrderLimiter mantiene los timestamps de envío ordenados (el más antiguo
// primero) y bloquea cuando la ventana está llena. No es seguro para uso
// concurrente: el ciclo de trading es single-threaded por diseño.
type OrderLimiter struct {
	maxOrders  int
	window     time.Duration
	timestamps []time.Time

	now   func() time.Time            // inyectable en tests
	sleep func(context.Context, time.Duration) error // idem
}

// New crea un OrderLimiter con el cap y la ventana dados.
func New(maxOrders int, window time.Duration) *OrderLimiter {
	return &OrderLimiter{
		maxOrders: maxOrders,
		window:    window,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Wait bloquea hasta que enviar una orden no exceda el límite. Si la ventana
// está al cap, espera exactamente hasta que el timestamp más antiguo salga de
// la ventana. Nunca descarta: devuelve error solo si el contexto se cancela.
func (l *OrderLimiter) Wait(ctx context.Context) error {
	l.prune(l.now())

	if len(l.timestamps) >= l.maxOrders {
		oldest := l.timestamps[0]
		waitFor := oldest.Add(l.window).Sub(l.now())
		if waitFor > 0 {
			slog.Warn("order rate limit reached, waiting",
				"max_orders", l.maxOrders,
				"window", l.window,
				"wait", waitFor.Round(time.Millisecond),
			)
			if err := l.sleep(ctx, waitFor); err != nil {
				return err
			}
		}
		l.prune(l.now())
	}
	return nil
}

// Record registra el envío de una orden en este instante.
func (l *OrderLimiter) Record() {
	l.timestamps = append(l.timestamps, l.now())
}

// Pending devuelve cuántos envíos siguen dentro de la ventana.
func (l *OrderLimiter) Pending() int {
	l.prune(l.now())
	return len(l.timestamps)
}

// prune descarta timestamps fuera de la ventana. El corte es inclusivo:
// un timestamp exactamente en now-window ya expiró.
func (l *OrderLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	l.timestamps = l.timestamps[i:]
}

// sleepCtx espera la duración dada respetando el contexto.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
