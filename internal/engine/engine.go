// Package engine secuencia el ciclo scan-decide-act completo: guards de
// capital, detección de oportunidades, sizing, ejecución rate-limited y
// reporting. Un ciclo corre siempre hasta completar (run-to-completion);
// el scheduling entre ciclos es del loop externo.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polytrader/internal/detector"
	"github.com/alejandrodnm/polytrader/internal/ledger"
	"github.com/alejandrodnm/polytrader/internal/ports"
	"github.com/alejandrodnm/polytrader/internal/ratelimit"
	"github.com/google/uuid"
)

// Config contiene los parámetros de trading del engine.
type Config struct {
	Bankroll            float64
	MispricingThreshold float64
	MaxKellyFraction    float64
	ScanInterval        time.Duration
	MaxPositions        int
	StopLossBankroll    float64

	// MinBalance es el balance operativo mínimo para arrancar un ciclo.
	MinBalance float64
	// MarketLimit y MinVolume controlan el fetch de mercados.
	MarketLimit int
	MinVolume   float64

	// DryRun simula los trades sin enviar órdenes ni abrir posiciones.
	DryRun bool
}

// Engine es el cycle controller. Todas las dependencias entran por el
// constructor: no hay estado de paquete.
type Engine struct {
	cfg      Config
	markets  ports.MarketProvider
	detector *detector.Detector
	executor ports.OrderExecutor
	ledger   *ledger.Ledger
	store    ports.Storage
	limiter  *ratelimit.OrderLimiter
	notifier ports.Notifier

	now   func() time.Time
	newID func() string
}

// New crea un Engine con todas las dependencias inyectadas.
func New(
	cfg Config,
	markets ports.MarketProvider,
	det *detector.Detector,
	executor ports.OrderExecutor,
	l *ledger.Ledger,
	store ports.Storage,
	limiter *ratelimit.OrderLimiter,
	notifier ports.Notifier,
) *Engine {
	return &Engine{
		cfg:      cfg,
		markets:  markets,
		detector: det,
		executor: executor,
		ledger:   l,
		store:    store,
		limiter:  limiter,
		notifier: notifier,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Run ejecuta ciclos al intervalo configurado hasta que el contexto se
// cancele. El primer ciclo corre inmediatamente.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.ScanInterval,
		"bankroll", e.cfg.Bankroll,
		"max_positions", e.cfg.MaxPositions,
		"dry_run", e.cfg.DryRun,
	)

	e.RunOnce(ctx)

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			e.RunOnce(ctx)
		}
	}
}
