package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/alejandrodnm/polytrader/internal/ledger"
	"github.com/alejandrodnm/polytrader/internal/ports"
)

// Razones de abort de los guards. Un guard que falla corta el resto del ciclo
// pero el reporting corre siempre.
const (
	reasonInsufficientBalance = "insufficient balance"
	reasonStopLoss            = "stop loss triggered"
	reasonMaxPositions        = "max positions reached"
	reasonNoMarkets           = "no markets"
)

// RunOnce ejecuta un ciclo completo: refresh de precios, guards, scan,
// decisión, ejecución y reporting. Nunca devuelve error al caller: todos los
// finales de ciclo, incluidos los abortados, terminan en un resumen
// persistido con su razón.
func (e *Engine) RunOnce(ctx context.Context) domain.CycleSummary {
	start := e.now()
	slog.Info("starting scan cycle", "dry_run", e.cfg.DryRun)

	summary := domain.CycleSummary{
		Timestamp: start.UTC(),
		DryRun:    e.cfg.DryRun,
	}

	e.refreshPositionPrices(ctx)

	// --- BalanceCheck ---
	balance := e.fetchBalance(ctx)
	summary.Balance = balance
	if balance < e.cfg.MinBalance {
		slog.Warn("insufficient balance, skipping cycle", "balance", balance, "min", e.cfg.MinBalance)
		return e.report(ctx, summary, start, reasonInsufficientBalance, nil)
	}

	// --- StopLossCheck ---
	// Con los precios ya refrescados, bankroll - deployed es mark-to-market.
	if e.ledger.AvailableCapital() <= e.cfg.StopLossBankroll {
		slog.Error("stop loss triggered, trading halted",
			"available", e.ledger.AvailableCapital(),
			"stop_loss", e.cfg.StopLossBankroll,
		)
		return e.report(ctx, summary, start, reasonStopLoss, nil)
	}

	// --- CapacityCheck ---
	open := e.ledger.Count()
	slog.Info("open positions", "count", open, "max", e.cfg.MaxPositions)
	if open >= e.cfg.MaxPositions {
		slog.Info("max positions reached, skipping scan")
		return e.report(ctx, summary, start, reasonMaxPositions, nil)
	}

	// --- Scanning ---
	markets, err := e.markets.FetchMarkets(ctx, e.cfg.MarketLimit, e.cfg.MinVolume)
	if err != nil {
		slog.Error("failed to scan markets", "err", err)
		return e.report(ctx, summary, start, reasonNoMarkets, nil)
	}
	summary.MarketsScanned = len(markets)
	if len(markets) == 0 {
		slog.Warn("no markets found, skipping cycle")
		return e.report(ctx, summary, start, reasonNoMarkets, nil)
	}

	// --- Deciding ---
	candidates := e.withoutHeldMarkets(markets)
	opps := e.detector.Detect(ctx, candidates)
	summary.OpportunitiesFound = len(opps)

	maxNew := e.cfg.MaxPositions - open
	if len(opps) > maxNew {
		opps = opps[:maxNew]
	}

	// --- Executing ---
	for _, opp := range opps {
		if err := ctx.Err(); err != nil {
			break
		}
		if e.executeTrade(ctx, opp) {
			summary.TradesExecuted++
		}
	}

	return e.report(ctx, summary, start, "", opps)
}

// executeTrade dimensiona, envía y registra un trade para la oportunidad
// dada. Devuelve true si la orden se envió (o simuló) con éxito. Un fallo es
// por-trade: se loguea y las demás oportunidades del ciclo siguen.
func (e *Engine) executeTrade(ctx context.Context, opp domain.Opportunity) bool {
	size := domain.PositionSize(opp.FairValue, e.cfg.MaxKellyFraction, e.cfg.Bankroll)
	side := opp.Side()

	// La dirección viene de comparar fair vs price; el signo de Kelly debería
	// contarnos lo mismo cuando la probabilidad y el precio caen del mismo
	// lado de 0.5. Si discrepan no es fatal, pero merece quedar registrado.
	if kellyAgrees := (domain.KellyFraction(opp.FairValue) >= 0) == (side == domain.SideBuy); !kellyAgrees {
		slog.Warn("kelly sign disagrees with price direction",
			"market", opp.Market.Question,
			"fair", opp.FairValue,
			"price", opp.Price,
			"side", side,
		)
	}

	trade := domain.TradeRecord{
		ID:         e.newID(),
		Timestamp:  e.now().UTC(),
		DryRun:     e.cfg.DryRun,
		Market:     opp.Market.Question,
		MarketID:   opp.Market.ID,
		Side:       side,
		Size:       size,
		Price:      opp.Price,
		FairValue:  opp.FairValue,
		Edge:       opp.Edge,
		Confidence: opp.Confidence,
		Reasoning:  opp.Reasoning,
	}

	slog.Info("placing order",
		"market", opp.Market.Question,
		"side", side,
		"size", size,
		"price", opp.Price,
		"fair", opp.FairValue,
		"edge", opp.Edge,
		"dry_run", e.cfg.DryRun,
	)

	if e.cfg.DryRun {
		trade.Status = domain.TradeStatusSimulated
		e.appendTrade(ctx, trade)
		return true
	}

	if err := e.limiter.Wait(ctx); err != nil {
		slog.Warn("order cancelled while waiting for rate limit", "err", err)
		return false
	}

	placed, err := e.executor.PlaceOrder(ctx, ports.OrderRequest{
		MarketID: opp.Market.ID,
		Side:     side,
		Size:     size,
		Price:    opp.Price,
	})
	if err != nil {
		slog.Error("failed to place order", "market", opp.Market.Question, "err", err)
		trade.Status = domain.TradeStatusFailed
		e.appendTrade(ctx, trade)
		return false
	}
	e.limiter.Record()

	trade.OrderID = placed.OrderID
	trade.Status = domain.TradeStatus(placed.Status)
	if trade.Status == "" {
		trade.Status = domain.TradeStatusOpen
	}
	e.appendTrade(ctx, trade)

	if _, err := e.ledger.Add(ctx, opp.Market.Question, opp.Market.ID, side, opp.Price, size); err != nil {
		if errors.Is(err, ledger.ErrPositionExists) {
			slog.Warn("position already open for market", "market_id", opp.Market.ID)
		} else {
			slog.Error("failed to register position", "market_id", opp.Market.ID, "err", err)
		}
	}
	return true
}

// refreshPositionPrices actualiza el mark-to-market de las posiciones
// abiertas antes de evaluar los guards. Un fallo aquí no aborta el ciclo:
// los guards usan los últimos precios conocidos.
func (e *Engine) refreshPositionPrices(ctx context.Context) {
	ids := e.ledger.MarketIDs()
	if len(ids) == 0 {
		return
	}

	prices, err := e.markets.FetchPrices(ctx, ids)
	if err != nil {
		slog.Warn("failed to refresh position prices", "err", err)
		return
	}
	if err := e.ledger.UpdatePrices(ctx, prices); err != nil {
		slog.Warn("failed to persist refreshed prices", "err", err)
	}
}

// fetchBalance consulta el balance operativo. Un fallo se trata como balance
// cero: el guard de balance lo convierte en un abort limpio del ciclo.
func (e *Engine) fetchBalance(ctx context.Context) float64 {
	// En dry-run no hay cuenta real que consultar: el bankroll configurado
	// hace de balance simulado.
	if e.cfg.DryRun {
		return e.cfg.Bankroll
	}

	balance, err := e.executor.GetBalance(ctx)
	if err != nil {
		slog.Error("failed to check balance", "err", err)
		return 0
	}
	slog.Info("balance checked", "balance", balance)
	return balance
}

// withoutHeldMarkets filtra los mercados que ya tienen posición abierta:
// analizar un mercado que no podemos abrir gasta llamadas del oráculo.
func (e *Engine) withoutHeldMarkets(markets []domain.Market) []domain.Market {
	out := markets[:0:0]
	for _, m := range markets {
		if e.ledger.Has(m.ID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// report cierra el ciclo: calcula duración y balances, persiste el resumen
// y notifica. Corre para todos los finales de ciclo, abortados incluidos.
func (e *Engine) report(ctx context.Context, summary domain.CycleSummary, start time.Time, reason string, opps []domain.Opportunity) domain.CycleSummary {
	summary.Reason = reason
	summary.DurationSeconds = e.now().Sub(start).Seconds()
	summary.Bankroll = e.ledger.CurrentBankroll()
	summary.Deployed = e.ledger.TotalDeployed()

	if err := e.store.AppendCycle(ctx, summary); err != nil {
		slog.Warn("failed to persist cycle summary", "err", err)
	}
	if err := e.notifier.Notify(ctx, opps, e.ledger.Positions(), summary); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("scan cycle complete",
		"reason", reasonOrOK(reason),
		"markets", summary.MarketsScanned,
		"opportunities", summary.OpportunitiesFound,
		"trades", summary.TradesExecuted,
		"duration", time.Duration(summary.DurationSeconds*float64(time.Second)).Round(time.Millisecond),
	)
	return summary
}

// appendTrade persiste un registro de trade; un fallo es un warning de
// persistencia, nunca un abort del ciclo.
func (e *Engine) appendTrade(ctx context.Context, trade domain.TradeRecord) {
	if err := e.store.AppendTrade(ctx, trade); err != nil {
		slog.Warn("failed to append trade log", "trade_id", trade.ID, "err", err)
	}
}

func reasonOrOK(reason string) string {
	if reason == "" {
		return "completed"
	}
	return reason
}
