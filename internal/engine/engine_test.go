package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polytrader/internal/detector"
	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/alejandrodnm/polytrader/internal/engine"
	"github.com/alejandrodnm/polytrader/internal/ledger"
	"github.com/alejandrodnm/polytrader/internal/ports"
	"github.com/alejandrodnm/polytrader/internal/ratelimit"
)

// --- Mocks ---

type mockProvider struct {
	markets      []domain.Market
	fetchErr     error
	fetchCalls   int
	prices       map[string]float64
	priceCalls   int
	priceQueries [][]string
}

func (m *mockProvider) FetchMarkets(_ context.Context, _ int, _ float64) ([]domain.Market, error) {
	m.fetchCalls++
	return m.markets, m.fetchErr
}

func (m *mockProvider) FetchPrices(_ context.Context, ids []string) (map[string]float64, error) {
	m.priceCalls++
	m.priceQueries = append(m.priceQueries, ids)
	return m.prices, nil
}

type mockExecutor struct {
	balance    float64
	balanceErr error
	placeErr   map[string]error
	placed     []ports.OrderRequest
}

func (m *mockExecutor) PlaceOrder(_ context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	if err := m.placeErr[req.MarketID]; err != nil {
		return ports.PlacedOrder{}, err
	}
	m.placed = append(m.placed, req)
	return ports.PlacedOrder{OrderID: "ord-" + req.MarketID, Status: "open"}, nil
}

func (m *mockExecutor) GetBalance(_ context.Context) (float64, error) {
	return m.balance, m.balanceErr
}

type mockStore struct {
	positions []domain.Position
	trades    []domain.TradeRecord
	cycles    []domain.CycleSummary
}

func (m *mockStore) LoadPositions(_ context.Context) ([]domain.Position, error) {
	return m.positions, nil
}

func (m *mockStore) SavePositions(_ context.Context, positions []domain.Position) error {
	m.positions = positions
	return nil
}

func (m *mockStore) AppendTrade(_ context.Context, trade domain.TradeRecord) error {
	m.trades = append(m.trades, trade)
	return nil
}

func (m *mockStore) AppendCycle(_ context.Context, summary domain.CycleSummary) error {
	m.cycles = append(m.cycles, summary)
	return nil
}

func (m *mockStore) Close() error { return nil }

type mockNotifier struct {
	calls     int
	lastOpps  []domain.Opportunity
	lastSumm  domain.CycleSummary
	lastCount int
}

func (m *mockNotifier) Notify(_ context.Context, opps []domain.Opportunity, positions []domain.Position, summary domain.CycleSummary) error {
	m.calls++
	m.lastOpps = opps
	m.lastSumm = summary
	m.lastCount = len(positions)
	return nil
}

type mockResearcher struct {
	calls int
}

func (m *mockResearcher) Research(_ context.Context, question string) (string, error) {
	m.calls++
	return "contexto para " + question, nil
}

type mockOracle struct {
	estimates map[string]domain.Estimate
	calls     int
}

func (m *mockOracle) EstimateFairValue(_ context.Context, question, _ string) (domain.Estimate, error) {
	m.calls++
	est, ok := m.estimates[question]
	if !ok {
		return domain.Estimate{}, errors.New("sin estimación")
	}
	return est, nil
}

// --- Helpers ---

type fixture struct {
	engine     *engine.Engine
	provider   *mockProvider
	executor   *mockExecutor
	store      *mockStore
	notifier   *mockNotifier
	oracle     *mockOracle
	researcher *mockResearcher
	ledger     *ledger.Ledger
}

func newFixture(t *testing.T, cfg engine.Config) *fixture {
	t.Helper()

	provider := &mockProvider{}
	executor := &mockExecutor{balance: 500}
	store := &mockStore{}
	notifier := &mockNotifier{}
	oracle := &mockOracle{estimates: map[string]domain.Estimate{}}
	researcher := &mockResearcher{}

	l := ledger.New(context.Background(), store, cfg.Bankroll)
	det := detector.New(detector.Config{MispricingThreshold: cfg.MispricingThreshold}, researcher, oracle)
	eng := engine.New(cfg, provider, det, executor, l, store, ratelimit.New(60, time.Minute), notifier)

	return &fixture{
		engine:     eng,
		provider:   provider,
		executor:   executor,
		store:      store,
		notifier:   notifier,
		oracle:     oracle,
		researcher: researcher,
		ledger:     l,
	}
}

func defaultConfig() engine.Config {
	return engine.Config{
		Bankroll:            1000,
		MispricingThreshold: 0.15,
		MaxKellyFraction:    0.10,
		ScanInterval:        time.Hour,
		MaxPositions:        5,
		StopLossBankroll:    100,
		MinBalance:          1,
		MarketLimit:         500,
		MinVolume:           1000,
	}
}

func estimate(p float64) domain.Estimate {
	return domain.Estimate{Probability: p, Confidence: domain.ConfidenceHigh, Reasoning: "análisis"}
}

// --- Tests ---

func TestRunOnceInsufficientBalanceSkipsScan(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.executor.balance = 0.5

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "insufficient balance", summary.Reason)
	assert.Equal(t, 0, f.provider.fetchCalls)
	assert.Equal(t, 0, summary.TradesExecuted)

	// El reporting corre incluso en ciclos abortados.
	require.Len(t, f.store.cycles, 1)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestRunOnceBalanceErrorTreatedAsZero(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.executor.balanceErr = errors.New("gateway down")

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "insufficient balance", summary.Reason)
	assert.Zero(t, summary.Balance)
	assert.Equal(t, 0, f.provider.fetchCalls)
}

func TestRunOnceStopLossHaltsTrading(t *testing.T) {
	f := newFixture(t, defaultConfig())

	// Posición BUY a 0.50 con $500: el precio cae a 0.05 y el PnL es
	// (0.05-0.50)*1000 = -450. Bankroll 550, deployed 500, disponible 50.
	_, err := f.ledger.Add(context.Background(), "¿Market?", "mkt-1", domain.SideBuy, 0.50, 500)
	require.NoError(t, err)
	f.provider.prices = map[string]float64{"mkt-1": 0.05}

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "stop loss triggered", summary.Reason)
	assert.Equal(t, 0, f.provider.fetchCalls)
	assert.Empty(t, f.executor.placed)
	require.Len(t, f.store.cycles, 1)
}

func TestRunOnceMaxPositionsSkipsScan(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPositions = 1
	f := newFixture(t, cfg)

	_, err := f.ledger.Add(context.Background(), "¿Market?", "mkt-1", domain.SideBuy, 0.50, 100)
	require.NoError(t, err)

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "max positions reached", summary.Reason)
	assert.Equal(t, 0, f.provider.fetchCalls)
	assert.Equal(t, 1, f.notifier.lastCount)
}

func TestRunOnceNoMarketsAbortsBeforeOracle(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.provider.markets = nil

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "no markets", summary.Reason)
	assert.Equal(t, 1, f.provider.fetchCalls)
	assert.Equal(t, 0, f.oracle.calls)
	assert.Equal(t, 0, f.researcher.calls)
}

func TestRunOnceScanErrorAborts(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.provider.fetchErr = errors.New("api caída")

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, "no markets", summary.Reason)
	assert.Equal(t, 0, summary.MarketsScanned)
}

func TestRunOnceDryRunSimulatesWithoutOrders(t *testing.T) {
	cfg := defaultConfig()
	cfg.DryRun = true
	f := newFixture(t, cfg)

	f.provider.markets = []domain.Market{
		{ID: "mkt-1", Question: "¿Subirá?", Price: 0.30, Volume24h: 50000},
	}
	f.oracle.estimates["¿Subirá?"] = estimate(0.60)

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, 1, summary.TradesExecuted)
	assert.Empty(t, f.executor.placed)
	assert.Equal(t, 0, f.ledger.Count())

	require.Len(t, f.store.trades, 1)
	trade := f.store.trades[0]
	assert.Equal(t, domain.TradeStatusSimulated, trade.Status)
	assert.True(t, trade.DryRun)
	assert.Equal(t, domain.SideBuy, trade.Side)
}

func TestRunOncePlacesOrderAndOpensPosition(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.provider.markets = []domain.Market{
		{ID: "mkt-1", Question: "¿Subirá?", Price: 0.30, Volume24h: 50000},
	}
	f.oracle.estimates["¿Subirá?"] = estimate(0.60)

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, 1, summary.MarketsScanned)
	assert.Equal(t, 1, summary.OpportunitiesFound)
	assert.Equal(t, 1, summary.TradesExecuted)

	require.Len(t, f.executor.placed, 1)
	order := f.executor.placed[0]
	assert.Equal(t, "mkt-1", order.MarketID)
	assert.Equal(t, domain.SideBuy, order.Side)
	// Kelly en 0.60: fracción 0.20, cuarto 0.05, por debajo del cap 0.10.
	assert.InDelta(t, 50.0, order.Size, 0.001)
	assert.Equal(t, 0.30, order.Price)

	assert.True(t, f.ledger.Has("mkt-1"))
	require.Len(t, f.store.trades, 1)
	assert.Equal(t, domain.TradeStatusOpen, f.store.trades[0].Status)
	assert.Equal(t, "ord-mkt-1", f.store.trades[0].OrderID)

	require.Len(t, f.notifier.lastOpps, 1)
	assert.Equal(t, "mkt-1", f.notifier.lastOpps[0].Market.ID)
}

func TestRunOnceOrderFailureDoesNotAbortCycle(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.provider.markets = []domain.Market{
		{ID: "mkt-1", Question: "¿A?", Price: 0.20, Volume24h: 50000},
		{ID: "mkt-2", Question: "¿B?", Price: 0.30, Volume24h: 50000},
	}
	// mkt-1 tiene más edge y se ejecuta primero; su orden falla.
	f.oracle.estimates["¿A?"] = estimate(0.70)
	f.oracle.estimates["¿B?"] = estimate(0.60)
	f.executor.placeErr = map[string]error{"mkt-1": errors.New("rejected")}

	summary := f.engine.RunOnce(context.Background())

	assert.Equal(t, 2, summary.OpportunitiesFound)
	assert.Equal(t, 1, summary.TradesExecuted)

	require.Len(t, f.executor.placed, 1)
	assert.Equal(t, "mkt-2", f.executor.placed[0].MarketID)

	// Ambos intentos quedan en el log: el fallido con status failed.
	require.Len(t, f.store.trades, 2)
	assert.Equal(t, domain.TradeStatusFailed, f.store.trades[0].Status)
	assert.Equal(t, domain.TradeStatusOpen, f.store.trades[1].Status)

	assert.False(t, f.ledger.Has("mkt-1"))
	assert.True(t, f.ledger.Has("mkt-2"))
}

func TestRunOnceSkipsHeldMarkets(t *testing.T) {
	f := newFixture(t, defaultConfig())

	_, err := f.ledger.Add(context.Background(), "¿A?", "mkt-1", domain.SideBuy, 0.20, 50)
	require.NoError(t, err)
	f.provider.prices = map[string]float64{"mkt-1": 0.20}
	f.provider.markets = []domain.Market{
		{ID: "mkt-1", Question: "¿A?", Price: 0.20, Volume24h: 50000},
		{ID: "mkt-2", Question: "¿B?", Price: 0.30, Volume24h: 50000},
	}
	f.oracle.estimates["¿A?"] = estimate(0.70)
	f.oracle.estimates["¿B?"] = estimate(0.60)

	f.engine.RunOnce(context.Background())

	// El mercado ya en cartera no gasta llamadas del oráculo.
	assert.Equal(t, 1, f.oracle.calls)
	require.Len(t, f.executor.placed, 1)
	assert.Equal(t, "mkt-2", f.executor.placed[0].MarketID)
}

func TestRunOnceTruncatesToRemainingCapacity(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPositions = 2
	f := newFixture(t, cfg)

	_, err := f.ledger.Add(context.Background(), "¿Held?", "mkt-0", domain.SideBuy, 0.50, 100)
	require.NoError(t, err)
	f.provider.prices = map[string]float64{"mkt-0": 0.50}
	f.provider.markets = []domain.Market{
		{ID: "mkt-1", Question: "¿A?", Price: 0.20, Volume24h: 50000},
		{ID: "mkt-2", Question: "¿B?", Price: 0.30, Volume24h: 50000},
	}
	f.oracle.estimates["¿A?"] = estimate(0.70)
	f.oracle.estimates["¿B?"] = estimate(0.60)

	summary := f.engine.RunOnce(context.Background())

	// Solo queda hueco para una posición nueva; gana la de mayor edge.
	assert.Equal(t, 1, summary.TradesExecuted)
	require.Len(t, f.executor.placed, 1)
	assert.Equal(t, "mkt-1", f.executor.placed[0].MarketID)
}

func TestRunOnceRefreshesPositionPrices(t *testing.T) {
	f := newFixture(t, defaultConfig())

	_, err := f.ledger.Add(context.Background(), "¿A?", "mkt-1", domain.SideBuy, 0.40, 100)
	require.NoError(t, err)
	f.provider.prices = map[string]float64{"mkt-1": 0.60}

	summary := f.engine.RunOnce(context.Background())

	require.Equal(t, 1, f.provider.priceCalls)
	assert.Equal(t, []string{"mkt-1"}, f.provider.priceQueries[0])

	// BUY a 0.40 con $100: 250 shares, PnL (0.60-0.40)*250 = +50.
	assert.InDelta(t, 50.0, f.ledger.TotalUnrealizedPnL(), 0.001)
	assert.InDelta(t, 1050.0, summary.Bankroll, 0.001)
}
