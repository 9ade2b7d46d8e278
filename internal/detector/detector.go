// Package detector analiza mercados en busca de mispricing: pide research y
// una estimación de fair value por mercado, y acepta los que superan el
// umbral de edge con confianza suficiente.
package detector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	"github.com/alejandrodnm/polytrader/internal/ports"
)

const defaultMaxMarkets = 50

// Config controla el comportamiento del detector.
type Config struct {
	// MispricingThreshold es el edge mínimo |fair - price| para aceptar.
	MispricingThreshold float64

	// MaxMarkets limita cuántos mercados se analizan por ciclo. Cada
	// análisis cuesta una llamada de research y una del oráculo: el cap
	// acota el coste, no la calidad.
	MaxMarkets int
}

// Detector encuentra oportunidades consultando al oráculo mercado a mercado.
type Detector struct {
	cfg        Config
	researcher ports.Researcher
	oracle     ports.Oracle

	now func() time.Time
}

// New crea un Detector con las dependencias inyectadas.
func New(cfg Config, researcher ports.Researcher, oracle ports.Oracle) *Detector {
	if cfg.MaxMarkets <= 0 {
		cfg.MaxMarkets = defaultMaxMarkets
	}
	return &Detector{
		cfg:        cfg,
		researcher: researcher,
		oracle:     oracle,
		now:        time.Now,
	}
}

// Detect analiza hasta MaxMarkets mercados y devuelve las oportunidades
// aceptadas ordenadas por edge descendente. Los fallos del oráculo o del
// research son por-mercado: se registran y el loop continúa. El análisis es
// deliberadamente secuencial para acotar el volumen de llamadas al oráculo.
func (d *Detector) Detect(ctx context.Context, markets []domain.Market) []domain.Opportunity {
	limit := min(len(markets), d.cfg.MaxMarkets)
	slog.Info("analyzing markets for opportunities", "candidates", limit, "total", len(markets))

	var opps []domain.Opportunity
	for _, market := range markets[:limit] {
		if err := ctx.Err(); err != nil {
			break
		}

		opp, ok := d.analyze(ctx, market)
		if !ok {
			continue
		}
		opps = append(opps, opp)

		slog.Info("opportunity found",
			"market", market.Question,
			"fair", opp.FairValue,
			"price", opp.Price,
			"edge", opp.Edge,
			"confidence", opp.Confidence,
		)
	}

	// Mejor edge primero: cuando hay más oportunidades que capacidad,
	// el engine trunca y queremos quedarnos con las más mispriced.
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].Edge > opps[j].Edge
	})

	slog.Info("market analysis complete", "analyzed", limit, "opportunities", len(opps))
	return opps
}

// analyze procesa un solo mercado. Devuelve ok=false si se salta.
func (d *Detector) analyze(ctx context.Context, market domain.Market) (domain.Opportunity, bool) {
	research, err := d.researcher.Research(ctx, market.Question)
	if err != nil {
		slog.Warn("skipping market: research failed", "market", market.Question, "err", err)
		return domain.Opportunity{}, false
	}
	if research == "" {
		slog.Warn("skipping market: no research", "market", market.Question)
		return domain.Opportunity{}, false
	}

	estimate, err := d.oracle.EstimateFairValue(ctx, market.Question, research)
	if err != nil {
		slog.Warn("skipping market: no estimate", "market", market.Question, "err", err)
		return domain.Opportunity{}, false
	}

	// Confianza baja descalifica aunque el edge sea grande: se prioriza
	// precisión sobre cobertura.
	if estimate.Confidence == domain.ConfidenceLow {
		slog.Info("skipping low-confidence estimate", "market", market.Question)
		return domain.Opportunity{}, false
	}

	opp := domain.NewOpportunity(market, estimate, d.now().UTC())
	if opp.Edge < d.cfg.MispricingThreshold {
		slog.Debug("edge below threshold", "market", market.Question, "edge", opp.Edge)
		return domain.Opportunity{}, false
	}
	return opp, true
}
