package domain

import "time"

// TradeStatus es el estado de una orden enviada (o simulada).
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusSimulated TradeStatus = "simulated"
	TradeStatusFailed    TradeStatus = "failed"
)

// TradeRecord es una entrada inmutable del log de trades. Se escribe una vez
// por orden enviada (o simulada) y nunca se muta: sirve para auditoría, no
// para decisiones.
type TradeRecord struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	DryRun     bool        `json:"dryRun"`
	Market     string      `json:"market"`
	MarketID   string      `json:"marketId"`
	Side       Side        `json:"side"`
	Size       float64     `json:"size"`
	Price      float64     `json:"price"`
	FairValue  float64     `json:"fairValue"`
	Edge       float64     `json:"edge"`
	Confidence Confidence  `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
	OrderID    string      `json:"orderId,omitempty"`
	Status     TradeStatus `json:"status"`
}

// CycleSummary es el resumen persistido de un ciclo scan-decide-act,
// se escriba como se escriba el final del ciclo (guard o ejecución).
type CycleSummary struct {
	Timestamp          time.Time `json:"timestamp"`
	DryRun             bool      `json:"dryRun"`
	Reason             string    `json:"reason,omitempty"` // vacío si el ciclo completó
	MarketsScanned     int       `json:"marketsScanned"`
	OpportunitiesFound int       `json:"opportunitiesFound"`
	TradesExecuted     int       `json:"tradesExecuted"`
	DurationSeconds    float64   `json:"durationSeconds"`
	Balance            float64   `json:"balance"`
	Bankroll           float64   `json:"bankroll"`
	Deployed           float64   `json:"deployed"`
}
