package domain

import "fmt"

// Confidence es el nivel de confianza declarado por el oráculo.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid devuelve true si el nivel es uno de los tres permitidos.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Estimate es la estimación independiente de fair value para un mercado.
// Se produce fresca por mercado y por ciclo; nunca se persiste más allá
// de la decisión.
type Estimate struct {
	Probability float64    `json:"probability"`
	Confidence  Confidence `json:"confidence"`
	Reasoning   string     `json:"reasoning"`
}

// Validate comprueba que la respuesta del oráculo está bien formada:
// probabilidad en [0,1] y confianza con una de las tres etiquetas.
func (e Estimate) Validate() error {
	if e.Probability < 0 || e.Probability > 1 {
		return fmt.Errorf("domain.Estimate: probability %.4f out of range [0,1]", e.Probability)
	}
	if !e.Confidence.Valid() {
		return fmt.Errorf("domain.Estimate: invalid confidence %q", e.Confidence)
	}
	if e.Reasoning == "" {
		return fmt.Errorf("domain.Estimate: missing reasoning")
	}
	return nil
}
