package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

// parseEstimate extrae y valida un Estimate del texto devuelto por el LLM.
// Los modelos a veces envuelven el JSON en prosa: se intenta primero el
// recorte del primer '{' al último '}' y, si no hay llaves, el texto entero.
func parseEstimate(text string) (domain.Estimate, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return domain.Estimate{}, err
	}

	var estimate domain.Estimate
	if err := json.Unmarshal([]byte(payload), &estimate); err != nil {
		return domain.Estimate{}, fmt.Errorf("parse estimate JSON: %w", err)
	}
	if err := estimate.Validate(); err != nil {
		return domain.Estimate{}, err
	}
	return estimate, nil
}

// extractJSON recorta el objeto JSON embebido en el texto: del primer '{' al
// último '}'. Es un best-effort deliberadamente simple; si el recorte no
// decodifica, el error sube como fallo por-mercado.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty oracle response")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in oracle response")
	}
	return text[start : end+1], nil
}
