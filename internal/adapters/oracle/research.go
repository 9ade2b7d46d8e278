package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	researchPath    = "/research"
	defaultDepth    = "standard"
	researchPerSec  = 2
	researchTimeout = 90 * time.Second
)

// Researcher implementa ports.Researcher contra un servicio de búsqueda
// tipo Perplexity.
type Researcher struct {
	baseURL string
	apiKey  string
	depth   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewResearcher crea el cliente de research.
func NewResearcher(baseURL, apiKey string) *Researcher {
	return &Researcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		depth:   defaultDepth,
		http:    &http.Client{Timeout: researchTimeout},
		limiter: rate.NewLimiter(researchPerSec, 1),
	}
}

// researchRequest es el body del POST /research.
type researchRequest struct {
	Question string `json:"question"`
	Depth    string `json:"depth"`
}

// researchResponse es la respuesta del servicio de research.
type researchResponse struct {
	Summary string `json:"summary"`
}

// Research devuelve un resumen de contexto para la pregunta dada.
func (r *Researcher) Research(ctx context.Context, question string) (string, error) {
	var resp researchResponse
	if err := postJSON(ctx, r.http, r.limiter, r.apiKey, r.baseURL+researchPath, researchRequest{
		Question: question,
		Depth:    r.depth,
	}, &resp); err != nil {
		return "", fmt.Errorf("oracle.Research: %w", err)
	}

	slog.Debug("research complete", "question", question, "chars", len(resp.Summary))
	return resp.Summary, nil
}

// StaticResearcher implementa ports.Researcher sin servicio externo:
// devuelve la propia pregunta como contexto, así el oráculo estima solo
// con lo que sabe. Se usa cuando no hay research_base configurado.
type StaticResearcher struct{}

// Research devuelve la pregunta sin contexto adicional.
func (StaticResearcher) Research(_ context.Context, question string) (string, error) {
	return question, nil
}
