// Package oracle implementa el oráculo de fair value sobre un endpoint LLM
// estilo chat-completions, más el cliente de research que lo alimenta.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
	"golang.org/x/time/rate"
)

const (
	generatePath = "/generate"

	// Una llamada por mercado y ciclo: el limiter protege frente a ciclos
	// demasiado agresivos, no frente a concurrencia.
	oracleRatePerSec = 2

	defaultModel       = "claude-sonnet-4-5"
	defaultTemperature = 0.3
	defaultMaxTokens   = 500
)

// promptTemplate pide una estimación en JSON estricto. El parseo tolera texto
// alrededor del objeto, pero el prompt empuja a JSON puro.
const promptTemplate = `You are a probabilistic forecaster. Based on the research below, estimate the probability that the following event will occur:

Question: %s

Research:
%s

Provide:
1. Your probability estimate (0-100%%, as a decimal 0.0-1.0)
2. Confidence level (low/medium/high)
3. Brief reasoning (1-2 sentences)

Respond ONLY with valid JSON in this exact format:
{
    "probability": 0.67,
    "confidence": "medium",
    "reasoning": "Based on historical trends and current data..."
}`

// Config del cliente del oráculo.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client implementa ports.Oracle contra un endpoint de generación LLM.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New crea el cliente del oráculo.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(oracleRatePerSec, 1),
	}
}

// generateRequest es el body del POST /generate.
type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// generateResponse es la respuesta del endpoint de generación.
type generateResponse struct {
	Text string `json:"text"`
}

// EstimateFairValue pide al LLM una probabilidad para la pregunta dada y
// valida la respuesta: probabilidad en [0,1], confianza low/medium/high y
// reasoning presente. Cualquier respuesta malformada es un error por-mercado.
func (c *Client) EstimateFairValue(ctx context.Context, question, research string) (domain.Estimate, error) {
	prompt := fmt.Sprintf(promptTemplate, question, research)

	var resp generateResponse
	if err := postJSON(ctx, c.http, c.limiter, c.cfg.APIKey, c.cfg.BaseURL+generatePath, generateRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}, &resp); err != nil {
		return domain.Estimate{}, fmt.Errorf("oracle.EstimateFairValue: %w", err)
	}

	estimate, err := parseEstimate(resp.Text)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("oracle.EstimateFairValue: %w", err)
	}

	slog.Debug("estimate received",
		"question", question,
		"probability", estimate.Probability,
		"confidence", estimate.Confidence,
	)
	return estimate, nil
}

// postJSON hace un POST respetando el rate limiter dado.
func postJSON(ctx context.Context, hc *http.Client, limiter *rate.Limiter, apiKey, url string, body, out any) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
