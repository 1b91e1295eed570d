// Copyright 2026 The SurgePlane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/swasthyasetu/surgeplane/internal/hospital"
	"github.com/swasthyasetu/surgeplane/internal/observability/tracing"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

const promptTemplate = `You are a hospital surge prediction AI. Based on this data, predict patient inflow for next 7 days.
Return ONLY valid JSON matching this exact structure:
{
    "next_7_days": [{"date": "YYYY-MM-DD", "expected_patients": int, "confidence": int, "alert": "Normal|High|Critical", "reason": "string or null"}],
    "factors": ["string"]
}

Global Events: %s
Hospital Metrics: %s
`

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig selects the model and sampling temperature.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiGenerator asks a Gemini model for a forecast grounded on the
// national alert and the hospital's latest metrics.
type GeminiGenerator struct {
	models      contentGenerator
	model       string
	temperature float32
	events      hospital.EventsRepository
	metrics     hospital.MetricsRepository
}

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, events hospital.EventsRepository, metrics hospital.MetricsRepository) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg, events, metrics), nil
}

func newGeminiGenerator(models contentGenerator, cfg GeminiConfig, events hospital.EventsRepository, metrics hospital.MetricsRepository) *GeminiGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.3
	}
	return &GeminiGenerator{
		models:      models,
		model:       model,
		temperature: temp,
		events:      events,
		metrics:     metrics,
	}
}

func (g *GeminiGenerator) Predict(ctx context.Context, tenantID string) (f *Forecast, err error) {
	ctx, span := tracing.Start(ctx, "forecast.gemini", tenantID, attribute.String("gemini.model", g.model))
	defer func() { tracing.End(span, err) }()

	prompt, err := g.prompt(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	temp := g.temperature
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	return parseForecast(responseText(resp))
}

func (g *GeminiGenerator) prompt(ctx context.Context, tenantID string) (string, error) {
	events, err := g.events.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load global events: %w", err)
	}

	var metrics any = struct{}{}
	m, err := g.metrics.Get(ctx, tenantID)
	switch {
	case err == nil:
		metrics = m
	case !errors.Is(err, hospital.ErrMetricsNotFound):
		return "", fmt.Errorf("failed to load hospital metrics: %w", err)
	}

	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(promptTemplate, eventsJSON, metricsJSON), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// parseForecast decodes model output, tolerating a markdown code fence.
func parseForecast(raw string) (*Forecast, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrInvalidForecast)
	}

	var f Forecast
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidForecast, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
