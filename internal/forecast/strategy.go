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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/swasthyasetu/surgeplane/internal/cache"
	"github.com/swasthyasetu/surgeplane/internal/observability/logger"
	"github.com/swasthyasetu/surgeplane/internal/observability/tracing"
)

// FallbackGenerator serves the fallback forecast whenever the primary fails.
type FallbackGenerator struct {
	primary  Generator
	fallback Generator
	logger   *slog.Logger
}

func NewFallbackGenerator(primary, fallback Generator, l *slog.Logger) *FallbackGenerator {
	if l == nil {
		l = slog.Default()
	}
	return &FallbackGenerator{primary: primary, fallback: fallback, logger: l}
}

func (g *FallbackGenerator) Predict(ctx context.Context, tenantID string) (*Forecast, error) {
	f, err := g.primary.Predict(ctx, tenantID)
	if err == nil {
		return f, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	g.logger.WarnContext(ctx, "primary forecast failed, using fallback",
		logger.Component("forecast"),
		logger.TenantID(tenantID),
		logger.Error(err),
	)
	return g.fallback.Predict(ctx, tenantID)
}

const keyPrefix = "forecast"

// CachingGenerator memoizes forecasts per hospital for ttl.
// Cache failures are logged and bypassed.
type CachingGenerator struct {
	next   Generator
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachingGenerator(next Generator, c cache.Cache, ttl time.Duration, l *slog.Logger) *CachingGenerator {
	if l == nil {
		l = slog.Default()
	}
	return &CachingGenerator{next: next, cache: c, ttl: ttl, logger: l}
}

func cacheKey(tenantID string) string {
	return cache.Key(keyPrefix, tenantID)
}

func (g *CachingGenerator) Predict(ctx context.Context, tenantID string) (*Forecast, error) {
	ctx, span := tracing.Start(ctx, "forecast.predict", tenantID)
	key := cacheKey(tenantID)

	raw, err := g.cache.Get(ctx, key)
	switch {
	case err == nil:
		var f Forecast
		if jerr := json.Unmarshal(raw, &f); jerr == nil {
			span.SetAttributes(attribute.Bool("forecast.cache_hit", true))
			tracing.End(span, nil)
			return &f, nil
		}
		_ = g.cache.Delete(ctx, key)
	case !errors.Is(err, cache.ErrCacheMiss):
		g.logger.WarnContext(ctx, "forecast cache read failed", logger.Component("forecast"), logger.Error(err))
	}

	span.SetAttributes(attribute.Bool("forecast.cache_hit", false))
	f, err := g.next.Predict(ctx, tenantID)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(f); err == nil {
		if err := g.cache.Set(ctx, key, data, g.ttl); err != nil {
			g.logger.WarnContext(ctx, "forecast cache write failed", logger.Component("forecast"), logger.Error(err))
		}
	}
	return f, nil
}

// Invalidate drops the cached forecast of one hospital.
func (g *CachingGenerator) Invalidate(ctx context.Context, tenantID string) error {
	return g.cache.Delete(ctx, cacheKey(tenantID))
}

// InvalidateAll drops every cached forecast.
func (g *CachingGenerator) InvalidateAll(ctx context.Context) error {
	return g.cache.Clear(ctx, keyPrefix+":*")
}
