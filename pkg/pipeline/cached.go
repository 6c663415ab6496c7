package pipeline

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/trestle/pkg/cache"
	"github.com/chazu/trestle/pkg/scene"
)

// CachedGenerator memoizes a Generator by the SHA-256 of the decomposition.
// Cache failures are logged and fall through to the wrapped generator.
type CachedGenerator struct {
	Inner  Generator
	Cache  cache.Cache
	TTL    time.Duration
	Logger *log.Logger
}

func (g *CachedGenerator) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard)
	}
	return g.Logger
}

func (g *CachedGenerator) Generate(ctx context.Context, d *Decomposition) ([]scene.Component, error) {
	key, err := cache.Key("generate", d)
	if err != nil {
		g.logger().Warn("cache key failed", "err", err)
		return g.Inner.Generate(ctx, d)
	}

	if data, ok, err := g.Cache.Get(ctx, key); err != nil {
		g.logger().Warn("cache read failed", "key", key, "err", err)
	} else if ok {
		if comps, err := scene.Unmarshal(data); err == nil {
			g.logger().Debug("generation cache hit", "key", key)
			return comps, nil
		}
		g.logger().Warn("dropping unreadable cache entry", "key", key)
		_ = g.Cache.Delete(ctx, key)
	}

	comps, err := g.Inner.Generate(ctx, d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := scene.Encode(&buf, comps); err == nil {
		if err := g.Cache.Set(ctx, key, buf.Bytes(), g.TTL); err != nil {
			g.logger().Warn("cache write failed", "key", key, "err", err)
		}
	}
	return comps, nil
}
