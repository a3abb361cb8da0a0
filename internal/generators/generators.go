// Package generators turns profile fields and vendor context into typed
// enrichment artifacts. Every generator is one gateway call guarded by a JSON
// schema; anything that fails validation degrades to a typed fallback.
package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// FallbackRecorder counts generators that returned their typed default.
type FallbackRecorder interface {
	Fallback(generator string)
}

type trackerKey struct{}

// FallbackTracker collects the names of generators that degraded during one request.
type FallbackTracker struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// TrackFallbacks attaches a fresh tracker to ctx.
func TrackFallbacks(ctx context.Context) (context.Context, *FallbackTracker) {
	t := &FallbackTracker{names: map[string]struct{}{}}
	return context.WithValue(ctx, trackerKey{}, t), t
}

func (t *FallbackTracker) add(name string) {
	t.mu.Lock()
	t.names[name] = struct{}{}
	t.mu.Unlock()
}

func track(ctx context.Context, name string) {
	if t, ok := ctx.Value(trackerKey{}).(*FallbackTracker); ok {
		t.add(name)
	}
}

// Names returns the degraded generators in sorted order.
func (t *FallbackTracker) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.names))
	for name := range t.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Generators bundles every LLM-backed generator behind one gateway.
type Generators struct {
	gen       ports.JSONGenerator
	logger    *slog.Logger
	fallbacks FallbackRecorder
}

// New wires the gateway; logger and recorder may be nil.
func New(gen ports.JSONGenerator, logger *slog.Logger, fallbacks FallbackRecorder) *Generators {
	return &Generators{gen: gen, logger: logger, fallbacks: fallbacks}
}

// generate runs one gateway call and decodes the result through schema.
// ok is false when the fallback was returned.
func generate[T any](ctx context.Context, g *Generators, s domain.RequestSettings, name string, schema *gojsonschema.Schema, req ports.JSONRequest, fallback T) (T, bool) {
	if g == nil || g.gen == nil {
		track(ctx, name)
		return fallback, false
	}
	fallbackRaw, err := json.Marshal(fallback)
	if err != nil {
		g.degrade(ctx, name, err.Error())
		return fallback, false
	}

	raw, ok := g.gen.GenerateJSON(ctx, s, req, string(fallbackRaw))
	if !ok {
		g.degrade(ctx, name, "gateway fallback")
		return fallback, false
	}

	var out T
	if err := decode(schema, raw, &out); err != nil {
		g.degrade(ctx, name, err.Error())
		return fallback, false
	}
	if s.Debug && g.logger != nil {
		g.logger.Debug("generator decoded", "generator", name, "bytes", len(raw))
	}
	return out, true
}

func (g *Generators) degrade(ctx context.Context, name, reason string) {
	track(ctx, name)
	if g.logger != nil {
		g.logger.Warn("generator fell back", "generator", name, "reason", reason)
	}
	if g.fallbacks != nil {
		g.fallbacks.Fallback(name)
	}
}

func decode[T any](schema *gojsonschema.Schema, raw string, out *T) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("schema mismatch: %s", strings.Join(errs, "; "))
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("generators: invalid schema: %v", err))
	}
	return schema
}

func marshal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// cleanList trims entries, drops empties, clips each to maxLen runes (0 = no clip) and caps at n.
func cleanList(items []string, n, maxLen int) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if maxLen > 0 {
			it = domain.Truncate(it, maxLen)
		}
		out = append(out, it)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinFirst(items []string, n int) string {
	return orDash(strings.Join(cleanList(items, n, 0), "; "))
}
