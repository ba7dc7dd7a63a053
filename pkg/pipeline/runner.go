package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/critlens/critlens/pkg/cache"
	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/observability"
	"github.com/critlens/critlens/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; concurrent executions over the same
// cache key are collapsed into a single computation.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	group singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → assemble → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	records, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	records = capRecords(records, opts.MaxRequests)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordCount = len(records)
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded trace",
		"source", opts.Source(),
		"records", len(records),
		"duration", result.Stats.LoadTime)

	// Stage 2: Assemble
	assembleStart := time.Now()
	forest, assembleHit, err := r.AssembleWithCacheInfo(ctx, records, opts)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	result.Forest = forest
	result.Stats.AssembleTime = time.Since(assembleStart)
	result.Stats.NodeCount = forest.NodeCount()
	result.CacheInfo.AssembleHit = assembleHit

	// Compute forest hash for cache keys and API responses
	if forestData, err := critical.MarshalJSON(forest); err == nil {
		result.ForestHash = cache.Hash(forestData)
	}

	r.Logger.Info("assembled forest",
		"nodes", result.Stats.NodeCount,
		"chains", critical.Summarize(forest).ChainCount,
		"duration", result.Stats.AssembleTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, forest, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads trace records with caching and returns cache hit
// info. Local files and stdin are never cached; remote traces are cached by
// URL for [cache.TTLHTTP].
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) ([]trace.RequestRecord, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Source())
	start := time.Now()

	records, hit, err := r.load(ctx, opts)
	hooks.OnLoadComplete(ctx, opts.Source(), len(records), time.Since(start), err)
	return records, hit, err
}

func (r *Runner) load(ctx context.Context, opts Options) ([]trace.RequestRecord, bool, error) {
	if opts.TraceURL == "" {
		records, err := loadLocal(opts.Trace)
		return records, false, err
	}

	cacheKey := r.Keyer.HTTPKey("trace", cache.Hash([]byte(opts.TraceURL)))
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			records, err := decodeTrace(data)
			if err == nil {
				cacheHooks.OnCacheHit(ctx, "trace")
				return records, true, nil // Cache hit
			}
		}
	}
	cacheHooks.OnCacheMiss(ctx, "trace")

	data, err := fetchTrace(ctx, opts.TraceURL)
	if err != nil {
		return nil, false, err
	}
	records, err := decodeTrace(data)
	if err != nil {
		return nil, false, err
	}

	_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLHTTP)
	cacheHooks.OnCacheSet(ctx, "trace", len(data))
	return records, false, nil // Cache miss
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) ([]trace.RequestRecord, error) {
	records, _, err := r.LoadWithCacheInfo(ctx, opts)
	return records, err
}

// AssembleWithCacheInfo builds the critical request forest with caching and
// returns cache hit info. Concurrent calls with the same cache key are
// collapsed: only one assembly runs, and every caller receives its result.
func (r *Runner) AssembleWithCacheInfo(ctx context.Context, records []trace.RequestRecord, opts Options) (critical.Forest, bool, error) {
	if opts.MaxRequests == 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	r.applyLogger(&opts)
	records = capRecords(records, opts.MaxRequests)

	hooks := observability.Pipeline()
	hooks.OnAssembleStart(ctx, len(records))
	start := time.Now()

	traceHash, err := hashRecords(records)
	if err != nil {
		hooks.OnAssembleComplete(ctx, 0, time.Since(start), err)
		return nil, false, err
	}
	cacheKey := r.Keyer.ForestKey(traceHash, opts.ForestKeyOpts())

	type assembled struct {
		forest critical.Forest
		hit    bool
	}
	v, err, _ := r.group.Do(cacheKey, func() (any, error) {
		cacheHooks := observability.Cache()
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				forest, err := critical.UnmarshalForest(data)
				if err == nil {
					cacheHooks.OnCacheHit(ctx, "forest")
					return assembled{forest, true}, nil // Cache hit
				}
			}
		}
		cacheHooks.OnCacheMiss(ctx, "forest")

		forest, err := critical.Assemble(records)
		if err != nil {
			return nil, err
		}

		if data, err := critical.MarshalJSON(forest); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLForest)
			cacheHooks.OnCacheSet(ctx, "forest", len(data))
		}
		return assembled{forest, false}, nil // Cache miss
	})
	if err != nil {
		hooks.OnAssembleComplete(ctx, 0, time.Since(start), err)
		return nil, false, err
	}

	a := v.(assembled)
	hooks.OnAssembleComplete(ctx, a.forest.NodeCount(), time.Since(start), nil)
	return a.forest, a.hit, nil
}

// Assemble is a convenience wrapper that calls AssembleWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Assemble(ctx context.Context, records []trace.RequestRecord, opts Options) (critical.Forest, error) {
	forest, _, err := r.AssembleWithCacheInfo(ctx, records, opts)
	return forest, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, forest critical.Forest, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, hit, err := r.render(ctx, forest, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, forest critical.Forest, opts Options) (map[string][]byte, bool, error) {
	// Compute cache key from the serialized forest
	forestData, err := critical.MarshalJSON(forest)
	if err != nil {
		return nil, false, fmt.Errorf("serialize forest for cache key: %w", err)
	}
	forestHash := cache.Hash(forestData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	allCached := !opts.Refresh
	cacheHooks := observability.Cache()

	if allCached {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(forestHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				cacheHooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				cacheHooks.OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := renderArtifacts(forest, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(forestHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, forest critical.Forest, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, forest, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// hashRecords computes the content hash identifying a record list.
func hashRecords(records []trace.RequestRecord) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("serialize records for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
