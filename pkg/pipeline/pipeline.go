// Package pipeline provides the core analysis pipeline for critlens.
//
// This package implements the complete load → assemble → render pipeline
// that can be used by CLI and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read recorded network requests from a file, stdin, or a URL
//  2. Assemble: Build the critical request forest from the records
//  3. Render: Generate output in various formats (JSON, DOT, SVG, PNG, text)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Trace:   "page-load.json",
//	    Formats: []string{"json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report := result.Artifacts["json"]
//
// Run individual stages:
//
//	// Load only
//	records, err := runner.Load(ctx, opts)
//
//	// Assemble with existing records
//	forest, err := runner.Assemble(ctx, records, opts)
//
//	// Render with existing forest
//	artifacts, err := runner.Render(ctx, forest, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/critlens/critlens/pkg/cache"
	"github.com/critlens/critlens/pkg/critical"
	apperrors "github.com/critlens/critlens/pkg/errors"
)

// DefaultMaxRequests is the maximum number of records the pipeline feeds
// the assembler. Recorders occasionally emit traces with tens of thousands
// of requests (long-lived pages with polling); the cap keeps memory use
// predictable. Callers can override by setting MaxRequests explicitly.
const DefaultMaxRequests = 5000

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatText = "text"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatText: true,
}

// Options contains all configuration for the analysis pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Trace and TraceURL must be set:
	// Trace is a local file path ("-" reads stdin), TraceURL fetches the
	// recording over HTTP.
	Trace    string `json:"trace,omitempty"`
	TraceURL string `json:"trace_url,omitempty"`

	// Assemble options
	MaxRequests int `json:"max_requests,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh bypasses the cache for every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Forest is the assembled critical request forest.
	Forest critical.Forest

	// ForestHash is the content hash of the serialized forest.
	ForestHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount  int
	NodeCount    int
	LoadTime     time.Duration
	AssembleTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit     bool // Whether the remote trace came from cache
	AssembleHit bool // Whether the assembled forest came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, text)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading records.
func (o *Options) ValidateForLoad() error {
	if o.Trace == "" && o.TraceURL == "" {
		return fmt.Errorf("trace or trace_url is required")
	}
	if o.Trace != "" && o.TraceURL != "" {
		return fmt.Errorf("trace and trace_url are mutually exclusive")
	}
	if o.Trace != "" {
		if err := apperrors.ValidateTracePath(o.Trace); err != nil {
			return err
		}
	}
	if o.TraceURL != "" {
		if err := apperrors.ValidateURL(o.TraceURL); err != nil {
			return err
		}
	}

	if o.MaxRequests == 0 {
		o.MaxRequests = DefaultMaxRequests
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Source describes where the trace comes from, for logging and hooks.
func (o *Options) Source() string {
	if o.TraceURL != "" {
		return o.TraceURL
	}
	if o.Trace == "-" {
		return "stdin"
	}
	return o.Trace
}

// ForestKeyOpts returns cache key options for forest assembly.
func (o *Options) ForestKeyOpts() cache.ForestKeyOpts {
	return cache.ForestKeyOpts{
		MaxRequests: o.MaxRequests,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
