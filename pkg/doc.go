// Package pkg provides the core libraries for critlens trace analysis.
//
// # Overview
//
// Critlens turns a flat recording of page-load network requests into the
// forest of rendering-critical request chains: the unbroken dependency
// paths from the root document through the requests that block first
// paint. The pkg directory is organized into these areas:
//
//  1. [trace] - Request records, parsing, and the request registry
//  2. [critical] - Criticality classification, redirect collapsing, and
//     forest assembly
//  3. [render] - Output sinks (JSON report, DOT/SVG/PNG, text tree)
//  4. [pipeline] - Orchestration (load → assemble → render) with caching
//  5. [cache] - Cache backends (file, Redis, MongoDB) and key derivation
//
// # Architecture
//
// The typical data flow through critlens:
//
//	Recorded trace (file / stdin / URL)
//	         ↓
//	    [trace] package (decode records, build registry)
//	         ↓
//	    [critical] package (classify, collapse redirects, assemble forest)
//	         ↓
//	    [render] package (report generation)
//	         ↓
//	    JSON/DOT/SVG/PNG/text output
//
// # Quick Start
//
// Assemble the forest from recorded requests and print the report:
//
//	import (
//	    "os"
//	    "github.com/critlens/critlens/pkg/critical"
//	    "github.com/critlens/critlens/pkg/trace"
//	)
//
//	records, _ := trace.ReadRecordsFile("page-load.json")
//	forest, _ := critical.Assemble(records)
//	_ = critical.WriteJSON(forest, os.Stdout)
//
// Or run the full cached pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Trace:   "page-load.json",
//	    Formats: []string{"json", "svg"},
//	})
//
// # Main Packages
//
// [trace] - The request record model: resource types, priorities,
// initiators, redirect links, and timing. Decodes recorder output and
// validates it into a [trace.Registry] with a unique root document.
//
// [critical] - The analysis core. Classifies each request as
// rendering-critical or not, collapses redirect hops into chains, and
// assembles the dependency forest in which every node's parent chain is
// unbroken back to the root.
//
// [render] - Report sinks: the nested JSON report, Graphviz DOT with
// embedded SVG/PNG rendering, and an indented text tree for terminals.
//
// [pipeline] - The load → assemble → render Runner shared by the CLI and
// the HTTP server, with per-stage caching and request deduplication.
//
// [cache] - Cache interface and backends (file for CLI, Redis and MongoDB
// for server deployments) plus stable cache key derivation.
//
// [httputil] - Retry with backoff for remote trace fetching.
//
// [errors] - Structured error codes shared across components.
//
// [observability] - Hook points for instrumenting pipeline, cache, and
// HTTP operations.
//
// [trace]: https://pkg.go.dev/github.com/critlens/critlens/pkg/trace
// [trace.Registry]: https://pkg.go.dev/github.com/critlens/critlens/pkg/trace#Registry
// [critical]: https://pkg.go.dev/github.com/critlens/critlens/pkg/critical
// [render]: https://pkg.go.dev/github.com/critlens/critlens/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/critlens/critlens/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/critlens/critlens/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/critlens/critlens/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/critlens/critlens/pkg/errors
// [observability]: https://pkg.go.dev/github.com/critlens/critlens/pkg/observability
package pkg
