// Package critical builds the critical request dependency forest from a
// recorded network trace.
//
// # Overview
//
// When a browser loads a page, some requests block rendering (the document
// itself, synchronous scripts, stylesheets) while others do not (images,
// prefetches, analytics beacons). Chains of blocking requests - a script
// that fetches a stylesheet that fetches a font - delay first paint by the
// sum of their latencies, which makes them the single most actionable
// signal in a loading audit.
//
// This package filters a flat [trace] record list down to those chains:
//
//  1. Classify each request as critical or not ([IsCritical]), a pure
//     per-record decision based on resource type, priority, frame, and
//     preload/favicon heuristics.
//  2. Collapse redirect hops into logical resources ([CollapseRedirects]),
//     so the output tree reflects resources, not wire-level hops.
//  3. Assemble the dependency forest ([Assemble]) by attaching each
//     surviving request under the request that initiated it, then pruning
//     every subtree that cannot be traced back to the root document through
//     an unbroken chain of critical requests.
//  4. Serialize the forest ([Serialize]) into the nested parent→children
//     shape consumed by reporting.
//
// # Determinism
//
// The forest is a pure function of the record list: nodes are created
// lazily on first reference from either side of an edge, so records may
// arrive in any order (an initiator may appear after its dependents) and
// forward and reversed inputs yield structurally identical forests.
//
// # Concurrency
//
// Each call to Assemble works on entities created fresh for that call and
// shares nothing; concurrent calls over independent inputs are safe.
// Deduplicating concurrent computations of the same input is the caller's
// concern (see the pipeline package).
package critical
