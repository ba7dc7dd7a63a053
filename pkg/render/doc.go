// Package render turns an assembled critical request forest into output
// artifacts.
//
// # Overview
//
// Three sinks are provided:
//
//   - JSON: the nested parent→children report structure plus chain
//     statistics, for programmatic consumers ([JSON]).
//   - DOT/Graphviz: a directed graph rendering of the chains for visual
//     inspection ([ToDOT], [SVG], [PNG]).
//   - Text: an indented chain tree with per-request durations for
//     terminal output ([Text]).
//
// All sinks are purely structural: criticality filtering happened during
// assembly, and rendering the same forest twice yields identical output.
//
// # Graphviz
//
// SVG and PNG rendering use the embedded Graphviz engine (goccy/go-graphviz)
// and require no external binaries.
//
//	dot := render.ToDOT(forest, render.Options{})
//	svg, err := render.SVG(dot)
package render
