package render

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/trace"
)

// Options configures DOT rendering of a chain forest.
type Options struct {
	// Detailed includes resource type, priority, and duration in node
	// labels. When false, only the shortened URL is shown.
	Detailed bool
}

// ToDOT converts a chain forest to Graphviz DOT format.
// The resulting DOT string can be rendered with [SVG] or [PNG].
//
// The root document is rendered with a doubled outline; redirect hops
// (requests that forwarded to another URL) get a dashed outline and grey
// fill to distinguish them from resources that actually answered.
func ToDOT(f critical.Forest, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph chains {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rootIDs := make(map[string]bool, len(f))
	for _, id := range f.RootIDs() {
		rootIDs[id] = true
	}

	f.Walk(func(n *critical.ChainNode, depth int) {
		label := fmtLabel(n.Request, opts.Detailed)
		attrs := fmtAttrs(n.Request, label, rootIDs[n.Request.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Request.ID, strings.Join(attrs, ", "))
	})

	buf.WriteString("\n")
	f.Walk(func(n *critical.ChainNode, depth int) {
		for _, id := range n.ChildIDs() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Request.ID, id)
		}
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(rec *trace.RequestRecord, detailed bool) string {
	name := shortURL(rec.URL)
	if !detailed {
		return name
	}

	parts := []string{
		fmt.Sprintf("type: %s", rec.ResourceType),
		fmt.Sprintf("priority: %s", rec.Priority),
	}
	if d := rec.Duration(); d > 0 {
		parts = append(parts, fmt.Sprintf("duration: %.0fms", d))
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(rec *trace.RequestRecord, label string, isRoot bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case isRoot:
		attrs = append(attrs, "peripheries=2")
	case rec.IsRedirect():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// shortURL compresses a URL to host + last path component for labels.
func shortURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return u.Host
	}
	return u.Host + "/…/" + base
}

// SVG renders a DOT graph to SVG using the embedded Graphviz engine.
func SVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG, normalizeViewBox)
}

// PNG renders a DOT graph to PNG using the embedded Graphviz engine.
func PNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG, nil)
}

func renderFormat(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element so the viewBox starts at
// the origin, which keeps downstream embedding simple.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
