package pipeline

import (
	"fmt"

	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/render"
)

// renderArtifacts generates every requested format from an assembled forest.
// The DOT source is computed at most once and shared by the dot, svg, and
// png formats.
func renderArtifacts(f critical.Forest, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	dotSource := func() string {
		if dot == "" {
			dot = render.ToDOT(f, render.Options{Detailed: opts.Detailed})
		}
		return dot
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := render.JSON(f)
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			artifacts[format] = data
		case FormatDOT:
			artifacts[format] = []byte(dotSource())
		case FormatSVG:
			data, err := render.SVG(dotSource())
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := render.PNG(dotSource())
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		case FormatText:
			artifacts[format] = render.Text(f)
		default:
			return nil, ValidateFormat(format)
		}
	}
	return artifacts, nil
}
