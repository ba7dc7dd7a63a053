package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/critlens/critlens/pkg/pipeline"
)

// textualFormats are formats that are sensible to print to stdout when no
// output path is given.
var textualFormats = map[string]bool{
	pipeline.FormatJSON: true,
	pipeline.FormatDOT:  true,
	pipeline.FormatText: true,
}

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string // trace path, used to derive output names
	output    string // explicit output path or base path
	cacheHit  bool
}

// writeArtifacts writes rendered artifacts to files, or to stdout when a
// single textual format was requested without an output path.
func writeArtifacts(p artifactWriteParams) error {
	if len(p.formats) == 1 && p.output == "" && textualFormats[p.formats[0]] {
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return err
	}

	base := basePath(p.output, p.input)
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}

		path := p.output
		if len(p.formats) > 1 || path == "" {
			path = base + "." + formatExt(format)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// formatExt maps a pipeline format to its file extension.
func formatExt(format string) string {
	if format == pipeline.FormatText {
		return "txt"
	}
	return format
}

// basePath derives the base output path from the output and input file
// paths. If output is empty, it strips the extension from input ("-" for
// stdin becomes "chains"). If output has a format extension, that
// extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "chains"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] || ext == "txt" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}
