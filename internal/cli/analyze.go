package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critlens/critlens/pkg/critical"
	apperrors "github.com/critlens/critlens/pkg/errors"
	"github.com/critlens/critlens/pkg/pipeline"
)

// analyzeCommand creates the analyze command: the full load → assemble →
// render pipeline.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		formatsStr string
		traceURL   string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "analyze [trace.json]",
		Short: "Build the critical request forest from a recorded trace",
		Long: `Build the critical request forest from a recorded trace.

The trace is a JSON list of network request records as emitted by the
page-load recorder (a bare array or a {"records": [...]} envelope). Pass a
file path, "-" to read stdin, or --url to fetch the trace over HTTP.

The assembled forest contains only unbroken chains of rendering-critical
requests rooted at the main document. Results are cached locally for
faster subsequent runs.

Examples:
  critlens analyze page-load.json                 # JSON report to stdout
  critlens analyze page-load.json -f text         # indented chain tree
  critlens analyze page-load.json -f svg -o out.svg
  critlens analyze --url https://traces.internal/run-42.json -f json,dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Trace = args[0]
			}
			opts.TraceURL = traceURL
			if formatsStr == "" && len(c.Config.Formats) > 0 {
				opts.Formats = c.Config.Formats
			} else {
				opts.Formats = parseFormats(formatsStr)
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVar(&traceURL, "url", "", "fetch the trace from a URL instead of a file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png, text (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include type, priority, and timing in graph labels")
	cmd.Flags().IntVar(&opts.MaxRequests, "max-requests", 0, "maximum records to analyze (0 = default)")

	return cmd
}

// runAnalyze executes the pipeline and writes the artifacts.
func (c *CLI) runAnalyze(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if output != "" {
		if err := apperrors.ValidateOutputPath(output); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s...", opts.Source()))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return fmt.Errorf("analyze: %w", err)
	}
	spinner.Stop()

	// Keep stdout clean when the report itself goes there.
	toStdout := len(opts.Formats) == 1 && output == "" && textualFormats[opts.Formats[0]]
	if !toStdout {
		stats := critical.Summarize(result.Forest)
		printStats(stats.NodeCount, stats.ChainCount, result.CacheInfo.AssembleHit)
	}

	return writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Trace,
		output:    output,
		cacheHit:  result.CacheInfo.RenderHit,
	})
}
