package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/pipeline"
	"github.com/critlens/critlens/pkg/render"
)

// chainsCommand creates the chains command: an interactive browser over
// the assembled forest.
func (c *CLI) chainsCommand() *cobra.Command {
	var (
		traceURL string
		plain    bool
		noCache  bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "chains [trace.json]",
		Short: "Browse the critical request chains interactively",
		Long: `Browse the critical request chains interactively.

Assembles the forest from the trace and opens a terminal browser over the
chains. Use --plain to print the indented tree instead (also the behavior
when stdout is not a terminal).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Trace = args[0]
			}
			opts.TraceURL = traceURL
			return c.runChains(cmd.Context(), opts, plain, noCache)
		},
	}

	cmd.Flags().StringVar(&traceURL, "url", "", "fetch the trace from a URL instead of a file")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the chain tree instead of the interactive browser")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cache")
	cmd.Flags().IntVar(&opts.MaxRequests, "max-requests", 0, "maximum records to analyze (0 = default)")

	return cmd
}

func (c *CLI) runChains(ctx context.Context, opts pipeline.Options, plain, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	records, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load trace: %w", err)
	}
	forest, err := runner.Assemble(ctx, records, opts)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	prog.done(fmt.Sprintf("assembled %d chains", critical.Summarize(forest).ChainCount))

	if plain || !isTerminal(os.Stdout) {
		_, err := os.Stdout.Write(render.Text(forest))
		return err
	}

	model := NewChainListModel(forest)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
