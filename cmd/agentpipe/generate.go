package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
	"github.com/backpack455/hack-mit-sub000/internal/orchestrator"
	"github.com/backpack455/hack-mit-sub000/internal/tui"
)

var (
	generateJSON  bool
	generateStdin bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Propose tasks from the context document and match them to agents",
	Long: `Read the current context document, ask the model for follow-up tasks and
bind each task to the best agent in the catalog.

The set is saved to the journal so later commands can execute its ids.
If anything fails, a fixed set of fallback recommendations is produced.

Examples:
  agentpipe generate
  agentpipe generate --json
  pbpaste | agentpipe generate --stdin`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate recommendations, replacing the current set",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, refreshCmd} {
		c.Flags().BoolVar(&generateJSON, "json", false, "Print the recommendation set as JSON")
		c.Flags().BoolVar(&generateStdin, "stdin", false, "Read the context document from stdin")
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var opts appOptions
	if generateStdin {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, cfg.Context.MaxBytes))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		opts.source = contextdoc.StaticSource{Name: "stdin", Text: string(data)}
	}

	a, err := newApp(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer a.close()

	out := a.orch.Generate(ctx)
	if generateJSON {
		return printJSON(out.Set)
	}
	printOutcome(out)
	return nil
}

func printOutcome(out orchestrator.GenerationOutcome) {
	if out.Err != nil {
		printStatus("⚠", fmt.Sprintf("Generation failed (%s), showing fallback recommendations", out.Err.Stage), color.FgYellow)
		printStatus(" ", out.Err.Error(), color.FgYellow)
	}
	if out.Stale {
		printStatus("⚠", "A newer generation replaced this one", color.FgYellow)
	}
	fmt.Println(tui.RenderSet(out.Set))
}
