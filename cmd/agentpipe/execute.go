package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/tui"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

var executeJSON bool

var executeCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "Run a recommendation with its agent",
	Long: `Execute the recommendation with the given id from the current set.

Without a current set, one is generated first. Unknown ids run the closest
matching recommendation. The result is stored under the id you passed.

Examples:
  agentpipe execute rec_1_find_research_papers
  agentpipe execute fallback_search --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		res := a.orch.Execute(cmd.Context(), args[0])
		return printResult(res, executeJSON)
	},
}

var resultJSON bool

var resultCmd = &cobra.Command{
	Use:   "result <id>",
	Short: "Show the stored result for an id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		res, ok := a.orch.Result(args[0])
		if !ok {
			return fmt.Errorf("no result for %s", args[0])
		}
		return printResult(res, resultJSON)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <id>",
	Short: "Show whether an id has not started, completed or failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		p := a.orch.Progress(args[0])
		fmt.Printf("%s: %s\n", p.ActionID, tui.RenderProgress(p))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored execution results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		a.orch.ClearResults()
		printStatus("✓", "Execution results cleared", color.FgGreen)
		return nil
	},
}

func init() {
	executeCmd.Flags().BoolVar(&executeJSON, "json", false, "Print the result as JSON")
	resultCmd.Flags().BoolVar(&resultJSON, "json", false, "Print the result as JSON")
}

func printResult(res models.ExecutionResult, asJSON bool) error {
	if asJSON {
		return printJSON(res)
	}
	fmt.Print(tui.RenderResult(res))
	if res.Failed() {
		return fmt.Errorf("execution of %s failed", res.ActionID)
	}
	return nil
}
