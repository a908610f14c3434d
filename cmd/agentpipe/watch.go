package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate recommendations whenever the context document changes",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", contextdoc.DefaultDebounce, "Quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	path := resolvePath(a.root, cfg.Context.Path)
	w, err := contextdoc.NewWatcher(path, watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("watch context: %w", err)
	}
	go w.Run(ctx)

	printStatus("●", "Watching "+path+" (Ctrl+C to stop)", color.FgCyan)
	printOutcome(a.orch.Generate(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Changes():
			if !ok {
				return nil
			}
			logger.Info("context changed", zap.String("file", name))
			printStatus("↻", "Context changed: "+name, color.FgCyan)
			printOutcome(a.orch.Refresh(ctx))
		}
	}
}

