package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/tui"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Browse and run recommendations in a terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	program := tui.NewPickerProgram(ctx, a.orch)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
